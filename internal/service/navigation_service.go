package service

import (
	"context"
	"errors"
	"fmt"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"

	"go.uber.org/zap"
)

type navigationServiceImpl struct {
	stories  interfaces.StoryRepository
	passages interfaces.PassageRepository
	links    interfaces.LinkRepository
	cache    interfaces.PassageNumberCache
	logger   *zap.Logger
}

var _ interfaces.NavigationService = (*navigationServiceImpl)(nil)

// NewNavigationService builds the reader engine. cache may be nil.
func NewNavigationService(
	repos interfaces.Repositories,
	cache interfaces.PassageNumberCache,
	logger *zap.Logger,
) interfaces.NavigationService {
	return &navigationServiceImpl{
		stories:  repos.Stories,
		passages: repos.Passages,
		links:    repos.Links,
		cache:    cache,
		logger:   logger.Named("NavigationService"),
	}
}

func observe(operation string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, models.ErrInvalidNavigation):
		outcome = "invalid_navigation"
	case errors.Is(err, models.ErrInvalidReference):
		outcome = "invalid_reference"
	default:
		outcome = "error"
	}
	navigationRequestsTotal.WithLabelValues(operation, outcome).Inc()
}

func (s *navigationServiceImpl) GetStartPassage(ctx context.Context, storyID string) (passage *models.Passage, err error) {
	defer func() { observe("start", err) }()
	log := s.logger.With(zap.String("storyID", storyID))

	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}

	if story.StartPassageID != nil && *story.StartPassageID != "" {
		p, err := s.passages.GetByID(ctx, *story.StartPassageID)
		switch {
		case err == nil && p.StoryID == storyID:
			return p, nil
		case err == nil:
			log.Warn("Designated start passage belongs to another story, falling back",
				zap.String("startPassageID", *story.StartPassageID), zap.String("passageStoryID", p.StoryID))
		case errors.Is(err, models.ErrNotFound):
			log.Warn("Designated start passage is missing, falling back", zap.String("startPassageID", *story.StartPassageID))
		default:
			return nil, err
		}
	}

	p, err := s.passages.FindFirstStart(ctx, storyID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: story %s has no start passage", models.ErrNotFound, storyID)
		}
		return nil, err
	}
	return p, nil
}

func (s *navigationServiceImpl) GetPassageWithContext(ctx context.Context, passageID string, previousPassageID *string) (nc *models.NavigationContext, err error) {
	defer func() { observe("passage", err) }()
	return s.buildContext(ctx, passageID, previousPassageID)
}

func (s *navigationServiceImpl) buildContext(ctx context.Context, passageID string, previousPassageID *string) (*models.NavigationContext, error) {
	passage, err := s.passages.GetByID(ctx, passageID)
	if err != nil {
		return nil, err
	}
	links, err := s.links.ListBySource(ctx, passageID)
	if err != nil {
		return nil, fmt.Errorf("list outgoing links: %w", err)
	}

	visible := VisibleLinks(links, previousPassageID)
	return &models.NavigationContext{
		Passage:           passage,
		Links:             visible,
		PreviousPassageID: previousPassageID,
		// a passage whose links are all hidden is terminal too
		IsEnd: passage.PassageType == models.PassageTypeEnd || len(visible) == 0,
	}, nil
}

func (s *navigationServiceImpl) Navigate(ctx context.Context, currentPassageID, linkID string) (target string, err error) {
	defer func() { observe("navigate", err) }()
	return s.followLink(ctx, currentPassageID, linkID)
}

func (s *navigationServiceImpl) followLink(ctx context.Context, currentPassageID, linkID string) (string, error) {
	logFields := []zap.Field{zap.String("currentPassageID", currentPassageID), zap.String("linkID", linkID)}

	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("Navigation through unknown link", logFields...)
			return "", models.ErrLinkNotFound
		}
		return "", err
	}
	if link.SourcePassageID != currentPassageID {
		s.logger.Info("Navigation through link of another passage",
			append(logFields, zap.String("sourcePassageID", link.SourcePassageID))...)
		return "", models.ErrLinkSourceMismatch
	}
	return link.TargetPassageID, nil
}

func (s *navigationServiceImpl) NavigateWithContext(ctx context.Context, currentPassageID, linkID string) (nc *models.NavigationContext, err error) {
	defer func() { observe("navigate", err) }()
	target, err := s.followLink(ctx, currentPassageID, linkID)
	if err != nil {
		return nil, err
	}
	previous := currentPassageID
	return s.buildContext(ctx, target, &previous)
}

func (s *navigationServiceImpl) ResolveReference(ctx context.Context, storyID, reference string) (p *models.Passage, err error) {
	defer func() { observe("resolve", err) }()

	ref, err := models.ParsePassageReference(reference)
	if err != nil {
		return nil, err
	}
	if err := s.requireActiveStory(ctx, storyID); err != nil {
		return nil, err
	}
	if !ref.IsNumber() {
		return s.passages.FindByName(ctx, storyID, ref.Name)
	}
	return s.findByNumber(ctx, storyID, ref.Number)
}

func (s *navigationServiceImpl) ResolvePassageName(ctx context.Context, storyID, name string) (p *models.Passage, err error) {
	defer func() { observe("resolve_name", err) }()
	if name == "" {
		return nil, fmt.Errorf("%w: empty passage name", models.ErrInvalidReference)
	}
	if err := s.requireActiveStory(ctx, storyID); err != nil {
		return nil, err
	}
	return s.passages.FindByName(ctx, storyID, name)
}

func (s *navigationServiceImpl) requireActiveStory(ctx context.Context, storyID string) error {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return err
	}
	if !story.IsActive {
		return fmt.Errorf("%w: %s", models.ErrStoryInactive, storyID)
	}
	return nil
}

// findByNumber consults the cache first and trusts a hit only after the
// store confirms it.
func (s *navigationServiceImpl) findByNumber(ctx context.Context, storyID string, number int) (*models.Passage, error) {
	log := s.logger.With(zap.String("storyID", storyID), zap.Int("passageNumber", number))

	if s.cache != nil {
		id, found, err := s.cache.Get(ctx, storyID, number)
		if err != nil {
			log.Warn("Passage number cache lookup failed", zap.Error(err))
		} else if found {
			p, err := s.passages.GetByID(ctx, id)
			if err == nil && p.StoryID == storyID && p.PassageNumber != nil && *p.PassageNumber == number {
				return p, nil
			}
			if err != nil && !errors.Is(err, models.ErrNotFound) {
				return nil, err
			}
			log.Debug("Stale passage number cache entry", zap.String("cachedPassageID", id))
		}
	}

	p, err := s.passages.FindByNumber(ctx, storyID, number)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, storyID, number, p.ID); err != nil {
			log.Warn("Passage number cache write failed", zap.Error(err))
		}
	}
	return p, nil
}
