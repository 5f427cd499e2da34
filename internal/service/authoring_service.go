package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"

	"go.uber.org/zap"
)

type authoringServiceImpl struct {
	stories   interfaces.StoryRepository
	passages  interfaces.PassageRepository
	links     interfaces.LinkRepository
	allocator *PassageNumberAllocator
	cache     interfaces.PassageNumberCache
	logger    *zap.Logger
}

var _ interfaces.AuthoringService = (*authoringServiceImpl)(nil)

func NewAuthoringService(
	repos interfaces.Repositories,
	allocator *PassageNumberAllocator,
	cache interfaces.PassageNumberCache,
	logger *zap.Logger,
) interfaces.AuthoringService {
	return &authoringServiceImpl{
		stories:   repos.Stories,
		passages:  repos.Passages,
		links:     repos.Links,
		allocator: allocator,
		cache:     cache,
		logger:    logger.Named("AuthoringService"),
	}
}

func (s *authoringServiceImpl) invalidate(ctx context.Context, storyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateStory(ctx, storyID); err != nil {
		s.logger.Warn("Failed to invalidate passage number cache", zap.String("storyID", storyID), zap.Error(err))
	}
}

// --- Stories ---

func (s *authoringServiceImpl) CreateStory(ctx context.Context, input models.StoryInput, createdBy *string) (*models.Story, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, invalidInput("story name is required")
	}
	if input.Zoom != nil && *input.Zoom <= 0 {
		return nil, invalidInput("zoom must be positive")
	}
	if input.StartPassageID != nil && *input.StartPassageID != "" {
		// A new story has no passages yet.
		return nil, invalidInput("start_passage_id must reference a passage of this story")
	}

	sortOrder, err := s.stories.NextSortOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("next sort order: %w", err)
	}

	story := &models.Story{
		Name:      strings.TrimSpace(*input.Name),
		IsActive:  true,
		Zoom:      1,
		Tags:      []string{},
		SortOrder: sortOrder,
		CreatedBy: createdBy,
	}
	applyStoryInput(story, input)

	if err := s.stories.Create(ctx, story); err != nil {
		s.logger.Error("Failed to create story", zap.String("name", story.Name), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Story created", zap.String("storyID", story.ID), zap.Int("sortOrder", story.SortOrder))
	return story, nil
}

func applyStoryInput(story *models.Story, input models.StoryInput) {
	if input.Name != nil {
		story.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		story.Description = input.Description
	}
	if input.StartPassageID != nil {
		if *input.StartPassageID == "" {
			story.StartPassageID = nil
		} else {
			id := *input.StartPassageID
			story.StartPassageID = &id
		}
	}
	if input.IsActive != nil {
		story.IsActive = *input.IsActive
	}
	if input.Zoom != nil {
		story.Zoom = *input.Zoom
	}
	if input.Tags != nil {
		story.Tags = input.Tags
	}
}

func (s *authoringServiceImpl) GetStory(ctx context.Context, id string) (*models.Story, error) {
	return s.stories.GetByID(ctx, id)
}

func (s *authoringServiceImpl) ListStories(ctx context.Context, includeInactive bool) ([]*models.Story, error) {
	return s.stories.List(ctx, includeInactive)
}

func (s *authoringServiceImpl) UpdateStory(ctx context.Context, id string, input models.StoryInput) (*models.Story, error) {
	story, err := s.stories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, invalidInput("story name must not be empty")
	}
	if input.Zoom != nil && *input.Zoom <= 0 {
		return nil, invalidInput("zoom must be positive")
	}
	if input.StartPassageID != nil && *input.StartPassageID != "" {
		if err := s.requirePassageInStory(ctx, *input.StartPassageID, id, "start_passage_id"); err != nil {
			return nil, err
		}
	}

	applyStoryInput(story, input)
	if err := s.stories.Update(ctx, story); err != nil {
		s.logger.Error("Failed to update story", zap.String("storyID", id), zap.Error(err))
		return nil, err
	}
	return story, nil
}

func (s *authoringServiceImpl) DeleteStory(ctx context.Context, id string) error {
	if err := s.stories.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.logger.Info("Story deleted", zap.String("storyID", id))
	return nil
}

func (s *authoringServiceImpl) ReorderStories(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return invalidInput("story_ids must not be empty")
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return invalidInput("duplicate story id %s", id)
		}
		seen[id] = struct{}{}
	}
	return s.stories.Reorder(ctx, ids)
}

func (s *authoringServiceImpl) GetStoryStructure(ctx context.Context, id string) (*models.StoryStructure, error) {
	story, err := s.stories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	passages, err := s.passages.ListByStory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list passages: %w", err)
	}
	links, err := s.links.ListByStory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return &models.StoryStructure{Story: story, Passages: passages, Links: links}, nil
}

// --- Passages ---

func (s *authoringServiceImpl) requirePassageInStory(ctx context.Context, passageID, storyID, field string) error {
	p, err := s.passages.GetByID(ctx, passageID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return invalidInput("%s %s does not exist", field, passageID)
		}
		return err
	}
	if p.StoryID != storyID {
		return invalidInput("%s %s belongs to another story", field, passageID)
	}
	return nil
}

func validatePassage(p *models.Passage) error {
	if strings.TrimSpace(p.Name) == "" {
		return invalidInput("passage name is required")
	}
	if !p.PassageType.Valid() {
		return invalidInput("invalid passage_type %q", string(p.PassageType))
	}
	if p.Width <= 0 || p.Height <= 0 {
		return invalidInput("width and height must be positive")
	}
	return nil
}

func applyPassageInput(p *models.Passage, input models.PassageInput) {
	if input.Name != nil {
		p.Name = strings.TrimSpace(*input.Name)
	}
	if input.Content != nil {
		p.Content = *input.Content
	}
	if input.PassageType != nil {
		p.PassageType = *input.PassageType
	}
	if input.Tags != nil {
		p.Tags = input.Tags
	}
	if input.PositionX != nil {
		p.PositionX = *input.PositionX
	}
	if input.PositionY != nil {
		p.PositionY = *input.PositionY
	}
	if input.Width != nil {
		p.Width = *input.Width
	}
	if input.Height != nil {
		p.Height = *input.Height
	}
}

func (s *authoringServiceImpl) CreatePassage(ctx context.Context, storyID string, input models.PassageInput) (*models.Passage, error) {
	if _, err := s.stories.GetByID(ctx, storyID); err != nil {
		return nil, err
	}

	p := &models.Passage{
		StoryID:     storyID,
		PassageType: models.PassageTypeContent,
		Tags:        []string{},
		Width:       models.DefaultPassageWidth,
		Height:      models.DefaultPassageHeight,
	}
	applyPassageInput(p, input)
	if err := validatePassage(p); err != nil {
		return nil, err
	}

	if err := s.allocator.CreateWithNextNumber(ctx, p); err != nil {
		s.logger.Error("Failed to create passage", zap.String("storyID", storyID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Passage created",
		zap.String("storyID", storyID), zap.String("passageID", p.ID), zap.String("reference", p.Reference()))
	return p, nil
}

func (s *authoringServiceImpl) UpdatePassage(ctx context.Context, id string, input models.PassageInput) (*models.Passage, error) {
	p, err := s.passages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyPassageInput(p, input)
	if err := validatePassage(p); err != nil {
		return nil, err
	}
	if err := s.passages.Update(ctx, p); err != nil {
		s.logger.Error("Failed to update passage", zap.String("passageID", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (s *authoringServiceImpl) DeletePassage(ctx context.Context, id string) error {
	p, err := s.passages.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.passages.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, p.StoryID)
	s.logger.Info("Passage deleted", zap.String("storyID", p.StoryID), zap.String("passageID", id))
	return nil
}

// --- Links ---

func (s *authoringServiceImpl) validateLink(ctx context.Context, l *models.Link) error {
	if l.SourcePassageID == "" || l.TargetPassageID == "" {
		return invalidInput("source_passage_id and target_passage_id are required")
	}
	if err := s.requirePassageInStory(ctx, l.SourcePassageID, l.StoryID, "source_passage_id"); err != nil {
		return err
	}
	if _, err := s.passages.GetByID(ctx, l.TargetPassageID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return invalidInput("target_passage_id %s does not exist", l.TargetPassageID)
		}
		return err
	}
	return validateCondition(l.ConditionType, l.ConditionValue)
}

func applyLinkInput(l *models.Link, input models.LinkInput) {
	if input.SourcePassageID != nil {
		l.SourcePassageID = *input.SourcePassageID
	}
	if input.TargetPassageID != nil {
		l.TargetPassageID = *input.TargetPassageID
	}
	if input.Name != nil {
		l.Name = input.Name
	}
	if input.ConditionType != nil {
		l.ConditionType = *input.ConditionType
		if l.ConditionType != models.ConditionPreviousPassage {
			l.ConditionValue = nil
		}
	}
	if input.ConditionValue != nil {
		l.ConditionValue = input.ConditionValue
	}
	if input.LinkOrder != nil {
		l.LinkOrder = *input.LinkOrder
	}
}

func (s *authoringServiceImpl) CreateLink(ctx context.Context, storyID string, input models.LinkInput) (*models.Link, error) {
	if _, err := s.stories.GetByID(ctx, storyID); err != nil {
		return nil, err
	}
	l := &models.Link{StoryID: storyID, ConditionType: models.ConditionAlways}
	applyLinkInput(l, input)
	if err := s.validateLink(ctx, l); err != nil {
		return nil, err
	}
	if err := s.links.Create(ctx, l); err != nil {
		s.logger.Error("Failed to create link", zap.String("storyID", storyID), zap.Error(err))
		return nil, err
	}
	return l, nil
}

func (s *authoringServiceImpl) UpdateLink(ctx context.Context, id string, input models.LinkInput) (*models.Link, error) {
	l, err := s.links.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyLinkInput(l, input)
	if err := s.validateLink(ctx, l); err != nil {
		return nil, err
	}
	if err := s.links.Update(ctx, l); err != nil {
		s.logger.Error("Failed to update link", zap.String("linkID", id), zap.Error(err))
		return nil, err
	}
	return l, nil
}

func (s *authoringServiceImpl) DeleteLink(ctx context.Context, id string) error {
	return s.links.Delete(ctx, id)
}
