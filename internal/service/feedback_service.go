package service

import (
	"context"
	"strings"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"

	"go.uber.org/zap"
)

const maxFeedbackLength = 5000

type feedbackServiceImpl struct {
	feedback interfaces.FeedbackRepository
	passages interfaces.PassageRepository
	logger   *zap.Logger
}

var _ interfaces.FeedbackService = (*feedbackServiceImpl)(nil)

func NewFeedbackService(repos interfaces.Repositories, logger *zap.Logger) interfaces.FeedbackService {
	return &feedbackServiceImpl{
		feedback: repos.Feedback,
		passages: repos.Passages,
		logger:   logger.Named("FeedbackService"),
	}
}

func (s *feedbackServiceImpl) ListThreads(ctx context.Context, passageID *string) ([]*models.Feedback, error) {
	rows, err := s.feedback.List(ctx, passageID)
	if err != nil {
		return nil, err
	}
	for _, f := range rows {
		f.Replies = make([]*models.Feedback, 0)
	}
	roots := buildTree(rows,
		func(f *models.Feedback) string { return f.ID },
		func(f *models.Feedback) *string { return f.ParentID },
		func(parent, child *models.Feedback) { parent.Replies = append(parent.Replies, child) },
	)
	// rows come oldest first; threads are listed newest first
	for i, j := 0, len(roots)-1; i < j; i, j = i+1, j-1 {
		roots[i], roots[j] = roots[j], roots[i]
	}
	return roots, nil
}

func validateFeedbackContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", invalidInput("feedback content is required")
	}
	if len(content) > maxFeedbackLength {
		return "", invalidInput("feedback content exceeds %d bytes", maxFeedbackLength)
	}
	return content, nil
}

func (s *feedbackServiceImpl) CreateFeedback(ctx context.Context, input models.FeedbackInput, userID *string) (*models.Feedback, error) {
	if input.ParentID != nil && *input.ParentID != "" {
		return s.Reply(ctx, *input.ParentID, input, userID)
	}
	content, err := validateFeedbackContent(input.Content)
	if err != nil {
		return nil, err
	}
	var passageID *string
	if input.PassageID != nil && *input.PassageID != "" {
		if _, err := s.passages.GetByID(ctx, *input.PassageID); err != nil {
			return nil, err
		}
		passageID = input.PassageID
	}
	return s.store(ctx, &models.Feedback{
		UserID:      userID,
		PassageID:   passageID,
		Content:     content,
		IsAnonymous: input.IsAnonymous,
	})
}

// Reply attaches to parentID and inherits its passage.
func (s *feedbackServiceImpl) Reply(ctx context.Context, parentID string, input models.FeedbackInput, userID *string) (*models.Feedback, error) {
	content, err := validateFeedbackContent(input.Content)
	if err != nil {
		return nil, err
	}
	parent, err := s.feedback.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return s.store(ctx, &models.Feedback{
		UserID:      userID,
		PassageID:   parent.PassageID,
		Content:     content,
		IsAnonymous: input.IsAnonymous,
		ParentID:    &parent.ID,
	})
}

func (s *feedbackServiceImpl) store(ctx context.Context, f *models.Feedback) (*models.Feedback, error) {
	if err := s.feedback.Create(ctx, f); err != nil {
		return nil, err
	}
	f.Replies = make([]*models.Feedback, 0)
	return f, nil
}

func (s *feedbackServiceImpl) DeleteFeedback(ctx context.Context, id, userID string, isAdmin bool) error {
	f, err := s.feedback.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin && (f.UserID == nil || *f.UserID != userID) {
		s.logger.Warn("Feedback deletion denied", zap.String("feedbackID", id), zap.String("userID", userID))
		return models.ErrForbidden
	}
	return s.feedback.Delete(ctx, id)
}
