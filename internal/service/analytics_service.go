package service

import (
	"context"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"
)

type analyticsServiceImpl struct {
	visits   interfaces.VisitLogRepository
	passages interfaces.PassageRepository
}

var _ interfaces.AnalyticsService = (*analyticsServiceImpl)(nil)

func NewAnalyticsService(repos interfaces.Repositories) interfaces.AnalyticsService {
	return &analyticsServiceImpl{visits: repos.Visits, passages: repos.Passages}
}

func (s *analyticsServiceImpl) Overview(ctx context.Context) (*models.StatsOverview, error) {
	return s.visits.Overview(ctx)
}

func (s *analyticsServiceImpl) PassageStats(ctx context.Context, storyID *string) ([]models.PassageVisitStat, error) {
	if storyID != nil && *storyID == "" {
		storyID = nil
	}
	return s.visits.CountPerPassage(ctx, storyID)
}

// PassageVisitCount returns models.ErrNotFound for an unknown passage rather
// than a zero count.
func (s *analyticsServiceImpl) PassageVisitCount(ctx context.Context, passageID string) (int, error) {
	if _, err := s.passages.GetByID(ctx, passageID); err != nil {
		return 0, err
	}
	return s.visits.CountByPassage(ctx, passageID)
}
