package service

import (
	"context"
	"time"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DirectVisitRecorder writes visits straight to the store. It is used when
// no queue is configured, and by the queue consumer itself.
type DirectVisitRecorder struct {
	visits interfaces.VisitLogRepository
	logger *zap.Logger
}

var _ interfaces.VisitRecorder = (*DirectVisitRecorder)(nil)

func NewDirectVisitRecorder(visits interfaces.VisitLogRepository, logger *zap.Logger) *DirectVisitRecorder {
	return &DirectVisitRecorder{visits: visits, logger: logger.Named("DirectVisitRecorder")}
}

func (r *DirectVisitRecorder) RecordVisit(ctx context.Context, visit models.VisitEvent) error {
	if visit.ID == "" {
		visit.ID = uuid.NewString()
	}
	if visit.VisitedAt.IsZero() {
		visit.VisitedAt = time.Now().UTC()
	}
	if err := r.visits.Create(ctx, &visit); err != nil {
		visitsRecordedTotal.WithLabelValues("error").Inc()
		r.logger.Error("Failed to store visit",
			zap.String("visitID", visit.ID), zap.String("passageID", visit.PassageID), zap.Error(err))
		return err
	}
	visitsRecordedTotal.WithLabelValues("stored").Inc()
	return nil
}

// NewVisitEvent fills id and timestamp for a visit to passage.
func NewVisitEvent(passage *models.Passage, previousPassageID *string, userID *string) models.VisitEvent {
	return models.VisitEvent{
		ID:                uuid.NewString(),
		UserID:            userID,
		StoryID:           passage.StoryID,
		PassageID:         passage.ID,
		PreviousPassageID: previousPassageID,
		VisitedAt:         time.Now().UTC(),
	}
}
