package service

import (
	"context"
	"errors"
	"fmt"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"

	"go.uber.org/zap"
)

// DefaultPassageNumberAttempts is used when the configured attempt count is
// not positive.
const DefaultPassageNumberAttempts = 3

// PassageNumberAllocator numbers new passages per story. The store's
// (story_id, passage_number) constraint decides races; reading the current
// maximum only picks the candidate.
type PassageNumberAllocator struct {
	passages    interfaces.PassageRepository
	maxAttempts int
	logger      *zap.Logger
}

func NewPassageNumberAllocator(passages interfaces.PassageRepository, maxAttempts int, logger *zap.Logger) *PassageNumberAllocator {
	if maxAttempts < 1 {
		maxAttempts = DefaultPassageNumberAttempts
	}
	return &PassageNumberAllocator{
		passages:    passages,
		maxAttempts: maxAttempts,
		logger:      logger.Named("PassageNumberAllocator"),
	}
}

// CreateWithNextNumber inserts p with passage_number = max + 1, retrying on
// collisions. Returns models.ErrNumberingConflict once attempts run out.
func (a *PassageNumberAllocator) CreateWithNextNumber(ctx context.Context, p *models.Passage) error {
	logFields := []zap.Field{zap.String("storyID", p.StoryID), zap.Int("maxAttempts", a.maxAttempts)}

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		current, err := a.passages.MaxPassageNumber(ctx, p.StoryID)
		if err != nil {
			passageNumberAllocationsTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("read current passage number: %w", err)
		}
		next := current + 1
		p.PassageNumber = &next

		err = a.passages.Create(ctx, p)
		if err == nil {
			passageNumberAllocationsTotal.WithLabelValues("success").Inc()
			a.logger.Debug("Passage number allocated", append(logFields, zap.Int("passageNumber", next), zap.Int("attempt", attempt))...)
			return nil
		}
		if !errors.Is(err, models.ErrPassageNumberTaken) {
			p.PassageNumber = nil
			passageNumberAllocationsTotal.WithLabelValues("error").Inc()
			return err
		}

		passageNumberAllocationsTotal.WithLabelValues("retry").Inc()
		a.logger.Info("Passage number taken by a concurrent writer, retrying",
			append(logFields, zap.Int("passageNumber", next), zap.Int("attempt", attempt))...)
	}

	p.PassageNumber = nil
	passageNumberAllocationsTotal.WithLabelValues("exhausted").Inc()
	a.logger.Warn("Passage number allocation exhausted", logFields...)
	return fmt.Errorf("%w: story %s after %d attempts", models.ErrNumberingConflict, p.StoryID, a.maxAttempts)
}
