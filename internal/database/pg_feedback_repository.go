package database

import (
	"context"
	"fmt"
	"time"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ interfaces.FeedbackRepository = (*pgFeedbackRepository)(nil)

type pgFeedbackRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgFeedbackRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.FeedbackRepository {
	return &pgFeedbackRepository{
		db:     db,
		logger: logger.Named("PgFeedbackRepo"),
	}
}

const feedbackColumns = `id, user_id, passage_id, content, is_anonymous, parent_id, created_at, updated_at`

const createFeedbackQuery = `
INSERT INTO feedback (` + feedbackColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const getFeedbackByIDQuery = `SELECT ` + feedbackColumns + ` FROM feedback WHERE id = $1`

const listFeedbackQuery = `
SELECT ` + feedbackColumns + ` FROM feedback
WHERE ($1::text IS NULL OR passage_id = $1)
ORDER BY created_at ASC, id ASC`

const deleteFeedbackQuery = `DELETE FROM feedback WHERE id = $1`

func (r *pgFeedbackRepository) Create(ctx context.Context, f *models.Feedback) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = f.CreatedAt
	logFields := []zap.Field{zap.String("feedbackID", f.ID), zap.Stringp("passageID", f.PassageID), zap.Stringp("parentID", f.ParentID)}

	_, err := r.db.Exec(ctx, createFeedbackQuery,
		f.ID, f.UserID, f.PassageID, f.Content, f.IsAnonymous, f.ParentID, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			r.logger.Warn("Feedback references a missing passage or parent", logFields...)
			return fmt.Errorf("%w: feedback references a missing passage or parent", models.ErrInvalidInput)
		}
		r.logger.Error("Failed to create feedback", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	r.logger.Info("Feedback created", logFields...)
	return nil
}

func (r *pgFeedbackRepository) GetByID(ctx context.Context, id string) (*models.Feedback, error) {
	var f models.Feedback
	if err := pgxscan.Get(ctx, r.db, &f, getFeedbackByIDQuery, id); err != nil {
		if isNoRows(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get feedback", zap.String("feedbackID", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get feedback %s: %w", id, err)
	}
	return &f, nil
}

func (r *pgFeedbackRepository) List(ctx context.Context, passageID *string) ([]*models.Feedback, error) {
	rows := make([]*models.Feedback, 0)
	if err := pgxscan.Select(ctx, r.db, &rows, listFeedbackQuery, passageID); err != nil {
		r.logger.Error("Failed to list feedback", zap.Stringp("passageID", passageID), zap.Error(err))
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return rows, nil
}

func (r *pgFeedbackRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, deleteFeedbackQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete feedback", zap.String("feedbackID", id), zap.Error(err))
		return fmt.Errorf("failed to delete feedback %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	r.logger.Info("Feedback deleted", zap.String("feedbackID", id))
	return nil
}
