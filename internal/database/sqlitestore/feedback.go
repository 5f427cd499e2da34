package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ interfaces.FeedbackRepository = (*feedbackRepository)(nil)

type feedbackRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

const feedbackColumns = `id, user_id, passage_id, content, is_anonymous, parent_id, created_at, updated_at`

func scanFeedback(row scanner) (*models.Feedback, error) {
	var (
		f                    models.Feedback
		createdAt, updatedAt string
	)
	if err := row.Scan(&f.ID, &f.UserID, &f.PassageID, &f.Content, &f.IsAnonymous, &f.ParentID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if f.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if f.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *feedbackRepository) Create(ctx context.Context, f *models.Feedback) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	f.UpdatedAt = f.CreatedAt
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feedback (`+feedbackColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.PassageID, f.Content, f.IsAnonymous, f.ParentID,
		formatTime(f.CreatedAt), formatTime(f.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: feedback references a missing passage or parent", models.ErrInvalidInput)
		}
		r.logger.Error("Failed to create feedback", zap.String("feedbackID", f.ID), zap.Error(err))
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

func (r *feedbackRepository) GetByID(ctx context.Context, id string) (*models.Feedback, error) {
	f, err := scanFeedback(r.db.QueryRowContext(ctx, `SELECT `+feedbackColumns+` FROM feedback WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get feedback %s: %w", id, err)
	}
	return f, nil
}

func (r *feedbackRepository) List(ctx context.Context, passageID *string) ([]*models.Feedback, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+feedbackColumns+` FROM feedback
		 WHERE (? IS NULL OR passage_id = ?)
		 ORDER BY created_at ASC, id ASC`, passageID, passageID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Feedback, 0)
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *feedbackRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM feedback WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete feedback %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}
