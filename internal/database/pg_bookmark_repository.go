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

var _ interfaces.BookmarkRepository = (*pgBookmarkRepository)(nil)

const bookmarkConstraint = "uq_bookmarks_user_passage"

type pgBookmarkRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgBookmarkRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.BookmarkRepository {
	return &pgBookmarkRepository{
		db:     db,
		logger: logger.Named("PgBookmarkRepo"),
	}
}

const createBookmarkQuery = `
INSERT INTO bookmarks (id, user_id, passage_id, created_at)
VALUES ($1, $2, $3, $4)`

const listBookmarksByUserQuery = `
SELECT b.id, b.user_id, b.passage_id, p.name AS passage_name, p.story_id, b.created_at
FROM bookmarks b
LEFT JOIN passages p ON p.id = b.passage_id
WHERE b.user_id = $1
ORDER BY b.created_at DESC, b.id ASC`

const deleteBookmarkQuery = `DELETE FROM bookmarks WHERE user_id = $1 AND passage_id = $2`

func (r *pgBookmarkRepository) Create(ctx context.Context, b *models.Bookmark) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	logFields := []zap.Field{zap.String("userID", b.UserID), zap.String("passageID", b.PassageID)}

	_, err := r.db.Exec(ctx, createBookmarkQuery, b.ID, b.UserID, b.PassageID, b.CreatedAt)
	if err != nil {
		switch code, constraint := pgErrorCode(err); {
		case code == pgUniqueViolation && constraint == bookmarkConstraint:
			r.logger.Debug("Passage already bookmarked", logFields...)
			return models.ErrAlreadyBookmarked
		case code == pgForeignKeyViolation:
			r.logger.Warn("Bookmark references a missing passage", logFields...)
			return fmt.Errorf("%w: passage %s", models.ErrNotFound, b.PassageID)
		}
		r.logger.Error("Failed to create bookmark", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create bookmark: %w", err)
	}
	r.logger.Info("Bookmark created", logFields...)
	return nil
}

func (r *pgBookmarkRepository) ListByUser(ctx context.Context, userID string) ([]*models.Bookmark, error) {
	bookmarks := make([]*models.Bookmark, 0)
	if err := pgxscan.Select(ctx, r.db, &bookmarks, listBookmarksByUserQuery, userID); err != nil {
		r.logger.Error("Failed to list bookmarks", zap.String("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list bookmarks of user %s: %w", userID, err)
	}
	return bookmarks, nil
}

func (r *pgBookmarkRepository) Delete(ctx context.Context, userID, passageID string) error {
	tag, err := r.db.Exec(ctx, deleteBookmarkQuery, userID, passageID)
	if err != nil {
		r.logger.Error("Failed to delete bookmark", zap.String("userID", userID), zap.String("passageID", passageID), zap.Error(err))
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
