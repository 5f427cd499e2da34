package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	sqlite3 "modernc.org/sqlite/lib"
)

var _ interfaces.BookmarkRepository = (*bookmarkRepository)(nil)

type bookmarkRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func isBookmarkViolation(err error) bool {
	code := sqliteCode(err)
	if code != sqlite3.SQLITE_CONSTRAINT_UNIQUE && code != sqlite3.SQLITE_CONSTRAINT {
		return false
	}
	return strings.Contains(err.Error(), "bookmarks.user_id")
}

func (r *bookmarkRepository) Create(ctx context.Context, b *models.Bookmark) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookmarks (id, user_id, passage_id, created_at) VALUES (?, ?, ?, ?)`,
		b.ID, b.UserID, b.PassageID, formatTime(b.CreatedAt),
	)
	switch {
	case err == nil:
		return nil
	case isBookmarkViolation(err):
		return models.ErrAlreadyBookmarked
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: passage %s", models.ErrNotFound, b.PassageID)
	}
	r.logger.Error("Failed to create bookmark", zap.String("userID", b.UserID), zap.String("passageID", b.PassageID), zap.Error(err))
	return fmt.Errorf("create bookmark: %w", err)
}

func (r *bookmarkRepository) ListByUser(ctx context.Context, userID string) ([]*models.Bookmark, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.user_id, b.passage_id, p.name, p.story_id, b.created_at
		FROM bookmarks b
		LEFT JOIN passages p ON p.id = b.passage_id
		WHERE b.user_id = ?
		ORDER BY b.created_at DESC, b.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := make([]*models.Bookmark, 0)
	for rows.Next() {
		var (
			b         models.Bookmark
			createdAt string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.PassageID, &b.PassageName, &b.StoryID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		if b.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, &b)
	}
	return bookmarks, rows.Err()
}

func (r *bookmarkRepository) Delete(ctx context.Context, userID, passageID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE user_id = ? AND passage_id = ?`, userID, passageID)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}
