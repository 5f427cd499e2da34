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

var _ interfaces.StoryRepository = (*storyRepository)(nil)

type storyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

const storyColumns = `id, name, description, start_passage_id, is_active, zoom, tags, sort_order, created_by, created_at, updated_at`

func scanStory(row scanner) (*models.Story, error) {
	var (
		s                    models.Story
		tags                 string
		createdAt, updatedAt string
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &s.StartPassageID, &s.IsActive, &s.Zoom,
		&tags, &s.SortOrder, &s.CreatedBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if s.Tags, err = decodeTags(tags); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *storyRepository) Create(ctx context.Context, story *models.Story) error {
	if story.ID == "" {
		story.ID = uuid.NewString()
	}
	if story.CreatedAt.IsZero() {
		story.CreatedAt = time.Now().UTC()
	}
	story.UpdatedAt = story.CreatedAt
	if story.Tags == nil {
		story.Tags = []string{}
	}
	tags, err := encodeTags(story.Tags)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO stories (`+storyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		story.ID, story.Name, story.Description, story.StartPassageID, story.IsActive, story.Zoom,
		tags, story.SortOrder, story.CreatedBy, formatTime(story.CreatedAt), formatTime(story.UpdatedAt),
	)
	if err != nil {
		r.logger.Error("Failed to create story", zap.String("storyID", story.ID), zap.Error(err))
		return fmt.Errorf("create story: %w", err)
	}
	return nil
}

func (r *storyRepository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	s, err := scanStory(r.db.QueryRowContext(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get story %s: %w", id, err)
	}
	return s, nil
}

func (r *storyRepository) List(ctx context.Context, includeInactive bool) ([]*models.Story, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+storyColumns+` FROM stories WHERE is_active = 1 OR ? ORDER BY sort_order ASC, created_at DESC`,
		includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	stories := make([]*models.Story, 0)
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}

func (r *storyRepository) Update(ctx context.Context, story *models.Story) error {
	story.UpdatedAt = time.Now().UTC()
	tags, err := encodeTags(story.Tags)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE stories SET name = ?, description = ?, start_passage_id = ?, is_active = ?, zoom = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		story.Name, story.Description, story.StartPassageID, story.IsActive, story.Zoom, tags,
		formatTime(story.UpdatedAt), story.ID,
	)
	if err != nil {
		return fmt.Errorf("update story %s: %w", story.ID, err)
	}
	return requireAffected(res)
}

func (r *storyRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete story %s: %w", id, err)
	}
	return requireAffected(res)
}

func (r *storyRepository) NextSortOrder(ctx context.Context) (int, error) {
	var next int
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(sort_order), -1) + 1 FROM stories`).Scan(&next); err != nil {
		return 0, fmt.Errorf("next sort order: %w", err)
	}
	return next, nil
}

func (r *storyRepository) Reorder(ctx context.Context, ids []string) error {
	now := formatTime(time.Now())
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for i, id := range ids {
			res, err := tx.ExecContext(ctx, `UPDATE stories SET sort_order = ?, updated_at = ? WHERE id = ?`, i, now, id)
			if err != nil {
				return fmt.Errorf("set sort order of story %s: %w", id, err)
			}
			if err := requireAffected(res); err != nil {
				return fmt.Errorf("story %s: %w", id, err)
			}
		}
		return nil
	})
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
