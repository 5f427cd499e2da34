package database

import (
	"context"
	"fmt"
	"time"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

var _ interfaces.StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	db     interfaces.DBTX
	txer   TxBeginner
	logger *zap.Logger
}

// NewPgStoryRepository builds the story repository. txer may be nil when db
// is already a transaction; Reorder then runs on db directly.
func NewPgStoryRepository(db interfaces.DBTX, txer TxBeginner, logger *zap.Logger) interfaces.StoryRepository {
	return &pgStoryRepository{
		db:     db,
		txer:   txer,
		logger: logger.Named("PgStoryRepo"),
	}
}

const storyColumns = `id, name, description, start_passage_id, is_active, zoom, tags, sort_order, created_by, created_at, updated_at`

const createStoryQuery = `
INSERT INTO stories (` + storyColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

const getStoryByIDQuery = `SELECT ` + storyColumns + ` FROM stories WHERE id = $1`

const listStoriesQuery = `
SELECT ` + storyColumns + ` FROM stories
WHERE is_active OR $1
ORDER BY sort_order ASC, created_at DESC`

const updateStoryQuery = `
UPDATE stories
SET name = $2, description = $3, start_passage_id = $4, is_active = $5, zoom = $6, tags = $7, updated_at = $8
WHERE id = $1`

const deleteStoryQuery = `DELETE FROM stories WHERE id = $1`

const nextSortOrderQuery = `SELECT COALESCE(MAX(sort_order), -1) + 1 FROM stories`

const setStorySortOrderQuery = `UPDATE stories SET sort_order = $2, updated_at = $3 WHERE id = $1`

func (r *pgStoryRepository) Create(ctx context.Context, story *models.Story) error {
	if story.ID == "" {
		story.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if story.CreatedAt.IsZero() {
		story.CreatedAt = now
	}
	story.UpdatedAt = story.CreatedAt
	if story.Tags == nil {
		story.Tags = []string{}
	}

	_, err := r.db.Exec(ctx, createStoryQuery,
		story.ID, story.Name, story.Description, story.StartPassageID, story.IsActive,
		story.Zoom, pq.Array(story.Tags), story.SortOrder, story.CreatedBy,
		story.CreatedAt, story.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create story", zap.String("storyID", story.ID), zap.Error(err))
		return fmt.Errorf("failed to create story: %w", err)
	}
	r.logger.Info("Story created", zap.String("storyID", story.ID))
	return nil
}

func (r *pgStoryRepository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	var story models.Story
	if err := pgxscan.Get(ctx, r.db, &story, getStoryByIDQuery, id); err != nil {
		if isNoRows(err) {
			r.logger.Debug("Story not found", zap.String("storyID", id))
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get story", zap.String("storyID", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get story %s: %w", id, err)
	}
	return &story, nil
}

func (r *pgStoryRepository) List(ctx context.Context, includeInactive bool) ([]*models.Story, error) {
	stories := make([]*models.Story, 0)
	if err := pgxscan.Select(ctx, r.db, &stories, listStoriesQuery, includeInactive); err != nil {
		r.logger.Error("Failed to list stories", zap.Error(err))
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

func (r *pgStoryRepository) Update(ctx context.Context, story *models.Story) error {
	story.UpdatedAt = time.Now().UTC()
	if story.Tags == nil {
		story.Tags = []string{}
	}
	tag, err := r.db.Exec(ctx, updateStoryQuery,
		story.ID, story.Name, story.Description, story.StartPassageID, story.IsActive,
		story.Zoom, pq.Array(story.Tags), story.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update story", zap.String("storyID", story.ID), zap.Error(err))
		return fmt.Errorf("failed to update story %s: %w", story.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgStoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, deleteStoryQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete story", zap.String("storyID", id), zap.Error(err))
		return fmt.Errorf("failed to delete story %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	r.logger.Info("Story deleted", zap.String("storyID", id))
	return nil
}

func (r *pgStoryRepository) NextSortOrder(ctx context.Context) (int, error) {
	var next int
	if err := r.db.QueryRow(ctx, nextSortOrderQuery).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to compute next sort order: %w", err)
	}
	return next, nil
}

func (r *pgStoryRepository) Reorder(ctx context.Context, ids []string) error {
	apply := func(ctx context.Context, db interfaces.DBTX) error {
		now := time.Now().UTC()
		for i, id := range ids {
			tag, err := db.Exec(ctx, setStorySortOrderQuery, id, i, now)
			if err != nil {
				return fmt.Errorf("failed to set sort order of story %s: %w", id, err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("story %s: %w", id, models.ErrNotFound)
			}
		}
		return nil
	}

	var err error
	if r.txer != nil {
		err = WithTransaction(ctx, r.txer, r.logger, apply)
	} else {
		err = apply(ctx, r.db)
	}
	if err != nil {
		r.logger.Warn("Story reorder rejected", zap.Strings("storyIDs", ids), zap.Error(err))
		return err
	}
	r.logger.Info("Stories reordered", zap.Int("count", len(ids)))
	return nil
}
