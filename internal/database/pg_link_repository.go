package database

import (
	"context"
	"fmt"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ interfaces.LinkRepository = (*pgLinkRepository)(nil)

type pgLinkRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgLinkRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.LinkRepository {
	return &pgLinkRepository{
		db:     db,
		logger: logger.Named("PgLinkRepo"),
	}
}

const linkColumns = `id, story_id, source_passage_id, target_passage_id, name, condition_type, condition_value, link_order`

const createLinkQuery = `
INSERT INTO links (` + linkColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const getLinkByIDQuery = `SELECT ` + linkColumns + ` FROM links WHERE id = $1`

// Equal link_order values fall back to id so the order is reproducible.
const listLinksBySourceQuery = `
SELECT ` + linkColumns + ` FROM links
WHERE source_passage_id = $1
ORDER BY link_order ASC, id ASC`

const listLinksByStoryQuery = `
SELECT ` + linkColumns + ` FROM links
WHERE story_id = $1
ORDER BY source_passage_id ASC, link_order ASC, id ASC`

const updateLinkQuery = `
UPDATE links
SET source_passage_id = $2, target_passage_id = $3, name = $4,
    condition_type = $5, condition_value = $6, link_order = $7
WHERE id = $1`

const upsertLinkQuery = `
INSERT INTO links (` + linkColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
    story_id = EXCLUDED.story_id,
    source_passage_id = EXCLUDED.source_passage_id,
    target_passage_id = EXCLUDED.target_passage_id,
    name = EXCLUDED.name,
    condition_type = EXCLUDED.condition_type,
    condition_value = EXCLUDED.condition_value,
    link_order = EXCLUDED.link_order
RETURNING (xmax = 0) AS inserted`

const deleteLinkQuery = `DELETE FROM links WHERE id = $1`

func linkLogFields(l *models.Link) []zap.Field {
	return []zap.Field{
		zap.String("linkID", l.ID),
		zap.String("sourcePassageID", l.SourcePassageID),
		zap.String("targetPassageID", l.TargetPassageID),
	}
}

func (r *pgLinkRepository) mapWriteError(err error, logFields []zap.Field) error {
	if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
		r.logger.Warn("Link references a missing story or passage", logFields...)
		return fmt.Errorf("%w: link references a missing story or passage", models.ErrInvalidInput)
	}
	r.logger.Error("Failed to write link", append(logFields, zap.Error(err))...)
	return fmt.Errorf("failed to write link: %w", err)
}

func (r *pgLinkRepository) Create(ctx context.Context, l *models.Link) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	logFields := linkLogFields(l)
	_, err := r.db.Exec(ctx, createLinkQuery,
		l.ID, l.StoryID, l.SourcePassageID, l.TargetPassageID, l.Name,
		l.ConditionType, l.ConditionValue, l.LinkOrder,
	)
	if err != nil {
		return r.mapWriteError(err, logFields)
	}
	r.logger.Info("Link created", logFields...)
	return nil
}

func (r *pgLinkRepository) GetByID(ctx context.Context, id string) (*models.Link, error) {
	var l models.Link
	if err := pgxscan.Get(ctx, r.db, &l, getLinkByIDQuery, id); err != nil {
		if isNoRows(err) {
			r.logger.Debug("Link not found", zap.String("linkID", id))
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get link", zap.String("linkID", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get link %s: %w", id, err)
	}
	return &l, nil
}

func (r *pgLinkRepository) ListBySource(ctx context.Context, sourcePassageID string) ([]*models.Link, error) {
	links := make([]*models.Link, 0)
	if err := pgxscan.Select(ctx, r.db, &links, listLinksBySourceQuery, sourcePassageID); err != nil {
		r.logger.Error("Failed to list outgoing links", zap.String("sourcePassageID", sourcePassageID), zap.Error(err))
		return nil, fmt.Errorf("failed to list links from passage %s: %w", sourcePassageID, err)
	}
	return links, nil
}

func (r *pgLinkRepository) ListByStory(ctx context.Context, storyID string) ([]*models.Link, error) {
	links := make([]*models.Link, 0)
	if err := pgxscan.Select(ctx, r.db, &links, listLinksByStoryQuery, storyID); err != nil {
		r.logger.Error("Failed to list story links", zap.String("storyID", storyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list links of story %s: %w", storyID, err)
	}
	return links, nil
}

func (r *pgLinkRepository) Update(ctx context.Context, l *models.Link) error {
	logFields := linkLogFields(l)
	tag, err := r.db.Exec(ctx, updateLinkQuery,
		l.ID, l.SourcePassageID, l.TargetPassageID, l.Name,
		l.ConditionType, l.ConditionValue, l.LinkOrder,
	)
	if err != nil {
		return r.mapWriteError(err, logFields)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgLinkRepository) Upsert(ctx context.Context, l *models.Link) (bool, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	logFields := linkLogFields(l)
	var inserted bool
	err := r.db.QueryRow(ctx, upsertLinkQuery,
		l.ID, l.StoryID, l.SourcePassageID, l.TargetPassageID, l.Name,
		l.ConditionType, l.ConditionValue, l.LinkOrder,
	).Scan(&inserted)
	if err != nil {
		return false, r.mapWriteError(err, logFields)
	}
	return inserted, nil
}

func (r *pgLinkRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, deleteLinkQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete link", zap.String("linkID", id), zap.Error(err))
		return fmt.Errorf("failed to delete link %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	r.logger.Info("Link deleted", zap.String("linkID", id))
	return nil
}
