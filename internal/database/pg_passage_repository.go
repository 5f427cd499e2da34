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

var _ interfaces.PassageRepository = (*pgPassageRepository)(nil)

type pgPassageRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgPassageRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.PassageRepository {
	return &pgPassageRepository{
		db:     db,
		logger: logger.Named("PgPassageRepo"),
	}
}

const passageColumns = `id, story_id, passage_number, name, content, passage_type, tags, position_x, position_y, width, height, created_at, updated_at`

// passageOrder puts unnumbered passages last and breaks ties by age then id.
const passageOrder = `ORDER BY passage_number ASC NULLS LAST, created_at ASC, id ASC`

const createPassageQuery = `
INSERT INTO passages (` + passageColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const getPassageByIDQuery = `SELECT ` + passageColumns + ` FROM passages WHERE id = $1`

const maxPassageNumberQuery = `SELECT COALESCE(MAX(passage_number), 0) FROM passages WHERE story_id = $1`

const findPassageByNumberQuery = `SELECT ` + passageColumns + ` FROM passages WHERE story_id = $1 AND passage_number = $2`

const findPassageByNameQuery = `
SELECT ` + passageColumns + ` FROM passages
WHERE story_id = $1 AND name = $2
` + passageOrder + `
LIMIT 1`

const findFirstStartPassageQuery = `
SELECT ` + passageColumns + ` FROM passages
WHERE story_id = $1 AND passage_type = 'start'
` + passageOrder + `
LIMIT 1`

const listPassagesByStoryQuery = `SELECT ` + passageColumns + ` FROM passages WHERE story_id = $1 ` + passageOrder

const updatePassageQuery = `
UPDATE passages
SET name = $2, content = $3, passage_type = $4, tags = $5,
    position_x = $6, position_y = $7, width = $8, height = $9, updated_at = $10
WHERE id = $1`

// xmax = 0 only for freshly inserted rows.
const upsertPassageQuery = `
INSERT INTO passages (` + passageColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO UPDATE SET
    story_id = EXCLUDED.story_id,
    passage_number = EXCLUDED.passage_number,
    name = EXCLUDED.name,
    content = EXCLUDED.content,
    passage_type = EXCLUDED.passage_type,
    tags = EXCLUDED.tags,
    position_x = EXCLUDED.position_x,
    position_y = EXCLUDED.position_y,
    width = EXCLUDED.width,
    height = EXCLUDED.height,
    updated_at = EXCLUDED.updated_at
RETURNING (xmax = 0) AS inserted`

const deletePassageQuery = `DELETE FROM passages WHERE id = $1`

func preparePassage(p *models.Passage) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.PassageType == "" {
		p.PassageType = models.PassageTypeContent
	}
}

func (r *pgPassageRepository) passageLogFields(p *models.Passage) []zap.Field {
	fields := []zap.Field{zap.String("passageID", p.ID), zap.String("storyID", p.StoryID)}
	if p.PassageNumber != nil {
		fields = append(fields, zap.Int("passageNumber", *p.PassageNumber))
	}
	return fields
}

// mapWriteError translates constraint violations into model errors.
func (r *pgPassageRepository) mapWriteError(err error, logFields []zap.Field) error {
	if isPassageNumberViolation(err) {
		r.logger.Debug("Passage number already taken", logFields...)
		return models.ErrPassageNumberTaken
	}
	switch code, _ := pgErrorCode(err); code {
	case pgForeignKeyViolation:
		r.logger.Warn("Passage references a missing story", logFields...)
		return fmt.Errorf("%w: story does not exist", models.ErrInvalidInput)
	case pgCheckViolation:
		r.logger.Warn("Passage violates a check constraint", append(logFields, zap.Error(err))...)
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	r.logger.Error("Failed to write passage", append(logFields, zap.Error(err))...)
	return fmt.Errorf("failed to write passage: %w", err)
}

func (r *pgPassageRepository) Create(ctx context.Context, p *models.Passage) error {
	preparePassage(p)
	logFields := r.passageLogFields(p)

	_, err := r.db.Exec(ctx, createPassageQuery,
		p.ID, p.StoryID, p.PassageNumber, p.Name, p.Content, p.PassageType, pq.Array(p.Tags),
		p.PositionX, p.PositionY, p.Width, p.Height, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return r.mapWriteError(err, logFields)
	}
	r.logger.Info("Passage created", logFields...)
	return nil
}

func (r *pgPassageRepository) getOne(ctx context.Context, logFields []zap.Field, query string, args ...interface{}) (*models.Passage, error) {
	var p models.Passage
	if err := pgxscan.Get(ctx, r.db, &p, query, args...); err != nil {
		if isNoRows(err) {
			r.logger.Debug("Passage not found", logFields...)
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to read passage", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to read passage: %w", err)
	}
	return &p, nil
}

func (r *pgPassageRepository) GetByID(ctx context.Context, id string) (*models.Passage, error) {
	return r.getOne(ctx, []zap.Field{zap.String("passageID", id)}, getPassageByIDQuery, id)
}

func (r *pgPassageRepository) MaxPassageNumber(ctx context.Context, storyID string) (int, error) {
	var maxNumber int
	if err := r.db.QueryRow(ctx, maxPassageNumberQuery, storyID).Scan(&maxNumber); err != nil {
		r.logger.Error("Failed to read max passage number", zap.String("storyID", storyID), zap.Error(err))
		return 0, fmt.Errorf("failed to read max passage number for story %s: %w", storyID, err)
	}
	return maxNumber, nil
}

func (r *pgPassageRepository) FindByNumber(ctx context.Context, storyID string, number int) (*models.Passage, error) {
	logFields := []zap.Field{zap.String("storyID", storyID), zap.Int("passageNumber", number)}
	return r.getOne(ctx, logFields, findPassageByNumberQuery, storyID, number)
}

func (r *pgPassageRepository) FindByName(ctx context.Context, storyID, name string) (*models.Passage, error) {
	logFields := []zap.Field{zap.String("storyID", storyID), zap.String("name", name)}
	return r.getOne(ctx, logFields, findPassageByNameQuery, storyID, name)
}

func (r *pgPassageRepository) FindFirstStart(ctx context.Context, storyID string) (*models.Passage, error) {
	return r.getOne(ctx, []zap.Field{zap.String("storyID", storyID)}, findFirstStartPassageQuery, storyID)
}

func (r *pgPassageRepository) ListByStory(ctx context.Context, storyID string) ([]*models.Passage, error) {
	passages := make([]*models.Passage, 0)
	if err := pgxscan.Select(ctx, r.db, &passages, listPassagesByStoryQuery, storyID); err != nil {
		r.logger.Error("Failed to list passages", zap.String("storyID", storyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list passages of story %s: %w", storyID, err)
	}
	return passages, nil
}

func (r *pgPassageRepository) Update(ctx context.Context, p *models.Passage) error {
	p.UpdatedAt = time.Now().UTC()
	if p.Tags == nil {
		p.Tags = []string{}
	}
	logFields := r.passageLogFields(p)
	tag, err := r.db.Exec(ctx, updatePassageQuery,
		p.ID, p.Name, p.Content, p.PassageType, pq.Array(p.Tags),
		p.PositionX, p.PositionY, p.Width, p.Height, p.UpdatedAt,
	)
	if err != nil {
		return r.mapWriteError(err, logFields)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgPassageRepository) Upsert(ctx context.Context, p *models.Passage) (bool, error) {
	preparePassage(p)
	logFields := r.passageLogFields(p)

	var inserted bool
	err := r.db.QueryRow(ctx, upsertPassageQuery,
		p.ID, p.StoryID, p.PassageNumber, p.Name, p.Content, p.PassageType, pq.Array(p.Tags),
		p.PositionX, p.PositionY, p.Width, p.Height, p.CreatedAt, p.UpdatedAt,
	).Scan(&inserted)
	if err != nil {
		return false, r.mapWriteError(err, logFields)
	}
	r.logger.Debug("Passage upserted", append(logFields, zap.Bool("inserted", inserted))...)
	return inserted, nil
}

func (r *pgPassageRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, deletePassageQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete passage", zap.String("passageID", id), zap.Error(err))
		return fmt.Errorf("failed to delete passage %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	r.logger.Info("Passage deleted", zap.String("passageID", id))
	return nil
}
