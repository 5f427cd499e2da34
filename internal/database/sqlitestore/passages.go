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

var _ interfaces.PassageRepository = (*passageRepository)(nil)

type passageRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

const passageColumns = `id, story_id, passage_number, name, content, passage_type, tags, position_x, position_y, width, height, created_at, updated_at`

// SQLite sorts NULL first by default.
const passageOrder = `ORDER BY passage_number IS NULL, passage_number ASC, created_at ASC, id ASC`

func scanPassage(row scanner) (*models.Passage, error) {
	var (
		p                    models.Passage
		number               sql.NullInt64
		tags                 string
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &p.StoryID, &number, &p.Name, &p.Content, &p.PassageType, &tags,
		&p.PositionX, &p.PositionY, &p.Width, &p.Height, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if number.Valid {
		n := int(number.Int64)
		p.PassageNumber = &n
	}
	var err error
	if p.Tags, err = decodeTags(tags); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

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

func (r *passageRepository) mapWriteError(err error, p *models.Passage) error {
	switch {
	case isPassageNumberViolation(err):
		return models.ErrPassageNumberTaken
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: story does not exist", models.ErrInvalidInput)
	case isCheckViolation(err):
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	r.logger.Error("Failed to write passage", zap.String("passageID", p.ID), zap.Error(err))
	return fmt.Errorf("write passage %s: %w", p.ID, err)
}

func passageArgs(p *models.Passage) ([]any, error) {
	tags, err := encodeTags(p.Tags)
	if err != nil {
		return nil, err
	}
	return []any{
		p.ID, p.StoryID, p.PassageNumber, p.Name, p.Content, string(p.PassageType), tags,
		p.PositionX, p.PositionY, p.Width, p.Height, formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	}, nil
}

func (r *passageRepository) Create(ctx context.Context, p *models.Passage) error {
	preparePassage(p)
	args, err := passageArgs(p)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO passages (`+passageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...); err != nil {
		return r.mapWriteError(err, p)
	}
	return nil
}

func (r *passageRepository) getOne(ctx context.Context, query string, args ...any) (*models.Passage, error) {
	p, err := scanPassage(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("read passage: %w", err)
	}
	return p, nil
}

func (r *passageRepository) GetByID(ctx context.Context, id string) (*models.Passage, error) {
	return r.getOne(ctx, `SELECT `+passageColumns+` FROM passages WHERE id = ?`, id)
}

func (r *passageRepository) MaxPassageNumber(ctx context.Context, storyID string) (int, error) {
	var maxNumber int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(passage_number), 0) FROM passages WHERE story_id = ?`, storyID).Scan(&maxNumber); err != nil {
		return 0, fmt.Errorf("max passage number of story %s: %w", storyID, err)
	}
	return maxNumber, nil
}

func (r *passageRepository) FindByNumber(ctx context.Context, storyID string, number int) (*models.Passage, error) {
	return r.getOne(ctx, `SELECT `+passageColumns+` FROM passages WHERE story_id = ? AND passage_number = ?`, storyID, number)
}

func (r *passageRepository) FindByName(ctx context.Context, storyID, name string) (*models.Passage, error) {
	return r.getOne(ctx,
		`SELECT `+passageColumns+` FROM passages WHERE story_id = ? AND name = ? `+passageOrder+` LIMIT 1`,
		storyID, name)
}

func (r *passageRepository) FindFirstStart(ctx context.Context, storyID string) (*models.Passage, error) {
	return r.getOne(ctx,
		`SELECT `+passageColumns+` FROM passages WHERE story_id = ? AND passage_type = 'start' `+passageOrder+` LIMIT 1`,
		storyID)
}

func (r *passageRepository) ListByStory(ctx context.Context, storyID string) ([]*models.Passage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+passageColumns+` FROM passages WHERE story_id = ? `+passageOrder, storyID)
	if err != nil {
		return nil, fmt.Errorf("list passages of story %s: %w", storyID, err)
	}
	defer rows.Close()

	passages := make([]*models.Passage, 0)
	for rows.Next() {
		p, err := scanPassage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan passage: %w", err)
		}
		passages = append(passages, p)
	}
	return passages, rows.Err()
}

func (r *passageRepository) Update(ctx context.Context, p *models.Passage) error {
	p.UpdatedAt = time.Now().UTC()
	tags, err := encodeTags(p.Tags)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE passages SET name = ?, content = ?, passage_type = ?, tags = ?,
		 position_x = ?, position_y = ?, width = ?, height = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Content, string(p.PassageType), tags, p.PositionX, p.PositionY, p.Width, p.Height,
		formatTime(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return r.mapWriteError(err, p)
	}
	return requireAffected(res)
}

func (r *passageRepository) Upsert(ctx context.Context, p *models.Passage) (bool, error) {
	preparePassage(p)
	args, err := passageArgs(p)
	if err != nil {
		return false, err
	}

	var created bool
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM passages WHERE id = ?`, p.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check passage %s: %w", p.ID, err)
		}
		if exists == 0 {
			created = true
			_, err := tx.ExecContext(ctx,
				`INSERT INTO passages (`+passageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE passages SET story_id = ?, passage_number = ?, name = ?, content = ?, passage_type = ?, tags = ?,
			 position_x = ?, position_y = ?, width = ?, height = ?, updated_at = ?
			 WHERE id = ?`,
			args[1], args[2], args[3], args[4], args[5], args[6], args[7], args[8], args[9], args[10], args[12], p.ID,
		)
		return err
	})
	if err != nil {
		return false, r.mapWriteError(err, p)
	}
	return created, nil
}

func (r *passageRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM passages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete passage %s: %w", id, err)
	}
	return requireAffected(res)
}
