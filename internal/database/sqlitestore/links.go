package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ interfaces.LinkRepository = (*linkRepository)(nil)

type linkRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

const linkColumns = `id, story_id, source_passage_id, target_passage_id, name, condition_type, condition_value, link_order`

func scanLink(row scanner) (*models.Link, error) {
	var l models.Link
	if err := row.Scan(&l.ID, &l.StoryID, &l.SourcePassageID, &l.TargetPassageID, &l.Name,
		&l.ConditionType, &l.ConditionValue, &l.LinkOrder); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *linkRepository) mapWriteError(err error, l *models.Link) error {
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: link references a missing story or passage", models.ErrInvalidInput)
	}
	r.logger.Error("Failed to write link", zap.String("linkID", l.ID), zap.Error(err))
	return fmt.Errorf("write link %s: %w", l.ID, err)
}

func (r *linkRepository) Create(ctx context.Context, l *models.Link) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO links (`+linkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.StoryID, l.SourcePassageID, l.TargetPassageID, l.Name,
		string(l.ConditionType), l.ConditionValue, l.LinkOrder,
	)
	if err != nil {
		return r.mapWriteError(err, l)
	}
	return nil
}

func (r *linkRepository) GetByID(ctx context.Context, id string) (*models.Link, error) {
	l, err := scanLink(r.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM links WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get link %s: %w", id, err)
	}
	return l, nil
}

func (r *linkRepository) list(ctx context.Context, query string, arg string) ([]*models.Link, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	links := make([]*models.Link, 0)
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (r *linkRepository) ListBySource(ctx context.Context, sourcePassageID string) ([]*models.Link, error) {
	return r.list(ctx,
		`SELECT `+linkColumns+` FROM links WHERE source_passage_id = ? ORDER BY link_order ASC, id ASC`,
		sourcePassageID)
}

func (r *linkRepository) ListByStory(ctx context.Context, storyID string) ([]*models.Link, error) {
	return r.list(ctx,
		`SELECT `+linkColumns+` FROM links WHERE story_id = ? ORDER BY source_passage_id ASC, link_order ASC, id ASC`,
		storyID)
}

func (r *linkRepository) Update(ctx context.Context, l *models.Link) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE links SET source_passage_id = ?, target_passage_id = ?, name = ?,
		 condition_type = ?, condition_value = ?, link_order = ?
		 WHERE id = ?`,
		l.SourcePassageID, l.TargetPassageID, l.Name, string(l.ConditionType), l.ConditionValue, l.LinkOrder, l.ID,
	)
	if err != nil {
		return r.mapWriteError(err, l)
	}
	return requireAffected(res)
}

func (r *linkRepository) Upsert(ctx context.Context, l *models.Link) (bool, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	var created bool
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM links WHERE id = ?`, l.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check link %s: %w", l.ID, err)
		}
		created = exists == 0
		_, err := tx.ExecContext(ctx,
			`INSERT INTO links (`+linkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			   story_id = excluded.story_id,
			   source_passage_id = excluded.source_passage_id,
			   target_passage_id = excluded.target_passage_id,
			   name = excluded.name,
			   condition_type = excluded.condition_type,
			   condition_value = excluded.condition_value,
			   link_order = excluded.link_order`,
			l.ID, l.StoryID, l.SourcePassageID, l.TargetPassageID, l.Name,
			string(l.ConditionType), l.ConditionValue, l.LinkOrder,
		)
		return err
	})
	if err != nil {
		return false, r.mapWriteError(err, l)
	}
	return created, nil
}

func (r *linkRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete link %s: %w", id, err)
	}
	return requireAffected(res)
}
