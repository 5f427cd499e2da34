package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ interfaces.VisitLogRepository = (*visitLogRepository)(nil)

type visitLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func (r *visitLogRepository) Create(ctx context.Context, v *models.VisitEvent) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.VisitedAt.IsZero() {
		v.VisitedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO visit_logs (id, user_id, story_id, passage_id, previous_passage_id, visited_at)
		 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
		v.ID, v.UserID, v.StoryID, v.PassageID, v.PreviousPassageID, formatTime(v.VisitedAt),
	)
	if err != nil {
		r.logger.Error("Failed to store visit", zap.String("passageID", v.PassageID), zap.Error(err))
		return fmt.Errorf("store visit: %w", err)
	}
	return nil
}

func (r *visitLogRepository) CountByPassage(ctx context.Context, passageID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visit_logs WHERE passage_id = ?`, passageID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count visits of passage %s: %w", passageID, err)
	}
	return n, nil
}

func (r *visitLogRepository) CountPerPassage(ctx context.Context, storyID *string) ([]models.PassageVisitStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT v.passage_id, p.name, COUNT(*) AS visit_count
		FROM visit_logs v
		JOIN passages p ON p.id = v.passage_id
		WHERE (? IS NULL OR v.story_id = ?)
		GROUP BY v.passage_id, p.name
		ORDER BY visit_count DESC, v.passage_id ASC`, storyID, storyID)
	if err != nil {
		return nil, fmt.Errorf("aggregate visits: %w", err)
	}
	defer rows.Close()

	stats := make([]models.PassageVisitStat, 0)
	for rows.Next() {
		var st models.PassageVisitStat
		if err := rows.Scan(&st.PassageID, &st.PassageName, &st.VisitCount); err != nil {
			return nil, fmt.Errorf("scan visit stat: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (r *visitLogRepository) Overview(ctx context.Context) (*models.StatsOverview, error) {
	var o models.StatsOverview
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM stories),
			(SELECT COUNT(*) FROM passages),
			(SELECT COUNT(*) FROM visit_logs),
			(SELECT COUNT(DISTINCT user_id) FROM visit_logs)`,
	).Scan(&o.TotalStories, &o.TotalPassages, &o.TotalVisits, &o.TotalReaders)
	if err != nil {
		return nil, fmt.Errorf("load stats overview: %w", err)
	}
	return &o, nil
}
