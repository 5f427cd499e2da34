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

var _ interfaces.VisitLogRepository = (*pgVisitLogRepository)(nil)

type pgVisitLogRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgVisitLogRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.VisitLogRepository {
	return &pgVisitLogRepository{
		db:     db,
		logger: logger.Named("PgVisitLogRepo"),
	}
}

// Redelivered events keep their id, so a replay is a no-op.
const createVisitLogQuery = `
INSERT INTO visit_logs (id, user_id, story_id, passage_id, previous_passage_id, visited_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING`

const countVisitsByPassageQuery = `SELECT COUNT(*) FROM visit_logs WHERE passage_id = $1`

// The inner join drops visits of deleted passages.
const countVisitsPerPassageQuery = `
SELECT v.passage_id, p.name AS passage_name, COUNT(*) AS visit_count
FROM visit_logs v
JOIN passages p ON p.id = v.passage_id
WHERE ($1::text IS NULL OR v.story_id = $1)
GROUP BY v.passage_id, p.name
ORDER BY visit_count DESC, v.passage_id ASC`

const statsOverviewQuery = `
SELECT
    (SELECT COUNT(*) FROM stories) AS total_stories,
    (SELECT COUNT(*) FROM passages) AS total_passages,
    (SELECT COUNT(*) FROM visit_logs) AS total_visits,
    (SELECT COUNT(DISTINCT user_id) FROM visit_logs) AS total_readers`

func (r *pgVisitLogRepository) Create(ctx context.Context, v *models.VisitEvent) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.VisitedAt.IsZero() {
		v.VisitedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, createVisitLogQuery, v.ID, v.UserID, v.StoryID, v.PassageID, v.PreviousPassageID, v.VisitedAt)
	if err != nil {
		r.logger.Error("Failed to store visit", zap.String("passageID", v.PassageID), zap.Error(err))
		return fmt.Errorf("failed to store visit: %w", err)
	}
	return nil
}

func (r *pgVisitLogRepository) CountByPassage(ctx context.Context, passageID string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, countVisitsByPassageQuery, passageID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count visits of passage %s: %w", passageID, err)
	}
	return n, nil
}

func (r *pgVisitLogRepository) CountPerPassage(ctx context.Context, storyID *string) ([]models.PassageVisitStat, error) {
	stats := make([]models.PassageVisitStat, 0)
	if err := pgxscan.Select(ctx, r.db, &stats, countVisitsPerPassageQuery, storyID); err != nil {
		r.logger.Error("Failed to aggregate visits", zap.Stringp("storyID", storyID), zap.Error(err))
		return nil, fmt.Errorf("failed to aggregate visits: %w", err)
	}
	return stats, nil
}

func (r *pgVisitLogRepository) Overview(ctx context.Context) (*models.StatsOverview, error) {
	var o models.StatsOverview
	if err := pgxscan.Get(ctx, r.db, &o, statsOverviewQuery); err != nil {
		r.logger.Error("Failed to load stats overview", zap.Error(err))
		return nil, fmt.Errorf("failed to load stats overview: %w", err)
	}
	return &o, nil
}
