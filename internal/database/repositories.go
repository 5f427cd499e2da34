package database

import (
	"passage-server/internal/interfaces"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// NewRepositories wires every PostgreSQL repository onto one pool.
func NewRepositories(pool *pgxpool.Pool, logger *zap.Logger) interfaces.Repositories {
	return interfaces.Repositories{
		Stories:   NewPgStoryRepository(pool, pool, logger),
		Passages:  NewPgPassageRepository(pool, logger),
		Links:     NewPgLinkRepository(pool, logger),
		Visits:    NewPgVisitLogRepository(pool, logger),
		Bookmarks: NewPgBookmarkRepository(pool, logger),
		Feedback:  NewPgFeedbackRepository(pool, logger),
	}
}
