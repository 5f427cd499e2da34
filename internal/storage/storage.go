// Package storage opens the Graph Store backend selected in config.
package storage

import (
	"context"
	"fmt"
	"time"

	"passage-server/internal/config"
	"passage-server/internal/database"
	"passage-server/internal/database/sqlitestore"
	"passage-server/internal/interfaces"

	"go.uber.org/zap"
)

// Options tune how persistently Open waits for the database.
type Options struct {
	ConnectRetries int
	RetryDelay     time.Duration
	// Migrate applies pending migrations after connecting.
	Migrate bool
}

// Backend is an open store with its repositories.
type Backend struct {
	Driver       string
	Repositories interfaces.Repositories
	closeFn      func()
}

func (b *Backend) Close() {
	if b.closeFn != nil {
		b.closeFn()
	}
}

// Open connects to the configured backend.
func Open(ctx context.Context, cfg *config.Config, opts Options, logger *zap.Logger) (*Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if opts.Migrate {
			if err := database.ApplyMigrations(cfg.GetDSN(), logger.Named("Migrations")); err != nil {
				return nil, err
			}
		}
		pool, err := database.ConnectPostgres(ctx, database.PoolConfig{
			DSN:         cfg.GetDSN(),
			MaxConns:    cfg.DBMaxConns,
			IdleTimeout: cfg.DBIdleTimeout,
			MaxRetries:  opts.ConnectRetries,
			RetryDelay:  opts.RetryDelay,
		}, logger)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Driver:       config.DriverPostgres,
			Repositories: database.NewRepositories(pool, logger),
			closeFn:      pool.Close,
		}, nil

	case config.DriverSQLite:
		store, err := sqlitestore.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		if opts.Migrate {
			if err := store.Migrate(); err != nil {
				_ = store.Close()
				return nil, err
			}
		}
		return &Backend{
			Driver:       config.DriverSQLite,
			Repositories: store.Repositories(),
			closeFn: func() {
				if err := store.Close(); err != nil {
					logger.Warn("Failed to close sqlite store", zap.Error(err))
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// MigrateTo moves the configured store to version, or to the latest
// version when version is nil.
func MigrateTo(cfg *config.Config, version *uint, logger *zap.Logger) error {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if version == nil {
			return database.ApplyMigrations(cfg.GetDSN(), logger)
		}
		return database.MigrateTo(cfg.GetDSN(), *version, logger)
	case config.DriverSQLite:
		store, err := sqlitestore.Open(cfg.SQLitePath, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		if version == nil {
			return store.Migrate()
		}
		return store.MigrateTo(*version)
	}
	return fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
