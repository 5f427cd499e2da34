// Package cli implements the storyctl commands.
package cli

import (
	"context"
	"fmt"
	"time"

	"passage-server/internal/cache"
	"passage-server/internal/config"
	"passage-server/internal/logger"
	"passage-server/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type globalFlags struct {
	envFile    string
	driver     string
	sqlitePath string
	logLevel   string
}

// NewRootCmd builds the storyctl command tree.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "storyctl",
		Short:         "Administer passage graphs",
		Long:          "storyctl migrates the Graph Store, moves passages and links in and out as CSV, resolves passage references, reports visit statistics and mints admin tokens.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "Optional .env file to load before the environment")
	root.PersistentFlags().StringVar(&flags.driver, "driver", "", "Store driver: postgres or sqlite (default: $STORE_DRIVER)")
	root.PersistentFlags().StringVar(&flags.sqlitePath, "sqlite-path", "", "SQLite database file (default: $SQLITE_PATH)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level written to stderr")

	root.AddCommand(
		newMigrateCmd(flags),
		newExportCmd(flags),
		newImportCmd(flags),
		newResolveCmd(flags),
		newTokenCmd(flags),
		newStatsCmd(flags),
	)
	return root
}

func (f *globalFlags) loadConfig() (*config.Config, error) {
	return config.LoadConfig(f.envFile, func(c *config.Config) {
		if f.driver != "" {
			c.StoreDriver = f.driver
		}
		if f.sqlitePath != "" {
			c.SQLitePath = f.sqlitePath
		}
	})
}

// newLogger keeps stdout free for command output.
func (f *globalFlags) newLogger() (*zap.Logger, error) {
	return logger.New(logger.Config{Level: f.logLevel, Encoding: logger.EncodingConsole, OutputPath: "stderr"})
}

// session is an open store plus what the commands need around it.
type session struct {
	cfg     *config.Config
	logger  *zap.Logger
	backend *storage.Backend
}

func (f *globalFlags) open(ctx context.Context) (*session, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := f.newLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	backend, err := storage.Open(ctx, cfg, storage.Options{ConnectRetries: 3, RetryDelay: time.Second}, log)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &session{cfg: cfg, logger: log, backend: backend}, nil
}

func (s *session) Close() {
	s.backend.Close()
	_ = s.logger.Sync()
}

// Server-side caches verify every hit against the store, so storyctl does
// not need to invalidate them.
var cliCache = cache.NoopPassageCache{}
