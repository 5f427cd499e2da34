// Package sqlitestore is the embedded Graph Store. It enforces the same
// constraints as the PostgreSQL schema through SQLite indexes and foreign keys.
package sqlitestore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"passage-server/internal/interfaces"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is fixed-width so text comparison orders chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store owns the SQLite handle shared by all repositories.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens (creating if needed) the database at path. Migrations are not
// applied; call Migrate or MigrateTo.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; concurrent callers queue on the pool.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &Store{db: db, path: cleanPath, logger: logger.Named("SQLiteStore")}, nil
}

// OpenAndMigrate opens the store and applies every migration.
func OpenAndMigrate(path string, logger *zap.Logger) (*Store, error) {
	s, err := Open(path, logger)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// Repositories returns the repository bundle backed by this store.
func (s *Store) Repositories() interfaces.Repositories {
	return interfaces.Repositories{
		Stories:   &storyRepository{db: s.db, logger: s.logger.Named("StoryRepo")},
		Passages:  &passageRepository{db: s.db, logger: s.logger.Named("PassageRepo")},
		Links:     &linkRepository{db: s.db, logger: s.logger.Named("LinkRepo")},
		Visits:    &visitLogRepository{db: s.db, logger: s.logger.Named("VisitLogRepo")},
		Bookmarks: &bookmarkRepository{db: s.db, logger: s.logger.Named("BookmarkRepo")},
		Feedback:  &feedbackRepository{db: s.db, logger: s.logger.Named("FeedbackRepo")},
	}
}

func (s *Store) newMigrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+s.path)
	if err != nil {
		return nil, fmt.Errorf("create sqlite migrator: %w", err)
	}
	return m, nil
}

// Migrate applies all pending migrations.
func (s *Store) Migrate() error {
	return s.runMigration(func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateTo moves the schema to an exact version.
func (s *Store) MigrateTo(version uint) error {
	return s.runMigration(func(m *migrate.Migrate) error { return m.Migrate(version) })
}

func (s *Store) runMigration(step func(m *migrate.Migrate) error) error {
	m, err := s.newMigrator()
	if err != nil {
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			s.logger.Warn("Failed to close migrator", zap.NamedError("source_error", srcErr), zap.NamedError("db_error", dbErr))
		}
	}()

	if err := step(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate sqlite schema: %w", err)
	}
	if version, dirty, err := m.Version(); err == nil {
		s.logger.Info("Schema migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(raw string) ([]string, error) {
	tags := []string{}
	if raw == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags, nil
}

func sqliteCode(err error) int {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return 0
	}
	return sqliteErr.Code()
}

func isPassageNumberViolation(err error) bool {
	code := sqliteCode(err)
	if code != sqlite3.SQLITE_CONSTRAINT_UNIQUE && code != sqlite3.SQLITE_CONSTRAINT {
		return false
	}
	return strings.Contains(err.Error(), "passages.passage_number")
}

func isForeignKeyViolation(err error) bool {
	code := sqliteCode(err)
	return code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY ||
		(code == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), "FOREIGN KEY"))
}

func isCheckViolation(err error) bool {
	code := sqliteCode(err)
	return code == sqlite3.SQLITE_CONSTRAINT_CHECK ||
		(code == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), "CHECK constraint failed"))
}

// withTx runs fn in a transaction, rolling back on error.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
