package service_test

import (
	"path/filepath"
	"testing"

	"passage-server/internal/database/sqlitestore"
	"passage-server/internal/interfaces"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSQLiteRepos(t *testing.T) interfaces.Repositories {
	t.Helper()
	store, err := sqlitestore.OpenAndMigrate(filepath.Join(t.TempDir(), "graph.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.Repositories()
}
