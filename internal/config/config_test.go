package config

import (
	"os"
	"path/filepath"
	"testing"

	"passage-server/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateSecrets(t *testing.T) {
	t.Helper()
	prev := utils.SecretsDir
	utils.SecretsDir = t.TempDir()
	t.Cleanup(func() { utils.SecretsDir = prev })
}

func TestLoadConfig_SQLiteDefaults(t *testing.T) {
	isolateSecrets(t)
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/stories.db")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/stories.db", cfg.SQLitePath)
	assert.Equal(t, 3, cfg.PassageNumberMaxAttempts)
	assert.Equal(t, "passage_visits", cfg.VisitQueueName)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.False(t, cfg.CacheEnabled())
	assert.False(t, cfg.QueueEnabled())
}

func TestLoadConfig_PostgresRequiresHost(t *testing.T) {
	isolateSecrets(t)
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_NAME", "stories")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_HOST")
}

func TestLoadConfig_ReadsEnvFileAndSecrets(t *testing.T) {
	isolateSecrets(t)
	require.NoError(t, os.WriteFile(filepath.Join(utils.SecretsDir, "db_password"), []byte("p@ss"), 0o600))

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PASSAGE_NUMBER_MAX_ATTEMPTS=5\n"), 0o600))
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_NAME", "stories")
	t.Cleanup(func() { os.Unsetenv("PASSAGE_NUMBER_MAX_ATTEMPTS") })

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.PassageNumberMaxAttempts)
	assert.Equal(t, "postgres://app:p%40ss@db:5432/stories?sslmode=disable", cfg.GetDSN())
}

func TestValidate(t *testing.T) {
	cfg := &Config{StoreDriver: "mongo", PassageNumberMaxAttempts: 3, VisitConsumerConcurrency: 1}
	assert.Error(t, cfg.Validate())

	cfg = &Config{StoreDriver: DriverSQLite, SQLitePath: "x.db", PassageNumberMaxAttempts: 0, VisitConsumerConcurrency: 1}
	assert.Error(t, cfg.Validate())
}

func TestGetAllowedOrigins(t *testing.T) {
	cfg := &Config{CORSAllowedOrigins: "http://a.example, http://b.example"}
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.GetAllowedOrigins())
	assert.Nil(t, (&Config{}).GetAllowedOrigins())
}

func TestLoadConfig_OverridesApplyBeforeValidation(t *testing.T) {
	isolateSecrets(t)
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_HOST", "")

	cfg, err := LoadConfig("", func(c *Config) {
		c.StoreDriver = DriverSQLite
		c.SQLitePath = "override.db"
	})
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "override.db", cfg.SQLitePath)
}
