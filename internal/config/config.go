package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"passage-server/internal/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the passage server configuration.
type Config struct {
	Env         string `envconfig:"ENV" default:"production"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"8080"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	StoreDriver    string `envconfig:"STORE_DRIVER" default:"postgres"`
	MigrateOnStart bool   `envconfig:"MIGRATE_ON_START" default:"true"`

	// PostgreSQL
	DBHost        string        `envconfig:"DB_HOST"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER"`
	DBName        string        `envconfig:"DB_NAME"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	DBPassword    string        `ignored:"true"`

	// SQLite
	SQLitePath string `envconfig:"SQLITE_PATH" default:"passages.db"`

	// Redis; an empty address disables the passage-number cache.
	RedisAddr       string        `envconfig:"REDIS_ADDR"`
	RedisDB         int           `envconfig:"REDIS_DB" default:"0"`
	PassageCacheTTL time.Duration `envconfig:"PASSAGE_CACHE_TTL" default:"1h"`
	RedisPassword   string        `ignored:"true"`

	// RabbitMQ; an empty URL makes visits go straight to the store.
	RabbitMQURL              string `ignored:"true"`
	VisitQueueName           string `envconfig:"VISIT_QUEUE_NAME" default:"passage_visits"`
	VisitConsumerConcurrency int    `envconfig:"VISIT_CONSUMER_CONCURRENCY" default:"4"`

	PassageNumberMaxAttempts int `envconfig:"PASSAGE_NUMBER_MAX_ATTEMPTS" default:"3"`

	JWTSecret string `ignored:"true"`
}

// GetDSN returns the PostgreSQL connection URL.
func (c *Config) GetDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.DBSSLMode,
	}
	return u.String()
}

// GetAllowedOrigins splits CORSAllowedOrigins into a slice.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

func (c *Config) CacheEnabled() bool { return c.RedisAddr != "" }

func (c *Config) QueueEnabled() bool { return c.RabbitMQURL != "" }

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		var missing []string
		if c.DBHost == "" {
			missing = append(missing, "DB_HOST")
		}
		if c.DBUser == "" {
			missing = append(missing, "DB_USER")
		}
		if c.DBName == "" {
			missing = append(missing, "DB_NAME")
		}
		if len(missing) > 0 {
			return fmt.Errorf("postgres store requires %s", strings.Join(missing, ", "))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite store requires SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (expected %s or %s)", c.StoreDriver, DriverPostgres, DriverSQLite)
	}
	if c.PassageNumberMaxAttempts < 1 {
		return fmt.Errorf("PASSAGE_NUMBER_MAX_ATTEMPTS must be at least 1, got %d", c.PassageNumberMaxAttempts)
	}
	if c.VisitConsumerConcurrency < 1 {
		return fmt.Errorf("VISIT_CONSUMER_CONCURRENCY must be at least 1, got %d", c.VisitConsumerConcurrency)
	}
	return nil
}

// LoadConfig reads an optional .env file, the environment and Docker secrets.
// Overrides run after loading and before validation.
func LoadConfig(envFilePath string, overrides ...func(*Config)) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: could not load %s: %v", envFilePath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Warning: could not access %s: %v", envFilePath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load passage-server config: %w", err)
	}

	var err error
	if cfg.DBPassword, err = utils.ReadSecretOrEnv("db_password", "DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.JWTSecret, err = utils.ReadSecretOrEnv("jwt_secret", "JWT_SECRET"); err != nil {
		return nil, err
	}
	if cfg.RedisPassword, err = utils.ReadSecretOrEnv("redis_password", "REDIS_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.RabbitMQURL, err = utils.ReadSecretOrEnv("rabbitmq_url", "RABBITMQ_URL"); err != nil {
		return nil, err
	}

	for _, override := range overrides {
		override(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Passage server config loaded:")
	log.Printf("  Env: %s, Port: %s, LogLevel: %s", cfg.Env, cfg.ServerPort, cfg.LogLevel)
	log.Printf("  Store: %s", cfg.StoreDriver)
	if cfg.StoreDriver == DriverPostgres {
		log.Printf("  DB DSN: postgres://%s:***@%s:%s/%s?sslmode=%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	} else {
		log.Printf("  SQLite path: %s", cfg.SQLitePath)
	}
	log.Printf("  Redis cache enabled: %t", cfg.CacheEnabled())
	log.Printf("  Visit queue enabled: %t (%s)", cfg.QueueEnabled(), cfg.VisitQueueName)
	log.Printf("  Passage number max attempts: %d", cfg.PassageNumberMaxAttempts)
	if cfg.JWTSecret != "" {
		log.Println("  JWT Secret: [LOADED]")
	}
	return &cfg, nil
}
