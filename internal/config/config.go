package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "LEDGER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

type Config struct {
	App   AppConfig
	DB    DBConfig
	Kafka KafkaConfig
	Retry RetryConfig
}

// Load reads configuration from the environment. Callers that want .env
// support load it with godotenv before calling Load.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LEDGER_APP_ENV" default:"dev"`
	Port         string `envconfig:"LEDGER_PORT" default:"8080"`
	LogLevel     string `envconfig:"LEDGER_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LEDGER_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"LEDGER_LOG_WARN_STACK" default:"false"`
	StoreBackend string `envconfig:"LEDGER_STORE_BACKEND" default:"postgres"`
	MaxBodyBytes int64  `envconfig:"LEDGER_MAX_BODY_BYTES" default:"1048576"`

	// AllowedOrigins is a comma-separated CORS allow-list. Empty disables CORS.
	AllowedOrigins string `envconfig:"LEDGER_ALLOWED_ORIGINS"`

	// AutoMigrate applies pending migrations at startup in dev only.
	AutoMigrate bool `envconfig:"LEDGER_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN             string        `envconfig:"LEDGER_DB_DSN"`
	MaxConns        int32         `envconfig:"LEDGER_DB_MAX_CONNS" default:"20"`
	MinConns        int32         `envconfig:"LEDGER_DB_MIN_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"LEDGER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LEDGER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	LockTimeout     time.Duration `envconfig:"LEDGER_DB_LOCK_TIMEOUT" default:"5s"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"LEDGER_KAFKA_BROKERS"`
	Topic   string   `envconfig:"LEDGER_KAFKA_TOPIC" default:"hvac-ledger-events"`
}

// Enabled reports whether an event publisher should be wired.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type RetryConfig struct {
	MaxAttempts uint64        `envconfig:"LEDGER_RETRY_MAX_ATTEMPTS" default:"3"`
	BaseDelay   time.Duration `envconfig:"LEDGER_RETRY_BASE_DELAY" default:"50ms"`
}

func (c *Config) validate() error {
	switch c.App.StoreBackend {
	case StoreBackendPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("%s_DB_DSN is required when %s_STORE_BACKEND=%s", EnvPrefix, EnvPrefix, StoreBackendPostgres)
		}
	case StoreBackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.App.StoreBackend)
	}
	if c.DB.LockTimeout <= 0 {
		return fmt.Errorf("%s_DB_LOCK_TIMEOUT must be positive", EnvPrefix)
	}
	if c.Retry.MaxAttempts == 0 {
		return fmt.Errorf("%s_RETRY_MAX_ATTEMPTS must be at least 1", EnvPrefix)
	}
	return nil
}
