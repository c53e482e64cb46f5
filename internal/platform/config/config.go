package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	platformstrings "github.com/primedepthlabs/Loan-Admin-sub000/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr       string `env:"PLACEMENT_ADDR" env-default:":8080"`
	AdminToken string `env:"PLACEMENT_ADMIN_TOKEN"`
}

// DatabaseConfig configures the Postgres connection pool.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL" env-required:"true"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" env-default:"20"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" env-default:"30m"`
	MigrateOnStart  bool          `env:"DATABASE_MIGRATE_ON_START" env-default:"true"`
}

// RedisConfig configures the optional plan settings cache. An empty URL disables it.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" env-default:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" env-default:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" env-default:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" env-default:"3s"`
	PlanCacheTTL time.Duration `env:"PLAN_CACHE_TTL" env-default:"10m"`
}

// KafkaConfig configures placement event publishing. No brokers disables it.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `env:"KAFKA_PLACEMENT_TOPIC" env-default:"placement.events"`
	// BreakerThreshold consecutive publish failures open the circuit for
	// BreakerCooldown.
	BreakerThreshold int           `env:"KAFKA_BREAKER_THRESHOLD" env-default:"5"`
	BreakerCooldown  time.Duration `env:"KAFKA_BREAKER_COOLDOWN" env-default:"30s"`
}

// PlacementConfig tunes the writer's retry loop and transaction timeouts.
// TxTimeout bounds every transaction attempt, HTTP requests included.
// LockTimeout bounds waits on a parent row lock; zero waits until TxTimeout.
type PlacementConfig struct {
	MaxAttempts    int           `env:"PLACEMENT_MAX_ATTEMPTS" env-default:"5"`
	InitialBackoff time.Duration `env:"PLACEMENT_INITIAL_BACKOFF" env-default:"20ms"`
	MaxBackoff     time.Duration `env:"PLACEMENT_MAX_BACKOFF" env-default:"500ms"`
	TxTimeout      time.Duration `env:"PLACEMENT_TX_TIMEOUT" env-default:"5s"`
	LockTimeout    time.Duration `env:"PLACEMENT_LOCK_TIMEOUT" env-default:"2s"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"`
}

// Config is the full process configuration.
type Config struct {
	Server    Server
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Placement PlacementConfig
	Log       LogConfig
}

// FromEnv loads configuration from the environment. A .env file in the working
// directory, when present, seeds variables that are not already set.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config from env: %w", err)
	}
	cfg.Kafka.Brokers = platformstrings.CompactList(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations cleanenv cannot express in tags.
func (c *Config) Validate() error {
	if c.Placement.MaxAttempts < 1 {
		return fmt.Errorf("PLACEMENT_MAX_ATTEMPTS must be at least 1, got %d", c.Placement.MaxAttempts)
	}
	if c.Placement.InitialBackoff > c.Placement.MaxBackoff {
		return fmt.Errorf("PLACEMENT_INITIAL_BACKOFF (%s) exceeds PLACEMENT_MAX_BACKOFF (%s)",
			c.Placement.InitialBackoff, c.Placement.MaxBackoff)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}
	return nil
}

// EventsEnabled reports whether any Kafka broker is configured.
func (c *Config) EventsEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}
