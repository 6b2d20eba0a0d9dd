package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"MoneyFlow"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"moneyflow"`
	}

	Server struct {
		Timeout         time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	}

	Auth struct {
		JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
		TokenTTL  time.Duration `envconfig:"JWT_TOKEN_TTL" default:"15m"`
	}

	CORS struct {
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:8080"`
	}

	// Redis backs the Idempotency-Key middleware. It is disabled when Addr is empty.
	Redis struct {
		Addr           string        `envconfig:"REDIS_ADDR"`
		DB             int           `envconfig:"REDIS_DB" default:"0"`
		IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"5m"`
	}

	Log struct {
		Level  slog.Level `envconfig:"LOG_LEVEL" default:"INFO"`
		Format string     `envconfig:"LOG_FORMAT" default:"json"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// IdempotencyEnabled reports whether a Redis address was configured.
func (c *Config) IdempotencyEnabled() bool {
	return c.Redis.Addr != ""
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
