package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port   string `env:"TASKPOINTS_PORT" envDefault:"8080"`
	DBPath string `env:"TASKPOINTS_DB_PATH" envDefault:"taskpoints.db"`

	// Credentials
	JWTSecret string        `env:"TASKPOINTS_JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TASKPOINTS_TOKEN_TTL" envDefault:"168h"`

	// Point economy
	CompletionReward int `env:"TASKPOINTS_COMPLETION_REWARD" envDefault:"2"`

	// Admin bootstrap (POST /api/v1/admin/init)
	AdminEmail    string `env:"TASKPOINTS_ADMIN_EMAIL"`
	AdminPassword string `env:"TASKPOINTS_ADMIN_PASSWORD"`

	LogLevel string `env:"TASKPOINTS_LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.CompletionReward <= 0 {
		return nil, fmt.Errorf("completion reward must be positive, got %d", cfg.CompletionReward)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", cfg.TokenTTL)
	}
	return cfg, nil
}
