// Package config loads server configuration from the environment.
//
// Every tunable lives here and is read exactly once, in main. Components
// receive the values they need at construction time — nothing reaches for
// os.Getenv at runtime, and the JWT secret in particular is injected as
// immutable state rather than accessed as an ambient global.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds all server configuration, populated from environment
// variables via cleanenv struct tags.
type Config struct {
	Env         string        `env:"ENV" env-default:"development"`
	Port        int           `env:"PORT" env-default:"8080"`
	DBPath      string        `env:"DB_PATH" env-default:"data/fittrack.db"`
	StaticDir   string        `env:"STATIC_DIR" env-default:"public"`
	CORSOrigin  string        `env:"CORS_ORIGIN" env-default:"*"`
	JWTSecret   string        `env:"JWT_SECRET" env-required:"true"`
	JWTLifetime time.Duration `env:"JWT_LIFETIME" env-default:"720h"` // 30 days
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}
	if cfg.Env != EnvDevelopment && cfg.Env != EnvProduction {
		return nil, fmt.Errorf("config: ENV must be %q or %q, got %q",
			EnvDevelopment, EnvProduction, cfg.Env)
	}
	return &cfg, nil
}

// IsProduction reports whether the server runs in production mode.
// Controls the Secure flag on the session cookie.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}
