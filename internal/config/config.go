// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Archive backends.
const (
	ArchiveSQLite = "sqlite"
	ArchiveRedis  = "redis"
	ArchiveNone   = "none"
)

// Config holds every setting of the campfire binary.
type Config struct {
	Seed         int64         `env:"CAMPFIRE_SEED" envDefault:"42"`
	Population   int           `env:"CAMPFIRE_POPULATION" envDefault:"12"`
	WorldSize    float64       `env:"CAMPFIRE_WORLD_SIZE" envDefault:"400"`
	TickInterval time.Duration `env:"CAMPFIRE_TICK_INTERVAL" envDefault:"100ms"`
	SimStep      time.Duration `env:"CAMPFIRE_SIM_STEP" envDefault:"1s"`
	DBPath       string        `env:"CAMPFIRE_DB_PATH" envDefault:"data/campfire.db"`
	Archive      string        `env:"CAMPFIRE_ARCHIVE" envDefault:"sqlite"`
	RedisURL     string        `env:"REDIS_URL"`
	APIPort      int           `env:"CAMPFIRE_API_PORT" envDefault:"8080"`
	LogLevel     string        `env:"CAMPFIRE_LOG_LEVEL" envDefault:"info"`
	RandomOrgKey string        `env:"RANDOM_ORG_API_KEY"`
	AdminKey     string        `env:"CAMPFIRE_ADMIN_KEY"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the simulation cannot run with.
func (c Config) Validate() error {
	if c.Population < 0 {
		return fmt.Errorf("population must not be negative: %d", c.Population)
	}
	if c.WorldSize <= 0 {
		return fmt.Errorf("world size must be positive: %g", c.WorldSize)
	}
	if c.TickInterval <= 0 || c.SimStep <= 0 {
		return fmt.Errorf("tick interval and sim step must be positive")
	}
	switch c.Archive {
	case ArchiveSQLite, ArchiveNone:
	case ArchiveRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("archive %q needs REDIS_URL", c.Archive)
		}
	default:
		return fmt.Errorf("unknown archive %q", c.Archive)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}
