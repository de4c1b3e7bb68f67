package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" env:"PORT"`
	} `yaml:"server" envPrefix:"SERVER_"`
	Log struct {
		Level string `yaml:"level" env:"LEVEL" validate:"omitempty,oneof=debug info warn error"`
	} `yaml:"log" envPrefix:"LOG_"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
		Audience  string `yaml:"audience" env:"AUDIENCE"`
	} `yaml:"auth" envPrefix:"AUTH_"`
	Entities struct {
		Source  string `yaml:"source" env:"SOURCE" validate:"omitempty,oneof=static http postgres"`
		URL     string `yaml:"url" env:"URL" validate:"required_if=Source http"`
		TTL     string `yaml:"ttl" env:"TTL"`
		Timeout string `yaml:"timeout" env:"TIMEOUT"`
	} `yaml:"entities" envPrefix:"ENTITIES_"`
	Redis struct {
		Addr     string `yaml:"addr" env:"ADDR"`
		Password string `yaml:"password" env:"PASSWORD"`
		DB       int    `yaml:"db" env:"DB" validate:"gte=0"`
		TTL      string `yaml:"ttl" env:"TTL"`
	} `yaml:"redis" envPrefix:"REDIS_"`
	Postgres struct {
		URL string `yaml:"url" env:"URL"`
	} `yaml:"postgres" envPrefix:"POSTGRES_"`
	SQLite struct {
		Path string `yaml:"path" env:"PATH"`
	} `yaml:"sqlite" envPrefix:"SQLITE_"`
	Favorites struct {
		Store             string `yaml:"store" env:"STORE" validate:"omitempty,oneof=memory redis postgres sqlite"`
		RollbackOnFailure bool   `yaml:"rollback_on_failure" env:"ROLLBACK_ON_FAILURE"`
	} `yaml:"favorites" envPrefix:"FAVORITES_"`
	Quiz struct {
		SettleDelay string `yaml:"settle_delay" env:"SETTLE_DELAY"`
	} `yaml:"quiz" envPrefix:"QUIZ_"`
}

// EnvPrefix namespaces every environment override, e.g. FLORIA_REDIS_ADDR.
const EnvPrefix = "FLORIA_"

// Load reads YAML config from path, then applies FLORIA_* environment overrides.
// A missing file is not an error; the result is validated.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks enum values and backend requirements.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Entities.Source == "postgres" && c.Postgres.URL == "" {
		return fmt.Errorf("invalid config: entities.source postgres requires postgres.url")
	}
	switch c.Favorites.Store {
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("invalid config: favorites.store redis requires redis.addr")
		}
	case "postgres":
		if c.Postgres.URL == "" {
			return fmt.Errorf("invalid config: favorites.store postgres requires postgres.url")
		}
	case "sqlite":
		if c.SQLite.Path == "" {
			return fmt.Errorf("invalid config: favorites.store sqlite requires sqlite.path")
		}
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
