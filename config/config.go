// Package config loads waterfall-go's ambient (env-sourced) settings and
// its two structured documents: the System config (storage/executor/server
// wiring) and the World definition (tasks/calendars), both plain JSON.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// EnvConfig holds the handful of settings that are better sourced from the
// environment than from the --config file: things that vary per deployment
// target rather than per world (log format via ENV, log level).
type EnvConfig struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`
}

// Load reads EnvConfig from the environment and validates it.
func Load() (*EnvConfig, error) {
	cfg := &EnvConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid env config: %w", err)
	}

	return cfg, nil
}

// SlogLevel converts LogLevel to an slog.Level.
func (c *EnvConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadJSON decodes a JSON document at path into dst, rejecting unknown
// fields, then validates dst with go-playground/validator. Used for both
// the System config and the World definition.
func LoadJSON(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	if err := validator.New().Struct(dst); err != nil {
		return fmt.Errorf("invalid %s: %w", path, err)
	}

	return nil
}
