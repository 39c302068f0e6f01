/*
Package config loads server and engine settings.

SOURCES (later wins):
  1. Defaults
  2. YAML file given with -config
  3. .env file in the working directory (optional)
  4. Environment variables

ENVIRONMENT:
  PAY_PORT                    HTTP port
  PAY_DB                      SQLite path (":memory:" for tests)
  PAY_TIMEZONE                Restaurant timezone (IANA name)
  PAY_PRORATION               Salary proration: average | calendar
  PAY_EXCLUDE_SHORT_SESSIONS  Drop abnormally short sessions from pay
  LOG_LEVEL                   debug | info | warn | error

YAML:
  server:
    port: 8080
    db: pay.db
  engine:
    timezone: America/Sao_Paulo
    proration: average
    exclude_short_sessions: false
    tip_role_weights:
      server: 1
      busser: 0.5
  log:
    level: info
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/compensation"
	"github.com/warp/pay-engine/punch"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Engine EngineConfig `yaml:"engine"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	DBPath string `yaml:"db"`
}

// EngineConfig holds the policy knobs the calculation packages take as
// options.
type EngineConfig struct {
	Timezone             string             `yaml:"timezone"`
	Proration            string             `yaml:"proration"`
	ExcludeShortSessions bool               `yaml:"exclude_short_sessions"`
	TipRoleWeights       map[string]float64 `yaml:"tip_role_weights"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, DBPath: "pay.db"},
		Engine: EngineConfig{
			Timezone:  "UTC",
			Proration: string(compensation.ProrationAverage),
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PAY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PAY_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("PAY_DB"); v != "" {
		c.Server.DBPath = v
	}
	if v := os.Getenv("PAY_TIMEZONE"); v != "" {
		c.Engine.Timezone = v
	}
	if v := os.Getenv("PAY_PRORATION"); v != "" {
		c.Engine.Proration = v
	}
	if v := os.Getenv("PAY_EXCLUDE_SHORT_SESSIONS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid PAY_EXCLUDE_SHORT_SESSIONS: %w", err)
		}
		c.Engine.ExcludeShortSessions = b
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Server.Port)
	}
	if c.Server.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := compensation.ParseProration(c.Engine.Proration); err != nil {
		return err
	}
	for role, w := range c.Engine.TipRoleWeights {
		if w < 0 {
			return fmt.Errorf("tip role weight for %q must not be negative", role)
		}
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// =============================================================================
// ENGINE OPTIONS
// =============================================================================

// Location resolves the restaurant timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Engine.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Engine.Timezone, err)
	}
	return loc, nil
}

// PunchOptions returns the session-building options. Call after Validate.
func (c *Config) PunchOptions() punch.Options {
	loc, err := c.Location()
	if err != nil {
		loc = time.UTC
	}
	return punch.Options{Location: loc, ExcludeShortSessions: c.Engine.ExcludeShortSessions}
}

// CompensationOptions returns the pay options. Call after Validate.
func (c *Config) CompensationOptions() compensation.Options {
	strategy, err := compensation.ParseProration(c.Engine.Proration)
	if err != nil {
		strategy = compensation.ProrationAverage
	}
	return compensation.Options{Proration: strategy}
}

// RoleWeights returns the tip-pool weight per position.
func (c *Config) RoleWeights() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(c.Engine.TipRoleWeights))
	for role, w := range c.Engine.TipRoleWeights {
		out[role] = decimal.NewFromFloat(w)
	}
	return out
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
