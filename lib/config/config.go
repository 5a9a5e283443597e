// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/greendale-community/greendale/lib/cron"
)

// Environment selects environment-specific defaults and overrides.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Schedules used when retention.schedule is empty.
const (
	DevelopmentSweepSchedule = "*/5 * * * *"
	DailySweepSchedule       = "0 2 * * *"
)

// EnvVar names the environment variable read by Load.
const EnvVar = "GREENDALE_CONFIG"

// Config is the root of greendale.yaml.
type Config struct {
	Environment Environment `yaml:"environment"`

	Database  DatabaseConfig  `yaml:"database"`
	Retention RetentionConfig `yaml:"retention"`
	Lock      LockConfig      `yaml:"lock"`
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`

	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides holds per-environment replacements. Non-zero fields win.
type Overrides struct {
	Database  *DatabaseConfig  `yaml:"database,omitempty"`
	Retention *RetentionConfig `yaml:"retention,omitempty"`
	Lock      *LockConfig      `yaml:"lock,omitempty"`
	HTTP      *HTTPConfig      `yaml:"http,omitempty"`
	Log       *LogConfig       `yaml:"log,omitempty"`
}

type DatabaseConfig struct {
	Path     string `yaml:"path"`
	PoolSize int    `yaml:"pool_size"`
}

// RetentionConfig controls the soft-delete purge sweep.
type RetentionConfig struct {
	// Schedule is a five-field cron expression evaluated in UTC.
	Schedule string `yaml:"schedule"`

	// Window is how long a soft-deleted event survives before the
	// sweep may purge it.
	Window time.Duration `yaml:"window"`

	// RunOnStart requests one sweep StartDelay after startup. Only
	// honoured in development.
	RunOnStart bool          `yaml:"run_on_start"`
	StartDelay time.Duration `yaml:"start_delay"`

	// Disabled turns the scheduled sweep off entirely. Manual sweeps
	// still work.
	Disabled bool `yaml:"disabled"`
}

// LockConfig controls the cluster-wide sweep lock.
type LockConfig struct {
	// Lease bounds how long a crashed holder can keep the lock.
	Lease time.Duration `yaml:"lease"`

	// Holder identifies this process in the lock table. Empty means
	// hostname plus a random suffix.
	Holder string `yaml:"holder"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the development configuration used when no file is
// given.
func Default() *Config {
	return &Config{
		Environment: Development,
		Database: DatabaseConfig{
			Path: "${GREENDALE_DATA:-.}/greendale.db",
		},
		Retention: RetentionConfig{
			Window:     30 * 24 * time.Hour,
			StartDelay: 5 * time.Second,
		},
		Lock: LockConfig{
			Lease: 10 * time.Minute,
		},
		HTTP: HTTPConfig{Listen: "127.0.0.1:8080"},
		Log:  LogConfig{Level: "info"},
	}
}

// Load reads the file named by GREENDALE_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"point it at greendale.yaml or pass --config", EnvVar)
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults, applies the active
// environment's overrides and expands ${VAR} references.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.Finalize()
	return cfg, nil
}

// Finalize applies environment overrides, fills environment-dependent
// defaults and expands variables. LoadFile calls it; callers that
// build a Config in code call it themselves.
func (c *Config) Finalize() {
	c.applyOverrides()
	if c.Retention.Schedule == "" {
		if c.Environment == Development {
			c.Retention.Schedule = DevelopmentSweepSchedule
		} else {
			c.Retention.Schedule = DailySweepSchedule
		}
	}
	c.Database.Path = expandVars(c.Database.Path)
	c.Lock.Holder = expandVars(c.Lock.Holder)
}

func (c *Config) applyOverrides() {
	var o *Overrides
	switch c.Environment {
	case Development:
		o = c.Development
	case Staging:
		o = c.Staging
	case Production:
		o = c.Production
	}
	if o == nil {
		return
	}

	if o.Database != nil {
		c.Database.Path = firstNonZero(o.Database.Path, c.Database.Path)
		c.Database.PoolSize = firstNonZero(o.Database.PoolSize, c.Database.PoolSize)
	}
	if o.Retention != nil {
		c.Retention.Schedule = firstNonZero(o.Retention.Schedule, c.Retention.Schedule)
		c.Retention.Window = firstNonZero(o.Retention.Window, c.Retention.Window)
		c.Retention.StartDelay = firstNonZero(o.Retention.StartDelay, c.Retention.StartDelay)
		c.Retention.RunOnStart = o.Retention.RunOnStart
		c.Retention.Disabled = o.Retention.Disabled
	}
	if o.Lock != nil {
		c.Lock.Lease = firstNonZero(o.Lock.Lease, c.Lock.Lease)
		c.Lock.Holder = firstNonZero(o.Lock.Holder, c.Lock.Holder)
	}
	if o.HTTP != nil {
		c.HTTP.Listen = firstNonZero(o.HTTP.Listen, c.HTTP.Listen)
	}
	if o.Log != nil {
		c.Log.Level = firstNonZero(o.Log.Level, c.Log.Level)
	}
}

func firstNonZero[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces ${NAME} and ${NAME:-default} with the process
// environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case Development, Staging, Production:
	default:
		errs = append(errs, fmt.Errorf("invalid environment: %q", c.Environment))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Database.PoolSize < 0 {
		errs = append(errs, fmt.Errorf("database.pool_size must not be negative, got %d", c.Database.PoolSize))
	}
	if _, err := cron.Parse(c.Retention.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("retention.schedule: %w", err))
	}
	if c.Retention.Window <= 0 {
		errs = append(errs, fmt.Errorf("retention.window must be positive, got %s", c.Retention.Window))
	}
	if c.Retention.StartDelay < 0 {
		errs = append(errs, fmt.Errorf("retention.start_delay must not be negative, got %s", c.Retention.StartDelay))
	}
	if c.Lock.Lease <= 0 {
		errs = append(errs, fmt.Errorf("lock.lease must be positive, got %s", c.Lock.Lease))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SweepSchedule returns the parsed retention schedule. Call Validate
// first.
func (c *Config) SweepSchedule() (cron.Schedule, error) {
	return cron.Parse(c.Retention.Schedule)
}

// StartupSweep reports whether a sweep should run shortly after
// startup and how long to wait before it.
func (c *Config) StartupSweep() (time.Duration, bool) {
	if c.Environment != Development || !c.Retention.RunOnStart {
		return 0, false
	}
	return c.Retention.StartDelay, true
}

// ManualSweepAllowed reports whether operators may trigger a sweep
// over HTTP. Production relies on the schedule alone.
func (c *Config) ManualSweepAllowed() bool {
	return c.Environment != Production
}

// SlogLevel parses the configured level name.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
