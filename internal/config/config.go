// Package config loads critpath runtime settings from .critpath.yaml,
// CRITPATH_* environment variables, and CLI flags.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config holds all runtime configuration for critpath.
// Values are populated from .critpath.yaml, CRITPATH_* env vars, and CLI flags.
type Config struct {
	DBPath          string        `mapstructure:"db_path"`
	Workers         int           `mapstructure:"workers"`
	ScheduleTimeout time.Duration `mapstructure:"schedule_timeout"`
	Interval        time.Duration `mapstructure:"interval"`
	TelemetryPath   string        `mapstructure:"telemetry_path"`
	Verbose         bool          `mapstructure:"verbose"`
	Log             LogConfig     `mapstructure:"log"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags. The result is
// validated before it is returned.
func Load() (Config, error) {
	viper.SetDefault("db_path", "critpath.db")
	viper.SetDefault("workers", 4)
	viper.SetDefault("schedule_timeout", 30*time.Second)
	viper.SetDefault("interval", 0)
	viper.SetDefault("telemetry_path", "")
	viper.SetDefault("verbose", false)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("config: db_path must not be empty"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("config: workers must be at least 1, got %d", c.Workers))
	}
	if c.ScheduleTimeout < 0 {
		errs = append(errs, fmt.Errorf("config: schedule_timeout must not be negative, got %s", c.ScheduleTimeout))
	}
	if c.Interval < 0 {
		errs = append(errs, fmt.Errorf("config: interval must not be negative, got %s", c.Interval))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("config: log.format must be console or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
