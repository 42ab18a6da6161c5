// Package config holds the CLI runtime configuration: logging, serve-mode
// behavior and render defaults. Values come from an optional config file,
// EASEL_*-prefixed environment variables and command flags, resolved through
// viper in that precedence order. The per-workspace easel.toml (project name,
// breakpoints, autosave) is separate and lives in the root easel package.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full CLI runtime configuration.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger"`
	Serve  ServeConfig  `mapstructure:"serve"`
	Render RenderConfig `mapstructure:"render"`
}

// LoggerConfig configures the zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"` // console or json
	ServiceName string `mapstructure:"service_name"`

	// LogFile enables an additional JSON file core, rotated by lumberjack.
	LogFile    string `mapstructure:"log_file"`
	MaxSize    int    `mapstructure:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// ServeConfig configures the MCP serve command.
type ServeConfig struct {
	// Watch reloads the document when the file changes on disk.
	Watch bool `mapstructure:"watch"`

	// WatchDebounce coalesces bursts of file events into one reload.
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`
}

// RenderConfig configures the render command defaults.
type RenderConfig struct {
	// Breakpoint previews the document at a named breakpoint.
	Breakpoint string `mapstructure:"breakpoint"`

	// Width picks the breakpoint matching a pixel width instead; ignored
	// when Breakpoint is set. Zero means the default breakpoint.
	Width float64 `mapstructure:"width"`
}

// SetDefaults seeds every configuration key so viper.Unmarshal always yields
// a complete Config.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "easel")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	v.SetDefault("serve.watch", false)
	v.SetDefault("serve.watch_debounce", 250*time.Millisecond)

	v.SetDefault("render.breakpoint", "")
	v.SetDefault("render.width", 0.0)
}

// NewDefault returns a Config populated with the defaults alone.
func NewDefault() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults always unmarshal; anything else is a programming error.
		panic(fmt.Sprintf("unmarshal default config: %v", err))
	}
	return &cfg
}

// FromViper unmarshals and validates the resolved configuration.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the commands cannot run with.
func (c *Config) Validate() error {
	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format %q is not one of console, json", c.Logger.Format)
	}
	if c.Serve.WatchDebounce < 0 {
		return fmt.Errorf("serve.watch_debounce %s is negative", c.Serve.WatchDebounce)
	}
	if c.Render.Width < 0 {
		return fmt.Errorf("render.width %g is negative", c.Render.Width)
	}
	return nil
}
