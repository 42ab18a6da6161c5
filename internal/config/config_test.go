package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "easel", cfg.Logger.ServiceName)
	assert.Empty(t, cfg.Logger.LogFile)
	assert.False(t, cfg.Serve.Watch)
	assert.Equal(t, 250*time.Millisecond, cfg.Serve.WatchDebounce)
	assert.Zero(t, cfg.Render.Width)
}

func TestFromViperAppliesOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("logger.level", "debug")
	v.Set("logger.format", "json")
	v.Set("serve.watch", true)
	v.Set("serve.watch_debounce", "1s")
	v.Set("render.breakpoint", "phone")

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.True(t, cfg.Serve.Watch)
	assert.Equal(t, time.Second, cfg.Serve.WatchDebounce)
	assert.Equal(t, "phone", cfg.Render.Breakpoint)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "bad logger format",
			mutate:  func(c *Config) { c.Logger.Format = "xml" },
			wantErr: "logger.format",
		},
		{
			name:    "negative debounce",
			mutate:  func(c *Config) { c.Serve.WatchDebounce = -time.Second },
			wantErr: "watch_debounce",
		},
		{
			name:    "negative render width",
			mutate:  func(c *Config) { c.Render.Width = -100 },
			wantErr: "render.width",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
