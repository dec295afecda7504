package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Auth.AdminTokenSecret)
	assert.Equal(t, 100*time.Millisecond, cfg.Scheduler.TickInterval)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.GrantWindow)
	assert.Equal(t, 256, cfg.Events.BufferSize)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("BGBRIDGE_SERVER_PORT", "9090")
	t.Setenv("BGBRIDGE_SERVER_LOG_LEVEL", "debug")
	t.Setenv("BGBRIDGE_SCHEDULER_GRANT_WINDOW", "45s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 45*time.Second, cfg.Scheduler.GrantWindow)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
server:
  port: 7070
  log_level: warn
scheduler:
  tick_interval: 250ms
  grant_window: 1m
events:
  buffer_size: 64
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.Scheduler.TickInterval)
	assert.Equal(t, time.Minute, cfg.Scheduler.GrantWindow)
	assert.Equal(t, 64, cfg.Events.BufferSize)
}

func TestLoadValidation(t *testing.T) {
	t.Run("rejects invalid log level", func(t *testing.T) {
		t.Setenv("BGBRIDGE_SERVER_LOG_LEVEL", "loud")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects out of range port", func(t *testing.T) {
		t.Setenv("BGBRIDGE_SERVER_PORT", "70000")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects short admin token secret", func(t *testing.T) {
		t.Setenv("BGBRIDGE_AUTH_ADMIN_TOKEN_SECRET", "too-short")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
