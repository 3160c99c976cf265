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
	t.Setenv("FOREMAN_AUTH_MODE", "none")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8085", cfg.ListenAddr)
	assert.Equal(t, ".foreman", cfg.StateDir)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 10, cfg.SaveInterval)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("FOREMAN_AUTH_MODE", "api-key")
	t.Setenv("FOREMAN_API_KEY", "secret")
	t.Setenv("FOREMAN_POLL_INTERVAL", "500ms")
	t.Setenv("FOREMAN_STATE_DIR", "/var/lib/foreman")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "/var/lib/foreman", cfg.StateDir)
}

func TestLoadRequiresAPIKeyInAPIKeyMode(t *testing.T) {
	t.Setenv("FOREMAN_AUTH_MODE", "api-key")
	t.Setenv("FOREMAN_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key is required")
}

func TestFileOverridesEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foreman.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll_interval: 10s\nsave_interval: 3\n"), 0o644))

	t.Setenv("FOREMAN_AUTH_MODE", "none")
	t.Setenv("FOREMAN_POLL_INTERVAL", "1s")
	t.Setenv("FOREMAN_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 3, cfg.SaveInterval)
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("FOREMAN_AUTH_MODE", "none")
	t.Setenv("FOREMAN_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		StateDir:     ".foreman",
		PollInterval: time.Second,
		SaveInterval: 5,
		AuthMode:     "none",
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.StateDir = ""
	assert.Error(t, bad.Validate())

	bad = base
	bad.PollInterval = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.SaveInterval = -1
	assert.Error(t, bad.Validate())

	bad = base
	bad.AuthMode = "basic"
	assert.Error(t, bad.Validate())
}
