package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout())
	assert.True(t, cfg.HashOnly)
	assert.Equal(t, DefaultSidecarPort, cfg.Sidecar.Port)
}

func TestLoad_FromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	dir := filepath.Join(home, ".treeship")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(
		"api_url: https://staging.treeship.dev\nagent: file-agent\ntimeout_seconds: 5\nsidecar:\n  port: 3030\n"), 0600))

	cfg := Load()
	assert.Equal(t, "https://staging.treeship.dev", cfg.APIURL)
	assert.Equal(t, "file-agent", cfg.Agent)
	assert.Equal(t, 5*time.Second, cfg.Timeout())
	assert.Equal(t, 3030, cfg.Sidecar.Port)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	dir := filepath.Join(home, ".treeship")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("agent: file-agent\n"), 0600))

	t.Setenv("TREESHIP_AGENT", "env-agent")
	t.Setenv("TREESHIP_SIDECAR_PORT", "4040")
	t.Setenv("TREESHIP_HASH_ONLY", "false")

	cfg := Load()
	assert.Equal(t, "env-agent", cfg.Agent)
	assert.Equal(t, 4040, cfg.Sidecar.Port)
	assert.False(t, cfg.HashOnly)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PortFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)
	t.Setenv("PORT", "8099")

	assert.Equal(t, 8099, Load().Sidecar.Port)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TREESHIP_API_URL", "TREESHIP_AGENT", "TREESHIP_TIMEOUT", "TREESHIP_HASH_ONLY", "TREESHIP_SIDECAR_PORT", "PORT"} {
		t.Setenv(k, "")
	}
}
