package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 7, cfg.Trial.Days)
	assert.True(t, filepath.IsAbs(cfg.Storage.Path))
}

func TestLoadOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
data_dir: ` + dir + `
logging:
  level: debug
coach:
  enabled: false
  model: gemini-1.5-pro
trial:
  days: 14
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Coach.Enabled)
	assert.Equal(t, "gemini-1.5-pro", cfg.Coach.Model)
	assert.Equal(t, 14, cfg.Trial.Days)
	assert.Equal(t, filepath.Join(dir, "habitloop.db"), cfg.Storage.Path)
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  - not yaml"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDurationFallbacks(t *testing.T) {
	cfg := Default()
	cfg.Coach.Timeout = "bogus"
	cfg.Storage.BusyTimeout = ""
	assert.Equal(t, 10*time.Second, cfg.CoachTimeout())
	assert.Equal(t, 5*time.Second, cfg.StorageBusyTimeout())
}
