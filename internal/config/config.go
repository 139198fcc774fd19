// Package config loads habitloop configuration from YAML with sensible
// defaults for every field, so a missing or partial config file never blocks
// startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"habitloop/internal/logging"
)

// Config holds all habitloop configuration.
type Config struct {
	// DataDir is where the SQLite database, logs, and settings overrides live.
	DataDir string `yaml:"data_dir"`

	Storage   StorageConfig  `yaml:"storage"`
	Logging   logging.Config `yaml:"logging"`
	Coach     CoachConfig    `yaml:"coach"`
	Audio     AudioConfig    `yaml:"audio"`
	Reminders ReminderConfig `yaml:"reminders"`
	Trial     TrialConfig    `yaml:"trial"`
}

// StorageConfig configures the local store.
type StorageConfig struct {
	// Path of the SQLite database. Relative paths resolve under DataDir.
	Path string `yaml:"path"`
	// BusyTimeout for SQLite, e.g. "5s".
	BusyTimeout string `yaml:"busy_timeout"`
}

// CoachConfig configures the Gemini commentary collaborator.
type CoachConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"` // falls back to GEMINI_API_KEY
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// AudioConfig configures audio reinforcement.
type AudioConfig struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"` // 0..1
}

// ReminderConfig configures the smart-reminder learner.
type ReminderConfig struct {
	Enabled    bool `yaml:"enabled"`
	MinSamples int  `yaml:"min_samples"` // samples needed before suggesting a time
}

// TrialConfig configures the free-trial window.
type TrialConfig struct {
	Days int `yaml:"days"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".habitloop")
	return Config{
		DataDir: dataDir,
		Storage: StorageConfig{
			Path:        "habitloop.db",
			BusyTimeout: "5s",
		},
		Logging: logging.Config{
			Level: "info",
		},
		Coach: CoachConfig{
			Enabled: true,
			Model:   "gemini-2.0-flash",
			Timeout: "10s",
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  0.8,
		},
		Reminders: ReminderConfig{
			Enabled:    true,
			MinSamples: 3,
		},
		Trial: TrialConfig{Days: 7},
	}
}

// Load reads the YAML config at path layered over Default(). A missing file
// is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.normalize()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

// normalize fills zero values and resolves relative paths.
func (c *Config) normalize() {
	def := Default()
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.Storage.Path == "" {
		c.Storage.Path = def.Storage.Path
	}
	if !filepath.IsAbs(c.Storage.Path) {
		c.Storage.Path = filepath.Join(c.DataDir, c.Storage.Path)
	}
	if c.Storage.BusyTimeout == "" {
		c.Storage.BusyTimeout = def.Storage.BusyTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Coach.Model == "" {
		c.Coach.Model = def.Coach.Model
	}
	if c.Coach.Timeout == "" {
		c.Coach.Timeout = def.Coach.Timeout
	}
	if c.Coach.APIKey == "" {
		c.Coach.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Audio.Volume <= 0 || c.Audio.Volume > 1 {
		c.Audio.Volume = def.Audio.Volume
	}
	if c.Reminders.MinSamples <= 0 {
		c.Reminders.MinSamples = def.Reminders.MinSamples
	}
	if c.Trial.Days <= 0 {
		c.Trial.Days = def.Trial.Days
	}
}

// CoachTimeout parses the coach timeout, defaulting to 10s.
func (c Config) CoachTimeout() time.Duration {
	d, err := time.ParseDuration(c.Coach.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// StorageBusyTimeout parses the SQLite busy timeout, defaulting to 5s.
func (c Config) StorageBusyTimeout() time.Duration {
	d, err := time.ParseDuration(c.Storage.BusyTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// SettingsOverridePath is the hot-reloadable settings file watched at runtime.
func (c Config) SettingsOverridePath() string {
	return filepath.Join(c.DataDir, "settings.yaml")
}
