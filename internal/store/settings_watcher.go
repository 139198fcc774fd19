package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"habitloop/internal/types"
)

// SettingsWatcher hot-reloads user settings from a YAML override file.
// Non-zero fields in the file are applied over the stored settings row, so
// editing settings.yaml while the app runs re-emits the settings stream.
type SettingsWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	store    *LocalStore
	path     string
	debounce time.Duration
	pending  time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	log      *zap.Logger
}

// settingsOverride mirrors types.Settings with pointer fields so absent keys
// stay untouched.
type settingsOverride struct {
	DisplayName    *string `yaml:"display_name"`
	Username       *string `yaml:"username"`
	Email          *string `yaml:"email"`
	OnboardingGoal *string `yaml:"onboarding_goal"`
	TutorialSeen   *bool   `yaml:"tutorial_seen"`
	FullAccess     *bool   `yaml:"full_access"`
	SoundEnabled   *bool   `yaml:"sound_enabled"`
	CoachEnabled   *bool   `yaml:"coach_enabled"`
}

// NewSettingsWatcher builds a watcher for the given override file.
func NewSettingsWatcher(s *LocalStore, path string, log *zap.Logger) (*SettingsWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = s.log
	}
	return &SettingsWatcher{
		watcher:  w,
		store:    s,
		path:     path,
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		log:      log,
	}, nil
}

// Start applies the file once if present, then watches its directory for
// changes. Non-blocking.
func (sw *SettingsWatcher) Start(ctx context.Context) error {
	sw.mu.Lock()
	if sw.running {
		sw.mu.Unlock()
		return nil
	}
	sw.running = true
	sw.mu.Unlock()

	// Watch the directory: editors replace files, which drops a watch on
	// the file itself.
	dir := filepath.Dir(sw.path)
	if err := sw.watcher.Add(dir); err != nil {
		sw.log.Warn("settings watch failed", zap.String("dir", dir), zap.Error(err))
	}

	if _, err := os.Stat(sw.path); err == nil {
		sw.apply(ctx)
	}

	go sw.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its loop to exit.
func (sw *SettingsWatcher) Stop() {
	sw.mu.Lock()
	if !sw.running {
		sw.mu.Unlock()
		return
	}
	sw.running = false
	sw.mu.Unlock()

	close(sw.stopCh)
	<-sw.doneCh
	if err := sw.watcher.Close(); err != nil {
		sw.log.Warn("settings watcher close failed", zap.Error(err))
	}
}

func (sw *SettingsWatcher) run(ctx context.Context) {
	defer close(sw.doneCh)

	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sw.stopCh:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if event.Name != sw.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			sw.mu.Lock()
			sw.pending = time.Now()
			sw.mu.Unlock()
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.log.Warn("settings watcher error", zap.Error(err))
		case <-tick.C:
			sw.mu.Lock()
			due := !sw.pending.IsZero() && time.Since(sw.pending) >= sw.debounce
			if due {
				sw.pending = time.Time{}
			}
			sw.mu.Unlock()
			if due {
				sw.apply(ctx)
			}
		}
	}
}

// apply reads the override file and merges it into the stored settings.
func (sw *SettingsWatcher) apply(ctx context.Context) {
	data, err := os.ReadFile(sw.path)
	if err != nil {
		if !os.IsNotExist(err) {
			sw.log.Warn("read settings override failed", zap.Error(err))
		}
		return
	}

	var ov settingsOverride
	if err := yaml.Unmarshal(data, &ov); err != nil {
		sw.log.Warn("parse settings override failed", zap.Error(err))
		return
	}

	current, err := sw.store.Settings(ctx)
	if err != nil {
		sw.log.Warn("load settings failed", zap.Error(err))
		return
	}

	merged := mergeOverride(current, ov)
	if merged == current {
		return
	}
	if err := sw.store.SaveSettings(ctx, merged); err != nil {
		sw.log.Warn("apply settings override failed", zap.Error(err))
		return
	}
	sw.log.Info("settings override applied", zap.String("path", sw.path))
}

func mergeOverride(s types.Settings, ov settingsOverride) types.Settings {
	if ov.DisplayName != nil {
		s.DisplayName = *ov.DisplayName
	}
	if ov.Username != nil {
		s.Username = *ov.Username
	}
	if ov.Email != nil {
		s.Email = *ov.Email
	}
	if ov.OnboardingGoal != nil {
		s.OnboardingGoal = *ov.OnboardingGoal
	}
	if ov.TutorialSeen != nil {
		s.TutorialSeen = *ov.TutorialSeen
	}
	if ov.FullAccess != nil {
		s.FullAccess = *ov.FullAccess
	}
	if ov.SoundEnabled != nil {
		s.SoundEnabled = *ov.SoundEnabled
	}
	if ov.CoachEnabled != nil {
		s.CoachEnabled = *ov.CoachEnabled
	}
	return s
}
