package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"habitloop/internal/audio"
	"habitloop/internal/coach"
	"habitloop/internal/config"
	"habitloop/internal/core"
	"habitloop/internal/logging"
	"habitloop/internal/store"
)

var (
	// Global flags
	cfgPath string
	verbose bool

	// Loaded in PersistentPreRunE, shared by every command.
	cfg config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "habitloop",
	Short: "habitloop - local-first habit tracking core",
	Long: `habitloop tracks daily habits against a local SQLite database and runs
the full reaction pipeline behind every check-off: streaks, rewards,
achievements, habit-stack nudges, smart reminders, and optional AI and
audio coaching.

Run 'habitloop run' to start the live core, or use the one-shot commands
(habit, toggle, status) for scripting.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgPath
		if path == "" {
			path = filepath.Join(config.Default().DataDir, "config.yaml")
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Level = "debug"
			cfg.Logging.Development = true
		}
		if cfg.Logging.Dir == "" {
			cfg.Logging.Dir = cfg.DataDir
		}
		if _, err := logging.Init(cfg.Logging); err != nil {
			return fmt.Errorf("initialize logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd, habitCmd, toggleCmd, statusCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openStore opens the local database configured in cfg.
func openStore() (*store.LocalStore, error) {
	return store.Open(cfg.Storage.Path, store.Options{
		BusyTimeout:        cfg.StorageBusyTimeout(),
		TrialDays:          cfg.Trial.Days,
		MinReminderSamples: cfg.Reminders.MinSamples,
		Logger:             logging.Named(logging.CategoryStore),
	})
}

// buildCore assembles the orchestration core around an open store.
func buildCore(ctx context.Context, s *store.LocalStore) (*core.Core, error) {
	aiCoach, err := coach.New(ctx, coach.Config{
		Enabled: cfg.Coach.Enabled,
		APIKey:  cfg.Coach.APIKey,
		Model:   cfg.Coach.Model,
		Timeout: cfg.CoachTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("build coach: %w", err)
	}

	deps := core.Deps{
		Habits:       s,
		Entries:      s,
		Settings:     s,
		Stacks:       s,
		Wellness:     s,
		Rewards:      s,
		Gamification: s,
		Achievements: s,
		Audio:        audio.NewEngine(nil, cfg.Audio.Enabled),
		Coach:        aiCoach,
		Model:        coach.NewDownloader(),
	}
	if cfg.Reminders.Enabled {
		deps.Reminders = s
	}
	return core.New(deps), nil
}
