package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"habitloop/internal/logging"
	"habitloop/internal/store"
)

// runCmd starts the live orchestration core.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the habit core and block until interrupted",
	Long: `Opens the local store, starts the orchestration core with every
collaborator wired (streak evaluator, overlay mediator, smart reminders,
AI coach, audio cues, settings hot-reload), and blocks until SIGINT or
SIGTERM.`,
	RunE: runCore,
}

func runCore(cmd *cobra.Command, args []string) error {
	log := logging.Named(logging.CategoryBoot)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	watcher, err := store.NewSettingsWatcher(s, cfg.SettingsOverridePath(), nil)
	if err != nil {
		return fmt.Errorf("settings watcher: %w", err)
	}
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("settings watcher: %w", err)
	}
	defer watcher.Stop()

	c, err := buildCore(ctx, s)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer c.Close()

	log.Info("habitloop running",
		zap.String("db", s.Path()),
		zap.String("settings_override", cfg.SettingsOverridePath()))
	fmt.Println("habitloop running. Press Ctrl+C to stop.")

	// Surface layout-mode changes while the core runs.
	snapshots := c.Subscribe(ctx)
	lastMode := -1
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nShutting down...")
			return nil
		case snap := <-snapshots:
			if int(snap.Mode) != lastMode {
				lastMode = int(snap.Mode)
				log.Info("layout mode changed",
					zap.String("mode", snap.Mode.String()),
					zap.Int("completed", snap.CompletedCount),
					zap.Int("total", snap.TotalCount))
			}
		}
	}
}
