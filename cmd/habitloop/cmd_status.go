package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// statusCmd prints a summary of today's state.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's progress, streak, rewards, and achievements",
	RunE:  showStatus,
}

func showStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	settings, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	habits, err := s.EnabledHabits(ctx)
	if err != nil {
		return err
	}
	entry, err := s.TodayEntry(ctx)
	if err != nil {
		return err
	}
	streak, err := s.StreakInfo(ctx)
	if err != nil {
		return err
	}
	week, err := s.WeekData(ctx, 0)
	if err != nil {
		return err
	}
	points, err := s.RewardPoints(ctx)
	if err != nil {
		return err
	}
	stats, err := s.GamificationStats(ctx)
	if err != nil {
		return err
	}
	badges, err := s.Achievements(ctx)
	if err != nil {
		return err
	}

	name := settings.PreferredName()
	if name == "" {
		name = "there"
	}
	done := 0
	for _, h := range habits {
		if entry.Completed(h.ID) {
			done++
		}
	}

	fmt.Printf("Hey %s.\n", name)
	fmt.Printf("Today: %d/%d habits done.\n", done, len(habits))
	fmt.Printf("Streak: %d days (best %d).\n", streak.Current, streak.Longest)
	if week.PerfectElapsed() {
		fmt.Println("This week is perfect so far.")
	}
	fmt.Printf("Level %d, %d XP, %d reward points.\n", stats.Level, stats.XP, points)
	if len(badges) > 0 {
		fmt.Printf("Achievements: %d unlocked.\n", len(badges))
	}
	for _, h := range habits {
		mark := " "
		if entry.Completed(h.ID) {
			mark = "x"
		}
		fmt.Printf("  [%s] %s %s\n", mark, h.Emoji, h.Name)
	}
	return nil
}
