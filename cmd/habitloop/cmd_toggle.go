package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var toggleOff bool

// toggleCmd runs a one-shot completion cascade.
var toggleCmd = &cobra.Command{
	Use:   "toggle [habit-id]",
	Short: "Mark a habit done (or undone with --off) for today",
	Long: `Flips today's completion for the given habit and runs the full
reaction chain: rewards, gamification, streak achievements, habit-stack
nudge, reminder learning, and audio/AI coaching.`,
	Args: cobra.ExactArgs(1),
	RunE: toggleHabit,
}

func init() {
	toggleCmd.Flags().BoolVar(&toggleOff, "off", false, "mark the habit not completed")
}

func toggleHabit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	c, err := buildCore(ctx, s)
	if err != nil {
		return err
	}

	habitID := args[0]
	if err := c.ToggleHabit(ctx, habitID, !toggleOff); err != nil {
		return err
	}

	streak, err := s.StreakInfo(ctx)
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
	done := 0
	for _, h := range habits {
		if entry.Completed(h.ID) {
			done++
		}
	}

	fmt.Printf("Today: %d/%d habits done. Streak: %d (best %d).\n",
		done, len(habits), streak.Current, streak.Longest)
	if done == len(habits) && len(habits) > 0 {
		fmt.Println("Perfect day.")
	}
	return nil
}
