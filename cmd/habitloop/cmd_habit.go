package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var habitEmoji string

// habitCmd groups habit management.
var habitCmd = &cobra.Command{
	Use:   "habit",
	Short: "Manage tracked habits",
}

var habitAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a habit to the daily list",
	Args:  cobra.ExactArgs(1),
	RunE:  addHabit,
}

var habitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enabled habits with today's completion state",
	RunE:  listHabits,
}

func init() {
	habitAddCmd.Flags().StringVar(&habitEmoji, "emoji", "", "emoji shown on the habit card")
	habitCmd.AddCommand(habitAddCmd, habitListCmd)
}

func addHabit(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	h, err := s.AddHabit(cmd.Context(), args[0], habitEmoji)
	if err != nil {
		return err
	}
	fmt.Printf("Added %s %s (%s)\n", h.Emoji, h.Name, h.ID)
	return nil
}

func listHabits(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	habits, err := s.EnabledHabits(ctx)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		fmt.Println("No habits yet. Add one with 'habitloop habit add'.")
		return nil
	}
	entry, err := s.TodayEntry(ctx)
	if err != nil {
		return err
	}

	for _, h := range habits {
		mark := " "
		if entry.Completed(h.ID) {
			mark = "x"
		}
		fmt.Printf("[%s] %s %s  (%s)\n", mark, h.Emoji, h.Name, h.ID)
	}
	return nil
}
