package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"habitloop/internal/types"
)

// ErrUnknownHabit is returned when an operation references a habit ID that
// does not exist.
var ErrUnknownHabit = errors.New("unknown habit")

// AddHabit creates a new custom habit at the end of the display order and
// returns it.
func (s *LocalStore) AddHabit(ctx context.Context, name, emoji string) (types.Habit, error) {
	h := types.Habit{
		ID:      uuid.NewString(),
		Name:    name,
		Emoji:   emoji,
		Enabled: true,
		Custom:  true,
	}

	row := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(display_order), -1) + 1 FROM habits`)
	if err := row.Scan(&h.Order); err != nil {
		return types.Habit{}, fmt.Errorf("next display order: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habits (id, name, emoji, enabled, display_order, custom, created_at)
		VALUES (?, ?, ?, 1, ?, 1, ?)`,
		h.ID, h.Name, h.Emoji, h.Order, s.now())
	if err != nil {
		return types.Habit{}, fmt.Errorf("insert habit: %w", err)
	}

	s.notify(topicHabits, topicEntries)
	return h, nil
}

// SetHabitEnabled toggles whether a habit is tracked.
func (s *LocalStore) SetHabitEnabled(ctx context.Context, habitID string, enabled bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE habits SET enabled = ? WHERE id = ?`, boolInt(enabled), habitID)
	if err != nil {
		return fmt.Errorf("update habit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUnknownHabit
	}
	s.notify(topicHabits, topicEntries)
	return nil
}

// EnabledHabits returns the tracked habits in display order.
func (s *LocalStore) EnabledHabits(ctx context.Context) ([]types.Habit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, emoji, enabled, display_order, custom
		FROM habits WHERE enabled = 1 ORDER BY display_order, created_at`)
	if err != nil {
		return nil, fmt.Errorf("query habits: %w", err)
	}
	defer rows.Close()

	var habits []types.Habit
	for rows.Next() {
		var h types.Habit
		var enabled, custom int
		if err := rows.Scan(&h.ID, &h.Name, &h.Emoji, &enabled, &h.Order, &custom); err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		h.Enabled = enabled != 0
		h.Custom = custom != 0
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

// HabitByID fetches a single habit.
func (s *LocalStore) HabitByID(ctx context.Context, habitID string) (types.Habit, error) {
	var h types.Habit
	var enabled, custom int
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, emoji, enabled, display_order, custom
		FROM habits WHERE id = ?`, habitID).
		Scan(&h.ID, &h.Name, &h.Emoji, &enabled, &h.Order, &custom)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Habit{}, ErrUnknownHabit
	}
	if err != nil {
		return types.Habit{}, fmt.Errorf("query habit: %w", err)
	}
	h.Enabled = enabled != 0
	h.Custom = custom != 0
	return h, nil
}

// CustomHabitCount returns how many habits the user created themselves.
func (s *LocalStore) CustomHabitCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM habits WHERE custom = 1`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count custom habits: %w", err)
	}
	return n, nil
}

// SubscribeEnabledHabits emits the enabled habit list now and on every change.
func (s *LocalStore) SubscribeEnabledHabits(ctx context.Context) <-chan []types.Habit {
	return subscribe(ctx, s, topicHabits, s.EnabledHabits)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
