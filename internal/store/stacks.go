package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"habitloop/internal/types"
)

// SetStack links anchorID to the habit the user wants nudged next. An empty
// nextID removes the stack.
func (s *LocalStore) SetStack(ctx context.Context, anchorID, nextID string) error {
	if _, err := s.HabitByID(ctx, anchorID); err != nil {
		return err
	}
	if nextID == "" {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM habit_stacks WHERE anchor_id = ?`, anchorID); err != nil {
			return fmt.Errorf("delete stack: %w", err)
		}
		s.notify(topicStacks)
		return nil
	}
	if _, err := s.HabitByID(ctx, nextID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habit_stacks (anchor_id, next_id) VALUES (?, ?)
		ON CONFLICT (anchor_id) DO UPDATE SET next_id = excluded.next_id`,
		anchorID, nextID)
	if err != nil {
		return fmt.Errorf("save stack: %w", err)
	}
	s.notify(topicStacks)
	return nil
}

// NextInChain returns the habit stacked after anchorID, if any.
func (s *LocalStore) NextInChain(ctx context.Context, anchorID string) (string, bool, error) {
	var next string
	err := s.db.QueryRowContext(ctx,
		`SELECT next_id FROM habit_stacks WHERE anchor_id = ?`, anchorID).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query stack: %w", err)
	}
	return next, true, nil
}

// Stacks returns all configured habit stacks.
func (s *LocalStore) Stacks(ctx context.Context) ([]types.HabitStack, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT anchor_id, next_id FROM habit_stacks ORDER BY anchor_id`)
	if err != nil {
		return nil, fmt.Errorf("query stacks: %w", err)
	}
	defer rows.Close()

	var stacks []types.HabitStack
	for rows.Next() {
		var st types.HabitStack
		if err := rows.Scan(&st.AnchorID, &st.NextID); err != nil {
			return nil, fmt.Errorf("scan stack: %w", err)
		}
		stacks = append(stacks, st)
	}
	return stacks, rows.Err()
}

// SubscribeStacks emits the stack list now and on every change.
func (s *LocalStore) SubscribeStacks(ctx context.Context) <-chan []types.HabitStack {
	return subscribe(ctx, s, topicStacks, s.Stacks)
}
