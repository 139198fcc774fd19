package store

import (
	"context"
	"fmt"
)

// Reward point values mirrored into the ledger.
const (
	rewardCompletionPoints = 10
	rewardPerfectDayPoints = 25
)

// ProcessHabitCompletion appends a completion reward to the ledger.
func (s *LocalStore) ProcessHabitCompletion(ctx context.Context, habitID string) error {
	return s.appendReward(ctx, "habit_completion", rewardCompletionPoints, habitID)
}

// ProcessPerfectDay appends the perfect-day reward.
func (s *LocalStore) ProcessPerfectDay(ctx context.Context, date string) error {
	return s.appendReward(ctx, "perfect_day", rewardPerfectDayPoints, date)
}

// ProcessStreakReward appends a streak reward scaled by streak length.
func (s *LocalStore) ProcessStreakReward(ctx context.Context, streak int) error {
	return s.appendReward(ctx, "streak", streak*xpPerStreakDay, fmt.Sprintf("streak-%d", streak))
}

// RewardPoints returns the lifetime reward total.
func (s *LocalStore) RewardPoints(ctx context.Context) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(points), 0) FROM reward_ledger`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum rewards: %w", err)
	}
	return total, nil
}

func (s *LocalStore) appendReward(ctx context.Context, kind string, points int, ref string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reward_ledger (kind, points, ref, created_at) VALUES (?, ?, ?, ?)`,
		kind, points, ref, s.now())
	if err != nil {
		return fmt.Errorf("append reward %s: %w", kind, err)
	}
	return nil
}
