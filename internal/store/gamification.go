package store

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"habitloop/internal/types"
)

// XP awards. Levels follow level = floor(sqrt(xp/100)).
const (
	xpCompletion   = 10
	xpEarlyBird    = 5
	xpMorning      = 2
	xpPerfectDay   = 25
	xpPerfectWeek  = 100
	xpPerStreakDay = 5
)

// GamificationStats is the accumulated progression state.
type GamificationStats struct {
	XP            int
	Level         int
	PerfectDays   int
	PerfectWeeks  int
	LastStreak    int
	LongestStreak int
}

// RecordCompletion awards XP for a first-of-the-day habit completion.
func (s *LocalStore) RecordCompletion(ctx context.Context, ev types.CompletionEvent) error {
	xp := xpCompletion
	if ev.EarlyBird {
		xp += xpEarlyBird
	}
	if ev.Morning {
		xp += xpMorning
	}
	return s.addXP(ctx, xp, nil)
}

// RecordPerfectDay awards the perfect-day bonus.
func (s *LocalStore) RecordPerfectDay(ctx context.Context, date string) error {
	return s.addXP(ctx, xpPerfectDay, func() error {
		_, err := s.db.ExecContext(ctx,
			`UPDATE gamification_stats SET perfect_days = perfect_days + 1 WHERE id = 1`)
		return err
	})
}

// RecordPerfectWeek awards the perfect-week bonus. Callers guard against
// double-firing within the same week.
func (s *LocalStore) RecordPerfectWeek(ctx context.Context, weekStart string) error {
	return s.addXP(ctx, xpPerfectWeek, func() error {
		_, err := s.db.ExecContext(ctx,
			`UPDATE gamification_stats SET perfect_weeks = perfect_weeks + 1 WHERE id = 1`)
		return err
	})
}

// RecordStreak stores the latest streak values and awards XP for any growth
// since the previous record.
func (s *LocalStore) RecordStreak(ctx context.Context, current, longest int) error {
	var last int
	if err := s.db.QueryRowContext(ctx,
		`SELECT last_streak FROM gamification_stats WHERE id = 1`).Scan(&last); err != nil {
		return fmt.Errorf("read last streak: %w", err)
	}

	xp := 0
	if current > last {
		xp = (current - last) * xpPerStreakDay
	}
	return s.addXP(ctx, xp, func() error {
		_, err := s.db.ExecContext(ctx, `
			UPDATE gamification_stats
			SET last_streak = ?, longest_streak = MAX(longest_streak, ?)
			WHERE id = 1`, current, longest)
		return err
	})
}

// GamificationStats returns the current progression state.
func (s *LocalStore) GamificationStats(ctx context.Context) (GamificationStats, error) {
	var st GamificationStats
	err := s.db.QueryRowContext(ctx, `
		SELECT xp, level, perfect_days, perfect_weeks, last_streak, longest_streak
		FROM gamification_stats WHERE id = 1`).
		Scan(&st.XP, &st.Level, &st.PerfectDays, &st.PerfectWeeks, &st.LastStreak, &st.LongestStreak)
	if err != nil {
		return GamificationStats{}, fmt.Errorf("query gamification stats: %w", err)
	}
	return st, nil
}

// addXP applies the XP delta, recomputes the level, and runs extra inside
// the same logical update.
func (s *LocalStore) addXP(ctx context.Context, xp int, extra func() error) error {
	if extra != nil {
		if err := extra(); err != nil {
			return fmt.Errorf("update gamification stats: %w", err)
		}
	}
	if xp > 0 {
		if _, err := s.db.ExecContext(ctx, `
			UPDATE gamification_stats SET xp = xp + ?, updated_at = ? WHERE id = 1`,
			xp, s.now()); err != nil {
			return fmt.Errorf("add xp: %w", err)
		}
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT xp FROM gamification_stats WHERE id = 1`).Scan(&total); err != nil {
		return fmt.Errorf("read xp: %w", err)
	}
	level := int(math.Sqrt(float64(total) / 100.0))
	if _, err := s.db.ExecContext(ctx,
		`UPDATE gamification_stats SET level = ? WHERE id = 1`, level); err != nil {
		return fmt.Errorf("update level: %w", err)
	}

	s.log.Debug("gamification updated", zap.Int("xp_delta", xp), zap.Int("xp", total), zap.Int("level", level))
	return nil
}
