package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// StreakMilestones are the streak lengths that unlock badges and trigger
// milestone overlays.
var StreakMilestones = []int{3, 7, 14, 30, 60, 100}

// Achievement is an unlocked badge.
type Achievement struct {
	Code       string
	UnlockedAt time.Time
}

// UnlockStreakAchievements unlocks every streak badge at or below the given
// streak length. Already-unlocked badges are left untouched.
func (s *LocalStore) UnlockStreakAchievements(ctx context.Context, streak int) error {
	for _, m := range StreakMilestones {
		if streak < m {
			break
		}
		code := fmt.Sprintf("streak_%d", m)
		res, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO achievements (code, unlocked_at) VALUES (?, ?)`,
			code, s.now())
		if err != nil {
			return fmt.Errorf("unlock achievement %s: %w", code, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			s.log.Info("achievement unlocked", zap.String("code", code))
		}
	}
	return nil
}

// Achievements lists unlocked badges, newest first.
func (s *LocalStore) Achievements(ctx context.Context) ([]Achievement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, unlocked_at FROM achievements ORDER BY unlocked_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query achievements: %w", err)
	}
	defer rows.Close()

	var out []Achievement
	for rows.Next() {
		var a Achievement
		if err := rows.Scan(&a.Code, &a.UnlockedAt); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
