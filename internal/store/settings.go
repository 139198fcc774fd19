package store

import (
	"context"
	"fmt"

	"habitloop/internal/types"
)

// Settings returns the single user settings row.
func (s *LocalStore) Settings(ctx context.Context) (types.Settings, error) {
	var st types.Settings
	var tutorialSeen, fullAccess, soundEnabled, coachEnabled int
	err := s.db.QueryRowContext(ctx, `
		SELECT display_name, username, email, onboarding_goal, onboarded_at,
		       tutorial_seen, full_access, trial_ends_at, sound_enabled, coach_enabled
		FROM settings WHERE id = 1`).
		Scan(&st.DisplayName, &st.Username, &st.Email, &st.OnboardingGoal, &st.OnboardedAt,
			&tutorialSeen, &fullAccess, &st.TrialEndsAt, &soundEnabled, &coachEnabled)
	if err != nil {
		return types.Settings{}, fmt.Errorf("query settings: %w", err)
	}
	st.TutorialSeen = tutorialSeen != 0
	st.FullAccess = fullAccess != 0
	st.SoundEnabled = soundEnabled != 0
	st.CoachEnabled = coachEnabled != 0
	return st, nil
}

// SaveSettings replaces the settings row and notifies subscribers.
func (s *LocalStore) SaveSettings(ctx context.Context, st types.Settings) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE settings SET
			display_name = ?, username = ?, email = ?, onboarding_goal = ?,
			onboarded_at = ?, tutorial_seen = ?, full_access = ?, trial_ends_at = ?,
			sound_enabled = ?, coach_enabled = ?
		WHERE id = 1`,
		st.DisplayName, st.Username, st.Email, st.OnboardingGoal,
		st.OnboardedAt, boolInt(st.TutorialSeen), boolInt(st.FullAccess), st.TrialEndsAt,
		boolInt(st.SoundEnabled), boolInt(st.CoachEnabled))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.notify(topicSettings)
	return nil
}

// MarkTutorialSeen records that the tutorial overlay was displayed.
func (s *LocalStore) MarkTutorialSeen(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE settings SET tutorial_seen = 1 WHERE id = 1`); err != nil {
		return fmt.Errorf("mark tutorial seen: %w", err)
	}
	s.notify(topicSettings)
	return nil
}

// SubscribeSettings emits the settings now and on every change (including
// hot-reloads applied by the settings watcher).
func (s *LocalStore) SubscribeSettings(ctx context.Context) <-chan types.Settings {
	return subscribe(ctx, s, topicSettings, s.Settings)
}
