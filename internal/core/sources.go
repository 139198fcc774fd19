// Package core is the orchestration heart of habitloop. It owns the single
// merged Snapshot, the combiner that derives the home-screen view from five
// store streams, the independent loaders for everything else, the overlay
// mediator, the completion cascade, and the streak evaluator. Collaborators
// are plugged in through the narrow interfaces below; *store.LocalStore
// satisfies all of the store-side ones.
package core

import (
	"context"
	"math/rand"
	"time"

	"habitloop/internal/types"
)

// ============================================================================
// COLLABORATOR INTERFACES
// ============================================================================

// HabitSource provides the enabled habit list.
type HabitSource interface {
	EnabledHabits(ctx context.Context) ([]types.Habit, error)
	HabitByID(ctx context.Context, habitID string) (types.Habit, error)
	SubscribeEnabledHabits(ctx context.Context) <-chan []types.Habit
}

// EntrySource provides daily completion records and the values derived from
// them. SetCompletion is the cascade's primary write.
type EntrySource interface {
	TodayEntry(ctx context.Context) (*types.Entry, error)
	SetCompletion(ctx context.Context, date, habitID string, completed bool, at time.Time) error
	StreakInfo(ctx context.Context) (types.StreakInfo, error)
	WeekData(ctx context.Context, offset int) (*types.WeekData, error)
	SubscribeTodayEntry(ctx context.Context) <-chan *types.Entry
	SubscribeStreakInfo(ctx context.Context) <-chan types.StreakInfo
	SubscribeWeekData(ctx context.Context, offset int) <-chan *types.WeekData
}

// SettingsSource provides user settings.
type SettingsSource interface {
	Settings(ctx context.Context) (types.Settings, error)
	SubscribeSettings(ctx context.Context) <-chan types.Settings
}

// StackSource provides habit-stack chains for the post-completion nudge.
type StackSource interface {
	NextInChain(ctx context.Context, anchorID string) (string, bool, error)
	SubscribeStacks(ctx context.Context) <-chan []types.HabitStack
}

// WellnessSource provides the mood, water, intention, and health streams.
type WellnessSource interface {
	SubscribeMood(ctx context.Context) <-chan *types.Mood
	SubscribeWater(ctx context.Context) <-chan *types.WaterIntake
	SubscribeIntentions(ctx context.Context) <-chan []string
	SubscribeHealth(ctx context.Context) <-chan *types.HealthData
}

// RewardService accrues reward points. All calls are secondary cascade steps.
type RewardService interface {
	ProcessHabitCompletion(ctx context.Context, habitID string) error
	ProcessPerfectDay(ctx context.Context, date string) error
	ProcessStreakReward(ctx context.Context, streak int) error
}

// GamificationService records XP-bearing events.
type GamificationService interface {
	RecordCompletion(ctx context.Context, ev types.CompletionEvent) error
	RecordPerfectDay(ctx context.Context, date string) error
	RecordPerfectWeek(ctx context.Context, weekStart string) error
	RecordStreak(ctx context.Context, current, longest int) error
}

// AchievementService unlocks streak badges.
type AchievementService interface {
	UnlockStreakAchievements(ctx context.Context, streak int) error
}

// ReminderLearner accumulates completion-time samples and emits per-habit
// reminder suggestions.
type ReminderLearner interface {
	RecordCompletionTime(ctx context.Context, habitID string, at time.Time) error
	SubscribeReminderSuggestions(ctx context.Context) <-chan map[string]string
}

// AudioCoach plays reinforcement cues and exposes a status stream.
type AudioCoach interface {
	PlayHabitCue(ctx context.Context, habitName string) error
	PlayPerfectDay(ctx context.Context) error
	PlayMilestone(ctx context.Context, streak int) error
	SubscribeStatus(ctx context.Context) <-chan string
	Release() error
}

// AICoach generates short commentary lines. Announcements never fail; an
// offline coach serves canned lines.
type AICoach interface {
	AnnounceCompletion(ctx context.Context, habitName string, streak int) string
	AnnouncePerfectDay(ctx context.Context) string
	AnnounceMilestone(ctx context.Context, days int) string
	SubscribeMessages(ctx context.Context) <-chan string
}

// ModelDownloadSource reports local-model download progress in [0,1].
type ModelDownloadSource interface {
	SubscribeProgress(ctx context.Context) <-chan float64
}

// ============================================================================
// DEPENDENCY BUNDLE
// ============================================================================

// Deps wires the collaborators into the core. Habits, Entries, and Settings
// are required; the rest degrade gracefully when nil (their loaders and
// cascade steps are skipped). Now and Rand exist for tests.
type Deps struct {
	Habits   HabitSource
	Entries  EntrySource
	Settings SettingsSource
	Stacks   StackSource
	Wellness WellnessSource

	Rewards      RewardService
	Gamification GamificationService
	Achievements AchievementService
	Reminders    ReminderLearner

	Audio AudioCoach
	Coach AICoach
	Model ModelDownloadSource

	Now  func() time.Time
	Rand func() float64
}

func (d *Deps) normalize() {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Rand == nil {
		d.Rand = rand.Float64
	}
}
