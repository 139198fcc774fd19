// Package types defines the shared domain types for habitloop: habits,
// daily entries, streaks, settings, and the merged Snapshot consumed by the
// presentation layer. These types carry no behavior beyond small derivations;
// all orchestration lives in internal/core.
package types

import (
	"strings"
	"time"
)

// DateLayout is the canonical day key used across the store and the core.
const DateLayout = "2006-01-02"

// Habit is a stable identity the user tracks daily.
type Habit struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Emoji   string `json:"emoji"`
	Enabled bool   `json:"enabled"`
	Order   int    `json:"order"`
	Custom  bool   `json:"custom"` // user-created, not from the starter catalog
}

// Entry is one day's completion record: a boolean per habit ID.
type Entry struct {
	Date        string               `json:"date"`
	Completions map[string]bool      `json:"completions"`
	CompletedAt map[string]time.Time `json:"completed_at"`
}

// Completed reports whether the given habit is completed in this entry.
// A nil entry counts as nothing completed.
func (e *Entry) Completed(habitID string) bool {
	if e == nil {
		return false
	}
	return e.Completions[habitID]
}

// CompletedCount returns the number of completed habits among ids.
func (e *Entry) CompletedCount(ids []string) int {
	if e == nil {
		return 0
	}
	n := 0
	for _, id := range ids {
		if e.Completions[id] {
			n++
		}
	}
	return n
}

// StreakInfo holds the current and longest streak lengths. It is always
// recomputed from the completion history, never incremented in place.
type StreakInfo struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// WeekDay is one day inside a WeekData window.
type WeekDay struct {
	Date      string `json:"date"`
	Elapsed   bool   `json:"elapsed"` // the day has started (today counts as elapsed)
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// Perfect reports whether every tracked habit was completed on this day.
func (d WeekDay) Perfect() bool {
	return d.Total > 0 && d.Completed == d.Total
}

// WeekData is a Monday-based week of per-day completion counts.
// Offset 0 is the current week, -1 the previous one.
type WeekData struct {
	Offset int       `json:"offset"`
	Start  string    `json:"start"`
	Days   []WeekDay `json:"days"`
}

// PerfectElapsed reports whether all elapsed days of the week are perfect.
// Days that have not arrived yet are excluded; a week with no elapsed days
// is not perfect.
func (w *WeekData) PerfectElapsed() bool {
	if w == nil {
		return false
	}
	elapsed := 0
	for _, d := range w.Days {
		if !d.Elapsed {
			continue
		}
		elapsed++
		if !d.Perfect() {
			return false
		}
	}
	return elapsed > 0
}

// Settings is the user-facing configuration the combiner consumes.
type Settings struct {
	DisplayName    string `json:"display_name" yaml:"display_name"`
	Username       string `json:"username" yaml:"username"`
	Email          string `json:"email" yaml:"email"`
	OnboardingGoal string `json:"onboarding_goal" yaml:"onboarding_goal"`
	OnboardedAt    string `json:"onboarded_at" yaml:"onboarded_at"` // DateLayout
	TutorialSeen   bool   `json:"tutorial_seen" yaml:"tutorial_seen"`
	FullAccess     bool   `json:"full_access" yaml:"full_access"`
	TrialEndsAt    string `json:"trial_ends_at" yaml:"trial_ends_at"` // DateLayout, empty = no trial
	SoundEnabled   bool   `json:"sound_enabled" yaml:"sound_enabled"`
	CoachEnabled   bool   `json:"coach_enabled" yaml:"coach_enabled"`
}

// PreferredName resolves the name the UI greets the user with: the first
// non-blank of display name, username, and the local part of the email,
// with the first token title-cased.
func (s Settings) PreferredName() string {
	candidate := strings.TrimSpace(s.DisplayName)
	if candidate == "" {
		candidate = strings.TrimSpace(s.Username)
	}
	if candidate == "" {
		local, _, _ := strings.Cut(strings.TrimSpace(s.Email), "@")
		candidate = local
	}
	if candidate == "" {
		return ""
	}
	first, rest, found := strings.Cut(candidate, " ")
	titled := titleToken(first)
	if found && rest != "" {
		return titled + " " + rest
	}
	return titled
}

func titleToken(tok string) string {
	if tok == "" {
		return ""
	}
	r := []rune(tok)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// HabitStack links an anchor habit to the habit the user wants to do next.
type HabitStack struct {
	AnchorID string `json:"anchor_id"`
	NextID   string `json:"next_id"`
}

// LayoutMode is the journey stage the home layout renders for.
type LayoutMode int

const (
	LayoutFirstSession LayoutMode = iota
	LayoutBuilding
	LayoutEstablished
	LayoutDoneForToday
)

// String returns the mode name.
func (m LayoutMode) String() string {
	switch m {
	case LayoutFirstSession:
		return "first_session"
	case LayoutBuilding:
		return "building"
	case LayoutEstablished:
		return "established"
	case LayoutDoneForToday:
		return "done_for_today"
	default:
		return "unknown"
	}
}

// RecoveryState tracks the streak-recovery flow.
type RecoveryState int

const (
	RecoveryNone RecoveryState = iota
	RecoveryPrompted
	RecoveryActive
	RecoveryDismissed
)

// String returns the state name.
func (r RecoveryState) String() string {
	switch r {
	case RecoveryNone:
		return "none"
	case RecoveryPrompted:
		return "prompted"
	case RecoveryActive:
		return "active"
	case RecoveryDismissed:
		return "dismissed"
	default:
		return "unknown"
	}
}

// Mood is a single day's mood check-in.
type Mood struct {
	Date  string `json:"date"`
	Score int    `json:"score"` // 1..5
	Note  string `json:"note"`
}

// WaterIntake is the running water total for a day.
type WaterIntake struct {
	Date string `json:"date"`
	ML   int    `json:"ml"`
}

// HealthData is the latest synced health sample.
type HealthData struct {
	Date       string  `json:"date"`
	Steps      int     `json:"steps"`
	SleepHours float64 `json:"sleep_hours"`
}

// CompletionEvent carries the gamification flags derived at toggle time.
type CompletionEvent struct {
	HabitID     string    `json:"habit_id"`
	At          time.Time `json:"at"`
	AllComplete bool      `json:"all_complete"`
	EarlyBird   bool      `json:"early_bird"` // before 09:00
	Morning     bool      `json:"morning"`    // before 12:00
}
