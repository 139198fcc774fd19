package types

// Snapshot is the single merged state record the presentation layer renders.
// Each loader owns a disjoint subset of fields and must produce a new
// Snapshot by copying the previous one and replacing only the fields it
// owns. Owned collections are replaced wholesale, never mutated in place, so
// a Snapshot value handed to a reader stays immutable.
type Snapshot struct {
	// Core combiner fields.
	Habits              []Habit         `json:"habits"`
	Completions         map[string]bool `json:"completions"`
	CompletedCount      int             `json:"completed_count"`
	TotalCount          int             `json:"total_count"`
	Streak              StreakInfo      `json:"streak"`
	Week                *WeekData       `json:"week,omitempty"`
	HasFullAccess       bool            `json:"has_full_access"`
	IsOnTrial           bool            `json:"is_on_trial"`
	TrialDaysRemaining  int             `json:"trial_days_remaining"`
	DaysSinceOnboarding int             `json:"days_since_onboarding"`
	ShowInsight         bool            `json:"show_insight"`
	Mode                LayoutMode      `json:"mode"`
	SocialProof         string          `json:"social_proof,omitempty"`
	DisplayName         string          `json:"display_name"`
	OnboardingGoal      string          `json:"onboarding_goal"`

	// Overlay mediator field.
	ActiveOverlay *Overlay `json:"active_overlay,omitempty"`

	// Independent loader fields, one owner each.
	Mood                *Mood             `json:"mood,omitempty"`
	Water               *WaterIntake      `json:"water,omitempty"`
	Intentions          []string          `json:"intentions,omitempty"`
	Recovery            RecoveryState     `json:"recovery"`
	ReminderSuggestions map[string]string `json:"reminder_suggestions,omitempty"` // habit ID -> "HH:MM"
	AudioStatus         string            `json:"audio_status,omitempty"`
	CoachMessage        string            `json:"coach_message,omitempty"`
	ModelProgress       float64           `json:"model_progress"`
	Stacks              []HabitStack      `json:"stacks,omitempty"`
	Health              *HealthData       `json:"health,omitempty"`
}

// HabitIDs returns the IDs of the snapshot's habits in display order.
func (s Snapshot) HabitIDs() []string {
	ids := make([]string, 0, len(s.Habits))
	for _, h := range s.Habits {
		ids = append(ids, h.ID)
	}
	return ids
}

// AllComplete reports whether every tracked habit is completed. False when
// no habits are tracked.
func (s Snapshot) AllComplete() bool {
	return s.TotalCount > 0 && s.CompletedCount == s.TotalCount
}
