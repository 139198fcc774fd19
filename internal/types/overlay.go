package types

import "time"

// OverlayKind identifies a one-shot interruption the home screen may show.
type OverlayKind int

const (
	OverlayNone OverlayKind = iota
	OverlayHabitStackNudge
	OverlayCelebration
	OverlayMilestone
	OverlayTutorial
)

// overlayPriorities is an explicit table so pre-emption rules do not depend
// on declaration order.
var overlayPriorities = map[OverlayKind]int{
	OverlayTutorial:        40,
	OverlayMilestone:       30,
	OverlayCelebration:     20,
	OverlayHabitStackNudge: 10,
}

// Priority returns the pre-emption priority of the kind. Higher wins.
func (k OverlayKind) Priority() int {
	return overlayPriorities[k]
}

// String returns the kind name.
func (k OverlayKind) String() string {
	switch k {
	case OverlayTutorial:
		return "tutorial"
	case OverlayMilestone:
		return "milestone"
	case OverlayCelebration:
		return "celebration"
	case OverlayHabitStackNudge:
		return "habit_stack_nudge"
	case OverlayNone:
		return "none"
	default:
		return "unknown"
	}
}

// Overlay is the active interruption stored in the Snapshot. At most one is
// active at any time.
type Overlay struct {
	Kind           OverlayKind `json:"kind"`
	Message        string      `json:"message"`
	SuggestedHabit string      `json:"suggested_habit,omitempty"` // habit ID, stack nudges only
	Milestone      int         `json:"milestone,omitempty"`       // streak length, milestones only
	RequestedAt    time.Time   `json:"requested_at"`
}
