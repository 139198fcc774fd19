package core

import (
	"testing"

	"habitloop/internal/types"
)

func newTestMediator() (*OverlayMediator, *SnapshotStore) {
	snaps := NewSnapshotStore()
	return NewOverlayMediator(snaps, fixedNow), snaps
}

func activeKind(snaps *SnapshotStore) types.OverlayKind {
	if ov := snaps.Current().ActiveOverlay; ov != nil {
		return ov.Kind
	}
	return types.OverlayNone
}

func TestOverlayHigherPriorityPreempts(t *testing.T) {
	m, snaps := newTestMediator()

	if !m.Request(types.Overlay{Kind: types.OverlayCelebration}) {
		t.Fatal("first request into an empty slot must land")
	}
	if !m.Request(types.Overlay{Kind: types.OverlayMilestone}) {
		t.Fatal("milestone must pre-empt celebration")
	}
	if got := activeKind(snaps); got != types.OverlayMilestone {
		t.Fatalf("active = %v, want milestone", got)
	}
}

func TestOverlayLowerOrEqualPriorityIsDropped(t *testing.T) {
	m, snaps := newTestMediator()
	m.Request(types.Overlay{Kind: types.OverlayMilestone})

	if m.Request(types.Overlay{Kind: types.OverlayCelebration}) {
		t.Fatal("lower priority must be dropped")
	}
	if m.Request(types.Overlay{Kind: types.OverlayMilestone}) {
		t.Fatal("equal priority must be dropped, not replace")
	}
	if got := activeKind(snaps); got != types.OverlayMilestone {
		t.Fatalf("active = %v, want milestone untouched", got)
	}
}

func TestOverlayDismissSuppressesSession(t *testing.T) {
	m, snaps := newTestMediator()
	m.Request(types.Overlay{Kind: types.OverlayHabitStackNudge})
	m.Dismiss()

	if got := activeKind(snaps); got != types.OverlayNone {
		t.Fatalf("dismiss left overlay %v active", got)
	}
	if !m.Shown() {
		t.Fatal("session slot must be spent after dismiss")
	}
	// Even the highest-priority kind stays out for the rest of the session.
	if m.Request(types.Overlay{Kind: types.OverlayTutorial}) {
		t.Fatal("post-dismissal request must be rejected")
	}
}

func TestOverlayDismissWithoutActiveIsNoop(t *testing.T) {
	m, _ := newTestMediator()
	m.Dismiss()
	if m.Shown() {
		t.Fatal("dismissing an empty slot must not spend the session")
	}
	if !m.Request(types.Overlay{Kind: types.OverlayCelebration}) {
		t.Fatal("request after no-op dismiss must still land")
	}
}

func TestOverlayRequestStampsTime(t *testing.T) {
	m, snaps := newTestMediator()
	m.Request(types.Overlay{Kind: types.OverlayCelebration})
	ov := snaps.Current().ActiveOverlay
	if ov == nil || !ov.RequestedAt.Equal(fixedNow()) {
		t.Fatalf("RequestedAt not stamped: %+v", ov)
	}
}
