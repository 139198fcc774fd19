package core

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"habitloop/internal/logging"
	"habitloop/internal/types"
)

// OverlayMediator arbitrates the single overlay slot in the Snapshot. At most
// one overlay is shown per session: a request lands only while nothing has
// been dismissed yet, and pre-emption requires strictly higher priority than
// the active overlay. Lower-priority requests are dropped, never queued.
type OverlayMediator struct {
	snaps *SnapshotStore
	now   func() time.Time
	log   *zap.Logger

	mu    sync.Mutex
	shown bool
}

// NewOverlayMediator binds the mediator to the snapshot store.
func NewOverlayMediator(snaps *SnapshotStore, now func() time.Time) *OverlayMediator {
	if now == nil {
		now = time.Now
	}
	return &OverlayMediator{
		snaps: snaps,
		now:   now,
		log:   logging.Named(logging.CategoryOverlay),
	}
}

// Request asks to show ov. It is accepted iff no overlay has been dismissed
// this session and ov outranks the currently active overlay (an empty slot
// ranks below everything). Acceptance replaces the active overlay in the
// Snapshot; rejection is final for this request.
func (m *OverlayMediator) Request(ov types.Overlay) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shown {
		m.log.Debug("overlay rejected, session already showed one",
			zap.String("kind", ov.Kind.String()))
		return false
	}
	if active := m.snaps.Current().ActiveOverlay; active != nil {
		if ov.Kind.Priority() <= active.Kind.Priority() {
			m.log.Debug("overlay rejected by priority",
				zap.String("kind", ov.Kind.String()),
				zap.String("active", active.Kind.String()))
			return false
		}
	}

	if ov.RequestedAt.IsZero() {
		ov.RequestedAt = m.now()
	}
	m.snaps.Update(func(s types.Snapshot) types.Snapshot {
		s.ActiveOverlay = &ov
		return s
	})
	m.log.Info("overlay active", zap.String("kind", ov.Kind.String()))
	return true
}

// Dismiss clears the active overlay and suppresses all further requests for
// the rest of the session. Dismissing with nothing active is a no-op.
func (m *OverlayMediator) Dismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snaps.Current().ActiveOverlay == nil {
		return
	}
	m.shown = true
	m.snaps.Update(func(s types.Snapshot) types.Snapshot {
		s.ActiveOverlay = nil
		return s
	})
	m.log.Info("overlay dismissed, session slot spent")
}

// Shown reports whether an overlay has already been dismissed this session.
func (m *OverlayMediator) Shown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shown
}
