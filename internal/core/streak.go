package core

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"habitloop/internal/logging"
	"habitloop/internal/types"
)

// milestoneThresholds are the streak lengths worth interrupting the user for.
var milestoneThresholds = []int{3, 7, 14, 30, 60, 100}

// StreakEvaluator detects streak breaks edge-wise and classifies milestone
// crossings. It keeps its own memory of the last observed streak so a break
// fires exactly once per falling edge, no matter how often the combiner
// re-evaluates a streak that is already zero.
type StreakEvaluator struct {
	mu   sync.Mutex
	prev int
	log  *zap.Logger
}

// NewStreakEvaluator returns an evaluator with no remembered streak.
func NewStreakEvaluator() *StreakEvaluator {
	return &StreakEvaluator{log: logging.Named(logging.CategoryCore)}
}

// CheckForBreak reports whether the streak just broke: the remembered value
// was positive and current is zero. The remembered value is updated
// unconditionally, so a second call with current == 0 never fires again
// until the streak rises and falls once more. A break observed during an
// active recovery is swallowed.
func (e *StreakEvaluator) CheckForBreak(current int, inRecovery bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	broke := e.prev > 0 && current == 0 && !inRecovery
	if broke {
		e.log.Info("streak broke", zap.Int("was", e.prev))
	}
	e.prev = current
	return broke
}

// NewMilestone returns the highest threshold that after has reached and
// before had not, if any.
func NewMilestone(before, after int) (int, bool) {
	crossed := 0
	for _, t := range milestoneThresholds {
		if before < t && after >= t {
			crossed = t
		}
	}
	return crossed, crossed > 0
}

// ----------------------------------------------------------------------------
// Recovery tracker
// ----------------------------------------------------------------------------

// RecoveryTracker runs the streak-recovery state machine. Unlike overlay
// dismissal, dismissing a recovery prompt is not permanent: a later break
// prompts again.
//
//	None -> Prompted (break) -> Active (accept) -> None (completion)
//	Prompted -> Dismissed (dismiss), re-promptable on the next break
type RecoveryTracker struct {
	mu    sync.Mutex
	state types.RecoveryState
	subs  []chan types.RecoveryState
}

// NewRecoveryTracker starts in RecoveryNone.
func NewRecoveryTracker() *RecoveryTracker {
	return &RecoveryTracker{}
}

// State returns the current recovery state.
func (r *RecoveryTracker) State() types.RecoveryState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// InRecovery reports whether a recovery is actively underway.
func (r *RecoveryTracker) InRecovery() bool {
	return r.State() == types.RecoveryActive
}

// Prompt surfaces the recovery offer after a break. Valid from None and
// Dismissed; ignored while Prompted or Active.
func (r *RecoveryTracker) Prompt() {
	r.transition(func(s types.RecoveryState) (types.RecoveryState, bool) {
		if s == types.RecoveryNone || s == types.RecoveryDismissed {
			return types.RecoveryPrompted, true
		}
		return s, false
	})
}

// Accept starts the recovery. Valid from Prompted only.
func (r *RecoveryTracker) Accept() {
	r.transition(func(s types.RecoveryState) (types.RecoveryState, bool) {
		if s == types.RecoveryPrompted {
			return types.RecoveryActive, true
		}
		return s, false
	})
}

// Dismiss declines the offer, leaving the tracker re-promptable.
func (r *RecoveryTracker) Dismiss() {
	r.transition(func(s types.RecoveryState) (types.RecoveryState, bool) {
		if s == types.RecoveryPrompted {
			return types.RecoveryDismissed, true
		}
		return s, false
	})
}

// Complete resolves any pending or active recovery once the user completes a
// habit again.
func (r *RecoveryTracker) Complete() {
	r.transition(func(s types.RecoveryState) (types.RecoveryState, bool) {
		if s == types.RecoveryNone {
			return s, false
		}
		return types.RecoveryNone, true
	})
}

// Subscribe returns a latest-value stream of recovery states, emitting the
// current state immediately.
func (r *RecoveryTracker) Subscribe(ctx context.Context) <-chan types.RecoveryState {
	ch := make(chan types.RecoveryState, 1)
	r.mu.Lock()
	r.subs = append(r.subs, ch)
	ch <- r.state
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		for i, sub := range r.subs {
			if sub == ch {
				r.subs = append(r.subs[:i], r.subs[i+1:]...)
				break
			}
		}
		r.mu.Unlock()
	}()

	return ch
}

func (r *RecoveryTracker) transition(fn func(types.RecoveryState) (types.RecoveryState, bool)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, ok := fn(r.state)
	if !ok {
		return
	}
	r.state = next
	for _, ch := range r.subs {
		sendLatest(ch, next)
	}
}
