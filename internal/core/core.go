package core

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"habitloop/internal/logging"
	"habitloop/internal/types"
)

// ErrMissingDeps is returned by Start when a required collaborator is nil.
var ErrMissingDeps = errors.New("core: Habits, Entries, and Settings sources are required")

// Core supervises the whole orchestration layer: the combiner, the
// independent loaders, the overlay mediator, the cascade, and the streak
// machinery, all running against one SnapshotStore under one errgroup.
type Core struct {
	deps     Deps
	snaps    *SnapshotStore
	overlays *OverlayMediator
	streaks  *StreakEvaluator
	recovery *RecoveryTracker
	combiner *Combiner
	cascade  *Cascade
	log      *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	group   *errgroup.Group
	started bool
}

// New assembles a core from its collaborators. Call Start to spin up the
// subscription goroutines.
func New(deps Deps) *Core {
	deps.normalize()

	snaps := NewSnapshotStore()
	overlays := NewOverlayMediator(snaps, deps.Now)
	streaks := NewStreakEvaluator()
	recovery := NewRecoveryTracker()

	return &Core{
		deps:     deps,
		snaps:    snaps,
		overlays: overlays,
		streaks:  streaks,
		recovery: recovery,
		combiner: newCombiner(deps, snaps, overlays, streaks, recovery),
		cascade:  newCascade(deps, overlays, recovery),
		log:      logging.Named(logging.CategoryCore),
	}
}

// Start launches the combiner and every loader whose collaborator is wired.
// It returns immediately; the goroutines run until Close.
func (c *Core) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}
	if c.deps.Habits == nil || c.deps.Entries == nil || c.deps.Settings == nil {
		return ErrMissingDeps
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	c.cancel = cancel
	c.group = g
	c.started = true

	g.Go(func() error { return c.combiner.Run(gctx) })
	g.Go(func() error { return recoveryLoader(gctx, c.snaps, c.recovery) })

	if w := c.deps.Wellness; w != nil {
		g.Go(func() error { return moodLoader(gctx, c.snaps, w) })
		g.Go(func() error { return waterLoader(gctx, c.snaps, w) })
		g.Go(func() error { return intentionsLoader(gctx, c.snaps, w) })
		g.Go(func() error { return healthLoader(gctx, c.snaps, w) })
	}
	if r := c.deps.Reminders; r != nil {
		g.Go(func() error { return reminderLoader(gctx, c.snaps, r) })
	}
	if a := c.deps.Audio; a != nil {
		g.Go(func() error { return audioStatusLoader(gctx, c.snaps, a) })
	}
	if co := c.deps.Coach; co != nil {
		g.Go(func() error { return coachMessageLoader(gctx, c.snaps, co) })
	}
	if m := c.deps.Model; m != nil {
		g.Go(func() error { return modelProgressLoader(gctx, c.snaps, m) })
	}
	if st := c.deps.Stacks; st != nil {
		g.Go(func() error { return stacksLoader(gctx, c.snaps, st) })
	}

	c.log.Info("core started")
	return nil
}

// Close cancels every subscription, waits for the group, and releases the
// audio engine. Safe to call more than once.
func (c *Core) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return nil
	}
	c.started = false

	c.cancel()
	err := c.group.Wait()
	c.snaps.Close()
	if c.deps.Audio != nil {
		if rerr := c.deps.Audio.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}
	c.log.Info("core stopped")
	return err
}

// ToggleHabit flips a habit's completion for today and runs the reaction
// cascade.
func (c *Core) ToggleHabit(ctx context.Context, habitID string, completed bool) error {
	return c.cascade.ToggleHabit(ctx, habitID, completed)
}

// Current returns the latest merged snapshot.
func (c *Core) Current() types.Snapshot {
	return c.snaps.Current()
}

// Subscribe returns a latest-value snapshot stream.
func (c *Core) Subscribe(ctx context.Context) <-chan types.Snapshot {
	return c.snaps.Subscribe(ctx)
}

// DismissOverlay clears the active overlay and spends the session slot.
func (c *Core) DismissOverlay() {
	c.overlays.Dismiss()
}

// AcceptRecovery starts a prompted streak recovery.
func (c *Core) AcceptRecovery() {
	c.recovery.Accept()
}

// DismissRecovery declines a prompted recovery; a later break prompts again.
func (c *Core) DismissRecovery() {
	c.recovery.Dismiss()
}
