package core

import (
	"context"

	"habitloop/internal/types"
)

// The independent loaders each forward one collaborator stream into the
// Snapshot. Every loader owns a disjoint field set and merges through
// Update, so they need no coordination with the combiner or each other.

// pipe forwards ch into the snapshot store until ctx is cancelled or the
// stream closes. apply copies the snapshot and replaces the loader's fields.
func pipe[T any](ctx context.Context, snaps *SnapshotStore, ch <-chan T, apply func(types.Snapshot, T) types.Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case v, ok := <-ch:
			if !ok {
				return nil
			}
			snaps.Update(func(s types.Snapshot) types.Snapshot {
				return apply(s, v)
			})
		}
	}
}

func moodLoader(ctx context.Context, snaps *SnapshotStore, src WellnessSource) error {
	return pipe(ctx, snaps, src.SubscribeMood(ctx), func(s types.Snapshot, m *types.Mood) types.Snapshot {
		s.Mood = m
		return s
	})
}

func waterLoader(ctx context.Context, snaps *SnapshotStore, src WellnessSource) error {
	return pipe(ctx, snaps, src.SubscribeWater(ctx), func(s types.Snapshot, w *types.WaterIntake) types.Snapshot {
		s.Water = w
		return s
	})
}

func intentionsLoader(ctx context.Context, snaps *SnapshotStore, src WellnessSource) error {
	return pipe(ctx, snaps, src.SubscribeIntentions(ctx), func(s types.Snapshot, in []string) types.Snapshot {
		s.Intentions = in
		return s
	})
}

func healthLoader(ctx context.Context, snaps *SnapshotStore, src WellnessSource) error {
	return pipe(ctx, snaps, src.SubscribeHealth(ctx), func(s types.Snapshot, h *types.HealthData) types.Snapshot {
		s.Health = h
		return s
	})
}

func recoveryLoader(ctx context.Context, snaps *SnapshotStore, tracker *RecoveryTracker) error {
	return pipe(ctx, snaps, tracker.Subscribe(ctx), func(s types.Snapshot, r types.RecoveryState) types.Snapshot {
		s.Recovery = r
		return s
	})
}

func reminderLoader(ctx context.Context, snaps *SnapshotStore, src ReminderLearner) error {
	return pipe(ctx, snaps, src.SubscribeReminderSuggestions(ctx), func(s types.Snapshot, sugg map[string]string) types.Snapshot {
		s.ReminderSuggestions = sugg
		return s
	})
}

func audioStatusLoader(ctx context.Context, snaps *SnapshotStore, src AudioCoach) error {
	return pipe(ctx, snaps, src.SubscribeStatus(ctx), func(s types.Snapshot, cue string) types.Snapshot {
		s.AudioStatus = cue
		return s
	})
}

func coachMessageLoader(ctx context.Context, snaps *SnapshotStore, src AICoach) error {
	return pipe(ctx, snaps, src.SubscribeMessages(ctx), func(s types.Snapshot, msg string) types.Snapshot {
		s.CoachMessage = msg
		return s
	})
}

func modelProgressLoader(ctx context.Context, snaps *SnapshotStore, src ModelDownloadSource) error {
	return pipe(ctx, snaps, src.SubscribeProgress(ctx), func(s types.Snapshot, p float64) types.Snapshot {
		s.ModelProgress = p
		return s
	})
}

func stacksLoader(ctx context.Context, snaps *SnapshotStore, src StackSource) error {
	return pipe(ctx, snaps, src.SubscribeStacks(ctx), func(s types.Snapshot, stacks []types.HabitStack) types.Snapshot {
		s.Stacks = stacks
		return s
	})
}
