package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"habitloop/internal/logging"
	"habitloop/internal/types"
)

const (
	earlyBirdHour = 9
	morningHour   = 12
)

// Cascade runs the ordered side-effect chain behind a habit toggle. The
// completion write is the only step whose failure reaches the caller; every
// other step is fault-isolated, so a broken reward ledger or a mute audio
// device never blocks the toggle itself. Toggles are serialized per instance
// so two rapid taps cannot both observe a not-yet-perfect day.
type Cascade struct {
	habits       HabitSource
	entries      EntrySource
	stacks       StackSource
	rewards      RewardService
	gamification GamificationService
	achievements AchievementService
	reminders    ReminderLearner
	audio        AudioCoach
	coach        AICoach

	overlays *OverlayMediator
	recovery *RecoveryTracker

	now func() time.Time
	log *zap.Logger
	mu  sync.Mutex
}

func newCascade(d Deps, overlays *OverlayMediator, recovery *RecoveryTracker) *Cascade {
	return &Cascade{
		habits:       d.Habits,
		entries:      d.Entries,
		stacks:       d.Stacks,
		rewards:      d.Rewards,
		gamification: d.Gamification,
		achievements: d.Achievements,
		reminders:    d.Reminders,
		audio:        d.Audio,
		coach:        d.Coach,
		overlays:     overlays,
		recovery:     recovery,
		now:          d.Now,
		log:          logging.Named(logging.CategoryCascade),
	}
}

// beforeView captures the state the threshold checks compare against. It is
// taken before the completion write so a toggle that lands the final habit
// sees "not yet perfect" here and "perfect" afterwards.
type beforeView struct {
	streak       types.StreakInfo
	wasCompleted bool
	perfectDay   bool
	perfectWeek  bool
}

// ToggleHabit persists the completion flip and runs the reaction chain:
// rewards, stack nudge, reminder sample, gamification, audio, celebration,
// streak rewards and achievements, milestone overlay, perfect-week credit.
// Only a failed completion write returns an error.
func (c *Cascade) ToggleHabit(ctx context.Context, habitID string, completed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	today := now.Format(types.DateLayout)

	ids, err := c.enabledIDs(ctx)
	if err != nil {
		return err
	}
	before := c.captureBefore(ctx, ids, habitID)

	if err := c.entries.SetCompletion(ctx, today, habitID, completed, now); err != nil {
		return fmt.Errorf("persist completion: %w", err)
	}

	entry, err := c.entries.TodayEntry(ctx)
	if err != nil {
		// The write landed; reactions that need the fresh entry degrade to
		// the pre-write view.
		c.log.Warn("re-reading today's entry failed", zap.Error(err))
	}
	allComplete := len(ids) > 0 && entry.CompletedCount(ids) == len(ids)

	if completed && !before.wasCompleted {
		c.reactToCompletion(ctx, habitID, before, now, allComplete)
	}
	if completed && allComplete && !before.perfectDay {
		c.reactToPerfectDay(ctx, today)
	}
	c.reactToStreakChange(ctx, before)
	c.reactToPerfectWeek(ctx, before)
	return nil
}

func (c *Cascade) enabledIDs(ctx context.Context) ([]string, error) {
	habits, err := c.habits.EnabledHabits(ctx)
	if err != nil {
		return nil, fmt.Errorf("load enabled habits: %w", err)
	}
	ids := make([]string, 0, len(habits))
	for _, h := range habits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

func (c *Cascade) captureBefore(ctx context.Context, ids []string, habitID string) beforeView {
	var b beforeView
	c.runStep("capture streak", func() error {
		var err error
		b.streak, err = c.entries.StreakInfo(ctx)
		return err
	})
	c.runStep("capture entry", func() error {
		entry, err := c.entries.TodayEntry(ctx)
		if err != nil {
			return err
		}
		b.wasCompleted = entry.Completed(habitID)
		b.perfectDay = len(ids) > 0 && entry.CompletedCount(ids) == len(ids)
		return nil
	})
	c.runStep("capture week", func() error {
		week, err := c.entries.WeekData(ctx, 0)
		if err != nil {
			return err
		}
		b.perfectWeek = week.PerfectElapsed()
		return nil
	})
	return b
}

// reactToCompletion handles the first completion of a habit today.
func (c *Cascade) reactToCompletion(ctx context.Context, habitID string, before beforeView, now time.Time, allComplete bool) {
	c.recovery.Complete()

	var habitName string
	c.runStep("resolve habit", func() error {
		h, err := c.habits.HabitByID(ctx, habitID)
		if err != nil {
			return err
		}
		habitName = h.Name
		return nil
	})

	if c.rewards != nil {
		c.runStep("habit reward", func() error {
			return c.rewards.ProcessHabitCompletion(ctx, habitID)
		})
	}
	if c.stacks != nil {
		c.runStep("stack nudge", func() error {
			return c.suggestNextInStack(ctx, habitID)
		})
	}
	if c.reminders != nil {
		c.runStep("reminder sample", func() error {
			return c.reminders.RecordCompletionTime(ctx, habitID, now)
		})
	}
	if c.gamification != nil {
		c.runStep("gamification completion", func() error {
			return c.gamification.RecordCompletion(ctx, types.CompletionEvent{
				HabitID:     habitID,
				At:          now,
				AllComplete: allComplete,
				EarlyBird:   now.Hour() < earlyBirdHour,
				Morning:     now.Hour() < morningHour,
			})
		})
	}
	if c.coach != nil {
		c.runStep("coach line", func() error {
			c.coach.AnnounceCompletion(ctx, habitName, before.streak.Current)
			return nil
		})
	}
	if c.audio != nil {
		c.runStep("habit audio", func() error {
			return c.audio.PlayHabitCue(ctx, habitName)
		})
	}
}

// suggestNextInStack requests a stack nudge when the completed habit anchors
// a chain whose next habit is still open today.
func (c *Cascade) suggestNextInStack(ctx context.Context, habitID string) error {
	nextID, ok, err := c.stacks.NextInChain(ctx, habitID)
	if err != nil || !ok {
		return err
	}
	entry, err := c.entries.TodayEntry(ctx)
	if err != nil {
		return err
	}
	if entry.Completed(nextID) {
		return nil
	}
	next, err := c.habits.HabitByID(ctx, nextID)
	if err != nil {
		return err
	}
	c.overlays.Request(types.Overlay{
		Kind:           types.OverlayHabitStackNudge,
		Message:        fmt.Sprintf("Nice. %s usually comes next.", next.Name),
		SuggestedHabit: nextID,
	})
	return nil
}

// reactToPerfectDay fires exactly once per transition into all-complete.
func (c *Cascade) reactToPerfectDay(ctx context.Context, today string) {
	message := "Every habit done. That was the whole list."
	if c.coach != nil {
		message = c.coach.AnnouncePerfectDay(ctx)
	}
	c.overlays.Request(types.Overlay{
		Kind:    types.OverlayCelebration,
		Message: message,
	})
	if c.rewards != nil {
		c.runStep("perfect day reward", func() error {
			return c.rewards.ProcessPerfectDay(ctx, today)
		})
	}
	if c.gamification != nil {
		c.runStep("perfect day gamification", func() error {
			return c.gamification.RecordPerfectDay(ctx, today)
		})
	}
	if c.audio != nil {
		c.runStep("perfect day audio", func() error {
			return c.audio.PlayPerfectDay(ctx)
		})
	}
}

// reactToStreakChange refreshes the streak and credits growth: XP for the
// delta, achievements and a reward on an increase, a milestone overlay on a
// threshold crossing.
func (c *Cascade) reactToStreakChange(ctx context.Context, before beforeView) {
	after, err := c.entries.StreakInfo(ctx)
	if err != nil {
		c.log.Warn("cascade step failed", zap.String("step", "refresh streak"), zap.Error(err))
		return
	}
	if after == before.streak {
		return
	}

	if c.gamification != nil {
		c.runStep("streak gamification", func() error {
			return c.gamification.RecordStreak(ctx, after.Current, after.Longest)
		})
	}
	if after.Current > before.streak.Current {
		if c.achievements != nil {
			c.runStep("streak achievements", func() error {
				return c.achievements.UnlockStreakAchievements(ctx, after.Current)
			})
		}
		if c.rewards != nil {
			c.runStep("streak reward", func() error {
				return c.rewards.ProcessStreakReward(ctx, after.Current)
			})
		}
	}

	if m, ok := NewMilestone(before.streak.Current, after.Current); ok {
		message := fmt.Sprintf("%d days straight.", m)
		if c.coach != nil {
			message = c.coach.AnnounceMilestone(ctx, m)
		}
		c.overlays.Request(types.Overlay{
			Kind:      types.OverlayMilestone,
			Message:   message,
			Milestone: m,
		})
		if c.audio != nil {
			c.runStep("milestone audio", func() error {
				return c.audio.PlayMilestone(ctx, m)
			})
		}
	}
}

// reactToPerfectWeek forwards a one-time perfect-week event when the current
// week just became perfect across its elapsed days.
func (c *Cascade) reactToPerfectWeek(ctx context.Context, before beforeView) {
	if before.perfectWeek || c.gamification == nil {
		return
	}
	week, err := c.entries.WeekData(ctx, 0)
	if err != nil {
		c.log.Warn("cascade step failed", zap.String("step", "refresh week"), zap.Error(err))
		return
	}
	if !week.PerfectElapsed() {
		return
	}
	c.runStep("perfect week gamification", func() error {
		return c.gamification.RecordPerfectWeek(ctx, week.Start)
	})
}

// runStep executes one secondary cascade step, logging and swallowing its
// error so later steps still run.
func (c *Cascade) runStep(name string, fn func() error) {
	if err := fn(); err != nil {
		c.log.Warn("cascade step failed", zap.String("step", name), zap.Error(err))
	}
}
