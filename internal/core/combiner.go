package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"habitloop/internal/logging"
	"habitloop/internal/types"
)

// Layout stage boundaries, in days since onboarding.
const (
	firstSessionDays = 2
	buildingDays     = 14
)

// socialProofDraw is the per-recompute probability of showing a social-proof
// line to an established trial user.
const socialProofDraw = 0.3

var socialProofLines = []string{
	"Over 12,000 people checked off a habit in the last hour.",
	"Streaks three weeks or longer doubled this month.",
	"Most members who finish a morning habit finish the whole day.",
}

// Combiner derives the core home-screen fields from five store streams. Any
// emission on any stream triggers a full recompute from the latest values;
// the derivation itself is a pure function so it is trivially testable.
type Combiner struct {
	habits   HabitSource
	entries  EntrySource
	settings SettingsSource

	snaps    *SnapshotStore
	overlays *OverlayMediator
	streaks  *StreakEvaluator
	recovery *RecoveryTracker

	now  func() time.Time
	rand func() float64
	log  *zap.Logger
}

func newCombiner(d Deps, snaps *SnapshotStore, overlays *OverlayMediator, streaks *StreakEvaluator, recovery *RecoveryTracker) *Combiner {
	return &Combiner{
		habits:   d.Habits,
		entries:  d.Entries,
		settings: d.Settings,
		snaps:    snaps,
		overlays: overlays,
		streaks:  streaks,
		recovery: recovery,
		now:      d.Now,
		rand:     d.Rand,
		log:      logging.Named(logging.CategoryCore),
	}
}

// combinerState is the latest value of each input stream, with a flag per
// stream so nothing is derived from values that have not arrived yet.
type combinerState struct {
	habits   []types.Habit
	entry    *types.Entry
	streak   types.StreakInfo
	week     *types.WeekData
	settings types.Settings

	haveHabits   bool
	haveEntry    bool
	haveStreak   bool
	haveWeek     bool
	haveSettings bool
}

func (st combinerState) ready() bool {
	return st.haveHabits && st.haveEntry && st.haveStreak && st.haveWeek && st.haveSettings
}

// Run consumes the five streams until ctx is cancelled. The first recompute
// waits for every stream to deliver once: the subscriptions start in
// unrelated goroutines, and acting on a partial state would mistake zero
// values (empty settings, zero streak) for real ones. A closed stream stops
// participating; its last value stays in effect.
func (c *Combiner) Run(ctx context.Context) error {
	habitsCh := c.habits.SubscribeEnabledHabits(ctx)
	entryCh := c.entries.SubscribeTodayEntry(ctx)
	streakCh := c.entries.SubscribeStreakInfo(ctx)
	weekCh := c.entries.SubscribeWeekData(ctx, 0)
	settingsCh := c.settings.SubscribeSettings(ctx)

	var st combinerState
	for {
		select {
		case <-ctx.Done():
			return nil
		case habits, ok := <-habitsCh:
			if !ok {
				habitsCh = nil
				continue
			}
			st.habits, st.haveHabits = habits, true
		case entry, ok := <-entryCh:
			if !ok {
				entryCh = nil
				continue
			}
			st.entry, st.haveEntry = entry, true
		case streak, ok := <-streakCh:
			if !ok {
				streakCh = nil
				continue
			}
			st.streak, st.haveStreak = streak, true
		case week, ok := <-weekCh:
			if !ok {
				weekCh = nil
				continue
			}
			st.week, st.haveWeek = week, true
		case settings, ok := <-settingsCh:
			if !ok {
				settingsCh = nil
				continue
			}
			st.settings, st.haveSettings = settings, true
		}
		if st.ready() {
			c.recompute(st)
		}
	}
}

func (c *Combiner) recompute(st combinerState) {
	view := composeCore(st, c.now(), c.rand())

	c.snaps.Update(func(s types.Snapshot) types.Snapshot {
		s.Habits = st.habits
		s.Completions = view.Completions
		s.CompletedCount = view.CompletedCount
		s.TotalCount = view.TotalCount
		s.Streak = st.streak
		s.Week = st.week
		s.HasFullAccess = view.HasFullAccess
		s.IsOnTrial = view.IsOnTrial
		s.TrialDaysRemaining = view.TrialDaysRemaining
		s.DaysSinceOnboarding = view.DaysSinceOnboarding
		s.ShowInsight = view.ShowInsight
		s.Mode = view.Mode
		s.SocialProof = view.SocialProof
		s.DisplayName = view.DisplayName
		s.OnboardingGoal = st.settings.OnboardingGoal
		return s
	})
	c.log.Debug("core recomputed",
		zap.String("mode", view.Mode.String()),
		zap.Int("completed", view.CompletedCount),
		zap.Int("total", view.TotalCount))

	if view.Mode == types.LayoutFirstSession && len(st.habits) > 0 &&
		!st.settings.TutorialSeen && !c.overlays.Shown() {
		c.overlays.Request(types.Overlay{
			Kind:    types.OverlayTutorial,
			Message: "Tap a habit card to mark it done.",
		})
	}

	if c.streaks.CheckForBreak(st.streak.Current, c.recovery.InRecovery()) {
		c.recovery.Prompt()
	}
}

// coreView is the pure output of one combiner recompute.
type coreView struct {
	Completions         map[string]bool
	CompletedCount      int
	TotalCount          int
	HasFullAccess       bool
	IsOnTrial           bool
	TrialDaysRemaining  int
	DaysSinceOnboarding int
	ShowInsight         bool
	Mode                types.LayoutMode
	SocialProof         string
	DisplayName         string
}

// composeCore derives the home-screen fields from the latest stream values.
// draw is a uniform [0,1) sample consumed by the social-proof gate.
func composeCore(st combinerState, now time.Time, draw float64) coreView {
	var v coreView

	v.TotalCount = len(st.habits)
	v.Completions = make(map[string]bool, v.TotalCount)
	for _, h := range st.habits {
		if st.entry.Completed(h.ID) {
			v.Completions[h.ID] = true
			v.CompletedCount++
		}
	}

	today := midnightOf(now)
	v.HasFullAccess, v.IsOnTrial, v.TrialDaysRemaining = trialStatus(st.settings, today)
	v.DaysSinceOnboarding = daysSince(st.settings.OnboardedAt, today)
	v.ShowInsight = now.YearDay()%2 == 0
	v.Mode = layoutMode(v.CompletedCount, v.TotalCount, v.DaysSinceOnboarding)
	if v.Mode == types.LayoutEstablished && v.IsOnTrial && draw < socialProofDraw {
		v.SocialProof = socialProofLines[now.YearDay()%len(socialProofLines)]
	}
	v.DisplayName = st.settings.PreferredName()
	return v
}

// layoutMode picks the journey stage. A fully completed day dominates every
// stage boundary.
func layoutMode(completed, total, daysSinceOnboarding int) types.LayoutMode {
	switch {
	case total > 0 && completed == total:
		return types.LayoutDoneForToday
	case daysSinceOnboarding < firstSessionDays:
		return types.LayoutFirstSession
	case daysSinceOnboarding < buildingDays:
		return types.LayoutBuilding
	default:
		return types.LayoutEstablished
	}
}

// trialStatus derives the access flags from settings against today. An
// unparsable or empty trial date means no trial.
func trialStatus(st types.Settings, today time.Time) (fullAccess, onTrial bool, daysLeft int) {
	if st.FullAccess {
		return true, false, 0
	}
	end, err := time.Parse(types.DateLayout, st.TrialEndsAt)
	if err != nil {
		return false, false, 0
	}
	left := int(end.Sub(today).Hours() / 24)
	if left < 0 {
		return false, false, 0
	}
	return true, true, left
}

// daysSince returns whole days from a DateLayout date to today, clamped to
// zero for unparsable or future dates.
func daysSince(date string, today time.Time) int {
	t, err := time.Parse(types.DateLayout, date)
	if err != nil {
		return 0
	}
	d := int(today.Sub(t).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

func midnightOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
