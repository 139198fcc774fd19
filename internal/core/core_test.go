package core

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"

	"habitloop/internal/types"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newCoreFixture() (*Core, *cascadeFixture, *fakeWellness, *fakeModel) {
	f := &cascadeFixture{
		habits:   newFakeHabits(testHabits("a", "b")...),
		entries:  newFakeEntries(),
		settings: newFakeSettings(types.Settings{DisplayName: "mara", OnboardedAt: "2026-08-21"}),
		stacks:   newFakeStacks(),
		rewards:  &fakeRewards{},
		gam:      &fakeGamification{},
		ach:      &fakeAchievements{},
		rem:      newFakeReminders(),
		audio:    newFakeAudio(),
		coach:    newFakeCoach(),
	}
	wellness := newFakeWellness()
	model := newFakeModel()

	c := New(Deps{
		Habits:       f.habits,
		Entries:      f.entries,
		Settings:     f.settings,
		Stacks:       f.stacks,
		Wellness:     wellness,
		Rewards:      f.rewards,
		Gamification: f.gam,
		Achievements: f.ach,
		Reminders:    f.rem,
		Audio:        f.audio,
		Coach:        f.coach,
		Model:        model,
		Now:          fixedNow,
		Rand:         func() float64 { return 0.99 }, // keep social proof out
	})
	return c, f, wellness, model
}

// feedCombiner delivers a first value on each of the five combiner streams.
func (f *cascadeFixture) feedCombiner(streak types.StreakInfo) {
	f.habits.ch <- f.habits.habits
	f.entries.entryCh <- f.entries.entry
	f.entries.streakCh <- streak
	f.entries.weekCh <- &types.WeekData{Start: "2026-08-17"}
	f.settings.ch <- f.settings.settings
}

func TestCoreLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, f, wellness, model := newCoreFixture()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	f.feedCombiner(types.StreakInfo{Current: 2, Longest: 4})
	waitFor(t, "combined core fields", func() bool {
		snap := c.Current()
		return snap.TotalCount == 2 && snap.Streak.Current == 2
	})

	// Loader-owned fields merge without touching the combiner's.
	wellness.moodCh <- &types.Mood{Date: "2026-08-21", Score: 4}
	wellness.waterCh <- &types.WaterIntake{Date: "2026-08-21", ML: 500}
	wellness.intentionsCh <- []string{"slow morning"}
	wellness.healthCh <- &types.HealthData{Date: "2026-08-21", Steps: 4000}
	f.rem.ch <- map[string]string{"a": "07:30"}
	f.coach.ch <- "keep going"
	f.audio.ch <- "habit_complete"
	model.ch <- 0.5
	f.stacks.ch <- []types.HabitStack{{AnchorID: "a", NextID: "b"}}

	waitFor(t, "loader fields", func() bool {
		snap := c.Current()
		return snap.Mood != nil && snap.Water != nil && len(snap.Intentions) == 1 &&
			snap.Health != nil && snap.ReminderSuggestions["a"] == "07:30" &&
			snap.CoachMessage == "keep going" && snap.AudioStatus == "habit_complete" &&
			snap.ModelProgress == 0.5 && len(snap.Stacks) == 1
	})

	snap := c.Current()
	if snap.TotalCount != 2 || snap.Streak.Current != 2 {
		t.Fatalf("loader merges clobbered combiner fields: %+v", snap)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !f.audio.released {
		t.Fatal("Close must release the audio engine")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

// Until every combiner stream has delivered once, the combiner must neither
// merge fields nor act: a zero Settings would otherwise read as
// TutorialSeen=false and spend the session overlay slot at startup.
func TestCoreDefersActionsUntilAllStreamsArrive(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, f, _, _ := newCoreFixture()
	f.settings.settings = types.Settings{TutorialSeen: true, OnboardedAt: "2026-08-21"}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Close()

	// Four of five streams; settings is still in flight.
	f.habits.ch <- f.habits.habits
	f.entries.entryCh <- f.entries.entry
	f.entries.streakCh <- types.StreakInfo{}
	f.entries.weekCh <- &types.WeekData{Start: "2026-08-17"}

	time.Sleep(50 * time.Millisecond)
	if ov := c.Current().ActiveOverlay; ov != nil {
		t.Fatalf("overlay requested from defaulted settings: %+v", ov)
	}
	if got := c.Current().TotalCount; got != 0 {
		t.Fatalf("combiner merged before all streams arrived: TotalCount=%d", got)
	}

	f.settings.ch <- f.settings.settings
	waitFor(t, "combined core fields", func() bool {
		return c.Current().TotalCount == 2
	})
	if ov := c.Current().ActiveOverlay; ov != nil {
		t.Fatalf("tutorial requested despite TutorialSeen=true: %+v", ov)
	}
}

// A stream closed while the core is still running must not feed zero values
// into the combiner: the last delivered value stays in effect and no streak
// break fires.
func TestCoreClosedStreamKeepsLastValue(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, f, _, _ := newCoreFixture()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Close()

	f.feedCombiner(types.StreakInfo{Current: 5, Longest: 8})
	waitFor(t, "streak in snapshot", func() bool {
		return c.Current().Streak.Current == 5
	})

	close(f.entries.streakCh)
	// Another live stream keeps the combiner recomputing.
	f.habits.ch <- f.habits.habits

	time.Sleep(50 * time.Millisecond)
	snap := c.Current()
	if snap.Streak.Current != 5 {
		t.Fatalf("closed stream zeroed the streak: %+v", snap.Streak)
	}
	if snap.Recovery != types.RecoveryNone {
		t.Fatalf("closed stream read as streak break: recovery=%v", snap.Recovery)
	}
}

func TestCoreStreakBreakPromptsRecovery(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, f, _, _ := newCoreFixture()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Close()

	f.feedCombiner(types.StreakInfo{Current: 3})
	waitFor(t, "streak in snapshot", func() bool {
		return c.Current().Streak.Current == 3
	})

	f.entries.streakCh <- types.StreakInfo{Current: 0}
	waitFor(t, "recovery prompt", func() bool {
		return c.Current().Recovery == types.RecoveryPrompted
	})

	// Dismissing the recovery keeps it re-promptable.
	c.DismissRecovery()
	waitFor(t, "recovery dismissed", func() bool {
		return c.Current().Recovery == types.RecoveryDismissed
	})

	f.entries.streakCh <- types.StreakInfo{Current: 1}
	f.entries.streakCh <- types.StreakInfo{Current: 0}
	waitFor(t, "second recovery prompt", func() bool {
		return c.Current().Recovery == types.RecoveryPrompted
	})
}

func TestCoreRequestsTutorialOnFirstSession(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, f, _, _ := newCoreFixture()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Close()

	f.feedCombiner(types.StreakInfo{})
	waitFor(t, "tutorial overlay", func() bool {
		ov := c.Current().ActiveOverlay
		return ov != nil && ov.Kind == types.OverlayTutorial
	})

	c.DismissOverlay()
	waitFor(t, "overlay cleared", func() bool {
		return c.Current().ActiveOverlay == nil
	})

	// More habit emissions must not resurrect the tutorial.
	f.habits.ch <- f.habits.habits
	time.Sleep(50 * time.Millisecond)
	if ov := c.Current().ActiveOverlay; ov != nil {
		t.Fatalf("overlay came back after dismissal: %+v", ov)
	}
}

func TestCoreStartRequiresSources(t *testing.T) {
	c := New(Deps{})
	if err := c.Start(context.Background()); err != ErrMissingDeps {
		t.Fatalf("err = %v, want ErrMissingDeps", err)
	}
}
