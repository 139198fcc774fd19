package core

import (
	"testing"
	"time"

	"habitloop/internal/types"
)

func testHabits(ids ...string) []types.Habit {
	habits := make([]types.Habit, 0, len(ids))
	for i, id := range ids {
		habits = append(habits, types.Habit{ID: id, Name: id, Enabled: true, Order: i})
	}
	return habits
}

// A fully completed day wins over every journey stage.
func TestLayoutModeDoneForTodayDominates(t *testing.T) {
	for days := 0; days <= 30; days++ {
		if got := layoutMode(3, 3, days); got != types.LayoutDoneForToday {
			t.Fatalf("days=%d: mode = %v, want done_for_today", days, got)
		}
	}
	// Zero habits can never be "done".
	if got := layoutMode(0, 0, 20); got == types.LayoutDoneForToday {
		t.Fatal("no habits must not read as done for today")
	}
}

func TestLayoutModeStages(t *testing.T) {
	cases := []struct {
		days int
		want types.LayoutMode
	}{
		{0, types.LayoutFirstSession},
		{1, types.LayoutFirstSession},
		{2, types.LayoutBuilding},
		{13, types.LayoutBuilding},
		{14, types.LayoutEstablished},
		{100, types.LayoutEstablished},
	}
	for _, c := range cases {
		if got := layoutMode(1, 3, c.days); got != c.want {
			t.Errorf("days=%d: mode = %v, want %v", c.days, got, c.want)
		}
	}
}

func TestTrialStatus(t *testing.T) {
	today := midnightOf(fixedNow()) // 2026-08-21

	t.Run("full access wins", func(t *testing.T) {
		full, trial, left := trialStatus(types.Settings{FullAccess: true, TrialEndsAt: "2020-01-01"}, today)
		if !full || trial || left != 0 {
			t.Fatalf("got full=%v trial=%v left=%d", full, trial, left)
		}
	})
	t.Run("active trial", func(t *testing.T) {
		full, trial, left := trialStatus(types.Settings{TrialEndsAt: "2026-08-24"}, today)
		if !full || !trial || left != 3 {
			t.Fatalf("got full=%v trial=%v left=%d", full, trial, left)
		}
	})
	t.Run("last trial day", func(t *testing.T) {
		full, trial, left := trialStatus(types.Settings{TrialEndsAt: "2026-08-21"}, today)
		if !full || !trial || left != 0 {
			t.Fatalf("got full=%v trial=%v left=%d", full, trial, left)
		}
	})
	t.Run("expired trial", func(t *testing.T) {
		full, trial, left := trialStatus(types.Settings{TrialEndsAt: "2026-08-20"}, today)
		if full || trial || left != 0 {
			t.Fatalf("got full=%v trial=%v left=%d", full, trial, left)
		}
	})
	t.Run("unparsable date means no trial", func(t *testing.T) {
		full, trial, _ := trialStatus(types.Settings{TrialEndsAt: "soon"}, today)
		if full || trial {
			t.Fatal("garbage trial date must not grant access")
		}
	})
}

func TestDaysSinceClampsAndTolerates(t *testing.T) {
	today := midnightOf(fixedNow())
	if got := daysSince("2026-08-18", today); got != 3 {
		t.Fatalf("daysSince = %d, want 3", got)
	}
	if got := daysSince("2026-09-01", today); got != 0 {
		t.Fatalf("future onboarding date must clamp to 0, got %d", got)
	}
	if got := daysSince("not-a-date", today); got != 0 {
		t.Fatalf("unparsable date must default to 0, got %d", got)
	}
}

func TestComposeCoreCountsAndCompletions(t *testing.T) {
	st := combinerState{
		habits: testHabits("a", "b", "c"),
		entry: &types.Entry{
			Date:        "2026-08-21",
			Completions: map[string]bool{"a": true, "zz": true}, // zz is not enabled
		},
	}
	v := composeCore(st, fixedNow(), 0.9)

	if v.TotalCount != 3 || v.CompletedCount != 1 {
		t.Fatalf("counts = %d/%d, want 1/3", v.CompletedCount, v.TotalCount)
	}
	if !v.Completions["a"] || v.Completions["zz"] {
		t.Fatalf("completions map wrong: %v", v.Completions)
	}
}

func TestComposeCoreNilEntryMeansNothingDone(t *testing.T) {
	st := combinerState{habits: testHabits("a", "b")}
	v := composeCore(st, fixedNow(), 0.9)
	if v.CompletedCount != 0 || v.Mode == types.LayoutDoneForToday {
		t.Fatalf("nil entry produced completed=%d mode=%v", v.CompletedCount, v.Mode)
	}
}

func TestComposeCoreSocialProofGate(t *testing.T) {
	established := types.Settings{OnboardedAt: "2026-07-01", TrialEndsAt: "2026-08-25"}
	st := combinerState{habits: testHabits("a"), settings: established}

	if v := composeCore(st, fixedNow(), 0.1); v.SocialProof == "" {
		t.Fatal("established trial user with a low draw must see social proof")
	}
	if v := composeCore(st, fixedNow(), 0.5); v.SocialProof != "" {
		t.Fatal("draw above threshold must suppress social proof")
	}

	// Not established: gate closed no matter the draw.
	st.settings.OnboardedAt = "2026-08-20"
	if v := composeCore(st, fixedNow(), 0.0); v.SocialProof != "" {
		t.Fatal("first-session user must never see social proof")
	}

	// Established but off trial: gate closed.
	st.settings = types.Settings{OnboardedAt: "2026-07-01", FullAccess: true}
	if v := composeCore(st, fixedNow(), 0.0); v.SocialProof != "" {
		t.Fatal("full-access user must never see social proof")
	}
}

func TestComposeCoreShowInsightParity(t *testing.T) {
	st := combinerState{habits: testHabits("a")}

	even := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC) // year day 2
	odd := time.Date(2026, 1, 3, 8, 0, 0, 0, time.UTC)  // year day 3
	if !composeCore(st, even, 0.9).ShowInsight {
		t.Fatal("even year-day must show the insight")
	}
	if composeCore(st, odd, 0.9).ShowInsight {
		t.Fatal("odd year-day must hide the insight")
	}
}

func TestComposeCoreDisplayName(t *testing.T) {
	st := combinerState{settings: types.Settings{Email: "sam.pool@example.com"}}
	if got := composeCore(st, fixedNow(), 0.9).DisplayName; got != "Sam.pool" {
		t.Fatalf("DisplayName = %q", got)
	}
}
