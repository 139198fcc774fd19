package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"habitloop/internal/types"
)

// Shared in-memory collaborators for the core tests. Subscription channels
// are buffered and fed by the tests directly.

var errNoSuchHabit = errors.New("no such habit")

func fixedNow() time.Time {
	return time.Date(2026, 8, 21, 10, 30, 0, 0, time.UTC) // a Friday morning
}

// ----------------------------------------------------------------------------

type fakeHabits struct {
	habits []types.Habit
	ch     chan []types.Habit
}

func newFakeHabits(habits ...types.Habit) *fakeHabits {
	return &fakeHabits{habits: habits, ch: make(chan []types.Habit, 8)}
}

func (f *fakeHabits) EnabledHabits(context.Context) ([]types.Habit, error) {
	return f.habits, nil
}

func (f *fakeHabits) HabitByID(_ context.Context, id string) (types.Habit, error) {
	for _, h := range f.habits {
		if h.ID == id {
			return h, nil
		}
	}
	return types.Habit{}, errNoSuchHabit
}

func (f *fakeHabits) SubscribeEnabledHabits(context.Context) <-chan []types.Habit {
	return f.ch
}

// ----------------------------------------------------------------------------

// fakeEntries keeps a live entry mutated by SetCompletion. StreakInfo and
// WeekData pop scripted sequences; the last element is sticky.
type fakeEntries struct {
	mu        sync.Mutex
	entry     *types.Entry
	streakSeq []types.StreakInfo
	weekSeq   []*types.WeekData
	setErr    error

	entryCh  chan *types.Entry
	streakCh chan types.StreakInfo
	weekCh   chan *types.WeekData
}

func newFakeEntries() *fakeEntries {
	return &fakeEntries{
		entry:    &types.Entry{Date: "2026-08-21", Completions: map[string]bool{}, CompletedAt: map[string]time.Time{}},
		entryCh:  make(chan *types.Entry, 8),
		streakCh: make(chan types.StreakInfo, 8),
		weekCh:   make(chan *types.WeekData, 8),
	}
}

func (f *fakeEntries) TodayEntry(context.Context) (*types.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entry, nil
}

func (f *fakeEntries) SetCompletion(_ context.Context, _ string, habitID string, completed bool, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	if completed {
		f.entry.Completions[habitID] = true
		f.entry.CompletedAt[habitID] = at
	} else {
		delete(f.entry.Completions, habitID)
		delete(f.entry.CompletedAt, habitID)
	}
	return nil
}

func (f *fakeEntries) StreakInfo(context.Context) (types.StreakInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.streakSeq) == 0 {
		return types.StreakInfo{}, nil
	}
	head := f.streakSeq[0]
	if len(f.streakSeq) > 1 {
		f.streakSeq = f.streakSeq[1:]
	}
	return head, nil
}

func (f *fakeEntries) WeekData(context.Context, int) (*types.WeekData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.weekSeq) == 0 {
		return &types.WeekData{Start: "2026-08-17"}, nil
	}
	head := f.weekSeq[0]
	if len(f.weekSeq) > 1 {
		f.weekSeq = f.weekSeq[1:]
	}
	return head, nil
}

func (f *fakeEntries) SubscribeTodayEntry(context.Context) <-chan *types.Entry {
	return f.entryCh
}

func (f *fakeEntries) SubscribeStreakInfo(context.Context) <-chan types.StreakInfo {
	return f.streakCh
}

func (f *fakeEntries) SubscribeWeekData(context.Context, int) <-chan *types.WeekData {
	return f.weekCh
}

// ----------------------------------------------------------------------------

type fakeSettings struct {
	settings types.Settings
	ch       chan types.Settings
}

func newFakeSettings(s types.Settings) *fakeSettings {
	return &fakeSettings{settings: s, ch: make(chan types.Settings, 8)}
}

func (f *fakeSettings) Settings(context.Context) (types.Settings, error) {
	return f.settings, nil
}

func (f *fakeSettings) SubscribeSettings(context.Context) <-chan types.Settings {
	return f.ch
}

// ----------------------------------------------------------------------------

type fakeStacks struct {
	next map[string]string // anchor -> next
	ch   chan []types.HabitStack
}

func newFakeStacks() *fakeStacks {
	return &fakeStacks{next: map[string]string{}, ch: make(chan []types.HabitStack, 8)}
}

func (f *fakeStacks) NextInChain(_ context.Context, anchorID string) (string, bool, error) {
	next, ok := f.next[anchorID]
	return next, ok, nil
}

func (f *fakeStacks) SubscribeStacks(context.Context) <-chan []types.HabitStack {
	return f.ch
}

// ----------------------------------------------------------------------------

type fakeWellness struct {
	moodCh       chan *types.Mood
	waterCh      chan *types.WaterIntake
	intentionsCh chan []string
	healthCh     chan *types.HealthData
}

func newFakeWellness() *fakeWellness {
	return &fakeWellness{
		moodCh:       make(chan *types.Mood, 8),
		waterCh:      make(chan *types.WaterIntake, 8),
		intentionsCh: make(chan []string, 8),
		healthCh:     make(chan *types.HealthData, 8),
	}
}

func (f *fakeWellness) SubscribeMood(context.Context) <-chan *types.Mood { return f.moodCh }

func (f *fakeWellness) SubscribeWater(context.Context) <-chan *types.WaterIntake { return f.waterCh }

func (f *fakeWellness) SubscribeIntentions(context.Context) <-chan []string { return f.intentionsCh }

func (f *fakeWellness) SubscribeHealth(context.Context) <-chan *types.HealthData { return f.healthCh }

// ----------------------------------------------------------------------------

type fakeRewards struct {
	err         error
	completions []string
	perfectDays []string
	streaks     []int
}

func (f *fakeRewards) ProcessHabitCompletion(_ context.Context, habitID string) error {
	if f.err != nil {
		return f.err
	}
	f.completions = append(f.completions, habitID)
	return nil
}

func (f *fakeRewards) ProcessPerfectDay(_ context.Context, date string) error {
	if f.err != nil {
		return f.err
	}
	f.perfectDays = append(f.perfectDays, date)
	return nil
}

func (f *fakeRewards) ProcessStreakReward(_ context.Context, streak int) error {
	if f.err != nil {
		return f.err
	}
	f.streaks = append(f.streaks, streak)
	return nil
}

// ----------------------------------------------------------------------------

type fakeGamification struct {
	events       []types.CompletionEvent
	perfectDays  []string
	perfectWeeks []string
	streaks      []types.StreakInfo
}

func (f *fakeGamification) RecordCompletion(_ context.Context, ev types.CompletionEvent) error {
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeGamification) RecordPerfectDay(_ context.Context, date string) error {
	f.perfectDays = append(f.perfectDays, date)
	return nil
}

func (f *fakeGamification) RecordPerfectWeek(_ context.Context, weekStart string) error {
	f.perfectWeeks = append(f.perfectWeeks, weekStart)
	return nil
}

func (f *fakeGamification) RecordStreak(_ context.Context, current, longest int) error {
	f.streaks = append(f.streaks, types.StreakInfo{Current: current, Longest: longest})
	return nil
}

// ----------------------------------------------------------------------------

type fakeAchievements struct {
	unlocked []int
}

func (f *fakeAchievements) UnlockStreakAchievements(_ context.Context, streak int) error {
	f.unlocked = append(f.unlocked, streak)
	return nil
}

// ----------------------------------------------------------------------------

type fakeReminders struct {
	samples []string
	ch      chan map[string]string
}

func newFakeReminders() *fakeReminders {
	return &fakeReminders{ch: make(chan map[string]string, 8)}
}

func (f *fakeReminders) RecordCompletionTime(_ context.Context, habitID string, _ time.Time) error {
	f.samples = append(f.samples, habitID)
	return nil
}

func (f *fakeReminders) SubscribeReminderSuggestions(context.Context) <-chan map[string]string {
	return f.ch
}

// ----------------------------------------------------------------------------

type fakeAudio struct {
	cues     []string
	released bool
	ch       chan string
}

func newFakeAudio() *fakeAudio {
	return &fakeAudio{ch: make(chan string, 8)}
}

func (f *fakeAudio) PlayHabitCue(_ context.Context, habitName string) error {
	f.cues = append(f.cues, "habit:"+habitName)
	return nil
}

func (f *fakeAudio) PlayPerfectDay(context.Context) error {
	f.cues = append(f.cues, "perfect_day")
	return nil
}

func (f *fakeAudio) PlayMilestone(_ context.Context, streak int) error {
	f.cues = append(f.cues, "milestone")
	return nil
}

func (f *fakeAudio) SubscribeStatus(context.Context) <-chan string { return f.ch }

func (f *fakeAudio) Release() error {
	f.released = true
	return nil
}

// ----------------------------------------------------------------------------

type fakeCoach struct {
	lines []string
	ch    chan string
}

func newFakeCoach() *fakeCoach {
	return &fakeCoach{ch: make(chan string, 8)}
}

func (f *fakeCoach) AnnounceCompletion(_ context.Context, habitName string, _ int) string {
	f.lines = append(f.lines, "completion:"+habitName)
	return "nice work on " + habitName
}

func (f *fakeCoach) AnnouncePerfectDay(context.Context) string {
	f.lines = append(f.lines, "perfect_day")
	return "everything done today"
}

func (f *fakeCoach) AnnounceMilestone(_ context.Context, days int) string {
	f.lines = append(f.lines, "milestone")
	return "milestone reached"
}

func (f *fakeCoach) SubscribeMessages(context.Context) <-chan string { return f.ch }

// ----------------------------------------------------------------------------

type fakeModel struct {
	ch chan float64
}

func newFakeModel() *fakeModel {
	return &fakeModel{ch: make(chan float64, 8)}
}

func (f *fakeModel) SubscribeProgress(context.Context) <-chan float64 { return f.ch }
