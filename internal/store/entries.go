package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"habitloop/internal/types"
)

// maxStreakLookbackDays bounds the history scan when recomputing streaks.
const maxStreakLookbackDays = 730

// TodayEntry returns the current day's completion record. Never nil on
// success; an empty entry means nothing completed yet.
func (s *LocalStore) TodayEntry(ctx context.Context) (*types.Entry, error) {
	return s.EntryFor(ctx, s.today())
}

// EntryFor returns the completion record for a specific day.
func (s *LocalStore) EntryFor(ctx context.Context, date string) (*types.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT habit_id, completed_at FROM completions WHERE date = ?`, date)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer rows.Close()

	entry := &types.Entry{
		Date:        date,
		Completions: make(map[string]bool),
		CompletedAt: make(map[string]time.Time),
	}
	for rows.Next() {
		var habitID string
		var at time.Time
		if err := rows.Scan(&habitID, &at); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		entry.Completions[habitID] = true
		entry.CompletedAt[habitID] = at
	}
	return entry, rows.Err()
}

// SetCompletion persists (or removes) a completion for (date, habitID).
// This is the cascade's primary write: its failure must surface.
func (s *LocalStore) SetCompletion(ctx context.Context, date, habitID string, completed bool, at time.Time) error {
	if _, err := s.HabitByID(ctx, habitID); err != nil {
		return err
	}

	var err error
	if completed {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO completions (date, habit_id, completed_at) VALUES (?, ?, ?)
			ON CONFLICT (date, habit_id) DO UPDATE SET completed_at = excluded.completed_at`,
			date, habitID, at)
	} else {
		_, err = s.db.ExecContext(ctx,
			`DELETE FROM completions WHERE date = ? AND habit_id = ?`, date, habitID)
	}
	if err != nil {
		return fmt.Errorf("set completion: %w", err)
	}

	s.notify(topicEntries)
	return nil
}

// StreakInfo recomputes the current and longest streak from the completion
// history. A streak day is a day on which every enabled habit was completed.
// The value is always derived, never incremented in place.
func (s *LocalStore) StreakInfo(ctx context.Context) (types.StreakInfo, error) {
	habits, err := s.EnabledHabits(ctx)
	if err != nil {
		return types.StreakInfo{}, err
	}
	total := len(habits)
	if total == 0 {
		return types.StreakInfo{}, nil
	}

	counts, err := s.perfectDayCounts(ctx)
	if err != nil {
		return types.StreakInfo{}, err
	}

	perfect := func(day time.Time) bool {
		return counts[day.Format(types.DateLayout)] >= total
	}

	today := s.midnight()
	info := types.StreakInfo{}

	// Current streak: consecutive perfect days ending today, or ending
	// yesterday when today is not yet complete.
	cursor := today
	if !perfect(cursor) {
		cursor = cursor.AddDate(0, 0, -1)
	}
	for i := 0; i < maxStreakLookbackDays && perfect(cursor); i++ {
		info.Current++
		cursor = cursor.AddDate(0, 0, -1)
	}

	// Longest streak: best run over the recorded history.
	dates := make([]string, 0, len(counts))
	for d, n := range counts {
		if n >= total {
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)
	run := 0
	var prev time.Time
	for _, d := range dates {
		day, err := time.Parse(types.DateLayout, d)
		if err != nil {
			continue
		}
		if run > 0 && day.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > info.Longest {
			info.Longest = run
		}
		prev = day
	}
	if info.Current > info.Longest {
		info.Longest = info.Current
	}
	return info, nil
}

// perfectDayCounts returns, per day, how many currently-enabled habits were
// completed. Historical days are judged against the current habit set; a
// disabled habit no longer counts toward past streaks.
func (s *LocalStore) perfectDayCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.date, COUNT(*) FROM completions c
		JOIN habits h ON h.id = c.habit_id AND h.enabled = 1
		GROUP BY c.date`)
	if err != nil {
		return nil, fmt.Errorf("query completion history: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var date string
		var n int
		if err := rows.Scan(&date, &n); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		counts[date] = n
	}
	return counts, rows.Err()
}

// WeekData returns the Monday-based week at the given offset from the
// current week (0 = this week, -1 = last week).
func (s *LocalStore) WeekData(ctx context.Context, offset int) (*types.WeekData, error) {
	habits, err := s.EnabledHabits(ctx)
	if err != nil {
		return nil, err
	}
	total := len(habits)

	counts, err := s.perfectDayCounts(ctx)
	if err != nil {
		return nil, err
	}

	today := s.midnight()
	monday := today.AddDate(0, 0, -mondayDelta(today.Weekday())+offset*7)

	week := &types.WeekData{
		Offset: offset,
		Start:  monday.Format(types.DateLayout),
		Days:   make([]types.WeekDay, 0, 7),
	}
	for i := 0; i < 7; i++ {
		day := monday.AddDate(0, 0, i)
		key := day.Format(types.DateLayout)
		week.Days = append(week.Days, types.WeekDay{
			Date:      key,
			Elapsed:   !day.After(today),
			Completed: counts[key],
			Total:     total,
		})
	}
	return week, nil
}

// SubscribeTodayEntry emits today's entry now and after every completion write.
func (s *LocalStore) SubscribeTodayEntry(ctx context.Context) <-chan *types.Entry {
	return subscribe(ctx, s, topicEntries, s.TodayEntry)
}

// SubscribeStreakInfo emits recomputed streak info now and after every
// completion write.
func (s *LocalStore) SubscribeStreakInfo(ctx context.Context) <-chan types.StreakInfo {
	return subscribe(ctx, s, topicEntries, s.StreakInfo)
}

// SubscribeWeekData emits the week at offset now and after every completion
// write.
func (s *LocalStore) SubscribeWeekData(ctx context.Context, offset int) <-chan *types.WeekData {
	return subscribe(ctx, s, topicEntries, func(ctx context.Context) (*types.WeekData, error) {
		return s.WeekData(ctx, offset)
	})
}

func (s *LocalStore) midnight() time.Time {
	n := s.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// mondayDelta returns how many days back Monday is from the given weekday.
func mondayDelta(wd time.Weekday) int {
	if wd == time.Sunday {
		return 6
	}
	return int(wd) - 1
}
