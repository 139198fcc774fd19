package store

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// RecordCompletionTime feeds the smart-reminder learner with the time of day
// a habit was completed.
func (s *LocalStore) RecordCompletionTime(ctx context.Context, habitID string, at time.Time) error {
	minute := at.Hour()*60 + at.Minute()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reminder_samples (habit_id, weekday, minute, created_at)
		VALUES (?, ?, ?, ?)`,
		habitID, int(at.Weekday()), minute, s.now())
	if err != nil {
		return fmt.Errorf("record reminder sample: %w", err)
	}
	s.notify(topicReminders)
	return nil
}

// ReminderSuggestions returns a suggested reminder time ("HH:MM") per habit
// with enough samples. The suggestion is the trimmed mean minute-of-day:
// with five or more samples the earliest and latest are dropped first.
func (s *LocalStore) ReminderSuggestions(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT habit_id, minute FROM reminder_samples ORDER BY habit_id`)
	if err != nil {
		return nil, fmt.Errorf("query reminder samples: %w", err)
	}
	defer rows.Close()

	byHabit := make(map[string][]int)
	for rows.Next() {
		var habitID string
		var minute int
		if err := rows.Scan(&habitID, &minute); err != nil {
			return nil, fmt.Errorf("scan reminder sample: %w", err)
		}
		byHabit[habitID] = append(byHabit[habitID], minute)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for habitID, minutes := range byHabit {
		if len(minutes) < s.minReminderSamples {
			continue
		}
		sort.Ints(minutes)
		if len(minutes) >= 5 {
			minutes = minutes[1 : len(minutes)-1]
		}
		sum := 0
		for _, m := range minutes {
			sum += m
		}
		mean := sum / len(minutes)
		out[habitID] = fmt.Sprintf("%02d:%02d", mean/60, mean%60)
	}
	return out, nil
}

// SubscribeReminderSuggestions emits suggestions now and whenever a new
// sample lands.
func (s *LocalStore) SubscribeReminderSuggestions(ctx context.Context) <-chan map[string]string {
	return subscribe(ctx, s, topicReminders, s.ReminderSuggestions)
}
