package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"habitloop/internal/types"
)

// LogMood records (or replaces) today's mood check-in. Score is clamped to 1..5.
func (s *LocalStore) LogMood(ctx context.Context, score int, note string) error {
	if score < 1 {
		score = 1
	}
	if score > 5 {
		score = 5
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO moods (date, score, note) VALUES (?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET score = excluded.score, note = excluded.note`,
		s.today(), score, note)
	if err != nil {
		return fmt.Errorf("log mood: %w", err)
	}
	s.notify(topicWellness)
	return nil
}

// AddWater adds ml to today's running water total.
func (s *LocalStore) AddWater(ctx context.Context, ml int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO water_intake (date, ml) VALUES (?, ?)
		ON CONFLICT (date) DO UPDATE SET ml = ml + excluded.ml`,
		s.today(), ml)
	if err != nil {
		return fmt.Errorf("add water: %w", err)
	}
	s.notify(topicWellness)
	return nil
}

// SetIntentions replaces today's intention list.
func (s *LocalStore) SetIntentions(ctx context.Context, intentions []string) error {
	today := s.today()
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM intentions WHERE date = ?`, today); err != nil {
		return fmt.Errorf("clear intentions: %w", err)
	}
	for i, text := range intentions {
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO intentions (date, position, text) VALUES (?, ?, ?)`,
			today, i, text); err != nil {
			return fmt.Errorf("insert intention: %w", err)
		}
	}
	s.notify(topicWellness)
	return nil
}

// RecordHealth stores the latest synced health sample for today.
func (s *LocalStore) RecordHealth(ctx context.Context, steps int, sleepHours float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO health_samples (date, steps, sleep_hours) VALUES (?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET steps = excluded.steps, sleep_hours = excluded.sleep_hours`,
		s.today(), steps, sleepHours)
	if err != nil {
		return fmt.Errorf("record health: %w", err)
	}
	s.notify(topicWellness)
	return nil
}

// TodayMood returns today's mood, or nil when not checked in.
func (s *LocalStore) TodayMood(ctx context.Context) (*types.Mood, error) {
	m := &types.Mood{Date: s.today()}
	err := s.db.QueryRowContext(ctx,
		`SELECT score, note FROM moods WHERE date = ?`, m.Date).Scan(&m.Score, &m.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query mood: %w", err)
	}
	return m, nil
}

// TodayWater returns today's water total. Zero when nothing logged.
func (s *LocalStore) TodayWater(ctx context.Context) (*types.WaterIntake, error) {
	w := &types.WaterIntake{Date: s.today()}
	err := s.db.QueryRowContext(ctx,
		`SELECT ml FROM water_intake WHERE date = ?`, w.Date).Scan(&w.ML)
	if errors.Is(err, sql.ErrNoRows) {
		return w, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query water: %w", err)
	}
	return w, nil
}

// TodayIntentions returns today's intentions in order.
func (s *LocalStore) TodayIntentions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT text FROM intentions WHERE date = ? ORDER BY position`, s.today())
	if err != nil {
		return nil, fmt.Errorf("query intentions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan intention: %w", err)
		}
		out = append(out, text)
	}
	return out, rows.Err()
}

// TodayHealth returns today's health sample, or nil when none synced.
func (s *LocalStore) TodayHealth(ctx context.Context) (*types.HealthData, error) {
	h := &types.HealthData{Date: s.today()}
	err := s.db.QueryRowContext(ctx,
		`SELECT steps, sleep_hours FROM health_samples WHERE date = ?`, h.Date).
		Scan(&h.Steps, &h.SleepHours)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query health: %w", err)
	}
	return h, nil
}

// SubscribeMood emits today's mood now and on every wellness write.
func (s *LocalStore) SubscribeMood(ctx context.Context) <-chan *types.Mood {
	return subscribe(ctx, s, topicWellness, s.TodayMood)
}

// SubscribeWater emits today's water total now and on every wellness write.
func (s *LocalStore) SubscribeWater(ctx context.Context) <-chan *types.WaterIntake {
	return subscribe(ctx, s, topicWellness, s.TodayWater)
}

// SubscribeIntentions emits today's intentions now and on every wellness write.
func (s *LocalStore) SubscribeIntentions(ctx context.Context) <-chan []string {
	return subscribe(ctx, s, topicWellness, s.TodayIntentions)
}

// SubscribeHealth emits today's health sample now and on every wellness write.
func (s *LocalStore) SubscribeHealth(ctx context.Context) <-chan *types.HealthData {
	return subscribe(ctx, s, topicWellness, s.TodayHealth)
}
