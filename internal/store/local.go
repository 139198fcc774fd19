// Package store implements habitloop's local persistence: habits, daily
// completions, settings, habit stacks, the reward ledger, gamification
// stats, achievements, smart-reminder samples, and wellness check-ins, all
// in one SQLite database.
//
// Every write notifies per-topic watchers, which back the subscription
// streams the orchestration core consumes ("latest value, re-emit on
// change"). The store itself never pushes partial values: subscribers
// re-fetch the full latest value on each notification.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"habitloop/internal/logging"
)

// Change topics. One topic per disjoint data area.
const (
	topicHabits    = "habits"
	topicEntries   = "entries"
	topicSettings  = "settings"
	topicStacks    = "stacks"
	topicWellness  = "wellness"
	topicReminders = "reminders"
)

// Options tunes store behavior. Zero values get defaults.
type Options struct {
	BusyTimeout        time.Duration
	TrialDays          int // trial window granted on first launch
	MinReminderSamples int // samples required before suggesting a reminder time
	Now                func() time.Time
	Logger             *zap.Logger
}

// LocalStore is the SQLite-backed implementation of every repository
// contract the orchestration core consumes.
type LocalStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
	log  *zap.Logger

	minReminderSamples int

	mu       sync.RWMutex
	watchers map[string][]chan struct{}
	closed   bool
}

// Open creates or opens the habitloop database at path.
func Open(path string, opts Options) (*LocalStore, error) {
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = 5 * time.Second
	}
	if opts.TrialDays <= 0 {
		opts.TrialDays = 7
	}
	if opts.MinReminderSamples <= 0 {
		opts.MinReminderSamples = 3
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Named(logging.CategoryStore)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		path, opts.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &LocalStore{
		db:                 db,
		path:               path,
		now:                opts.Now,
		log:                opts.Logger,
		minReminderSamples: opts.MinReminderSamples,
		watchers:           make(map[string][]chan struct{}),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	if err := s.seedSettings(opts.TrialDays); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed settings: %w", err)
	}

	s.log.Info("store opened", zap.String("path", path))
	return s, nil
}

// Close closes the database. Active subscriptions end when their contexts
// are cancelled, not here.
func (s *LocalStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.db.Close()
}

// Path returns the database file path.
func (s *LocalStore) Path() string {
	return s.path
}

func (s *LocalStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS habits (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		emoji         TEXT NOT NULL DEFAULT '',
		enabled       INTEGER NOT NULL DEFAULT 1,
		display_order INTEGER NOT NULL DEFAULT 0,
		custom        INTEGER NOT NULL DEFAULT 0,
		created_at    DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS completions (
		date         TEXT NOT NULL,
		habit_id     TEXT NOT NULL,
		completed_at DATETIME NOT NULL,
		PRIMARY KEY (date, habit_id)
	);
	CREATE INDEX IF NOT EXISTS idx_completions_date ON completions(date);

	CREATE TABLE IF NOT EXISTS settings (
		id              INTEGER PRIMARY KEY CHECK (id = 1),
		display_name    TEXT NOT NULL DEFAULT '',
		username        TEXT NOT NULL DEFAULT '',
		email           TEXT NOT NULL DEFAULT '',
		onboarding_goal TEXT NOT NULL DEFAULT '',
		onboarded_at    TEXT NOT NULL,
		tutorial_seen   INTEGER NOT NULL DEFAULT 0,
		full_access     INTEGER NOT NULL DEFAULT 0,
		trial_ends_at   TEXT NOT NULL DEFAULT '',
		sound_enabled   INTEGER NOT NULL DEFAULT 1,
		coach_enabled   INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS habit_stacks (
		anchor_id TEXT PRIMARY KEY,
		next_id   TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reward_ledger (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		kind       TEXT NOT NULL,
		points     INTEGER NOT NULL,
		ref        TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS gamification_stats (
		id            INTEGER PRIMARY KEY CHECK (id = 1),
		xp            INTEGER NOT NULL DEFAULT 0,
		level         INTEGER NOT NULL DEFAULT 0,
		perfect_days  INTEGER NOT NULL DEFAULT 0,
		perfect_weeks INTEGER NOT NULL DEFAULT 0,
		last_streak   INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		updated_at    DATETIME
	);
	INSERT OR IGNORE INTO gamification_stats (id) VALUES (1);

	CREATE TABLE IF NOT EXISTS achievements (
		code        TEXT PRIMARY KEY,
		unlocked_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reminder_samples (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		habit_id   TEXT NOT NULL,
		weekday    INTEGER NOT NULL,
		minute     INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reminder_samples_habit ON reminder_samples(habit_id);

	CREATE TABLE IF NOT EXISTS moods (
		date  TEXT PRIMARY KEY,
		score INTEGER NOT NULL,
		note  TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS water_intake (
		date TEXT PRIMARY KEY,
		ml   INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS intentions (
		date     TEXT NOT NULL,
		position INTEGER NOT NULL,
		text     TEXT NOT NULL,
		PRIMARY KEY (date, position)
	);

	CREATE TABLE IF NOT EXISTS health_samples (
		date        TEXT PRIMARY KEY,
		steps       INTEGER NOT NULL DEFAULT 0,
		sleep_hours REAL NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// seedSettings inserts the initial settings row on first launch, starting
// the trial clock.
func (s *LocalStore) seedSettings(trialDays int) error {
	today := s.today()
	trialEnd := s.now().AddDate(0, 0, trialDays).Format("2006-01-02")
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO settings (id, onboarded_at, trial_ends_at)
		VALUES (1, ?, ?)`, today, trialEnd)
	return err
}

func (s *LocalStore) today() string {
	return s.now().Format("2006-01-02")
}

// -----------------------------------------------------------------------------
// Change notification
// -----------------------------------------------------------------------------

// notify signals every watcher of a topic. Signals are coalesced: a watcher
// that has not consumed the previous signal does not queue another.
func (s *LocalStore) notify(topics ...string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, topic := range topics {
		for _, ch := range s.watchers[topic] {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

func (s *LocalStore) addWatcher(topic string, ch chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers[topic] = append(s.watchers[topic], ch)
}

func (s *LocalStore) removeWatcher(topic string, ch chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.watchers[topic]
	for i, c := range list {
		if c == ch {
			s.watchers[topic] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// subscribe is the shared latest-value stream builder: it emits the current
// value immediately, then re-fetches and re-emits whenever the topic is
// notified. Slow receivers are coalesced to the latest value and never block
// a writer.
func subscribe[T any](ctx context.Context, s *LocalStore, topic string, fetch func(context.Context) (T, error)) <-chan T {
	out := make(chan T, 1)
	sig := make(chan struct{}, 1)
	s.addWatcher(topic, sig)

	go func() {
		defer close(out)
		defer s.removeWatcher(topic, sig)

		emit := func() {
			v, err := fetch(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Warn("subscription fetch failed",
						zap.String("topic", topic), zap.Error(err))
				}
				return
			}
			select {
			case out <- v:
			default:
				// Drop the stale buffered value, then try once more.
				select {
				case <-out:
				default:
				}
				select {
				case out <- v:
				default:
				}
			}
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				emit()
			}
		}
	}()

	return out
}
