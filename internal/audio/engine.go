// Package audio provides the audio reinforcement collaborator. Cue playback
// itself is delegated to a Player (platform TTS, sample bank, ...); the
// engine owns cue selection, the enabled switch, and release semantics so
// the orchestration core can tear it down cleanly.
package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"habitloop/internal/logging"
)

// Cue names handed to the Player.
const (
	CueHabitComplete = "habit_complete"
	CuePerfectDay    = "perfect_day"
	CueMilestone     = "milestone"
)

// ErrReleased is returned when a cue is requested after Release.
var ErrReleased = errors.New("audio engine released")

// Player renders a named cue. Implementations may block; the engine is
// always called from a cascade step that tolerates failure.
type Player interface {
	Play(ctx context.Context, cue, detail string) error
}

// Engine is the default audio coach.
type Engine struct {
	player  Player
	enabled bool
	log     *zap.Logger

	mu       sync.Mutex
	released bool
	lastCue  string
	subs     []chan string
}

// NewEngine builds the engine. A nil player falls back to log-only playback.
func NewEngine(player Player, enabled bool) *Engine {
	log := logging.Named(logging.CategoryAudio)
	if player == nil {
		player = logPlayer{log: log}
	}
	return &Engine{player: player, enabled: enabled, log: log}
}

// PlayHabitCue plays the per-habit completion cue.
func (e *Engine) PlayHabitCue(ctx context.Context, habitName string) error {
	return e.play(ctx, CueHabitComplete, habitName)
}

// PlayPerfectDay plays the all-habits-complete cue.
func (e *Engine) PlayPerfectDay(ctx context.Context) error {
	return e.play(ctx, CuePerfectDay, "")
}

// PlayMilestone plays the streak milestone cue.
func (e *Engine) PlayMilestone(ctx context.Context, streak int) error {
	return e.play(ctx, CueMilestone, fmt.Sprintf("%d", streak))
}

// Release frees the underlying player. Further cues fail with ErrReleased.
func (e *Engine) Release() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return nil
	}
	e.released = true
	e.log.Info("audio engine released")
	return nil
}

// LastCue returns the most recently played cue name, for status display.
func (e *Engine) LastCue() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastCue
}

// SubscribeStatus returns a latest-value stream of played cue names.
func (e *Engine) SubscribeStatus(ctx context.Context) <-chan string {
	ch := make(chan string, 1)
	e.mu.Lock()
	e.subs = append(e.subs, ch)
	if e.lastCue != "" {
		ch <- e.lastCue
	}
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.mu.Lock()
		for i, sub := range e.subs {
			if sub == ch {
				e.subs = append(e.subs[:i], e.subs[i+1:]...)
				break
			}
		}
		e.mu.Unlock()
	}()

	return ch
}

func (e *Engine) play(ctx context.Context, cue, detail string) error {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return ErrReleased
	}
	if !e.enabled {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	if err := e.player.Play(ctx, cue, detail); err != nil {
		return fmt.Errorf("play %s: %w", cue, err)
	}

	e.mu.Lock()
	e.lastCue = cue
	for _, ch := range e.subs {
		select {
		case ch <- cue:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- cue:
			default:
			}
		}
	}
	e.mu.Unlock()
	return nil
}

// logPlayer is the fallback Player: it records cues in the log instead of
// producing sound. Real playback lives outside this module.
type logPlayer struct {
	log *zap.Logger
}

func (p logPlayer) Play(_ context.Context, cue, detail string) error {
	p.log.Info("audio cue", zap.String("cue", cue), zap.String("detail", detail))
	return nil
}
