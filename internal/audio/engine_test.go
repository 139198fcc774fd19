package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPlayer struct {
	cues    []string
	details []string
	err     error
}

func (p *recordingPlayer) Play(_ context.Context, cue, detail string) error {
	if p.err != nil {
		return p.err
	}
	p.cues = append(p.cues, cue)
	p.details = append(p.details, detail)
	return nil
}

func TestEnginePlaysCues(t *testing.T) {
	p := &recordingPlayer{}
	e := NewEngine(p, true)
	ctx := context.Background()

	require.NoError(t, e.PlayHabitCue(ctx, "Meditate"))
	require.NoError(t, e.PlayPerfectDay(ctx))
	require.NoError(t, e.PlayMilestone(ctx, 7))

	assert.Equal(t, []string{CueHabitComplete, CuePerfectDay, CueMilestone}, p.cues)
	assert.Equal(t, "Meditate", p.details[0])
	assert.Equal(t, "7", p.details[2])
	assert.Equal(t, CueMilestone, e.LastCue())
}

func TestEngineDisabledIsSilentNoop(t *testing.T) {
	p := &recordingPlayer{}
	e := NewEngine(p, false)

	require.NoError(t, e.PlayHabitCue(context.Background(), "Meditate"))
	assert.Empty(t, p.cues)
	assert.Empty(t, e.LastCue())
}

func TestEngineReleaseBlocksFurtherCues(t *testing.T) {
	e := NewEngine(&recordingPlayer{}, true)
	require.NoError(t, e.Release())
	require.NoError(t, e.Release(), "release is idempotent")

	err := e.PlayPerfectDay(context.Background())
	assert.ErrorIs(t, err, ErrReleased)
}

func TestEnginePlayerErrorIsWrapped(t *testing.T) {
	boom := errors.New("no output device")
	e := NewEngine(&recordingPlayer{err: boom}, true)

	err := e.PlayHabitCue(context.Background(), "Read")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, e.LastCue(), "failed cue must not become status")
}

func TestEngineStatusStreamCoalesces(t *testing.T) {
	e := NewEngine(&recordingPlayer{}, true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := e.SubscribeStatus(ctx)
	require.NoError(t, e.PlayHabitCue(context.Background(), "Read"))
	require.NoError(t, e.PlayPerfectDay(context.Background()))

	select {
	case got := <-ch:
		assert.Equal(t, CuePerfectDay, got, "slow subscriber sees only the latest cue")
	case <-time.After(time.Second):
		t.Fatal("no status published")
	}
}
