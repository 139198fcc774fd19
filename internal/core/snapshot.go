package core

import (
	"context"
	"sync"

	"habitloop/internal/types"
)

// SnapshotStore holds the latest merged Snapshot. Every mutation goes
// through Update, which applies the caller's function under a single mutex:
// writers always see the latest value, so a loader that copies the previous
// snapshot and replaces only its own fields can never clobber another
// loader's work regardless of goroutine interleaving.
type SnapshotStore struct {
	mu     sync.Mutex
	snap   types.Snapshot
	subs   []chan types.Snapshot
	closed bool
}

// NewSnapshotStore returns an empty snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Update applies fn to the latest snapshot and publishes the result. fn must
// treat its argument as immutable: copy, replace owned fields, return. fn
// runs under the store mutex and must not call back into the store.
func (s *SnapshotStore) Update(fn func(types.Snapshot) types.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.snap = fn(s.snap)
	for _, ch := range s.subs {
		sendLatest(ch, s.snap)
	}
}

// Current returns the latest snapshot.
func (s *SnapshotStore) Current() types.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe returns a stream that emits the current snapshot immediately and
// then every published value. A lagging subscriber is coalesced to the
// latest snapshot; the writer never blocks on it.
func (s *SnapshotStore) Subscribe(ctx context.Context) <-chan types.Snapshot {
	ch := make(chan types.Snapshot, 1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	s.subs = append(s.subs, ch)
	ch <- s.snap
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		for i, sub := range s.subs {
			if sub == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
	}()

	return ch
}

// Close stops publication. Later Updates are dropped.
func (s *SnapshotStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subs = nil
}

// sendLatest delivers v on a capacity-1 channel, displacing a stale value if
// the reader has not caught up.
func sendLatest[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}
