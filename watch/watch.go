// Package watch provides table invalidation tracking: stores notify the
// tracker after each committed mutation and live queries re-run when a
// table they depend on changes. Signals are coalesced so a burst of
// commits wakes a subscriber once.
package watch

import (
	"context"
	"sync"
)

// Tracker fans out invalidation signals to subscribers by table name.
type Tracker struct {
	mu     sync.Mutex
	subs   map[int]*subscription
	nextID int
}

type subscription struct {
	tables map[string]struct{}
	signal chan struct{}
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		subs: make(map[int]*subscription),
	}
}

// Notify signals every subscriber watching at least one of the given
// tables. Notify never blocks: a pending signal absorbs later ones.
func (t *Tracker) Notify(tables ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, sub := range t.subs {
		if !sub.watchesAny(tables) {
			continue
		}
		select {
		case sub.signal <- struct{}{}:
		default:
		}
	}
}

// Subscribe registers interest in the given tables and returns a channel
// that receives a (coalesced) signal after each relevant commit. The
// channel is closed when ctx is cancelled.
func (t *Tracker) Subscribe(ctx context.Context, tables ...string) <-chan struct{} {
	sub := &subscription{
		tables: make(map[string]struct{}, len(tables)),
		signal: make(chan struct{}, 1),
	}
	for _, table := range tables {
		sub.tables[table] = struct{}{}
	}

	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = sub
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		t.mu.Lock()
		delete(t.subs, id)
		close(sub.signal)
		t.mu.Unlock()
	}()

	return sub.signal
}

func (s *subscription) watchesAny(tables []string) bool {
	for _, table := range tables {
		if _, ok := s.tables[table]; ok {
			return true
		}
	}
	return false
}

// Push delivers v on ch, replacing any value the consumer has not read
// yet. ch must have capacity 1 and a single producer; under that
// discipline Push never blocks and the consumer always reads the newest
// committed snapshot.
func Push[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
