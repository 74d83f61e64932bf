// Package command feeds user events into the transport control loop. Every
// front end (keyboard, prompt, control socket) pushes into one Queue, and the
// Queue is what the engine polls.
package command

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"segplay/internal/transport"
)

const DefaultQueueSize = 16

type QueueOption func(*Queue)

func WithQueueLogger(l zerolog.Logger) QueueOption {
	return func(q *Queue) { q.log = l }
}

// WithClock replaces time.Now for debounce bookkeeping.
func WithClock(now func() time.Time) QueueOption {
	return func(q *Queue) { q.now = now }
}

// Queue is a bounded, non-blocking mailbox of events. A repeat of the same
// event inside the debounce interval is dropped, as is anything pushed while
// the queue is full. Quit is never dropped.
type Queue struct {
	ch       chan transport.Event
	debounce time.Duration
	now      func() time.Time
	log      zerolog.Logger

	mu   sync.Mutex
	last map[transport.Event]time.Time

	quit    atomic.Bool
	dropped atomic.Int64
}

var _ transport.CommandSource = (*Queue)(nil)

func NewQueue(size int, debounce time.Duration, opts ...QueueOption) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	q := &Queue{
		ch:       make(chan transport.Event, size),
		debounce: debounce,
		now:      time.Now,
		log:      zerolog.Nop(),
		last:     make(map[transport.Event]time.Time),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push offers ev to the control loop and reports whether it was accepted.
func (q *Queue) Push(ev transport.Event) bool {
	if ev == transport.Quit {
		q.quit.Store(true)
		return true
	}

	if q.debounce > 0 {
		now := q.now()
		q.mu.Lock()
		if t, ok := q.last[ev]; ok && now.Sub(t) < q.debounce {
			q.mu.Unlock()
			q.dropped.Add(1)
			q.log.Debug().Stringer("event", ev).Msg("debounced")
			return false
		}
		q.last[ev] = now
		q.mu.Unlock()
	}

	select {
	case q.ch <- ev:
		return true
	default:
		q.dropped.Add(1)
		q.log.Warn().Stringer("event", ev).Msg("command queue full, dropped")
		return false
	}
}

// Poll returns the next event without blocking. A pending Quit jumps the line.
func (q *Queue) Poll() (transport.Event, bool) {
	if q.quit.Load() {
		return transport.Quit, true
	}
	select {
	case ev := <-q.ch:
		return ev, true
	default:
		return 0, false
	}
}

func (q *Queue) Dropped() int64 { return q.dropped.Load() }
