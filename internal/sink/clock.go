package sink

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"segplay/internal/segment"
)

type ClockOption func(*Clock)

// WithNow replaces the wall clock, mainly for tests.
func WithNow(now func() time.Time) ClockOption {
	return func(c *Clock) { c.now = now }
}

func WithLogger(l zerolog.Logger) ClockOption {
	return func(c *Clock) { c.log = l }
}

// Clock is a headless sink. A played segment stays busy for its duration of
// wall-clock time, not counting time spent paused.
type Clock struct {
	now func() time.Time
	log zerolog.Logger

	mu        sync.Mutex
	pending   *segment.EncodedSegment
	current   *segment.EncodedSegment
	length    time.Duration
	started   time.Time
	pausedAt  time.Time
	pausedFor time.Duration
	playing   bool
	paused    bool
	loads     int
}

func NewClock(opts ...ClockOption) *Clock {
	c := &Clock{now: time.Now, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Clock) Load(seg *segment.EncodedSegment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = seg
	c.loads++
	return nil
}

func (c *Clock) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return
	}
	c.current, c.pending = c.pending, nil
	c.length = time.Duration(c.current.DurationMs()) * time.Millisecond
	c.started = c.now()
	c.pausedFor = 0
	c.paused = false
	c.playing = true
	c.log.Debug().Stringer("range", c.current.Range).Dur("length", c.length).Msg("clock play")
}

func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing || c.paused {
		return
	}
	c.paused = true
	c.pausedAt = c.now()
}

func (c *Clock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing || !c.paused {
		return
	}
	c.paused = false
	c.pausedFor += c.now().Sub(c.pausedAt)
}

func (c *Clock) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing && c.elapsed() < c.length
}

func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = false
	c.paused = false
	c.current = nil
	c.pending = nil
}

// Elapsed is how much of the current segment has been played.
func (c *Clock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing {
		return 0
	}
	if e := c.elapsed(); e < c.length {
		return e
	}
	return c.length
}

// Current returns the segment being played, or nil.
func (c *Clock) Current() *segment.EncodedSegment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Loads counts Load calls.
func (c *Clock) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}

func (c *Clock) elapsed() time.Duration {
	end := c.now()
	if c.paused {
		end = c.pausedAt
	}
	return end.Sub(c.started) - c.pausedFor
}
