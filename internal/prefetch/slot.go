// Package prefetch encodes the next window in the background and hands it to
// the transport through a single-slot, generation-checked mailbox.
package prefetch

import (
	"sync/atomic"

	"segplay/internal/segment"
	"segplay/internal/source"
)

// cell is an immutable snapshot of the slot. Every change installs a fresh
// cell, so a compare-and-swap against the cell a writer validated fails if
// the generation moved or the slot closed in between.
type cell struct {
	gen    uint64
	closed bool
	entry  *segment.EncodedSegment
}

// Slot holds at most one prefetched segment for the current generation.
// Bump, Take and Close belong to the control loop; Publish is called once by
// the prefetch unit of a generation.
type Slot struct {
	p atomic.Pointer[cell]
}

func NewSlot() *Slot {
	s := &Slot{}
	s.p.Store(&cell{})
	return s
}

// Generation returns the current generation.
func (s *Slot) Generation() uint64 { return s.p.Load().gen }

// Closed reports whether shutdown has begun.
func (s *Slot) Closed() bool { return s.p.Load().closed }

// Bump starts a new generation and drops any ready segment. Writers holding
// an older generation can no longer publish.
func (s *Slot) Bump() uint64 {
	for {
		old := s.p.Load()
		if old.closed {
			return old.gen
		}
		next := &cell{gen: old.gen + 1}
		if s.p.CompareAndSwap(old, next) {
			return next.gen
		}
	}
}

// Publish stores seg if gen is still current, the slot is empty and open.
// It reports whether the write happened.
func (s *Slot) Publish(gen uint64, seg *segment.EncodedSegment) bool {
	old := s.p.Load()
	if old.closed || old.gen != gen || old.entry != nil {
		return false
	}
	return s.p.CompareAndSwap(old, &cell{gen: gen, entry: seg})
}

// Take removes and returns the ready segment if it was cut for r.
func (s *Slot) Take(r source.TimeRange) (*segment.EncodedSegment, bool) {
	for {
		old := s.p.Load()
		if old.entry == nil || old.entry.Range != r {
			return nil, false
		}
		if s.p.CompareAndSwap(old, &cell{gen: old.gen, closed: old.closed}) {
			return old.entry, true
		}
	}
}

// Ready returns the range of the segment waiting in the slot, if any.
func (s *Slot) Ready() (source.TimeRange, bool) {
	c := s.p.Load()
	if c.entry == nil {
		return source.TimeRange{}, false
	}
	return c.entry.Range, true
}

// Close sets the shutdown flag. The slot is emptied and no later Publish
// succeeds.
func (s *Slot) Close() {
	for {
		old := s.p.Load()
		if old.closed && old.entry == nil {
			return
		}
		if s.p.CompareAndSwap(old, &cell{gen: old.gen, closed: true}) {
			return
		}
	}
}
