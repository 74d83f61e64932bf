package prefetch

import (
	"errors"
	"sync"
	"testing"
	"time"

	"segplay/internal/metrics"
	"segplay/internal/segment"
	"segplay/internal/source"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// gatedExtract lets a test decide when each prefetch unit completes. Results
// are tagged through Codec so a stale segment is recognisable even when it
// covers the same range as a fresh one.
type gatedExtract struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
}

func newGatedExtract() *gatedExtract {
	return &gatedExtract{gates: make(map[string]chan struct{})}
}

func (g *gatedExtract) gate(tag string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[tag]
	if !ok {
		ch = make(chan struct{})
		g.gates[tag] = ch
	}
	return ch
}

func (g *gatedExtract) fn(tag string) ExtractFunc {
	return func(w *source.Waveform, r source.TimeRange) (*segment.EncodedSegment, error) {
		<-g.gate(tag)
		return &segment.EncodedSegment{Range: r, Codec: tag, Frames: int(r.Duration())}, nil
	}
}

func (g *gatedExtract) release(tag string) { close(g.gate(tag)) }

// spawnTagged spawns a unit whose result is tagged with tag.
func spawnTagged(p *Prefetcher, g *gatedExtract, tag string, r source.TimeRange, gen uint64) {
	p.extract = g.fn(tag)
	p.Spawn(nil, r, gen)
}

func TestSlotPublishTake(t *testing.T) {
	s := NewSlot()
	gen := s.Bump()
	r := source.TimeRange{StartMs: 5000, EndMs: 10000}

	if _, ok := s.Take(r); ok {
		t.Fatal("Take on empty slot succeeded")
	}
	if !s.Publish(gen, &segment.EncodedSegment{Range: r}) {
		t.Fatal("Publish for current generation failed")
	}
	if s.Publish(gen, &segment.EncodedSegment{Range: r}) {
		t.Error("second Publish in one generation succeeded")
	}
	if got, ok := s.Ready(); !ok || got != r {
		t.Errorf("Ready() = %v,%v want %v,true", got, ok, r)
	}
	if _, ok := s.Take(source.TimeRange{StartMs: 0, EndMs: 5000}); ok {
		t.Error("Take with a different range succeeded")
	}
	seg, ok := s.Take(r)
	if !ok || seg.Range != r {
		t.Fatalf("Take(%v) = %v,%v", r, seg, ok)
	}
	if _, ok := s.Take(r); ok {
		t.Error("slot not cleared after Take")
	}
}

func TestSlotBumpInvalidatesWriters(t *testing.T) {
	s := NewSlot()
	old := s.Bump()
	r := source.TimeRange{StartMs: 0, EndMs: 1000}
	s.Publish(old, &segment.EncodedSegment{Range: r})

	cur := s.Bump()
	if cur != old+1 {
		t.Errorf("Bump() = %d, want %d", cur, old+1)
	}
	if _, ok := s.Ready(); ok {
		t.Error("Bump did not clear the ready segment")
	}
	if s.Publish(old, &segment.EncodedSegment{Range: r}) {
		t.Error("stale generation published after Bump")
	}
}

func TestStalePrefetchCompletingLastIsDiscarded(t *testing.T) {
	g := newGatedExtract()
	m := metrics.NewMetrics()
	p := New(NewSlot(), nil, WithMetrics(m))
	r := source.TimeRange{StartMs: 10000, EndMs: 15000}

	first := p.Slot().Bump()
	spawnTagged(p, g, "first", r, first)

	// A second seek supersedes the first before it finishes.
	second := p.Slot().Bump()
	spawnTagged(p, g, "second", r, second)

	g.release("second")
	waitFor(t, func() bool { _, ok := p.Slot().Ready(); return ok })

	g.release("first")
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	seg, ok := p.Slot().Take(r)
	if !ok {
		t.Fatal("fresh prefetch result missing")
	}
	if seg.Codec != "second" {
		t.Errorf("slot holds %q result, want second", seg.Codec)
	}
	if p.Stale() != 1 || p.Published() != 1 {
		t.Errorf("stale=%d published=%d, want 1 and 1", p.Stale(), p.Published())
	}
	if got := testutil.ToFloat64(m.StalePrefetches); got != 1 {
		t.Errorf("stale metric = %v, want 1", got)
	}
}

func TestStalePrefetchCompletingFirstIsDiscarded(t *testing.T) {
	g := newGatedExtract()
	p := New(NewSlot(), nil)
	r := source.TimeRange{StartMs: 5000, EndMs: 10000}

	first := p.Slot().Bump()
	spawnTagged(p, g, "first", r, first)
	second := p.Slot().Bump()
	spawnTagged(p, g, "second", r, second)

	g.release("first")
	waitFor(t, func() bool { return p.Stale() == 1 })
	if _, ok := p.Slot().Ready(); ok {
		t.Fatal("superseded prefetch was written to the slot")
	}

	g.release("second")
	p.Wait()
	if seg, ok := p.Slot().Take(r); !ok || seg.Codec != "second" {
		t.Errorf("Take = %v,%v want second result", seg, ok)
	}
}

func TestCloseTurnsInFlightWriteIntoNoop(t *testing.T) {
	g := newGatedExtract()
	p := New(NewSlot(), nil)
	r := source.TimeRange{StartMs: 0, EndMs: 5000}

	gen := p.Slot().Bump()
	spawnTagged(p, g, "inflight", r, gen)

	p.Close()
	g.release("inflight")
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if _, ok := p.Slot().Ready(); ok {
		t.Error("slot written after shutdown")
	}
	if p.Published() != 0 || p.Stale() != 1 {
		t.Errorf("published=%d stale=%d, want 0 and 1", p.Published(), p.Stale())
	}
	if !p.Slot().Closed() {
		t.Error("slot not marked closed")
	}
	if p.Slot().Bump() != gen {
		t.Error("Bump advanced the generation after Close")
	}
}

func TestNextBumpsBeforeSpawning(t *testing.T) {
	p := New(NewSlot(), func(w *source.Waveform, r source.TimeRange) (*segment.EncodedSegment, error) {
		return &segment.EncodedSegment{Range: r}, nil
	})
	r := source.TimeRange{StartMs: 0, EndMs: 100}

	g1 := p.Next(nil, r)
	p.Wait()
	g2 := p.Next(nil, r)
	p.Wait()

	if g2 != g1+1 {
		t.Errorf("generations %d then %d, want consecutive", g1, g2)
	}
	if _, ok := p.Slot().Take(r); !ok {
		t.Error("latest prefetch not in slot")
	}
}

func TestExtractErrorIsReported(t *testing.T) {
	boom := errors.New("boom")
	p := New(NewSlot(), func(w *source.Waveform, r source.TimeRange) (*segment.EncodedSegment, error) {
		return nil, boom
	})
	p.Next(nil, source.TimeRange{StartMs: 0, EndMs: 100})

	if err := p.Wait(); !errors.Is(err, boom) {
		t.Errorf("Wait() = %v, want boom", err)
	}
	if err := p.Err(); !errors.Is(err, boom) {
		t.Errorf("Err() = %v, want boom", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}
