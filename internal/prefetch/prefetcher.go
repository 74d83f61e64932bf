package prefetch

import (
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"segplay/internal/metrics"
	"segplay/internal/segment"
	"segplay/internal/source"
)

// ExtractFunc produces the segment for a window.
type ExtractFunc func(w *source.Waveform, r source.TimeRange) (*segment.EncodedSegment, error)

type Option func(*Prefetcher)

func WithLogger(l zerolog.Logger) Option {
	return func(p *Prefetcher) { p.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Prefetcher) { p.metrics = m }
}

// Prefetcher runs one goroutine per requested window. Superseded results are
// discarded by the slot's generation check; nothing is ever interrupted.
type Prefetcher struct {
	slot    *Slot
	extract ExtractFunc
	log     zerolog.Logger
	metrics *metrics.Metrics

	group     errgroup.Group
	failed    atomic.Pointer[error]
	published atomic.Int64
	stale     atomic.Int64
}

func New(slot *Slot, extract ExtractFunc, opts ...Option) *Prefetcher {
	p := &Prefetcher{
		slot:    slot,
		extract: extract,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Prefetcher) Slot() *Slot { return p.slot }

// Next bumps the generation and prefetches r under the new one.
func (p *Prefetcher) Next(w *source.Waveform, r source.TimeRange) uint64 {
	gen := p.slot.Bump()
	p.Spawn(w, r, gen)
	return gen
}

// Spawn extracts r in the background and publishes the result only if gen is
// still current when the work completes.
func (p *Prefetcher) Spawn(w *source.Waveform, r source.TimeRange, gen uint64) {
	extract := p.extract
	p.group.Go(func() error {
		seg, err := extract(w, r)
		if err != nil {
			p.failed.CompareAndSwap(nil, &err)
			p.log.Error().Err(err).Stringer("range", r).Uint64("gen", gen).Msg("prefetch failed")
			return err
		}

		if p.slot.Publish(gen, seg) {
			p.published.Add(1)
			p.log.Debug().Stringer("range", r).Uint64("gen", gen).Msg("prefetch ready")
			return nil
		}

		p.stale.Add(1)
		p.metrics.StalePrefetch()
		p.log.Debug().Stringer("range", r).Uint64("gen", gen).
			Uint64("current", p.slot.Generation()).Bool("closed", p.slot.Closed()).
			Msg("prefetch discarded")
		return nil
	})
}

// Err returns the first extraction failure without blocking.
func (p *Prefetcher) Err() error {
	if e := p.failed.Load(); e != nil {
		return *e
	}
	return nil
}

// Close sets the shutdown flag; in-flight units finish but never write.
func (p *Prefetcher) Close() { p.slot.Close() }

// Wait blocks until every spawned unit has returned.
func (p *Prefetcher) Wait() error { return p.group.Wait() }

func (p *Prefetcher) Published() int64 { return p.published.Load() }
func (p *Prefetcher) Stale() int64     { return p.stale.Load() }
