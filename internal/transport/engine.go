/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"segplay/internal/metrics"
	"segplay/internal/prefetch"
	"segplay/internal/segment"
	"segplay/internal/source"
	"segplay/pkg/spec"
)

// Config holds the transport knobs.
type Config struct {
	StepMs       int64
	TickInterval time.Duration
	// Loop restarts from the top when the trailing window is reached.
	Loop bool
}

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithPrefetchFunc replaces the function background units extract with.
// Synchronous extraction still goes through the Extractor.
func WithPrefetchFunc(fn prefetch.ExtractFunc) Option {
	return func(e *Engine) { e.prefetchFn = fn }
}

// Engine is the transport state machine. Everything except Status must be
// called from a single goroutine, the control loop.
type Engine struct {
	wave      *source.Waveform
	total     int64
	extractor Extractor
	sink      Sink
	cfg       Config
	log       zerolog.Logger
	metrics   *metrics.Metrics

	prefetchFn prefetch.ExtractFunc
	pre        *prefetch.Prefetcher

	st           PlaybackState
	started      bool
	splices      int64
	syncExtracts int64
	underruns    int64

	mu       sync.RWMutex
	snapshot Status
}

func New(w *source.Waveform, ex Extractor, sink Sink, cfg Config, opts ...Option) (*Engine, error) {
	if cfg.StepMs <= 0 {
		return nil, fmt.Errorf("%w: step must be positive, got %dms", source.ErrFatalConfig, cfg.StepMs)
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = spec.DefaultTickInterval
	}
	total := w.TotalDurationMs()
	if total <= 0 {
		return nil, fmt.Errorf("%w: source holds no audio", source.ErrFatalConfig)
	}

	e := &Engine{
		wave:      w,
		total:     total,
		extractor: ex,
		sink:      sink,
		cfg:       cfg,
		log:       zerolog.Nop(),
		st:        PlaybackState{StepMs: cfg.StepMs, State: Paused},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.prefetchFn == nil {
		e.prefetchFn = ex.Extract
	}
	e.pre = prefetch.New(prefetch.NewSlot(), e.prefetchFn,
		prefetch.WithLogger(e.log.With().Str("component", "prefetch").Logger()),
		prefetch.WithMetrics(e.metrics),
	)
	e.publish()
	return e, nil
}

// State returns the current playback state; control loop only.
func (e *Engine) State() PlaybackState { return e.st }

// Status returns the latest published snapshot. Safe from any goroutine.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

// Start plays the first window and prefetches the one after it.
func (e *Engine) Start() error {
	if e.started {
		return nil
	}
	e.started = true
	e.log.Info().Int64("total_ms", e.total).Int64("step_ms", e.cfg.StepMs).Msg("playback started")
	return e.playAt(0, false)
}

// Handle applies one event. Errors are fatal: the engine should be shut down.
func (e *Engine) Handle(ev Event) error {
	if e.st.State == Stopped {
		e.log.Debug().Stringer("event", ev).Msg("ignored after stop")
		return nil
	}

	var err error
	switch ev {
	case SeekForward:
		err = e.seekForward()
	case SeekBackward:
		err = e.seekBackward()
	case Pause:
		e.pause()
	case Resume:
		e.resume()
	case SegmentEnded:
		err = e.segmentEnded()
	case Quit:
		e.quit()
	default:
		e.log.Warn().Int("event", int(ev)).Msg("unknown event")
	}
	e.publish()
	return err
}

// Tick runs one control-loop step: at most one command, then an end-of-segment
// check while playing.
func (e *Engine) Tick(src CommandSource) error {
	if e.st.State == Stopped {
		return nil
	}
	if err := e.pre.Err(); err != nil {
		return fmt.Errorf("prefetch: %w", err)
	}

	if src != nil {
		if ev, ok := src.Poll(); ok {
			if err := e.Handle(ev); err != nil {
				return err
			}
		}
	}

	if e.st.State == Playing && !e.sink.Busy() {
		return e.Handle(SegmentEnded)
	}
	return nil
}

// Run drives the control loop until Quit or ctx cancellation. The first
// window is started if Start has not been called yet.
func (e *Engine) Run(ctx context.Context, src CommandSource) error {
	if err := e.Start(); err != nil {
		e.Handle(Quit)
		return errors.Join(err, e.pre.Wait())
	}

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.Handle(Quit)
			return e.pre.Wait()
		case <-ticker.C:
		}

		if err := e.Tick(src); err != nil {
			e.Handle(Quit)
			e.pre.Wait()
			return err
		}
		if e.st.State == Stopped {
			return e.pre.Wait()
		}
	}
}

func (e *Engine) window(start int64) source.TimeRange {
	return source.Window(start, e.cfg.StepMs, e.total)
}

// playAt loads the window at pos into the sink and prefetches the next one.
// With fromSlot the prefetched segment is used when it matches.
func (e *Engine) playAt(pos int64, fromSlot bool) error {
	r := e.window(pos)

	var (
		seg     *segment.EncodedSegment
		spliced bool
	)
	if fromSlot {
		seg, spliced = e.pre.Slot().Take(r)
	}
	if !spliced {
		var err error
		seg, err = e.extractor.Extract(e.wave, r)
		if err != nil {
			return fmt.Errorf("extract %v: %w", r, err)
		}
		e.syncExtracts++
	} else {
		e.splices++
	}

	if err := e.sink.Load(seg); err != nil {
		return fmt.Errorf("sink load %v: %w", r, err)
	}
	e.sink.Play()

	e.st.PositionMs = pos
	e.st.State = Playing
	e.st.Finished = false
	e.metrics.SegmentPlayed(spliced, pos)
	e.metrics.SetPaused(false)

	gen := e.pre.Next(e.wave, e.window(pos+e.cfg.StepMs))
	e.log.Info().Stringer("range", r).Bool("prefetched", spliced).Uint64("gen", gen).Msg("segment playing")
	return nil
}

func (e *Engine) seekForward() error {
	pos := e.st.PositionMs + e.cfg.StepMs
	if last := e.total - 1; pos > last {
		pos = last
	}
	e.metrics.Seek("forward")
	return e.playAt(pos, true)
}

func (e *Engine) seekBackward() error {
	pos := e.st.PositionMs - e.cfg.StepMs
	if pos < 0 {
		pos = 0
	}
	e.metrics.Seek("backward")
	return e.playAt(pos, false)
}

func (e *Engine) pause() {
	if e.st.State != Playing {
		return
	}
	e.sink.Pause()
	e.st.State = Paused
	e.metrics.SetPaused(true)
	e.log.Info().Int64("position_ms", e.st.PositionMs).Msg("paused")
}

func (e *Engine) resume() {
	if e.st.State != Paused {
		return
	}
	e.sink.Resume()
	e.st.State = Playing
	e.metrics.SetPaused(false)
	e.log.Info().Int64("position_ms", e.st.PositionMs).Msg("resumed")
}

func (e *Engine) segmentEnded() error {
	if e.st.State != Playing || e.st.Finished {
		return nil
	}

	next := e.window(e.st.PositionMs + e.cfg.StepMs)
	seg, ok := e.pre.Slot().Take(next)
	if !ok {
		e.underruns++
		e.metrics.Underrun()
		e.log.Debug().Stringer("waiting_for", next).Msg("underrun")
		return nil
	}

	if seg.Empty() {
		if e.cfg.Loop {
			e.log.Info().Msg("end of track, looping")
			return e.playAt(0, false)
		}
		e.st.Finished = true
		e.log.Info().Int64("position_ms", e.st.PositionMs).Msg("end of track")
		return nil
	}

	if err := e.sink.Load(seg); err != nil {
		return fmt.Errorf("sink load %v: %w", next, err)
	}
	e.sink.Play()
	e.splices++
	e.st.PositionMs = next.StartMs
	e.metrics.SegmentPlayed(true, next.StartMs)

	gen := e.pre.Next(e.wave, e.window(next.StartMs+e.cfg.StepMs))
	e.log.Info().Stringer("range", next).Bool("prefetched", true).Uint64("gen", gen).Msg("segment playing")
	return nil
}

func (e *Engine) quit() {
	// Shutdown flag first so nothing lands in the slot after this point.
	e.pre.Close()
	e.sink.Stop()
	e.st.State = Stopped
	e.log.Info().Int64("position_ms", e.st.PositionMs).Msg("stopped")
}

func (e *Engine) publish() {
	s := Status{
		PlaybackState: e.st,
		TotalMs:       e.total,
		Generation:    e.pre.Slot().Generation(),
		Splices:       e.splices,
		SyncExtracts:  e.syncExtracts,
		Underruns:     e.underruns,
		Stale:         e.pre.Stale(),
	}
	if c, ok := e.extractor.(interface{ Codec() string }); ok {
		s.Codec = c.Codec()
	}
	e.mu.Lock()
	e.snapshot = s
	e.mu.Unlock()
}
