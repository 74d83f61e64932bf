/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package sink

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/rs/zerolog"

	"segplay/internal/segment"
)

// resampleQuality is handed to beep.Resample when a segment's rate differs
// from the device rate.
const resampleQuality = 4

// Speaker plays segments on the default audio device through beep's speaker.
// Only one Speaker may exist per process.
type Speaker struct {
	rate     beep.SampleRate
	volumeDB float64
	log      zerolog.Logger

	pending *beep.Ctrl
	ctrl    *beep.Ctrl

	// token identifies the current playback; a completion callback from an
	// older one is ignored.
	token atomic.Uint64
	busy  atomic.Bool
}

// NewSpeaker opens the device at rate with the given buffer length. volumeDB
// is applied as beep gain with base 2.
func NewSpeaker(rate int, buffer time.Duration, volumeDB float64, log zerolog.Logger) (*Speaker, error) {
	sr := beep.SampleRate(rate)
	if err := speaker.Init(sr, sr.N(buffer)); err != nil {
		return nil, fmt.Errorf("speaker init %dHz: %w", rate, err)
	}
	log.Debug().Int("rate", rate).Dur("buffer", buffer).Float64("volume_db", volumeDB).Msg("speaker ready")
	return &Speaker{rate: sr, volumeDB: volumeDB, log: log}, nil
}

func (s *Speaker) Load(seg *segment.EncodedSegment) error {
	ss, err := newSegmentStreamer(seg)
	if err != nil {
		return err
	}

	var st beep.Streamer = ss
	if sr := beep.SampleRate(seg.SampleRate); seg.SampleRate > 0 && sr != s.rate {
		st = beep.Resample(resampleQuality, sr, s.rate, st)
	}
	vol := &effects.Volume{
		Streamer: st,
		Base:     2,
		Volume:   s.volumeDB,
	}
	s.pending = &beep.Ctrl{Streamer: vol}
	return nil
}

// Play replaces whatever is on the device with the last loaded segment.
func (s *Speaker) Play() {
	ctrl := s.pending
	if ctrl == nil {
		return
	}
	s.pending = nil

	speaker.Clear()
	token := s.token.Add(1)
	s.busy.Store(true)
	s.ctrl = ctrl

	// The callback runs inside the speaker's mixer; it must not take the
	// speaker lock.
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		if s.token.Load() == token {
			s.busy.Store(false)
		}
	})))
}

func (s *Speaker) Pause()  { s.setPaused(true) }
func (s *Speaker) Resume() { s.setPaused(false) }

func (s *Speaker) setPaused(p bool) {
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = p
	speaker.Unlock()
}

func (s *Speaker) Busy() bool { return s.busy.Load() }

func (s *Speaker) Stop() {
	s.token.Add(1)
	speaker.Clear()
	s.busy.Store(false)
	s.ctrl = nil
	s.pending = nil
}
