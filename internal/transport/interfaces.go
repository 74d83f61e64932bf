package transport

import (
	"segplay/internal/segment"
	"segplay/internal/source"
)

// Sink is the device-level audio output. Load followed by Play replaces
// whatever was playing before.
type Sink interface {
	Load(seg *segment.EncodedSegment) error
	Play()
	Pause()
	Resume()
	Busy() bool
	Stop()
}

// CommandSource delivers user events. Poll never blocks.
type CommandSource interface {
	Poll() (Event, bool)
}

// Extractor cuts the segment for a window; *segment.Extractor satisfies it.
type Extractor interface {
	Extract(w *source.Waveform, r source.TimeRange) (*segment.EncodedSegment, error)
}
