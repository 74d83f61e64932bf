// Package segment turns a window of the waveform into a self-contained,
// sink-playable buffer.
package segment

import (
	"segplay/internal/source"
)

// EncodedSegment is one playable window. It is handed along by move, from the
// extractor through the prefetch slot and the transport to the sink.
type EncodedSegment struct {
	Range      source.TimeRange
	Codec      string
	SampleRate int
	Channels   int
	// Frames is the exact samples-per-channel count; opus padding past it is
	// not part of the segment.
	Frames int

	Packets [][]byte // opus
	PCM     []byte   // pcm, little-endian int16 interleaved
}

// Empty segments play as an immediate no-op.
func (s *EncodedSegment) Empty() bool { return s == nil || s.Frames == 0 }

// DurationMs is the clamped length of the range the segment was cut from.
func (s *EncodedSegment) DurationMs() int64 {
	if s == nil {
		return 0
	}
	return s.Range.Duration()
}

// Size is the payload size in bytes.
func (s *EncodedSegment) Size() int {
	n := len(s.PCM)
	for _, p := range s.Packets {
		n += len(p)
	}
	return n
}
