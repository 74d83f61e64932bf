package sink

import (
	"fmt"

	"github.com/faiface/beep"

	"segplay/internal/segment"
	"segplay/pkg/audioengine"
	"segplay/pkg/spec"
)

// segmentStreamer plays one encoded segment as beep stereo frames. Opus
// packets are decoded lazily, one per refill; the padding of the last packet
// is cut off by counting down the segment's true frame count.
type segmentStreamer struct {
	seg    *segment.EncodedSegment
	dec    *audioengine.StreamDecoder
	next   int
	remain int
	buffer [][2]float64
	err    error
}

var _ beep.Streamer = (*segmentStreamer)(nil)

func newSegmentStreamer(seg *segment.EncodedSegment) (*segmentStreamer, error) {
	s := &segmentStreamer{seg: seg, remain: seg.Frames}
	if seg.Empty() {
		s.remain = 0
		return s, nil
	}

	switch seg.Codec {
	case spec.CodecOpus:
		dec, err := audioengine.NewStreamDecoder(seg.SampleRate, seg.Channels)
		if err != nil {
			return nil, fmt.Errorf("opus decoder %dHz/%dch: %w", seg.SampleRate, seg.Channels, err)
		}
		s.dec = dec
	case spec.CodecPCM:
		s.buffer = audioengine.AppendStereo(make([][2]float64, 0, seg.Frames),
			audioengine.BytesToSamples(seg.PCM), seg.Channels)
	default:
		return nil, fmt.Errorf("unsupported codec %q", seg.Codec)
	}
	return s, nil
}

func (s *segmentStreamer) Stream(samples [][2]float64) (int, bool) {
	filled := 0
	for filled < len(samples) && s.remain > 0 {
		if len(s.buffer) == 0 && !s.refill() {
			break
		}

		take := len(s.buffer)
		if take > len(samples)-filled {
			take = len(samples) - filled
		}
		if take > s.remain {
			take = s.remain
		}
		copy(samples[filled:filled+take], s.buffer[:take])
		s.buffer = s.buffer[take:]
		s.remain -= take
		filled += take
	}
	return filled, filled > 0
}

func (s *segmentStreamer) refill() bool {
	if s.dec == nil || s.next >= len(s.seg.Packets) {
		return false
	}
	pcm, err := s.dec.DecodeFrame(s.seg.Packets[s.next])
	s.next++
	if err != nil {
		s.err = fmt.Errorf("decode packet %d of %v: %w", s.next-1, s.seg.Range, err)
		return false
	}
	s.buffer = audioengine.AppendStereo(s.buffer[:0], pcm, s.seg.Channels)
	return true
}

func (s *segmentStreamer) Err() error { return s.err }
