package segment

import (
	"fmt"

	"segplay/internal/source"
	"segplay/pkg/audioengine"
	"segplay/pkg/spec"
)

// Options selects how windows are encoded.
type Options struct {
	Codec       string // auto, opus or pcm
	OpusBitrate int
}

// Extractor cuts and encodes windows of one waveform. It holds no mutable
// state, so Extract is safe to call from several goroutines at once.
type Extractor struct {
	codec   string
	bitrate int
}

// NewExtractor resolves the codec for w and fails with ErrFatalConfig when
// the requested codec cannot encode it.
func NewExtractor(w *source.Waveform, opts Options) (*Extractor, error) {
	codec := opts.Codec
	if codec == "" {
		codec = spec.CodecAuto
	}

	compatible := spec.OpusCompatible(w.SampleRate, w.Channels)
	switch codec {
	case spec.CodecAuto:
		codec = spec.CodecPCM
		if compatible {
			codec = spec.CodecOpus
		}
	case spec.CodecOpus:
		if !compatible {
			return nil, fmt.Errorf("%w: opus cannot encode %dHz/%dch audio",
				source.ErrFatalConfig, w.SampleRate, w.Channels)
		}
	case spec.CodecPCM:
	default:
		return nil, fmt.Errorf("%w: unknown codec %q", source.ErrFatalConfig, codec)
	}

	return &Extractor{codec: codec, bitrate: opts.OpusBitrate}, nil
}

// Codec is the resolved codec name.
func (e *Extractor) Codec() string { return e.codec }

// Extract encodes the window r of w. The range is clamped first; an empty
// result is a valid zero-frame segment, not an error.
func (e *Extractor) Extract(w *source.Waveform, r source.TimeRange) (*EncodedSegment, error) {
	r = r.Clamp(w.TotalDurationMs())
	seg := &EncodedSegment{
		Range:      r,
		Codec:      e.codec,
		SampleRate: w.SampleRate,
		Channels:   w.Channels,
	}
	if r.Empty() {
		return seg, nil
	}

	pcm := w.Slice(r)
	seg.Frames = len(pcm) / w.Channels

	switch e.codec {
	case spec.CodecOpus:
		enc, err := audioengine.NewFrameEncoder(w.SampleRate, w.Channels, e.bitrate)
		if err != nil {
			return nil, fmt.Errorf("%w: opus encoder: %v", source.ErrFatalConfig, err)
		}
		packets, err := enc.Encode(pcm)
		if err != nil {
			return nil, fmt.Errorf("%w: encode %v: %v", source.ErrFatalConfig, r, err)
		}
		seg.Packets = packets
	default:
		seg.PCM = audioengine.SamplesToBytes(pcm)
	}
	return seg, nil
}
