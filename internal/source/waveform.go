package source

import "errors"

// ErrFatalConfig marks failures that must abort startup: a missing or
// malformed source file, an unavailable decoder, or an unusable codec setting.
var ErrFatalConfig = errors.New("fatal configuration error")

// Waveform is an immutable block of decoded interleaved int16 samples.
type Waveform struct {
	Path       string
	SampleRate int
	Channels   int
	Samples    []int16
}

// Frames is the number of samples per channel.
func (w *Waveform) Frames() int {
	if w.Channels <= 0 {
		return 0
	}
	return len(w.Samples) / w.Channels
}

func (w *Waveform) TotalDurationMs() int64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return int64(w.Frames()) * 1000 / int64(w.SampleRate)
}

// FrameAt maps a millisecond offset to a frame index, rounding down and
// clamping to the waveform.
func (w *Waveform) FrameAt(ms int64) int {
	if ms <= 0 {
		return 0
	}
	f := int(ms * int64(w.SampleRate) / 1000)
	if n := w.Frames(); f > n {
		return n
	}
	return f
}

// Slice returns the interleaved samples covering r after clamping. The result
// aliases the waveform and must not be written to.
func (w *Waveform) Slice(r TimeRange) []int16 {
	r = r.Clamp(w.TotalDurationMs())
	if r.Empty() {
		return nil
	}
	start := w.FrameAt(r.StartMs) * w.Channels
	end := w.FrameAt(r.EndMs) * w.Channels
	return w.Samples[start:end]
}
