package analysis

import (
	"fmt"

	"segplay/internal/segment"
	"segplay/internal/source"
	"segplay/pkg/audioengine"
)

// WindowReport describes one playback window as the engine would cut it.
type WindowReport struct {
	Range       source.TimeRange `json:"range"`
	Peak        float64          `json:"peak"`
	RMS         float64          `json:"rms"`
	Fingerprint string           `json:"fingerprint"`
	Codec       string           `json:"codec"`
	Packets     int              `json:"packets"`
	Bytes       int              `json:"bytes"`
}

// Windows encodes every step-long window of w with ex, in order, stopping
// at the empty trailing window.
func Windows(w *source.Waveform, ex *segment.Extractor, stepMs int64) ([]WindowReport, error) {
	if stepMs <= 0 {
		return nil, fmt.Errorf("%w: step must be positive, got %dms", source.ErrFatalConfig, stepMs)
	}
	total := w.TotalDurationMs()

	var out []WindowReport
	for pos := int64(0); pos < total; pos += stepMs {
		r := source.Window(pos, stepMs, total)
		seg, err := ex.Extract(w, r)
		if err != nil {
			return out, err
		}
		pcm := w.Slice(r)
		peak, rms := audioengine.Level(pcm)
		out = append(out, WindowReport{
			Range:       r,
			Peak:        peak,
			RMS:         rms,
			Fingerprint: audioengine.Fingerprint(pcm),
			Codec:       seg.Codec,
			Packets:     len(seg.Packets),
			Bytes:       seg.Size(),
		})
	}
	return out, nil
}
