// Package analysis computes per-window loudness and spectra for the inspect
// tool.
package analysis

import "math"

// Mono mixes interleaved int16 frames down to one channel scaled to [-1,1].
func Mono(pcm []int16, channels int) []float64 {
	if channels < 1 {
		return nil
	}
	out := make([]float64, len(pcm)/channels)
	for i := range out {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(pcm[i*channels+c])
		}
		out[i] = sum / float64(channels) / 32768.0
	}
	return out
}

// Envelope reduces mono samples to points RMS values, each scaled to a byte.
// Fewer samples than points yields one value per sample.
func Envelope(mono []float64, points int) []byte {
	if points <= 0 || len(mono) == 0 {
		return nil
	}
	step := len(mono) / points
	if step == 0 {
		step = 1
	}

	env := make([]byte, 0, points)
	for i := 0; i < len(mono) && len(env) < points; i += step {
		end := i + step
		if end > len(mono) {
			end = len(mono)
		}
		var sum float64
		for _, v := range mono[i:end] {
			sum += v * v
		}
		rms := math.Sqrt(sum / float64(end-i))
		env = append(env, uint8(math.Min(rms*255, 255)))
	}
	return env
}

// Sparkline draws an envelope with block characters.
func Sparkline(env []byte) string {
	blocks := []rune(" ▁▂▃▄▅▆▇█")
	out := make([]rune, len(env))
	for i, v := range env {
		out[i] = blocks[int(v)*(len(blocks)-1)/255]
	}
	return string(out)
}
