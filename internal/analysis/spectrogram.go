package analysis

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	SpectrogramWidth  = 800
	SpectrogramHeight = 200
	fftSize           = 1024
)

// Spectrogram renders mono samples as a PNG, time on x and linear frequency on
// y with low frequencies at the bottom. Each column is one Hann-windowed FFT.
func Spectrogram(mono []float64) ([]byte, error) {
	if len(mono) < fftSize {
		return nil, fmt.Errorf("need at least %d samples, got %d", fftSize, len(mono))
	}
	img := image.NewRGBA(image.Rect(0, 0, SpectrogramWidth, SpectrogramHeight))

	hop := (len(mono) - fftSize) / (SpectrogramWidth - 1)
	hann := window.Hann(fftSize)
	frame := make([]float64, fftSize)

	for x := 0; x < SpectrogramWidth; x++ {
		start := x * hop
		for i := range frame {
			frame[i] = mono[start+i] * hann[i]
		}
		coeffs := fft.FFTReal(frame)

		for y := 0; y < SpectrogramHeight; y++ {
			bin := (SpectrogramHeight - 1 - y) * (fftSize / 2) / SpectrogramHeight
			mag := math.Hypot(real(coeffs[bin]), imag(coeffs[bin]))
			img.Set(x, y, heat(mag))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// heat maps an FFT magnitude of unit-scaled samples onto a green ramp, -80 dB
// to 0 dB relative to a full-scale sine.
func heat(mag float64) color.RGBA {
	const ref = fftSize / 4
	db := 20 * math.Log10(mag/ref+1e-12)
	v := (db + 80) / 80
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	i := uint8(v * 255)
	return color.RGBA{R: i / 2, G: i, B: i / 2, A: 255}
}
