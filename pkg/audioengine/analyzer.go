package audioengine

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
)

// Fingerprint hashes a block of samples; equal audio gives equal prints.
func Fingerprint(samples []int16) string {
	h := sha256.New()
	for _, s := range samples {
		binary.Write(h, binary.LittleEndian, s)
	}
	return fmt.Sprintf("%x", h.Sum(nil)[:8])
}

// Level returns peak and RMS of samples, both scaled to [0,1].
func Level(samples []int16) (peak, rms float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range samples {
		f := math.Abs(float64(v)) / 32768.0
		if f > peak {
			peak = f
		}
		sum += f * f
	}
	return peak, math.Sqrt(sum / float64(len(samples)))
}
