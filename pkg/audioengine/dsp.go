package audioengine

import "encoding/binary"

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// BytesToSamples is the inverse of SamplesToBytes. A trailing odd byte is dropped.
func BytesToSamples(buf []byte) []int16 {
	samples := make([]int16, len(buf)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	return samples
}

// AppendStereo appends interleaved int16 frames as beep-style stereo floats.
// Mono is duplicated to both sides; channels past the second are ignored.
func AppendStereo(dst [][2]float64, pcm []int16, channels int) [][2]float64 {
	if channels < 1 {
		return dst
	}
	for i := 0; i+channels <= len(pcm); i += channels {
		l := float64(pcm[i]) / 32768.0
		r := l
		if channels > 1 {
			r = float64(pcm[i+1]) / 32768.0
		}
		dst = append(dst, [2]float64{l, r})
	}
	return dst
}
