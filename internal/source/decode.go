package source

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"

	"segplay/pkg/audioengine"
)

// ffmpeg output shape for non-WAV sources; opus-friendly on purpose.
const (
	ffmpegRate     = 48000
	ffmpegChannels = 2
)

// DecodeFile loads a whole recording into memory. WAV files are read natively,
// anything else goes through ffmpeg. Every failure wraps ErrFatalConfig.
func DecodeFile(path string) (*Waveform, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: source %s: %v", ErrFatalConfig, path, err)
	}

	var (
		w   *Waveform
		err error
	)
	if strings.ToLower(filepath.Ext(path)) == ".wav" {
		w, err = decodeWAV(path)
	} else {
		w, err = decodeFFmpeg(path)
	}
	if err != nil {
		return nil, err
	}
	if w.TotalDurationMs() <= 0 {
		return nil, fmt.Errorf("%w: source %s holds no audio", ErrFatalConfig, path)
	}
	return w, nil
}

func decodeWAV(path string) (*Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrFatalConfig, path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid WAV file", ErrFatalConfig, path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrFatalConfig, path, err)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		return nil, fmt.Errorf("%w: %s reports %d channels", ErrFatalConfig, path, channels)
	}

	samples, err := toInt16(buf.Data, int(dec.BitDepth))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFatalConfig, path, err)
	}
	buf.Data = nil

	// Drop a dangling partial frame so Samples is a whole number of frames.
	samples = samples[:len(samples)-len(samples)%channels]

	return &Waveform{
		Path:       path,
		SampleRate: int(dec.SampleRate),
		Channels:   channels,
		Samples:    samples,
	}, nil
}

func toInt16(data []int, bitDepth int) ([]int16, error) {
	out := make([]int16, len(data))
	switch bitDepth {
	case 8:
		// 8-bit WAV is unsigned.
		for i, v := range data {
			out[i] = int16((v - 128) << 8)
		}
	case 16:
		for i, v := range data {
			out[i] = int16(v)
		}
	case 24:
		for i, v := range data {
			out[i] = int16(v >> 8)
		}
	case 32:
		for i, v := range data {
			out[i] = int16(v >> 16)
		}
	default:
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	return out, nil
}

func decodeFFmpeg(path string) (*Waveform, error) {
	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("%w: %s needs ffmpeg, which is not on PATH", ErrFatalConfig, path)
	}

	cmd := exec.Command(bin,
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprint(ffmpegRate),
		"-ac", fmt.Sprint(ffmpegChannels),
		"-loglevel", "error",
		"pipe:1",
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg decode %s: %v", ErrFatalConfig, path, err)
	}

	samples := audioengine.BytesToSamples(out)
	samples = samples[:len(samples)-len(samples)%ffmpegChannels]

	return &Waveform{
		Path:       path,
		SampleRate: ffmpegRate,
		Channels:   ffmpegChannels,
		Samples:    samples,
	}, nil
}
