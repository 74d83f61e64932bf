package segment

import (
	"errors"
	"math"
	"testing"

	"segplay/internal/source"
	"segplay/pkg/audioengine"
	"segplay/pkg/spec"
)

func sineWave(rate, channels int, ms int64) *source.Waveform {
	frames := int(ms) * rate / 1000
	samples := make([]int16, frames*channels)
	for i := 0; i < frames; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
		for c := 0; c < channels; c++ {
			samples[i*channels+c] = v
		}
	}
	return &source.Waveform{SampleRate: rate, Channels: channels, Samples: samples}
}

func TestNewExtractorCodecResolution(t *testing.T) {
	tests := []struct {
		name     string
		rate     int
		channels int
		codec    string
		want     string
		fatal    bool
	}{
		{"auto picks opus at 48k stereo", 48000, 2, spec.CodecAuto, spec.CodecOpus, false},
		{"empty codec means auto", 16000, 1, "", spec.CodecOpus, false},
		{"auto falls back to pcm at 44.1k", 44100, 2, spec.CodecAuto, spec.CodecPCM, false},
		{"auto falls back to pcm for surround", 48000, 6, spec.CodecAuto, spec.CodecPCM, false},
		{"forced pcm", 48000, 2, spec.CodecPCM, spec.CodecPCM, false},
		{"forced opus on 44.1k", 44100, 2, spec.CodecOpus, "", true},
		{"unknown codec", 48000, 2, "mp3", "", true},
	}
	for _, tt := range tests {
		w := &source.Waveform{SampleRate: tt.rate, Channels: tt.channels}
		e, err := NewExtractor(w, Options{Codec: tt.codec})
		if tt.fatal {
			if !errors.Is(err, source.ErrFatalConfig) {
				t.Errorf("%s: err = %v, want ErrFatalConfig", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
			continue
		}
		if e.Codec() != tt.want {
			t.Errorf("%s: Codec() = %q, want %q", tt.name, e.Codec(), tt.want)
		}
	}
}

func TestExtractDurationMatchesRange(t *testing.T) {
	w := sineWave(48000, 2, 12000)
	total := w.TotalDurationMs()

	for _, codec := range []string{spec.CodecPCM, spec.CodecOpus} {
		e, err := NewExtractor(w, Options{Codec: codec})
		if err != nil {
			t.Fatalf("NewExtractor(%s): %v", codec, err)
		}

		ranges := []source.TimeRange{
			{0, 5000}, {5000, 10000}, {10000, 15000}, {11999, 16999},
			{12000, 17000}, {-500, 300}, {7000, 7000}, {9000, 8000}, {1, 2},
		}
		for _, r := range ranges {
			seg, err := e.Extract(w, r)
			if err != nil {
				t.Fatalf("%s Extract(%v): %v", codec, r, err)
			}
			clamped := r.Clamp(total)
			if seg.Range != clamped {
				t.Errorf("%s %v: Range = %v, want %v", codec, r, seg.Range, clamped)
			}
			if seg.DurationMs() != clamped.Duration() {
				t.Errorf("%s %v: DurationMs = %d, want %d", codec, r, seg.DurationMs(), clamped.Duration())
			}
			if seg.Empty() != clamped.Empty() {
				t.Errorf("%s %v: Empty = %v, want %v", codec, r, seg.Empty(), clamped.Empty())
			}
			wantFrames := int(clamped.Duration()) * 48
			if seg.Frames != wantFrames {
				t.Errorf("%s %v: Frames = %d, want %d", codec, r, seg.Frames, wantFrames)
			}
		}
	}
}

func TestExtractPCMPayload(t *testing.T) {
	w := sineWave(8000, 1, 1000)
	e, _ := NewExtractor(w, Options{Codec: spec.CodecPCM})

	seg, err := e.Extract(w, source.TimeRange{StartMs: 250, EndMs: 500})
	if err != nil {
		t.Fatal(err)
	}
	if len(seg.PCM) != 2000*2 {
		t.Fatalf("PCM length = %d, want 4000", len(seg.PCM))
	}
	got := audioengine.BytesToSamples(seg.PCM)
	for i, v := range got {
		if v != w.Samples[2000+i] {
			t.Fatalf("sample %d = %d, want %d", i, v, w.Samples[2000+i])
		}
	}
	if seg.Packets != nil {
		t.Errorf("pcm segment should carry no opus packets")
	}
}

func TestExtractOpusPackets(t *testing.T) {
	w := sineWave(48000, 2, 1000)
	e, _ := NewExtractor(w, Options{Codec: spec.CodecOpus, OpusBitrate: 96000})

	// 130ms = 6.5 frames, rounded up to 7 packets.
	seg, err := e.Extract(w, source.TimeRange{StartMs: 0, EndMs: 130})
	if err != nil {
		t.Fatal(err)
	}
	if len(seg.Packets) != 7 {
		t.Fatalf("packets = %d, want 7", len(seg.Packets))
	}
	if seg.Size() == 0 {
		t.Errorf("opus segment has empty payload")
	}

	dec, err := audioengine.NewStreamDecoder(48000, 2)
	if err != nil {
		t.Fatal(err)
	}
	decoded := 0
	for _, p := range seg.Packets {
		pcm, err := dec.DecodeFrame(p)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		decoded += len(pcm) / 2
	}
	if decoded != 7*960 {
		t.Errorf("decoded %d frames, want %d", decoded, 7*960)
	}
	if seg.Frames != 130*48 {
		t.Errorf("Frames = %d, want %d", seg.Frames, 130*48)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	w := sineWave(48000, 2, 2000)
	e, _ := NewExtractor(w, Options{Codec: spec.CodecPCM})
	r := source.TimeRange{StartMs: 300, EndMs: 1300}

	a, _ := e.Extract(w, r)
	b, _ := e.Extract(w, r)
	if audioengine.Fingerprint(audioengine.BytesToSamples(a.PCM)) != audioengine.Fingerprint(audioengine.BytesToSamples(b.PCM)) {
		t.Errorf("two extractions of %v differ", r)
	}
}
