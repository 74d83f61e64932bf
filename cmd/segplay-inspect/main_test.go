package main

import (
	"bytes"
	"strings"
	"testing"

	"segplay/internal/analysis"
	"segplay/internal/source"
)

func TestPrintReport(t *testing.T) {
	rep := fileReport{
		Path:       "song.wav",
		SampleRate: 48000,
		Channels:   2,
		TotalMs:    12000,
		StepMs:     5000,
		Codec:      "opus",
		Windows: []analysis.WindowReport{
			{Range: source.TimeRange{StartMs: 0, EndMs: 5000}, Peak: 0.5, RMS: 0.25, Packets: 250, Bytes: 80000, Fingerprint: "abcd"},
			{Range: source.TimeRange{StartMs: 10000, EndMs: 12000}, Packets: 100},
		},
	}
	var buf bytes.Buffer
	printReport(&buf, rep, []byte{0, 128, 255})

	out := buf.String()
	for _, want := range []string{"song.wav", "48000 Hz, 2 ch", "12.000s", "opus, 5000ms windows", "[0ms,5000ms)", "[10000ms,12000ms)", "abcd"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
