package main

import (
	"strings"
	"testing"

	"segplay/internal/transport"
)

func TestFormatStatus(t *testing.T) {
	st := transport.Status{
		PlaybackState: transport.PlaybackState{PositionMs: 65000, StepMs: 5000, State: transport.Paused},
		TotalMs:       125999,
		Codec:         "opus",
	}
	got := formatStatus(st)
	for _, want := range []string{"⏸", "01:05 / 02:05", "[PAUSED]", "opus", "step 5s"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatStatus = %q, missing %q", got, want)
		}
	}

	st.State = transport.Playing
	st.Finished = true
	if got := formatStatus(st); !strings.HasPrefix(got, "⏹") {
		t.Errorf("finished status = %q", got)
	}
}
