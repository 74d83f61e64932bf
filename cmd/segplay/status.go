/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"context"
	"fmt"
	"time"

	"segplay/internal/transport"
)

// statusLine redraws a one-line transport display until ctx is done.
func statusLine(ctx context.Context, status func() transport.Status) error {
	t := time.NewTicker(250 * time.Millisecond)
	defer t.Stop()
	defer fmt.Print("\r\033[K")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			fmt.Print("\r\033[K" + formatStatus(status()))
		}
	}
}

func formatStatus(st transport.Status) string {
	icon := "▶"
	switch {
	case st.State == transport.Paused:
		icon = "⏸"
	case st.State == transport.Stopped:
		icon = "■"
	case st.Finished:
		icon = "⏹"
	}
	return fmt.Sprintf("%s %s / %s  [%s] %s  step %ds",
		icon, clock(st.PositionMs), clock(st.TotalMs), st.State, st.Codec, st.StepMs/1000)
}

func clock(ms int64) string {
	s := ms / 1000
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
