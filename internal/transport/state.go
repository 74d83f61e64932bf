/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */
package transport

import "strings"

// State is the transport state. Stopped is terminal.
type State int

const (
	Playing State = iota
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Playing:
		return "PLAYING"
	case Paused:
		return "PAUSED"
	case Stopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

// Event is a transport command, or SegmentEnded raised by the control loop
// itself when the sink goes idle.
type Event int

const (
	SeekForward Event = iota + 1
	SeekBackward
	Pause
	Resume
	Quit
	SegmentEnded
)

func (e Event) String() string {
	switch e {
	case SeekForward:
		return "FORWARD"
	case SeekBackward:
		return "REWIND"
	case Pause:
		return "PAUSE"
	case Resume:
		return "RESUME"
	case Quit:
		return "QUIT"
	case SegmentEnded:
		return "SEGMENT_ENDED"
	default:
		return "UNKNOWN"
	}
}

// ParseEvent maps a command word to a user event. SegmentEnded is internal
// and never parsed.
func ParseEvent(word string) (Event, bool) {
	switch strings.ToUpper(strings.TrimSpace(word)) {
	case "FORWARD", "FF", "F":
		return SeekForward, true
	case "REWIND", "BACK", "RW", "R":
		return SeekBackward, true
	case "PAUSE", "P":
		return Pause, true
	case "RESUME", "U":
		return Resume, true
	case "QUIT", "STOP", "Q":
		return Quit, true
	}
	return 0, false
}

// PlaybackState is owned and mutated only by the control loop.
type PlaybackState struct {
	PositionMs int64 `json:"position_ms"`
	StepMs     int64 `json:"step_ms"`
	State      State `json:"state"`
	// Finished is set once the empty trailing window has been reached.
	Finished bool `json:"finished"`
}

// Status is a read-only snapshot for observers outside the control loop.
type Status struct {
	PlaybackState
	TotalMs      int64  `json:"total_ms"`
	Codec        string `json:"codec"`
	Generation   uint64 `json:"generation"`
	Splices      int64  `json:"splices"`
	SyncExtracts int64  `json:"sync_extracts"`
	Underruns    int64  `json:"underruns"`
	Stale        int64  `json:"stale_prefetches"`
}
