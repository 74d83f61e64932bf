package source

import "fmt"

// TimeRange is a half-open window [StartMs, EndMs) of the recording.
type TimeRange struct {
	StartMs int64
	EndMs   int64
}

// Window builds the window of length step starting at start, clamped to total.
func Window(start, step, total int64) TimeRange {
	return TimeRange{StartMs: start, EndMs: start + step}.Clamp(total)
}

// Clamp pulls both ends into [0, total].
func (r TimeRange) Clamp(total int64) TimeRange {
	return TimeRange{StartMs: clamp(r.StartMs, 0, total), EndMs: clamp(r.EndMs, 0, total)}
}

func (r TimeRange) Empty() bool { return r.StartMs >= r.EndMs }

func (r TimeRange) Duration() int64 {
	if r.Empty() {
		return 0
	}
	return r.EndMs - r.StartMs
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%dms,%dms)", r.StartMs, r.EndMs)
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
