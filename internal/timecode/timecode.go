// Package timecode formats engine offsets (float seconds) as fixed-width clock strings.
package timecode

import (
	"fmt"
	"math"
)

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
)

// Format renders seconds as HH:MM:SS.mmm. Hours grow past two digits when needed.
//
// The offset is first snapped to whole microseconds and then truncated to
// milliseconds, so binary float noise (59.999 stored as 59.99899...) does not
// lose a millisecond. Negative and NaN offsets format as zero; offsets too
// large for int64 microseconds saturate at the largest representable clock.
func Format(seconds float64) string {
	ms := Milliseconds(seconds)
	h := ms / msPerHour
	m := (ms % msPerHour) / msPerMinute
	s := (ms % msPerMinute) / msPerSecond
	frac := ms % msPerSecond
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, frac)
}

// Milliseconds returns the whole milliseconds contained in seconds.
func Milliseconds(seconds float64) int64 {
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	us := math.Round(seconds * 1e6)
	// +Inf and offsets past the int64 microsecond range saturate.
	if us >= math.MaxInt64 {
		return math.MaxInt64 / 1000
	}
	return int64(us) / 1000
}
