// Package timestamp converts between millisecond offsets and the
// hours/minutes/seconds form used on the command line and in segment names.
package timestamp

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidTimestamp is returned when a timestamp string cannot be parsed.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
)

// Timestamp is a whole-second position expressed as hours, minutes and seconds.
// Fields are not normalized: Minutes and Seconds may exceed 59 when the value
// comes from user input.
type Timestamp struct {
	Hours   int
	Minutes int
	Seconds int
}

// Milliseconds returns the position of t in milliseconds.
func (t Timestamp) Milliseconds() int {
	return ToMS(t.Hours, t.Minutes, t.Seconds)
}

// String formats t with Format.
func (t Timestamp) String() string {
	return Format(t.Hours, t.Minutes, t.Seconds)
}

// ToMS converts hours, minutes and seconds to milliseconds.
// No range checks are made, so ToMS(0, 90, 0) is ninety minutes.
func ToMS(h, m, s int) int {
	return h*msPerHour + m*msPerMinute + s*msPerSecond
}

// ToHMS splits a millisecond count into hours, minutes and seconds.
// Sub-second precision is truncated.
func ToHMS(ms int) (h, m, s int) {
	total := ms / msPerSecond
	return total / 3600, (total % 3600) / 60, total % 60
}

// Format renders MM:SS when h is zero and HH:MM:SS otherwise.
func Format(h, m, s int) string {
	if h == 0 {
		return fmt.Sprintf("%02d:%02d", m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatMS formats a millisecond count as MM:SS or HH:MM:SS.
func FormatMS(ms int) string {
	return Format(ToHMS(ms))
}

// Parse reads HH:MM:SS or MM:SS. Each field must be a non-negative integer;
// values above 59 are kept as given. Timestamps whose millisecond value does
// not fit in an int are rejected.
func Parse(s string) (Timestamp, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Timestamp{}, fmt.Errorf("%w: %q: want HH:MM:SS or MM:SS", ErrInvalidTimestamp, s)
	}

	// Units of the fields from the right: seconds, minutes, hours.
	units := [...]int{msPerSecond, msPerMinute, msPerHour}

	fields := make([]int, len(parts))
	total := 0
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || strings.HasPrefix(p, "+") {
			return Timestamp{}, fmt.Errorf("%w: %q: field %q is not a non-negative integer", ErrInvalidTimestamp, s, p)
		}
		unit := units[len(parts)-1-i]
		if v > (math.MaxInt-total)/unit {
			return Timestamp{}, fmt.Errorf("%w: %q: out of range", ErrInvalidTimestamp, s)
		}
		total += v * unit
		fields[i] = v
	}

	if len(fields) == 2 {
		return Timestamp{Minutes: fields[0], Seconds: fields[1]}, nil
	}
	return Timestamp{Hours: fields[0], Minutes: fields[1], Seconds: fields[2]}, nil
}
