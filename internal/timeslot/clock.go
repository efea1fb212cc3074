package timeslot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Clock is a time of day as minutes since local midnight, in [0, 1440).
type Clock int

// MinutesPerDay bounds a Clock value.
const MinutesPerDay = 24 * 60

// ParseClock parses a 24-hour "HH:mm" string.
func ParseClock(s string) (Clock, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok || len(h) != 2 || len(m) != 2 {
		return 0, &ValidationError{Msg: fmt.Sprintf("invalid time of day %q, want HH:mm", s)}
	}
	hour, err1 := strconv.Atoi(h)
	minute, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, &ValidationError{Msg: fmt.Sprintf("invalid time of day %q, want HH:mm", s)}
	}
	return Clock(hour*60 + minute), nil
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// ValidationError reports malformed caller input: time-of-day strings,
// timezone names or opening-hours tables. Always correctable by the caller,
// never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
