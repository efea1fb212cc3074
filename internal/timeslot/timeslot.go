// Package timeslot converts between room-local wall-clock time and the
// canonical UTC slot grid. All bookable time is carved into fixed 30-minute
// slots whose starts are UTC instants aligned to the grid.
package timeslot

import (
	"fmt"
	"time"
)

// SlotDuration is the length of one reservable slot.
const SlotDuration = 30 * time.Minute

// LocalDateTimeLayout is the wire format for local date+time strings.
const LocalDateTimeLayout = "2006-01-02 15:04"

// DateLayout is the wire format for local calendar dates.
const DateLayout = "2006-01-02"

// LoadLocation resolves an IANA timezone name. Unknown or empty names are a
// ValidationError, never a silent fallback to UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return nil, &ValidationError{Msg: "timezone is required"}
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("unknown timezone %q", name)}
	}
	return loc, nil
}

// LocalToUTC reinterprets the wall-clock fields of local as a time in loc and
// returns the corresponding UTC instant.
func LocalToUTC(local time.Time, loc *time.Location) time.Time {
	return time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), loc).UTC()
}

// UTCToLocal returns t expressed in loc. Inverse of LocalToUTC.
func UTCToLocal(t time.Time, loc *time.Location) time.Time {
	return t.In(loc)
}

// ParseLocalDateTime parses a "YYYY-MM-DD HH:mm" string as wall-clock time in
// loc and returns the UTC instant.
func ParseLocalDateTime(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(LocalDateTimeLayout, s, loc)
	if err != nil {
		return time.Time{}, &ValidationError{Msg: fmt.Sprintf("invalid local datetime %q, want %q", s, LocalDateTimeLayout)}
	}
	return t.UTC(), nil
}

// SnapMode selects how an instant is aligned to the slot grid.
type SnapMode int

const (
	SnapFloor SnapMode = iota
	SnapCeil
	SnapRound
)

// Snap aligns t to the slot grid. SnapRound resolves an exact half-slot
// remainder toward the floor.
func Snap(t time.Time, mode SnapMode) time.Time {
	floor := t.Truncate(SlotDuration)
	switch mode {
	case SnapCeil:
		if floor.Equal(t) {
			return floor
		}
		return floor.Add(SlotDuration)
	case SnapRound:
		if t.Sub(floor)*2 > SlotDuration {
			return floor.Add(SlotDuration)
		}
		return floor
	default:
		return floor
	}
}

// Enumerate returns every slot start in [start, end), stepping by
// SlotDuration. The first entry is Snap(start, SnapFloor). Empty when
// end <= start.
func Enumerate(start, end time.Time) []time.Time {
	if !end.After(start) {
		return nil
	}
	var slots []time.Time
	for t := Snap(start, SnapFloor); t.Before(end); t = t.Add(SlotDuration) {
		slots = append(slots, t)
	}
	return slots
}

// WeekdayIn returns the local calendar weekday of t in loc. Near local
// midnight this can differ from the UTC weekday.
func WeekdayIn(t time.Time, loc *time.Location) time.Weekday {
	return t.In(loc).Weekday()
}

// StartOfDayIn returns the UTC instant of 00:00 local time on the local
// calendar date containing t.
func StartOfDayIn(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc).UTC()
}

// StartOfNextDayIn returns the UTC instant of 00:00 local time on the day
// after the local calendar date containing t.
func StartOfNextDayIn(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day()+1, 0, 0, 0, 0, loc).UTC()
}

// CombineDateAndClock returns the UTC instant for time-of-day c on the local
// calendar date containing ref.
func CombineDateAndClock(ref time.Time, c Clock, loc *time.Location) time.Time {
	lt := ref.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), c.Hour(), c.Minute(), 0, 0, loc).UTC()
}

// CombineDateAndTimeOfDay is CombineDateAndClock for a raw "HH:mm" string.
func CombineDateAndTimeOfDay(ref time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	c, err := ParseClock(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return CombineDateAndClock(ref, c, loc), nil
}
