// Package hours models per-weekday opening hours for a room and validates
// slots and slot ranges against them. A Schedule is parsed and validated once
// at the boundary; the zero value means closed every day.
package hours

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/roombook/internal/timeslot"
)

// Window is one day's open interval. A slot fits when its local start is at
// or after Open and its local end is at or before Close.
type Window struct {
	Open  timeslot.Clock
	Close timeslot.Clock
}

// Schedule maps each weekday to an optional Window. Absence means closed all
// day.
type Schedule struct {
	windows [7]*Window // indexed by time.Weekday
}

// New builds a Schedule from per-weekday windows, validating that every
// present day closes strictly after it opens.
func New(windows map[time.Weekday]Window) (Schedule, error) {
	var s Schedule
	for wd, w := range windows {
		if wd < time.Sunday || wd > time.Saturday {
			return Schedule{}, &timeslot.ValidationError{Msg: fmt.Sprintf("invalid weekday %d", wd)}
		}
		if w.Open < 0 || w.Open >= timeslot.MinutesPerDay || w.Close < 0 || w.Close >= timeslot.MinutesPerDay {
			return Schedule{}, &timeslot.ValidationError{Msg: fmt.Sprintf("%s: hours must be within 00:00-23:59", strings.ToLower(wd.String()))}
		}
		if w.Close <= w.Open {
			return Schedule{}, &timeslot.ValidationError{Msg: fmt.Sprintf("%s: close %s must be after open %s", strings.ToLower(wd.String()), w.Close, w.Open)}
		}
		win := w
		s.windows[wd] = &win
	}
	return s, nil
}

// DaySpec is the JSON shape for one weekday's hours as exchanged with
// callers.
type DaySpec struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Parse converts a JSON-shaped weekday-name table ("monday".."sunday") into a
// validated Schedule. Unknown day names or malformed times are rejected.
func Parse(raw map[string]DaySpec) (Schedule, error) {
	windows := make(map[time.Weekday]Window, len(raw))
	for name, spec := range raw {
		wd, err := parseWeekday(name)
		if err != nil {
			return Schedule{}, err
		}
		open, err := timeslot.ParseClock(spec.Open)
		if err != nil {
			return Schedule{}, &timeslot.ValidationError{Msg: fmt.Sprintf("%s open: %v", name, err)}
		}
		cls, err := timeslot.ParseClock(spec.Close)
		if err != nil {
			return Schedule{}, &timeslot.ValidationError{Msg: fmt.Sprintf("%s close: %v", name, err)}
		}
		windows[wd] = Window{Open: open, Close: cls}
	}
	return New(windows)
}

func parseWeekday(name string) (time.Weekday, error) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(name, wd.String()) {
			return wd, nil
		}
	}
	return 0, &timeslot.ValidationError{Msg: fmt.Sprintf("unknown weekday %q", name)}
}

// Window returns the open window for a weekday, if any.
func (s Schedule) Window(wd time.Weekday) (Window, bool) {
	if wd < time.Sunday || wd > time.Saturday || s.windows[wd] == nil {
		return Window{}, false
	}
	return *s.windows[wd], true
}

// SlotWithin reports whether the slot starting at slotStart lies entirely
// inside the schedule's hours for its own local weekday. Starting exactly at
// open or ending exactly at close is within hours.
func SlotWithin(slotStart time.Time, s Schedule, loc *time.Location) bool {
	lt := slotStart.In(loc)
	win, ok := s.Window(lt.Weekday())
	if !ok {
		return false
	}
	start := timeslot.Clock(lt.Hour()*60 + lt.Minute())
	end := start + timeslot.Clock(timeslot.SlotDuration/time.Minute)
	return start >= win.Open && end <= win.Close
}

// RangeWithin reports whether every slot in [start, end) is within hours.
// Each slot is judged against its own local weekday, so a range crossing
// local midnight always fails: overnight bookings are not allowed.
func RangeWithin(start, end time.Time, s Schedule, loc *time.Location) bool {
	slots := timeslot.Enumerate(start, end)
	if len(slots) == 0 {
		return false
	}
	for _, slot := range slots {
		if !SlotWithin(slot, s, loc) {
			return false
		}
	}
	return true
}

// DaySlots returns every open slot start on the local calendar day containing
// ref, in order. Empty when the day is closed.
func DaySlots(ref time.Time, s Schedule, loc *time.Location) []time.Time {
	win, ok := s.Window(timeslot.WeekdayIn(ref, loc))
	if !ok {
		return nil
	}
	open := timeslot.CombineDateAndClock(ref, win.Open, loc)
	cls := timeslot.CombineDateAndClock(ref, win.Close, loc)
	return timeslot.Enumerate(open, cls)
}
