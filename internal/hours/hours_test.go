package hours

import (
	"testing"
	"time"

	"github.com/example/roombook/internal/timeslot"
)

func weekdayHours(t *testing.T, open, close string, days ...time.Weekday) Schedule {
	t.Helper()
	o, err := timeslot.ParseClock(open)
	if err != nil {
		t.Fatalf("parse open: %v", err)
	}
	c, err := timeslot.ParseClock(close)
	if err != nil {
		t.Fatalf("parse close: %v", err)
	}
	windows := make(map[time.Weekday]Window, len(days))
	for _, d := range days {
		windows[d] = Window{Open: o, Close: c}
	}
	s, err := New(windows)
	if err != nil {
		t.Fatalf("new schedule: %v", err)
	}
	return s
}

func TestNew_RejectsInvertedWindow(t *testing.T) {
	_, err := New(map[time.Weekday]Window{
		time.Monday: {Open: 1200, Close: 480},
	})
	if !timeslot.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = New(map[time.Weekday]Window{
		time.Monday: {Open: 480, Close: 480},
	})
	if !timeslot.IsValidation(err) {
		t.Fatalf("expected validation error for zero-length window, got %v", err)
	}
}

func TestParse(t *testing.T) {
	s, err := Parse(map[string]DaySpec{
		"monday":  {Open: "08:00", Close: "20:00"},
		"Tuesday": {Open: "09:30", Close: "17:00"},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	win, ok := s.Window(time.Monday)
	if !ok {
		t.Fatalf("expected monday window")
	}
	if win.Open.String() != "08:00" || win.Close.String() != "20:00" {
		t.Fatalf("unexpected monday window %s-%s", win.Open, win.Close)
	}
	if _, ok := s.Window(time.Wednesday); ok {
		t.Fatalf("wednesday should be closed")
	}

	if _, err := Parse(map[string]DaySpec{"moonday": {Open: "08:00", Close: "20:00"}}); !timeslot.IsValidation(err) {
		t.Fatalf("expected validation error for bad day name, got %v", err)
	}
	if _, err := Parse(map[string]DaySpec{"monday": {Open: "8am", Close: "20:00"}}); !timeslot.IsValidation(err) {
		t.Fatalf("expected validation error for bad time, got %v", err)
	}
}

func TestSlotWithin_Boundaries(t *testing.T) {
	loc, err := timeslot.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	s := weekdayHours(t, "08:00", "20:00", time.Wednesday)

	local := func(hour, min int) time.Time {
		return time.Date(2025, 9, 24, hour, min, 0, 0, loc).UTC() // a Wednesday
	}

	cases := []struct {
		name string
		slot time.Time
		want bool
	}{
		{"starts at open", local(8, 0), true},
		{"ends at close", local(19, 30), true},
		{"before open", local(7, 30), false},
		{"ends past close", local(20, 0), false},
		{"mid-day", local(12, 0), true},
	}
	for _, tc := range cases {
		if got := SlotWithin(tc.slot, s, loc); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}

	// Thursday has no hours at all.
	thursday := time.Date(2025, 9, 25, 12, 0, 0, 0, loc).UTC()
	if SlotWithin(thursday, s, loc) {
		t.Fatalf("closed day should not be within hours")
	}
}

func TestRangeWithin_RejectsOvernight(t *testing.T) {
	loc, err := timeslot.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// Open Monday only; Tuesday closed.
	s := weekdayHours(t, "08:00", "20:00", time.Monday)

	monday := time.Date(2025, 9, 22, 19, 30, 0, 0, loc).UTC()
	tuesday := time.Date(2025, 9, 23, 0, 30, 0, 0, loc).UTC()
	if RangeWithin(monday, tuesday, s, loc) {
		t.Fatalf("range crossing midnight into a closed day must be rejected")
	}

	ok := time.Date(2025, 9, 22, 9, 0, 0, 0, loc).UTC()
	if !RangeWithin(ok, ok.Add(2*time.Hour), s, loc) {
		t.Fatalf("in-hours range should pass")
	}
}

func TestDaySlots(t *testing.T) {
	loc, err := timeslot.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	s := weekdayHours(t, "08:00", "10:00", time.Wednesday)

	ref := time.Date(2025, 9, 24, 15, 0, 0, 0, loc).UTC()
	slots := DaySlots(ref, s, loc)
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots for a 2h window, got %d", len(slots))
	}
	first := time.Date(2025, 9, 24, 8, 0, 0, 0, loc).UTC()
	if !slots[0].Equal(first) {
		t.Fatalf("expected first slot %s, got %s", first, slots[0])
	}

	closedDay := time.Date(2025, 9, 25, 15, 0, 0, 0, loc).UTC()
	if got := DaySlots(closedDay, s, loc); got != nil {
		t.Fatalf("expected no slots on a closed day, got %d", len(got))
	}
}
