// Package availability projects the bookable state of a room over a date
// range. It is a pure read path: booked state arrives as a caller-supplied
// slot index and "now" is an explicit argument.
package availability

import (
	"time"

	"github.com/example/roombook/internal/hours"
	"github.com/example/roombook/internal/timeslot"
)

// Reason classifies why a slot is unavailable.
type Reason string

const (
	ReasonPast         Reason = "past"
	ReasonOutsideHours Reason = "outside_hours"
	ReasonBooked       Reason = "booked"
)

// BookingRef carries the viewer-relative flags for one booked slot,
// precomputed by the caller from the persistence layer.
type BookingRef struct {
	OwnedByViewer    bool
	AttendedByViewer bool
}

// SlotIndex maps UTC slot starts to booked-slot flags. Use Add and Lookup so
// keys stay normalized.
type SlotIndex map[time.Time]BookingRef

func (idx SlotIndex) Add(start time.Time, ref BookingRef) {
	idx[start.UTC().Round(0)] = ref
}

func (idx SlotIndex) Lookup(start time.Time) (BookingRef, bool) {
	ref, ok := idx[start.UTC().Round(0)]
	return ref, ok
}

// Slot is one projected grid entry. Reason is empty when Available.
type Slot struct {
	Start            time.Time
	End              time.Time
	Available        bool
	Reason           Reason
	OwnedByViewer    bool
	AttendedByViewer bool
}

// Day groups the slots of one local calendar day. Date is "YYYY-MM-DD" in
// the room's timezone.
type Day struct {
	Date  string
	Slots []Slot
}

// Project walks every local calendar day touched by [start, end) and
// classifies the full slot grid of each day. Classification precedence is
// fixed: past, then outside-hours, then booked, then available. Callers rely
// on that ordering for display, so a slot that is past and booked always
// reports "past".
func Project(start, end time.Time, sched hours.Schedule, loc *time.Location, booked SlotIndex, now time.Time) []Day {
	if !end.After(start) {
		return nil
	}

	var days []Day
	for dayStart := timeslot.StartOfDayIn(start, loc); dayStart.Before(end); dayStart = timeslot.StartOfNextDayIn(dayStart, loc) {
		dayEnd := timeslot.StartOfNextDayIn(dayStart, loc)

		open := make(map[time.Time]struct{})
		for _, s := range hours.DaySlots(dayStart, sched, loc) {
			open[s.UTC().Round(0)] = struct{}{}
		}

		grid := timeslot.Enumerate(dayStart, dayEnd)
		slots := make([]Slot, 0, len(grid))
		for _, s := range grid {
			slot := Slot{Start: s, End: s.Add(timeslot.SlotDuration)}
			_, isOpen := open[s.UTC().Round(0)]
			ref, isBooked := booked.Lookup(s)
			switch {
			case s.Before(now):
				slot.Reason = ReasonPast
			case !isOpen:
				slot.Reason = ReasonOutsideHours
			case isBooked:
				slot.Reason = ReasonBooked
				slot.OwnedByViewer = ref.OwnedByViewer
				slot.AttendedByViewer = ref.AttendedByViewer
			default:
				slot.Available = true
			}
			slots = append(slots, slot)
		}
		days = append(days, Day{Date: dayStart.In(loc).Format(timeslot.DateLayout), Slots: slots})
	}
	return days
}

// FilterClockWindow drops slots whose local time of day falls outside
// [from, to), leaving availability and reasons untouched.
func FilterClockWindow(slots []Slot, from, to string, loc *time.Location) ([]Slot, error) {
	fromClock, err := timeslot.ParseClock(from)
	if err != nil {
		return nil, err
	}
	toClock, err := timeslot.ParseClock(to)
	if err != nil {
		return nil, err
	}

	var out []Slot
	for _, s := range slots {
		lt := s.Start.In(loc)
		c := timeslot.Clock(lt.Hour()*60 + lt.Minute())
		if c >= fromClock && c < toClock {
			out = append(out, s)
		}
	}
	return out, nil
}

// Run is a maximal range of contiguous available slots.
type Run struct {
	Start time.Time
	End   time.Time
}

// ContiguousRuns merges adjacent available slots into maximal runs and keeps
// those at least minDuration long. Used for "next available" queries.
func ContiguousRuns(slots []Slot, minDuration time.Duration) []Run {
	var runs []Run
	var current *Run
	for _, s := range slots {
		if !s.Available {
			current = nil
			continue
		}
		if current != nil && current.End.Equal(s.Start) {
			current.End = s.End
			continue
		}
		runs = append(runs, Run{Start: s.Start, End: s.End})
		current = &runs[len(runs)-1]
	}

	out := runs[:0]
	for _, r := range runs {
		if r.End.Sub(r.Start) >= minDuration {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
