package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/roombook/internal/hours"
)

// ErrSlotConflict is returned by Store implementations when any requested
// (room, slot) pair is already owned by an active booking. The engine wraps
// it into a SlotConflictError for callers.
var ErrSlotConflict = errors.New("slot already booked")

// PastBookingError rejects a request whose snapped start has already elapsed.
type PastBookingError struct {
	Start time.Time
}

func (e *PastBookingError) Error() string {
	return fmt.Sprintf("booking start %s is in the past", e.Start.UTC().Format(time.RFC3339))
}

// OutsideHoursError rejects a range that fails opening-hours validation. It
// names the first offending local weekday and, when the day is open at all,
// its window, so callers can render a precise message.
type OutsideHoursError struct {
	Weekday time.Weekday
	Window  *hours.Window // nil when the day is closed entirely
}

func (e *OutsideHoursError) Error() string {
	if e.Window == nil {
		return fmt.Sprintf("room is closed on %s", e.Weekday)
	}
	return fmt.Sprintf("requested time is outside opening hours on %s (%s to %s)", e.Weekday, e.Window.Open, e.Window.Close)
}

// SlotConflictError reports that the atomic reservation found at least one
// already-owned slot. Distinct from generic persistence failures so callers
// can answer "already booked" instead of "internal error". Retrying the same
// range would conflict again, so the engine never retries.
type SlotConflictError struct {
	RoomID string
	Start  time.Time
	End    time.Time
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("room %s already booked between %s and %s",
		e.RoomID, e.Start.UTC().Format(time.RFC3339), e.End.UTC().Format(time.RFC3339))
}

func IsPastBooking(err error) bool {
	var e *PastBookingError
	return errors.As(err, &e)
}

func IsOutsideHours(err error) bool {
	var e *OutsideHoursError
	return errors.As(err, &e)
}

func IsSlotConflict(err error) bool {
	var e *SlotConflictError
	return errors.As(err, &e)
}
