// Package model holds the persistent domain entities shared by the booking
// engine, the availability projector and the storage layer.
package model

import (
	"time"

	"github.com/example/roombook/internal/hours"
	"github.com/example/roombook/internal/timeslot"
)

// Site is a physical location. Its IANA timezone governs every room in it
// and must not change once bookings reference the site: stored UTC instants
// are never reinterpreted.
type Site struct {
	ID       string
	Name     string
	Timezone string
}

// Room is a bookable space within a site. Capacity is informational only and
// never enforced.
type Room struct {
	ID       string
	SiteID   string
	Name     string
	Capacity int
	Hours    hours.Schedule
}

// Booking owns the contiguous run of 30-minute slots from Start (inclusive)
// to End (exclusive), both UTC and slot-aligned. A nil CanceledAt means
// active. Bookings are never deleted; cancellation and truncation keep
// already-elapsed slot ownership for audit history.
type Booking struct {
	ID          string
	RoomID      string
	OwnerID     string
	Start       time.Time
	End         time.Time
	CanceledAt  *time.Time
	Note        string
	AttendeeIDs []string
	CreatedAt   time.Time
}

// Active reports whether the booking has not been canceled.
func (b Booking) Active() bool { return b.CanceledAt == nil }

// Slots returns the slot starts the booking owns.
func (b Booking) Slots() []time.Time {
	return timeslot.Enumerate(b.Start, b.End)
}
