// Package hourschange resolves what happens to existing bookings when a
// room's opening hours shrink. Analyze is a pure preview; Apply commits the
// resulting cancellations and truncations one booking at a time.
package hourschange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/roombook/internal/audit"
	"github.com/example/roombook/internal/hours"
	"github.com/example/roombook/internal/model"
	"github.com/example/roombook/internal/timeslot"
)

// ErrBookingCanceled is returned by Store implementations when a mutation
// targets a booking that is already canceled. Apply treats it as a no-op.
var ErrBookingCanceled = errors.New("booking already canceled")

// Action is the resolution chosen for one affected booking.
type Action string

const (
	ActionTruncate Action = "truncate"
	ActionCancel   Action = "cancel"
)

// Conflict describes one booking the new hours no longer accommodate.
type Conflict struct {
	Booking model.Booking
	Action  Action
	NewEnd  time.Time // set for truncations
	Reason  string
}

// Result is the transient outcome of Analyze. It is never persisted.
type Result struct {
	RoomID    string
	Conflicts []Conflict
	Warnings  []string
}

// Past this many affected bookings, Analyze adds a warning nudging the
// administrator toward advance notice.
const volumeWarningThreshold = 5

// Store is the persistence port for both phases. CancelBooking and
// TruncateBooking each run in their own transaction covering the booking
// update, the slot-ownership deletions and the audit entry.
type Store interface {
	ActiveBookings(ctx context.Context, roomID string, from time.Time) ([]model.Booking, error)
	CancelBooking(ctx context.Context, bookingID string, canceledAt, releaseFrom time.Time, entry audit.Entry) error
	TruncateBooking(ctx context.Context, bookingID string, newEnd time.Time, entry audit.Entry) error
}

type Resolver struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	tracer trace.Tracer
}

func NewResolver(store Store, logger *slog.Logger, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{
		store:  store,
		logger: logger,
		now:    now,
		tracer: otel.Tracer("roombook/hourschange"),
	}
}

// Analyze classifies every active future-or-ongoing booking of the room
// against the proposed hours. Read-only and idempotent: call it as often as
// needed to preview a change before committing.
//
// A booking whose whole range still fits is unaffected. If only its first
// slot still fits, it is truncated to the new closing time on the local
// calendar day of its start. Otherwise it is canceled.
func (r *Resolver) Analyze(ctx context.Context, roomID string, newHours hours.Schedule, timezone string) (Result, error) {
	loc, err := timeslot.LoadLocation(timezone)
	if err != nil {
		return Result{}, err
	}

	bookings, err := r.store.ActiveBookings(ctx, roomID, r.now())
	if err != nil {
		return Result{}, err
	}

	result := Result{RoomID: roomID}
	var cancels, truncations int
	for _, b := range bookings {
		if hours.RangeWithin(b.Start, b.End, newHours, loc) {
			continue
		}

		if hours.SlotWithin(b.Start, newHours, loc) {
			// The close is taken from the weekday of the booking's own
			// start; bookings cannot span local midnight, so that weekday
			// also covers the rest of the range.
			wd := timeslot.WeekdayIn(b.Start, loc)
			win, _ := newHours.Window(wd)
			newEnd := timeslot.CombineDateAndClock(b.Start, win.Close, loc)
			truncations++
			result.Conflicts = append(result.Conflicts, Conflict{
				Booking: b,
				Action:  ActionTruncate,
				NewEnd:  newEnd,
				Reason: fmt.Sprintf("booking runs past the new %s closing time %s",
					strings.ToLower(wd.String()), win.Close),
			})
			continue
		}

		cancels++
		result.Conflicts = append(result.Conflicts, Conflict{
			Booking: b,
			Action:  ActionCancel,
			Reason:  "booking falls entirely outside the new opening hours",
		})
	}

	if cancels > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d booking(s) will be canceled", cancels))
	}
	if truncations > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d booking(s) will be shortened", truncations))
	}
	if len(result.Conflicts) > volumeWarningThreshold {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d existing bookings are affected; consider giving attendees advance notice", len(result.Conflicts)))
	}
	return result, nil
}

// Apply commits the conflicts from a prior Analyze. Each booking's mutation
// is an independent unit of work: one failure is logged and counted but does
// not block or roll back the others. Bookings already canceled by the time
// we get to them are skipped. Updating the room's opening hours themselves
// is the caller's write, not ours.
func (r *Resolver) Apply(ctx context.Context, result Result, actorID string) error {
	ctx, span := r.tracer.Start(ctx, "hourschange.apply",
		trace.WithAttributes(
			attribute.String("room.id", result.RoomID),
			attribute.Int("conflicts", len(result.Conflicts)),
		))
	defer span.End()

	now := r.now()
	var failed int
	for _, c := range result.Conflicts {
		var err error
		switch c.Action {
		case ActionCancel:
			err = r.store.CancelBooking(ctx, c.Booking.ID, now, now, audit.Entry{
				ActorID:    actorID,
				Action:     "booking.cancel",
				EntityType: "booking",
				EntityID:   c.Booking.ID,
				Metadata: map[string]any{
					"room_id": result.RoomID,
					"start":   c.Booking.Start.Format(time.RFC3339),
					"end":     c.Booking.End.Format(time.RFC3339),
					"reason":  c.Reason,
				},
			})
		case ActionTruncate:
			err = r.store.TruncateBooking(ctx, c.Booking.ID, c.NewEnd, audit.Entry{
				ActorID:    actorID,
				Action:     "booking.truncate",
				EntityType: "booking",
				EntityID:   c.Booking.ID,
				Metadata: map[string]any{
					"room_id": result.RoomID,
					"old_end": c.Booking.End.Format(time.RFC3339),
					"new_end": c.NewEnd.Format(time.RFC3339),
					"reason":  c.Reason,
				},
			})
		default:
			err = fmt.Errorf("unknown action %q", c.Action)
		}

		if errors.Is(err, ErrBookingCanceled) {
			r.logger.Info("booking already canceled, skipping", "booking_id", c.Booking.ID)
			continue
		}
		if err != nil {
			failed++
			span.RecordError(err)
			r.logger.Error("hours change mutation failed",
				"booking_id", c.Booking.ID, "action", string(c.Action), "err", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("hours change: %d of %d booking updates failed", failed, len(result.Conflicts))
	}
	return nil
}
