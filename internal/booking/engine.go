// Package booking implements the atomic booking-creation protocol. The
// engine validates and snaps a requested range, then reserves every
// constituent slot in one transaction through its Store port; the storage
// layer's uniqueness constraint on (room, slot-start) is what makes the
// reservation safe under concurrent attempts.
package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/roombook/internal/audit"
	"github.com/example/roombook/internal/hours"
	"github.com/example/roombook/internal/model"
	"github.com/example/roombook/internal/timeslot"
)

type Engine struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	tracer trace.Tracer
}

// NewEngine wires the engine to its persistence port. A nil now defaults to
// time.Now; tests inject a fixed clock.
func NewEngine(store Store, logger *slog.Logger, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:  store,
		logger: logger,
		now:    now,
		tracer: otel.Tracer("roombook/booking"),
	}
}

// CreateRequest describes one booking attempt. Start and end are local
// wall-clock strings ("YYYY-MM-DD HH:mm") in the room's site timezone.
type CreateRequest struct {
	Room        model.Room
	Timezone    string
	OwnerID     string
	StartLocal  string
	EndLocal    string
	Note        string
	AttendeeIDs []string
}

// Create validates, snaps and atomically reserves the requested range.
// The requested range is widened, never narrowed: start snaps down and end
// snaps up to the enclosing slot grid. Failure modes, in check order:
// ValidationError, PastBookingError, OutsideHoursError, SlotConflictError,
// then any other storage failure as-is.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*model.Booking, error) {
	ctx, span := e.tracer.Start(ctx, "booking.create",
		trace.WithAttributes(attribute.String("room.id", req.Room.ID)))
	defer span.End()

	loc, err := timeslot.LoadLocation(req.Timezone)
	if err != nil {
		return nil, err
	}
	start, err := timeslot.ParseLocalDateTime(req.StartLocal, loc)
	if err != nil {
		return nil, err
	}
	end, err := timeslot.ParseLocalDateTime(req.EndLocal, loc)
	if err != nil {
		return nil, err
	}

	start = timeslot.Snap(start, timeslot.SnapFloor)
	end = timeslot.Snap(end, timeslot.SnapCeil)

	now := e.now()
	if start.Before(now) {
		return nil, &PastBookingError{Start: start}
	}
	if !end.After(start) {
		return nil, &timeslot.ValidationError{Msg: "end must be after start"}
	}
	if !hours.RangeWithin(start, end, req.Room.Hours, loc) {
		return nil, e.outsideHours(start, end, req.Room.Hours, loc)
	}

	slots := timeslot.Enumerate(start, end)
	b := &model.Booking{
		ID:          uuid.NewString(),
		RoomID:      req.Room.ID,
		OwnerID:     req.OwnerID,
		Start:       start,
		End:         end,
		Note:        req.Note,
		AttendeeIDs: req.AttendeeIDs,
		CreatedAt:   now,
	}
	entry := audit.Entry{
		ActorID:    req.OwnerID,
		Action:     "booking.create",
		EntityType: "booking",
		EntityID:   b.ID,
		Metadata: map[string]any{
			"room_id": b.RoomID,
			"start":   b.Start.Format(time.RFC3339),
			"end":     b.End.Format(time.RFC3339),
			"slots":   len(slots),
		},
	}

	if err := e.store.CreateBooking(ctx, b, slots, entry); err != nil {
		if errors.Is(err, ErrSlotConflict) {
			return nil, &SlotConflictError{RoomID: req.Room.ID, Start: start, End: end}
		}
		span.RecordError(err)
		e.logger.Error("booking create failed", "room_id", req.Room.ID, "err", err)
		return nil, err
	}

	e.logger.Info("booking created",
		"booking_id", b.ID, "room_id", b.RoomID, "owner_id", b.OwnerID,
		"start", b.Start.Format(time.RFC3339), "end", b.End.Format(time.RFC3339))
	return b, nil
}

// outsideHours builds the error detail from the first slot that fails the
// schedule.
func (e *Engine) outsideHours(start, end time.Time, sched hours.Schedule, loc *time.Location) error {
	for _, slot := range timeslot.Enumerate(start, end) {
		if hours.SlotWithin(slot, sched, loc) {
			continue
		}
		wd := timeslot.WeekdayIn(slot, loc)
		if win, ok := sched.Window(wd); ok {
			return &OutsideHoursError{Weekday: wd, Window: &win}
		}
		return &OutsideHoursError{Weekday: wd}
	}
	return &OutsideHoursError{Weekday: timeslot.WeekdayIn(start, loc)}
}
