package booking

import (
	"context"
	"time"

	"github.com/example/roombook/internal/audit"
	"github.com/example/roombook/internal/model"
)

// Store is the persistence port the engine reserves through. CreateBooking
// must write the booking, every slot-ownership row and the audit entry as one
// all-or-nothing transaction, returning ErrSlotConflict when any
// (room, slot-start) pair is already owned by an active booking. No partial
// state may survive a failure.
type Store interface {
	CreateBooking(ctx context.Context, b *model.Booking, slotStarts []time.Time, entry audit.Entry) error
}
