// Package storage holds the pgx-backed implementations of the persistence
// ports the booking engine and the hours-change resolver are wired to.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/example/roombook/internal/audit"
	"github.com/example/roombook/internal/availability"
	"github.com/example/roombook/internal/booking"
	"github.com/example/roombook/internal/hourschange"
	"github.com/example/roombook/internal/model"
	"github.com/example/roombook/internal/outbox"
	"github.com/example/roombook/libs/db"
)

// ErrNotFound is returned when a booking id does not exist.
var ErrNotFound = errors.New("booking not found")

type BookingRepository struct {
	pool *db.Pool
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

var (
	_ booking.Store     = (*BookingRepository)(nil)
	_ hourschange.Store = (*BookingRepository)(nil)
)

// CreateBooking inserts the booking, all of its slot-ownership rows, its
// attendees, the audit entry and the outbox event in one transaction. A
// unique violation on booking_slots means another active booking owns one of
// the slots; the whole transaction rolls back and the caller sees
// booking.ErrSlotConflict.
func (r *BookingRepository) CreateBooking(ctx context.Context, b *model.Booking, slotStarts []time.Time, entry audit.Entry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (id, room_id, owner_id, start_utc, end_utc, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, b.ID, b.RoomID, b.OwnerID, b.Start, b.End, b.Note, b.CreatedAt)
	if err != nil {
		return err
	}

	for _, slot := range slotStarts {
		if _, err := tx.Exec(ctx, `
			INSERT INTO booking_slots (room_id, slot_start_utc, booking_id)
			VALUES ($1, $2, $3)
		`, b.RoomID, slot, b.ID); err != nil {
			if isSlotTaken(err) {
				return booking.ErrSlotConflict
			}
			return err
		}
	}

	for _, userID := range b.AttendeeIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO booking_attendees (booking_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, b.ID, userID); err != nil {
			return err
		}
	}

	if err := audit.InsertTx(ctx, tx, entry); err != nil {
		return err
	}

	evt, err := outbox.BookingCreated(b)
	if err != nil {
		return err
	}
	if err := outbox.InsertTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// isSlotTaken reports whether err is the unique violation raised by the
// booking_slots (room_id, slot_start_utc) constraint.
func isSlotTaken(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "booking_slots_room_slot_key"
}

// ActiveBookings returns the room's non-canceled bookings that end after
// from, ordered by start.
func (r *BookingRepository) ActiveBookings(ctx context.Context, roomID string, from time.Time) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.room_id, b.owner_id, b.start_utc, b.end_utc, b.canceled_at, b.note, b.created_at,
			COALESCE(array_agg(a.user_id) FILTER (WHERE a.user_id IS NOT NULL), '{}')
		FROM bookings b
		LEFT JOIN booking_attendees a ON a.booking_id = b.id
		WHERE b.room_id = $1
			AND b.canceled_at IS NULL
			AND b.end_utc > $2
		GROUP BY b.id
		ORDER BY b.start_utc ASC
	`, roomID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.RoomID, &b.OwnerID, &b.Start, &b.End, &b.CanceledAt, &b.Note, &b.CreatedAt, &b.AttendeeIDs); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return bookings, nil
}

// CancelBooking marks the booking canceled and releases only the slots
// starting at or after releaseFrom; elapsed slots stay for audit history.
// Returns hourschange.ErrBookingCanceled if it was already canceled.
func (r *BookingRepository) CancelBooking(ctx context.Context, bookingID string, canceledAt, releaseFrom time.Time, entry audit.Entry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	roomID, _, err := r.lockActive(ctx, tx, bookingID)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE bookings SET canceled_at = $2 WHERE id = $1
	`, bookingID, canceledAt); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM booking_slots
		WHERE booking_id = $1 AND slot_start_utc >= $2
	`, bookingID, releaseFrom); err != nil {
		return err
	}

	if err := audit.InsertTx(ctx, tx, entry); err != nil {
		return err
	}

	reason, _ := entry.Metadata["reason"].(string)
	evt, err := outbox.BookingCanceled(bookingID, roomID, reason, canceledAt)
	if err != nil {
		return err
	}
	if err := outbox.InsertTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// TruncateBooking shortens the booking to newEnd and releases the slots from
// newEnd onward. Returns hourschange.ErrBookingCanceled if the booking was
// canceled in the meantime.
func (r *BookingRepository) TruncateBooking(ctx context.Context, bookingID string, newEnd time.Time, entry audit.Entry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	roomID, oldEnd, err := r.lockActive(ctx, tx, bookingID)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE bookings SET end_utc = $2 WHERE id = $1
	`, bookingID, newEnd); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM booking_slots
		WHERE booking_id = $1 AND slot_start_utc >= $2
	`, bookingID, newEnd); err != nil {
		return err
	}

	if err := audit.InsertTx(ctx, tx, entry); err != nil {
		return err
	}

	evt, err := outbox.BookingTruncated(bookingID, roomID, oldEnd, newEnd)
	if err != nil {
		return err
	}
	if err := outbox.InsertTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// lockActive reads and row-locks a booking, distinguishing "missing" from
// "already canceled" so the resolver can treat the latter as a no-op.
func (r *BookingRepository) lockActive(ctx context.Context, tx pgx.Tx, bookingID string) (roomID string, end time.Time, err error) {
	var canceledAt *time.Time
	err = tx.QueryRow(ctx, `
		SELECT room_id, end_utc, canceled_at
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`, bookingID).Scan(&roomID, &end, &canceledAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", time.Time{}, ErrNotFound
	}
	if err != nil {
		return "", time.Time{}, err
	}
	if canceledAt != nil {
		return "", time.Time{}, hourschange.ErrBookingCanceled
	}
	return roomID, end, nil
}

// SlotIndex builds the availability projector's booked-slot input for one
// room and window, with owner/attendee flags relative to viewerID.
func (r *BookingRepository) SlotIndex(ctx context.Context, roomID string, from, to time.Time, viewerID string) (availability.SlotIndex, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.slot_start_utc,
			b.owner_id = $4,
			EXISTS (
				SELECT 1 FROM booking_attendees a
				WHERE a.booking_id = b.id AND a.user_id = $4
			)
		FROM booking_slots s
		JOIN bookings b ON b.id = s.booking_id
		WHERE s.room_id = $1
			AND b.canceled_at IS NULL
			AND s.slot_start_utc >= $2
			AND s.slot_start_utc < $3
	`, roomID, from, to, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	idx := availability.SlotIndex{}
	for rows.Next() {
		var start time.Time
		var ref availability.BookingRef
		if err := rows.Scan(&start, &ref.OwnedByViewer, &ref.AttendedByViewer); err != nil {
			return nil, err
		}
		idx.Add(start, ref)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return idx, nil
}
