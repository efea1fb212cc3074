// Package outbox implements the transactional outbox: write paths insert an
// event row in the same transaction as the change, and a relay publishes the
// rows to Kafka afterwards. The topic name equals the event type.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/roombook/internal/model"
	"github.com/example/roombook/libs/db"
	otelx "github.com/example/roombook/libs/otel"
)

// Event is the envelope written to the outbox table.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

func bookingPayload(b *model.Booking) map[string]any {
	return map[string]any{
		"booking_id": b.ID,
		"room_id":    b.RoomID,
		"owner_id":   b.OwnerID,
		"start":      b.Start.UTC().Format(time.RFC3339),
		"end":        b.End.UTC().Format(time.RFC3339),
	}
}

// BookingCreated builds the booking.created.v1 event.
func BookingCreated(b *model.Booking) (Event, error) {
	payload, err := json.Marshal(bookingPayload(b))
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "booking",
		AggregateID:   b.ID,
		EventType:     "booking.created.v1",
		Payload:       payload,
	}, nil
}

// BookingCanceled builds the booking.cancelled.v1 event.
func BookingCanceled(bookingID, roomID, reason string, canceledAt time.Time) (Event, error) {
	payload, err := json.Marshal(map[string]any{
		"booking_id":  bookingID,
		"room_id":     roomID,
		"reason":      reason,
		"canceled_at": canceledAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "booking",
		AggregateID:   bookingID,
		EventType:     "booking.cancelled.v1",
		Payload:       payload,
	}, nil
}

// BookingTruncated builds the booking.truncated.v1 event.
func BookingTruncated(bookingID, roomID string, oldEnd, newEnd time.Time) (Event, error) {
	payload, err := json.Marshal(map[string]any{
		"booking_id": bookingID,
		"room_id":    roomID,
		"old_end":    oldEnd.UTC().Format(time.RFC3339),
		"new_end":    newEnd.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "booking",
		AggregateID:   bookingID,
		EventType:     "booking.truncated.v1",
		Payload:       payload,
	}, nil
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertTx writes an event inside the caller's transaction, carrying the
// current trace context so the relay can continue the trace.
func InsertTx(ctx context.Context, tx pgx.Tx, evt Event) error {
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox_events (aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, evt.AggregateType, evt.AggregateID, evt.EventType, evt.Payload, traceparent, tracestate)
	return err
}

// Record is a stored, not-yet-published event row.
type Record struct {
	ID            int64
	EventID       string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	Traceparent   string
	Tracestate    string
	CreatedAt     time.Time
}

func (r *Repository) FetchUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]Record, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, event_id, aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate, created_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rcd Record
		if err := rows.Scan(&rcd.ID, &rcd.EventID, &rcd.AggregateType, &rcd.AggregateID, &rcd.EventType,
			&rcd.Payload, &rcd.Traceparent, &rcd.Tracestate, &rcd.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rcd)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

func (r *Repository) MarkPublished(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE outbox_events
		SET published_at = now()
		WHERE id = ANY($1)
	`, ids)
	return err
}
