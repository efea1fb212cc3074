package storage

import (
	"context"

	"github.com/example/roombook/libs/db"
)

// EnsureSchema creates the tables the repositories depend on. The UNIQUE
// constraint on booking_slots (room_id, slot_start_utc) is the exclusivity
// guarantee the booking engine's atomic reservation relies on.
func EnsureSchema(ctx context.Context, pool *db.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sites (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			timezone TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			site_id TEXT NOT NULL REFERENCES sites(id),
			name TEXT NOT NULL,
			capacity INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS room_opening_hours (
			room_id TEXT NOT NULL REFERENCES rooms(id),
			weekday INT NOT NULL,
			open_minute INT NOT NULL,
			close_minute INT NOT NULL,
			PRIMARY KEY (room_id, weekday)
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL REFERENCES rooms(id),
			owner_id TEXT NOT NULL,
			start_utc TIMESTAMPTZ NOT NULL,
			end_utc TIMESTAMPTZ NOT NULL,
			canceled_at TIMESTAMPTZ,
			note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS booking_slots (
			room_id TEXT NOT NULL REFERENCES rooms(id),
			slot_start_utc TIMESTAMPTZ NOT NULL,
			booking_id TEXT NOT NULL REFERENCES bookings(id),
			CONSTRAINT booking_slots_room_slot_key UNIQUE (room_id, slot_start_utc)
		)`,
		`CREATE INDEX IF NOT EXISTS booking_slots_booking_idx ON booking_slots (booking_id)`,
		`CREATE TABLE IF NOT EXISTS booking_attendees (
			booking_id TEXT NOT NULL REFERENCES bookings(id),
			user_id TEXT NOT NULL,
			PRIMARY KEY (booking_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_events (
			id BIGSERIAL PRIMARY KEY,
			actor_id TEXT,
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
			id BIGSERIAL PRIMARY KEY,
			event_id UUID NOT NULL DEFAULT gen_random_uuid(),
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload JSONB NOT NULL,
			traceparent TEXT NOT NULL DEFAULT '',
			tracestate TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			published_at TIMESTAMPTZ
		)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
