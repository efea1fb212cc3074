// Package audit records who did what to which entity. Write paths attach an
// Entry to their transaction so the audit trail commits or rolls back with
// the change it describes.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/roombook/libs/db"
)

// Entry is one audit record to be written alongside a mutation.
type Entry struct {
	ActorID    string
	Action     string // e.g. "booking.create", "booking.truncate"
	EntityType string
	EntityID   string
	Metadata   map[string]any
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertTx writes an entry inside the caller's transaction.
func InsertTx(ctx context.Context, tx pgx.Tx, e Entry) error {
	raw, err := json.Marshal(e.Metadata)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO audit_events (actor_id, action, entity_type, entity_id, metadata)
		VALUES (NULLIF($1, ''), $2, $3, $4, $5)
	`, e.ActorID, e.Action, e.EntityType, e.EntityID, raw)
	return err
}

// Event is a stored audit record.
type Event struct {
	ID         int64           `json:"id"`
	ActorID    string          `json:"actor_id,omitempty"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Metadata   json.RawMessage `json:"metadata"`
	CreatedAt  string          `json:"created_at"`
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, COALESCE(actor_id, ''), action, entity_type, entity_id, metadata, created_at
		FROM audit_events
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var createdAt time.Time
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &e.Metadata, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		events = append(events, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}
