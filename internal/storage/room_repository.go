package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/roombook/internal/hours"
	"github.com/example/roombook/internal/model"
	"github.com/example/roombook/internal/timeslot"
	"github.com/example/roombook/libs/db"
)

type RoomRepository struct {
	pool *db.Pool
}

func NewRoomRepository(pool *db.Pool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

func (r *RoomRepository) CreateSite(ctx context.Context, s model.Site) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sites (id, name, timezone)
		VALUES ($1, $2, $3)
	`, s.ID, s.Name, s.Timezone)
	return err
}

// GetSite returns a site. Site timezones are write-once: no update path
// exists, because reinterpreting stored UTC instants under a new zone would
// corrupt every historical booking.
func (r *RoomRepository) GetSite(ctx context.Context, id string) (model.Site, error) {
	var s model.Site
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, timezone FROM sites WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Timezone)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Site{}, ErrNotFound
	}
	return s, err
}

func (r *RoomRepository) CreateRoom(ctx context.Context, room model.Room) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO rooms (id, site_id, name, capacity)
		VALUES ($1, $2, $3, $4)
	`, room.ID, room.SiteID, room.Name, room.Capacity)
	if err != nil {
		return err
	}
	if err := upsertHours(ctx, tx, room.ID, room.Hours); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateOpeningHours replaces a room's weekly hours. Callers run the
// hours-change resolver first; this write is deliberately separate from the
// resolver's per-booking mutations.
func (r *RoomRepository) UpdateOpeningHours(ctx context.Context, roomID string, sched hours.Schedule) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM room_opening_hours WHERE room_id = $1`, roomID); err != nil {
		return err
	}
	if err := upsertHours(ctx, tx, roomID, sched); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func upsertHours(ctx context.Context, tx pgx.Tx, roomID string, sched hours.Schedule) error {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		win, ok := sched.Window(wd)
		if !ok {
			continue
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO room_opening_hours (room_id, weekday, open_minute, close_minute)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (room_id, weekday) DO UPDATE
			SET open_minute = EXCLUDED.open_minute, close_minute = EXCLUDED.close_minute
		`, roomID, int(wd), int(win.Open), int(win.Close)); err != nil {
			return err
		}
	}
	return nil
}

func (r *RoomRepository) GetRoom(ctx context.Context, id string) (model.Room, error) {
	var room model.Room
	err := r.pool.QueryRow(ctx, `
		SELECT id, site_id, name, capacity FROM rooms WHERE id = $1
	`, id).Scan(&room.ID, &room.SiteID, &room.Name, &room.Capacity)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Room{}, ErrNotFound
	}
	if err != nil {
		return model.Room{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT weekday, open_minute, close_minute
		FROM room_opening_hours
		WHERE room_id = $1
		ORDER BY weekday
	`, id)
	if err != nil {
		return model.Room{}, err
	}
	defer rows.Close()

	windows := make(map[time.Weekday]hours.Window)
	for rows.Next() {
		var wd, open, cls int
		if err := rows.Scan(&wd, &open, &cls); err != nil {
			return model.Room{}, err
		}
		windows[time.Weekday(wd)] = hours.Window{Open: timeslot.Clock(open), Close: timeslot.Clock(cls)}
	}
	if rows.Err() != nil {
		return model.Room{}, rows.Err()
	}

	sched, err := hours.New(windows)
	if err != nil {
		return model.Room{}, err
	}
	room.Hours = sched
	return room, nil
}

func (r *RoomRepository) ListRooms(ctx context.Context, siteID string) ([]model.Room, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, site_id, name, capacity FROM rooms WHERE site_id = $1 ORDER BY name
	`, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Room
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(&room.ID, &room.SiteID, &room.Name, &room.Capacity); err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}
