// Package cache keeps per-room, per-day booked-slot indexes in Redis so the
// availability read path does not hit Postgres on every projection. Entries
// are short-lived; a miss just means the caller rebuilds from storage. The
// storage layer does not know about this cache, so the caller composing the
// two is responsible for invalidating after booking writes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/roombook/internal/availability"
)

const DefaultTTL = 2 * time.Minute

type SlotIndexCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSlotIndexCache(rdb *redis.Client, ttl time.Duration) *SlotIndexCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SlotIndexCache{rdb: rdb, ttl: ttl}
}

func key(roomID, viewerID, date string) string {
	return fmt.Sprintf("slotidx:%s:%s:%s", roomID, viewerID, date)
}

type wireRef struct {
	Owned    bool `json:"owned"`
	Attended bool `json:"attended"`
}

// Get returns the cached index for one room, viewer and local date
// ("YYYY-MM-DD"). The second return is false on a miss.
func (c *SlotIndexCache) Get(ctx context.Context, roomID, viewerID, date string) (availability.SlotIndex, bool, error) {
	raw, err := c.rdb.Get(ctx, key(roomID, viewerID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var wire map[string]wireRef
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, false, err
	}
	idx := availability.SlotIndex{}
	for k, v := range wire {
		start, err := time.Parse(time.RFC3339, k)
		if err != nil {
			return nil, false, err
		}
		idx.Add(start, availability.BookingRef{OwnedByViewer: v.Owned, AttendedByViewer: v.Attended})
	}
	return idx, true, nil
}

func (c *SlotIndexCache) Set(ctx context.Context, roomID, viewerID, date string, idx availability.SlotIndex) error {
	wire := make(map[string]wireRef, len(idx))
	for start, ref := range idx {
		wire[start.UTC().Format(time.RFC3339)] = wireRef{Owned: ref.OwnedByViewer, Attended: ref.AttendedByViewer}
	}
	raw, err := json.Marshal(wire)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key(roomID, viewerID, date), raw, c.ttl).Err()
}

// Invalidate drops every cached index for the room, across viewers and
// dates. Callers that write bookings through storage must call this
// afterwards; the short TTL only bounds how stale a missed invalidation
// can get.
func (c *SlotIndexCache) Invalidate(ctx context.Context, roomID string) error {
	var cursor uint64
	pattern := fmt.Sprintf("slotidx:%s:*", roomID)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
