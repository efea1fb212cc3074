package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/example/roombook/internal/availability"
)

func testCache(t *testing.T) *SlotIndexCache {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSlotIndexCache(rdb, time.Minute)
}

func TestSlotIndexCache_RoundTrip(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	start := time.Date(2025, 9, 24, 23, 0, 0, 0, time.UTC)
	idx := availability.SlotIndex{}
	idx.Add(start, availability.BookingRef{OwnedByViewer: true})
	idx.Add(start.Add(30*time.Minute), availability.BookingRef{AttendedByViewer: true})

	if err := c.Set(ctx, "room-1", "user-1", "2025-09-24", idx); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, hit, err := c.Get(ctx, "room-1", "user-1", "2025-09-24")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !hit {
		t.Fatalf("expected a cache hit")
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	ref, ok := got.Lookup(start)
	if !ok || !ref.OwnedByViewer || ref.AttendedByViewer {
		t.Fatalf("unexpected ref for first slot: %+v ok=%v", ref, ok)
	}
}

func TestSlotIndexCache_Miss(t *testing.T) {
	c := testCache(t)
	_, hit, err := c.Get(context.Background(), "room-1", "user-1", "2025-09-24")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if hit {
		t.Fatalf("expected a miss")
	}
}

func TestSlotIndexCache_Invalidate(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	idx := availability.SlotIndex{}
	idx.Add(time.Date(2025, 9, 24, 23, 0, 0, 0, time.UTC), availability.BookingRef{})
	for _, date := range []string{"2025-09-24", "2025-09-25"} {
		if err := c.Set(ctx, "room-1", "user-1", date, idx); err != nil {
			t.Fatalf("set %s: %v", date, err)
		}
	}
	if err := c.Set(ctx, "room-2", "user-1", "2025-09-24", idx); err != nil {
		t.Fatalf("set room-2: %v", err)
	}

	if err := c.Invalidate(ctx, "room-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	if _, hit, _ := c.Get(ctx, "room-1", "user-1", "2025-09-24"); hit {
		t.Fatalf("room-1 entries should be gone")
	}
	if _, hit, _ := c.Get(ctx, "room-1", "user-1", "2025-09-25"); hit {
		t.Fatalf("room-1 entries should be gone for all dates")
	}
	if _, hit, _ := c.Get(ctx, "room-2", "user-1", "2025-09-24"); !hit {
		t.Fatalf("room-2 must be untouched")
	}
}
