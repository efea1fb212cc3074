package timeslot

import (
	"testing"
	"time"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestLoadLocation_Unknown(t *testing.T) {
	if _, err := LoadLocation("Mars/Olympus_Mons"); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := LoadLocation(""); !IsValidation(err) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
}

func TestLocalToUTC_RoundTrip(t *testing.T) {
	loc := mustLocation(t, "America/New_York")
	utc := time.Date(2025, 9, 24, 23, 0, 0, 0, time.UTC)

	local := UTCToLocal(utc, loc)
	if local.Hour() != 19 {
		t.Fatalf("expected 19:00 local, got %s", local.Format("15:04"))
	}
	back := LocalToUTC(local, loc)
	if !back.Equal(utc) {
		t.Fatalf("round trip mismatch: %s != %s", back, utc)
	}
}

func TestParseLocalDateTime(t *testing.T) {
	loc := mustLocation(t, "America/New_York")
	got, err := ParseLocalDateTime("2025-09-24 19:00", loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2025, 9, 24, 23, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}

	if _, err := ParseLocalDateTime("24/09/2025 19:00", loc); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSnap(t *testing.T) {
	base := time.Date(2025, 9, 24, 19, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   time.Time
		mode SnapMode
		want time.Time
	}{
		{"floor mid-slot", base.Add(17 * time.Minute), SnapFloor, base},
		{"floor aligned", base, SnapFloor, base},
		{"ceil mid-slot", base.Add(17 * time.Minute), SnapCeil, base.Add(30 * time.Minute)},
		{"ceil aligned", base, SnapCeil, base},
		{"round down", base.Add(14 * time.Minute), SnapRound, base},
		{"round up", base.Add(16 * time.Minute), SnapRound, base.Add(30 * time.Minute)},
		{"round tie goes to floor", base.Add(15 * time.Minute), SnapRound, base},
	}
	for _, tc := range cases {
		if got := Snap(tc.in, tc.mode); !got.Equal(tc.want) {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestSnap_FloorIdempotent(t *testing.T) {
	in := time.Date(2025, 9, 24, 19, 17, 42, 0, time.UTC)
	once := Snap(in, SnapFloor)
	twice := Snap(once, SnapFloor)
	if !once.Equal(twice) {
		t.Fatalf("floor not idempotent: %s != %s", once, twice)
	}
}

func TestEnumerate(t *testing.T) {
	start := time.Date(2025, 9, 24, 19, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	slots := Enumerate(start, end)
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(slots))
	}
	if !slots[0].Equal(start) {
		t.Fatalf("expected first slot %s, got %s", start, slots[0])
	}
	for i := 1; i < len(slots); i++ {
		if slots[i].Sub(slots[i-1]) != SlotDuration {
			t.Fatalf("slots %d and %d are %s apart", i-1, i, slots[i].Sub(slots[i-1]))
		}
	}

	if got := Enumerate(end, start); got != nil {
		t.Fatalf("expected nil for inverted range, got %d slots", len(got))
	}
	if got := Enumerate(start, start); got != nil {
		t.Fatalf("expected nil for empty range, got %d slots", len(got))
	}
}

func TestEnumerate_UnalignedStart(t *testing.T) {
	start := time.Date(2025, 9, 24, 19, 10, 0, 0, time.UTC)
	slots := Enumerate(start, start.Add(30*time.Minute))
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !slots[0].Equal(Snap(start, SnapFloor)) {
		t.Fatalf("expected first slot %s, got %s", Snap(start, SnapFloor), slots[0])
	}
}

func TestWeekdayIn_CrossesUTCDayBoundary(t *testing.T) {
	loc := mustLocation(t, "America/New_York")
	// 03:00 UTC Wednesday is 23:00 Tuesday in New York.
	utc := time.Date(2025, 9, 24, 3, 0, 0, 0, time.UTC)
	if utc.Weekday() != time.Wednesday {
		t.Fatalf("precondition: expected Wednesday UTC, got %s", utc.Weekday())
	}
	if got := WeekdayIn(utc, loc); got != time.Tuesday {
		t.Fatalf("expected Tuesday local, got %s", got)
	}
}

func TestStartOfDayIn(t *testing.T) {
	loc := mustLocation(t, "America/New_York")
	utc := time.Date(2025, 9, 24, 3, 0, 0, 0, time.UTC) // 23:00 Tue local
	got := StartOfDayIn(utc, loc)
	want := time.Date(2025, 9, 23, 4, 0, 0, 0, time.UTC) // 00:00 Tue local, EDT is UTC-4
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if next := StartOfNextDayIn(utc, loc); !next.Equal(want.Add(24 * time.Hour)) {
		t.Fatalf("expected %s, got %s", want.Add(24*time.Hour), next)
	}
}

func TestCombineDateAndClock(t *testing.T) {
	loc := mustLocation(t, "America/New_York")
	ref := time.Date(2025, 9, 24, 23, 30, 0, 0, time.UTC) // 19:30 Wed local

	c, err := ParseClock("08:00")
	if err != nil {
		t.Fatalf("parse clock: %v", err)
	}
	got := CombineDateAndClock(ref, c, loc)
	want := time.Date(2025, 9, 24, 12, 0, 0, 0, time.UTC) // 08:00 Wed local
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestParseClock(t *testing.T) {
	valid := map[string]Clock{
		"00:00": 0,
		"08:30": 510,
		"23:59": 1439,
	}
	for in, want := range valid {
		got, err := ParseClock(in)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", in, err)
		}
		if got != want {
			t.Fatalf("%s: expected %d, got %d", in, want, got)
		}
		if got.String() != in {
			t.Fatalf("%s: String() returned %s", in, got.String())
		}
	}

	for _, in := range []string{"", "8:00", "24:00", "12:60", "noon", "12-30", "12:3a"} {
		if _, err := ParseClock(in); !IsValidation(err) {
			t.Fatalf("%q: expected validation error, got %v", in, err)
		}
	}
}
