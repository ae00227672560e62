package timeutil

import (
	"testing"
	"time"
)

func TestParseHHMM(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"00:00", 0, true},
		{"9:30", 570, true},
		{"22:00", 1320, true},
		{"23:59", 1439, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"noon", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseHHMM(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ParseHHMM(%q) = (%d, %v), want (%d, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestInWindowWraparound(t *testing.T) {
	start, _ := ParseHHMM("22:00")
	end, _ := ParseHHMM("08:00")

	cases := []struct {
		now  string
		want bool
	}{
		{"23:30", true},
		{"03:00", true},
		{"08:00", false}, // end exclusive
		{"07:59", true},
		{"22:00", true}, // start inclusive
		{"12:00", false},
	}
	for _, c := range cases {
		now, _ := ParseHHMM(c.now)
		if got := InWindow(now, start, end); got != c.want {
			t.Errorf("InWindow(%s, 22:00, 08:00) = %v, want %v", c.now, got, c.want)
		}
	}
}

func TestInWindowDaytime(t *testing.T) {
	start, _ := ParseHHMM("09:00")
	end, _ := ParseHHMM("17:00")

	if !InWindow(600, start, end) {
		t.Error("10:00 should be inside 09:00-17:00")
	}
	if InWindow(1020, start, end) {
		t.Error("17:00 should be outside 09:00-17:00 (end exclusive)")
	}
	if InWindow(480, start, end) {
		t.Error("08:00 should be outside 09:00-17:00")
	}
}

func TestInWindowStartEqualsEnd(t *testing.T) {
	for nowMin := 0; nowMin < 1440; nowMin += 123 {
		if InWindow(nowMin, 600, 600) {
			t.Fatalf("start==end must disable the window, got true at %d", nowMin)
		}
	}
}

func TestLocalMinutes(t *testing.T) {
	// 2024-06-15 12:00 UTC is 08:00 in New York (EDT).
	at := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	if got := LocalMinutes(at, "America/New_York"); got != 480 {
		t.Errorf("LocalMinutes NY = %d, want 480", got)
	}
	if got := LocalMinutes(at, "UTC"); got != 720 {
		t.Errorf("LocalMinutes UTC = %d, want 720", got)
	}
	// unknown timezone falls back to UTC
	if got := LocalMinutes(at, "Not/AZone"); got != 720 {
		t.Errorf("LocalMinutes fallback = %d, want 720", got)
	}
}

func TestParseYMD(t *testing.T) {
	if _, ok := ParseYMD("2024-01-10"); !ok {
		t.Error("valid date rejected")
	}
	if _, ok := ParseYMD("2024-02-31"); ok {
		t.Error("overflowing date accepted")
	}
	if _, ok := ParseYMD("2024-1-10"); ok {
		t.Error("loose format accepted")
	}
}
