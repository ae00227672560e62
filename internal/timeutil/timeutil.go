package timeutil

import (
	"regexp"
	"strconv"
	"time"
)

var hhmmRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParseHHMM parses a "HH:MM" string into minutes since midnight.
// Returns (0, false) on malformed or out-of-range input.
func ParseHHMM(s string) (int, bool) {
	m := hhmmRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	if h < 0 || h > 23 || min < 0 || min > 59 {
		return 0, false
	}
	return h*60 + min, true
}

// LocalMinutes returns the minutes-since-midnight of t in the given IANA
// timezone. Unknown timezones fall back to UTC.
func LocalMinutes(t time.Time, timezone string) int {
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		loc = time.UTC
	}
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}

// InWindow reports whether nowMin falls inside [startMin, endMin).
// start == end means the window is disabled. Windows where start > end wrap
// around midnight (e.g. 22:00 -> 08:00). The end is exclusive.
func InWindow(nowMin, startMin, endMin int) bool {
	if startMin == endMin {
		return false
	}
	if startMin < endMin {
		return nowMin >= startMin && nowMin < endMin
	}
	return nowMin >= startMin || nowMin < endMin
}

// StartOfUTCDay truncates t to 00:00:00 UTC.
func StartOfUTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// YMD formats t as YYYY-MM-DD in UTC.
func YMD(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ParseYMD parses a strict YYYY-MM-DD string as midnight UTC.
func ParseYMD(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	// reject inputs that normalize to a different day (e.g. 2024-02-31)
	if t.Format("2006-01-02") != s {
		return time.Time{}, false
	}
	return t, true
}
