package notify

import (
	"strings"
	"testing"
	"time"

	"trilog/internal/auth"
	"trilog/internal/revision"
)

var defaults = DNDDefaults{Start: "22:00", End: "08:00"}

func activeUser() auth.User {
	return auth.User{
		Status:   auth.StatusActive,
		Timezone: "UTC",
		Preferences: auth.Preferences{
			EmailOptIn: true,
		},
	}
}

func utc(hour, minute int) time.Time {
	return time.Date(2024, 3, 4, hour, minute, 0, 0, time.UTC)
}

func TestEligibilityHappyPath(t *testing.T) {
	if got := Eligibility(activeUser(), utc(12, 0), 0, 10, defaults); got != SkipNone {
		t.Errorf("got %q, want eligible", got)
	}
}

func TestEligibilityInactiveUser(t *testing.T) {
	u := activeUser()
	u.Status = auth.StatusDisabled
	if got := Eligibility(u, utc(12, 0), 0, 10, defaults); got != SkipInactive {
		t.Errorf("got %q, want %q", got, SkipInactive)
	}
}

func TestEligibilityOptOut(t *testing.T) {
	u := activeUser()
	u.Preferences.EmailOptIn = false
	if got := Eligibility(u, utc(12, 0), 0, 10, defaults); got != SkipOptOut {
		t.Errorf("got %q, want %q", got, SkipOptOut)
	}
}

func TestEligibilityDailyCap(t *testing.T) {
	if got := Eligibility(activeUser(), utc(12, 0), 10, 10, defaults); got != SkipDailyCap {
		t.Errorf("at cap: got %q, want %q", got, SkipDailyCap)
	}
	if got := Eligibility(activeUser(), utc(12, 0), 9, 10, defaults); got != SkipNone {
		t.Errorf("under cap: got %q, want eligible", got)
	}
}

func TestEligibilityDNDWraparound(t *testing.T) {
	u := activeUser()
	u.Preferences.DNDEnabled = true
	u.Preferences.DNDStart = "22:00"
	u.Preferences.DNDEnd = "08:00"

	if got := Eligibility(u, utc(23, 30), 0, 10, defaults); got != SkipDND {
		t.Errorf("23:30 inside wraparound window: got %q", got)
	}
	// end is exclusive
	if got := Eligibility(u, utc(8, 0), 0, 10, defaults); got != SkipNone {
		t.Errorf("08:00 exactly should be outside DND: got %q", got)
	}
	if got := Eligibility(u, utc(12, 0), 0, 10, defaults); got != SkipNone {
		t.Errorf("midday should be outside DND: got %q", got)
	}
}

func TestEligibilityDNDDefaultsApply(t *testing.T) {
	u := activeUser()
	u.Preferences.DNDEnabled = true // no explicit times set

	if got := Eligibility(u, utc(23, 0), 0, 10, defaults); got != SkipDND {
		t.Errorf("default 22:00-08:00 window should apply: got %q", got)
	}
}

func TestEligibilityDNDStartEqualsEnd(t *testing.T) {
	u := activeUser()
	u.Preferences.DNDEnabled = true
	u.Preferences.DNDStart = "09:00"
	u.Preferences.DNDEnd = "09:00"

	if got := Eligibility(u, utc(9, 0), 0, 10, defaults); got != SkipNone {
		t.Errorf("start==end disables DND: got %q", got)
	}
}

func TestEligibilityDNDMalformedFailsOpen(t *testing.T) {
	u := activeUser()
	u.Preferences.DNDEnabled = true
	u.Preferences.DNDStart = "late"
	u.Preferences.DNDEnd = "early"

	if got := Eligibility(u, utc(23, 0), 0, 10, DNDDefaults{}); got != SkipNone {
		t.Errorf("malformed DND times must not block mail: got %q", got)
	}
}

func TestEligibilityDNDTimezone(t *testing.T) {
	u := activeUser()
	u.Timezone = "America/New_York"
	u.Preferences.DNDEnabled = true
	u.Preferences.DNDStart = "22:00"
	u.Preferences.DNDEnd = "08:00"

	// 03:00 UTC on 2024-03-04 is 22:00 EST the previous evening
	if got := Eligibility(u, utc(3, 0), 0, 10, defaults); got != SkipDND {
		t.Errorf("03:00 UTC should be inside EST DND window: got %q", got)
	}
}

func TestWeeklyShouldFire(t *testing.T) {
	p := &WeeklyPoller{SendTime: "09:00"}

	sunday := time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC)
	if !p.shouldFire(sunday) {
		t.Error("Sunday 09:00 should fire")
	}
	if p.shouldFire(sunday.Add(-time.Hour)) {
		t.Error("Sunday 08:00 should not fire yet")
	}
	monday := sunday.AddDate(0, 0, 1)
	if p.shouldFire(monday) {
		t.Error("Monday must never fire")
	}

	p.lastRunDay = "2024-03-03"
	if p.shouldFire(sunday.Add(2 * time.Hour)) {
		t.Error("daily latch must prevent a second run")
	}
}

func TestBuildRevisionEmail(t *testing.T) {
	sched := revision.Schedule{
		OffsetDays:   3,
		OriginalText: "binary search <edge cases>",
		ScheduledAt:  time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC),
	}
	msg := BuildRevisionEmail("Ana", sched, "http://localhost:3000/")

	if msg.Subject != "TriLog Revision Due (Day 3)" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Text, "Hi Ana,") || !strings.Contains(msg.Text, "2024-03-04") {
		t.Errorf("text missing fields: %s", msg.Text)
	}
	if !strings.Contains(msg.Text, "http://localhost:3000/revisions") {
		t.Errorf("link not normalized: %s", msg.Text)
	}
	if !strings.Contains(msg.HTML, "&lt;edge cases&gt;") {
		t.Errorf("prompt not escaped in html: %s", msg.HTML)
	}
}

func TestBuildRevisionEmailTruncatesPrompt(t *testing.T) {
	sched := revision.Schedule{
		OffsetDays:   1,
		OriginalText: strings.Repeat("x", 500),
		ScheduledAt:  time.Now(),
	}
	msg := BuildRevisionEmail("", sched, "http://localhost:3000")
	if !strings.Contains(msg.Text, strings.Repeat("x", 140)+"…") {
		t.Error("expected 140-char truncated prompt with ellipsis")
	}
	if strings.Contains(msg.Text, strings.Repeat("x", 141)) {
		t.Error("prompt not truncated")
	}
	if !strings.Contains(msg.Text, "Hi there,") {
		t.Error("missing fallback greeting")
	}
}
