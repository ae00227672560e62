package notify

import (
	"time"

	"trilog/internal/auth"
	"trilog/internal/timeutil"
)

// SkipReason explains why a record was not notified. Empty means eligible.
type SkipReason string

const (
	SkipNone     SkipReason = ""
	SkipInactive SkipReason = "user_inactive"
	SkipOptOut   SkipReason = "email_opt_out"
	SkipDND      SkipReason = "dnd_window"
	SkipDailyCap SkipReason = "daily_cap"
	SkipMail     SkipReason = "mail_skipped"
)

// DNDDefaults carries the fallback quiet-hours window applied when a user
// enabled DND without setting explicit times.
type DNDDefaults struct {
	Start string
	End   string
}

// Eligibility decides whether a user may receive an email right now. The
// decision is pure so it can be tested without a clock or database; sentToday
// is the number of notifications already delivered this UTC day.
func Eligibility(u auth.User, now time.Time, sentToday, maxPerDay int, dnd DNDDefaults) SkipReason {
	if u.Status != auth.StatusActive {
		return SkipInactive
	}
	if !u.Preferences.EmailOptIn {
		return SkipOptOut
	}
	if inDND(u, now, dnd) {
		return SkipDND
	}
	if maxPerDay > 0 && sentToday >= maxPerDay {
		return SkipDailyCap
	}
	return SkipNone
}

// inDND evaluates the quiet-hours window in the user's timezone. Malformed
// times fail open: no DND rather than suppressed mail forever.
func inDND(u auth.User, now time.Time, dnd DNDDefaults) bool {
	if !u.Preferences.DNDEnabled {
		return false
	}

	startRaw := u.Preferences.DNDStart
	if startRaw == "" {
		startRaw = dnd.Start
	}
	endRaw := u.Preferences.DNDEnd
	if endRaw == "" {
		endRaw = dnd.End
	}

	start, okS := timeutil.ParseHHMM(startRaw)
	end, okE := timeutil.ParseHHMM(endRaw)
	if !okS || !okE {
		return false
	}

	local := timeutil.LocalMinutes(now, u.Timezone)
	return timeutil.InWindow(local, start, end)
}
