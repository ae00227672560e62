package rag

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrBadMonth rejects period keys not in YYYY-MM form.
var ErrBadMonth = errors.New("month must be in YYYY-MM format")

var monthRe = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// maxMonthSpan is the hard ceiling on range retrieval: at most 24 calendar
// months are scanned regardless of the requested date range.
const maxMonthSpan = 24

// MonthRange resolves a YYYY-MM key to its first and last day.
func MonthRange(month string) (startDate, endDate string, err error) {
	m := monthRe.FindStringSubmatch(month)
	if m == nil {
		return "", "", ErrBadMonth
	}
	t, perr := time.Parse("2006-01", month)
	if perr != nil {
		return "", "", ErrBadMonth
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start.Format("2006-01-02"), end.Format("2006-01-02"), nil
}

// MonthsBetween lists the YYYY-MM keys spanning two YYYY-MM-DD dates,
// inclusive, capped at maxMonthSpan.
func MonthsBetween(startDate, endDate string) []string {
	if len(startDate) < 7 || len(endDate) < 7 {
		return nil
	}
	start, err1 := time.Parse("2006-01", startDate[:7])
	end, err2 := time.Parse("2006-01", endDate[:7])
	if err1 != nil || err2 != nil {
		return nil
	}

	var out []string
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 1, 0) {
		out = append(out, fmt.Sprintf("%04d-%02d", cur.Year(), int(cur.Month())))
		if len(out) > maxMonthSpan {
			break
		}
	}
	return out
}
