package summary

import (
	"fmt"
	"math"
	"strings"

	"trilog/internal/signal"
)

// CompletionRate is completed/scheduled, 0 when nothing was scheduled.
func CompletionRate(completed, scheduled int) float64 {
	if scheduled <= 0 {
		return 0
	}
	return float64(completed) / float64(scheduled)
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 10 {
		return 10
	}
	return s
}

// monthlyEvaluation drafts the threshold-based observations and the 0-10
// month score.
func monthlyEvaluation(stats Stats, sig signal.Signals) Evaluation {
	var ev Evaluation
	rate := stats.RevisionsCompletionRate

	switch {
	case stats.EntryDays >= 20:
		ev.WhatWorked = append(ev.WhatWorked, "Consistent daily entries built momentum and made progress visible.")
	case stats.EntryDays >= 10:
		ev.WhatWorked = append(ev.WhatWorked, "You maintained a steady cadence; keep reducing gaps between entry days.")
	default:
		ev.WhatToImprove = append(ev.WhatToImprove, "Increase consistency: aim for smaller daily notes rather than skipping days.")
	}

	if stats.ReviseItemsCreated > 0 {
		ev.WhatWorked = append(ev.WhatWorked, "You captured revision items, which is key for spaced repetition.")
	} else {
		ev.WhatToImprove = append(ev.WhatToImprove, "Add at least 1 \"revise later\" item when you learn something non-trivial.")
	}

	switch {
	case rate >= 0.7:
		ev.WhatWorked = append(ev.WhatWorked, "Revision follow-through was strong; spaced repetition is working.")
	case rate >= 0.4:
		ev.WhatToImprove = append(ev.WhatToImprove, "Try to complete more scheduled revisions; this is where retention improves.")
	case stats.RevisionsScheduled > 0:
		ev.WhatToImprove = append(ev.WhatToImprove, "Revisions are being scheduled but rarely completed; reduce scope or set a fixed daily time.")
	}

	if stats.QuestionsAnswered >= 15 {
		ev.WhatWorked = append(ev.WhatWorked, "Daily reflection questions were answered frequently, supporting metacognition.")
	}

	if focus := topFocus(sig, 3, 2, 0); len(focus) > 0 {
		ev.NextFocus = append(ev.NextFocus, fmt.Sprintf("Focus on: %s.", strings.Join(focus, ", ")))
	}

	score := min(5, stats.EntryDays/6)
	score += min(3, int(math.Round(rate*3)))
	score += min(2, stats.QuestionsAnswered/10)
	ev.Score = clampScore(score)
	return ev
}

// weeklyEvaluation is the 7-day analogue with its own thresholds and score.
func weeklyEvaluation(stats Stats, sig signal.Signals) Evaluation {
	var ev Evaluation
	rate := stats.RevisionsCompletionRate

	switch {
	case stats.EntryDays >= 6:
		ev.WhatWorked = append(ev.WhatWorked, "Excellent consistency this week, keep the streak mindset.")
	case stats.EntryDays >= 4:
		ev.WhatWorked = append(ev.WhatWorked, "Good cadence, try to avoid 2+ day gaps.")
	default:
		ev.WhatToImprove = append(ev.WhatToImprove, "Increase consistency: aim for 5-7 days of short entries next week.")
	}

	if stats.ReviseItemsCreated > 0 {
		ev.WhatWorked = append(ev.WhatWorked, "You captured revise-later items, which makes review sessions effective.")
	} else {
		ev.WhatToImprove = append(ev.WhatToImprove, "Add at least 1 revise-later item on days you learn something non-trivial.")
	}

	if stats.RevisionsScheduled > 0 {
		if rate >= 0.6 {
			ev.WhatWorked = append(ev.WhatWorked, "Revision follow-through was strong.")
		} else {
			ev.WhatToImprove = append(ev.WhatToImprove, "Complete more scheduled revisions; set a fixed 15-20 min daily slot.")
		}
	}

	if focus := topFocus(sig, 4, 3, 4); len(focus) > 0 {
		ev.NextFocus = append(ev.NextFocus, fmt.Sprintf("Focus on: %s.", strings.Join(focus, ", ")))
	}

	score := min(6, int(math.Round(float64(stats.EntryDays)/7*6)))
	score += min(3, int(math.Round(rate*3)))
	score += min(1, stats.QuestionsAnswered/5)
	ev.Score = clampScore(score)
	return ev
}

func topFocus(sig signal.Signals, nAlgo, nSubj, nTopic int) []string {
	var out []string
	out = append(out, firstN(sig.Algorithms, nAlgo)...)
	out = append(out, firstN(sig.Subjects, nSubj)...)
	out = append(out, firstN(sig.Topics, nTopic)...)
	return out
}

func firstN(in []string, n int) []string {
	if n <= 0 || len(in) == 0 {
		return nil
	}
	if len(in) < n {
		n = len(in)
	}
	return in[:n]
}

// monthlyRecommendations scores the catalog against the signals and keeps the
// top 5 positive matches, noting when the user already uses the platform.
func monthlyRecommendations(sig signal.Signals) []Recommendation {
	scored := signal.ScoreResources(signal.DefaultResources, sig)

	platforms := map[string]bool{}
	for _, p := range sig.Platforms {
		platforms[p] = true
	}

	var out []Recommendation
	for _, r := range scored {
		if r.Score <= 0 || len(out) >= 5 {
			break
		}
		var bits []string
		if platforms[r.Title] {
			bits = append(bits, "You already used this platform recently.")
		}
		if r.ReasonTemplate != "" {
			bits = append(bits, r.ReasonTemplate)
		}
		out = append(out, Recommendation{
			Title:  r.Title,
			URL:    r.URL,
			Tags:   r.Tags,
			Score:  float64(r.Score),
			Reason: strings.Join(bits, " "),
		})
	}
	return out
}

// weeklyRecommendations keeps the top 6 positive matches with the plain
// catalog rationale.
func weeklyRecommendations(sig signal.Signals) []Recommendation {
	scored := signal.ScoreResources(signal.DefaultResources, sig)

	var out []Recommendation
	for _, r := range scored {
		if r.Score <= 0 || len(out) >= 6 {
			break
		}
		reason := r.ReasonTemplate
		if reason == "" {
			reason = "Matches your recent focus areas."
		}
		out = append(out, Recommendation{
			Title:  r.Title,
			URL:    r.URL,
			Tags:   r.Tags,
			Score:  float64(r.Score),
			Reason: reason,
		})
	}
	return out
}

func monthlyNarrative(month string, stats Stats, sig signal.Signals, ev Evaluation) string {
	focus := topFocus(sig, 4, 3, 4)

	lines := []string{
		fmt.Sprintf("Monthly review for %s.", month),
		fmt.Sprintf("You logged %d day(s) of entries and answered %d daily question(s).", stats.EntryDays, stats.QuestionsAnswered),
		fmt.Sprintf("You created %d revise-later item(s) and completed %d/%d scheduled revision(s).",
			stats.ReviseItemsCreated, stats.RevisionsCompleted, stats.RevisionsScheduled),
	}
	if len(focus) > 0 {
		lines = append(lines, fmt.Sprintf("Main themes: %s.", strings.Join(focus, ", ")))
	}
	if len(ev.WhatWorked) > 0 {
		lines = append(lines, "What worked: "+ev.WhatWorked[0])
	}
	if len(ev.WhatToImprove) > 0 {
		lines = append(lines, "Next improvement: "+ev.WhatToImprove[0])
	}
	return strings.Join(lines, " ")
}

func weeklyNarrative(startDate, endDate string, stats Stats, ev Evaluation) string {
	lines := []string{
		fmt.Sprintf("Weekly review for %s to %s.", startDate, endDate),
		fmt.Sprintf("You logged %d entry day(s) and answered %d daily question(s).", stats.EntryDays, stats.QuestionsAnswered),
		fmt.Sprintf("You created %d revise-later item(s) and completed %d/%d scheduled revision(s).",
			stats.ReviseItemsCreated, stats.RevisionsCompleted, stats.RevisionsScheduled),
	}
	if len(ev.WhatWorked) > 0 {
		lines = append(lines, "What worked: "+ev.WhatWorked[0])
	}
	if len(ev.WhatToImprove) > 0 {
		lines = append(lines, "Improve: "+ev.WhatToImprove[0])
	}
	return strings.Join(lines, " ")
}
