package summary

import (
	"strings"
	"testing"

	"trilog/internal/signal"
)

func TestCompletionRate(t *testing.T) {
	if got := CompletionRate(7, 10); got != 0.7 {
		t.Errorf("got %v, want 0.7", got)
	}
	if got := CompletionRate(0, 0); got != 0 {
		t.Errorf("zero scheduled: got %v, want 0", got)
	}
	if got := CompletionRate(3, 0); got != 0 {
		t.Errorf("zero scheduled with completions: got %v, want 0", got)
	}
}

func TestStatsHasActivity(t *testing.T) {
	if (Stats{}).hasActivity() {
		t.Error("empty window reported activity")
	}
	cases := []Stats{
		{EntryDays: 1},
		{ReviseItemsCreated: 1},
		{RevisionsScheduled: 1},
		{RevisionsCompleted: 1},
		{QuestionsAnswered: 1},
	}
	for i, c := range cases {
		if !c.hasActivity() {
			t.Errorf("case %d: activity missed", i)
		}
	}
	if (Stats{RevisionsCompletionRate: 0.5}).hasActivity() {
		t.Error("derived rate alone counted as activity")
	}
}

func TestMonthlyScore(t *testing.T) {
	cases := []struct {
		stats Stats
		want  int
	}{
		// floor(30/6)=5 capped, round(1.0*3)=3, floor(25/10)=2
		{Stats{EntryDays: 30, RevisionsCompletionRate: 1.0, QuestionsAnswered: 25}, 10},
		{Stats{}, 0},
		// floor(12/6)=2, round(0.5*3)=2, floor(5/10)=0
		{Stats{EntryDays: 12, RevisionsCompletionRate: 0.5, QuestionsAnswered: 5}, 4},
		// floor(40/6)=6 capped at 5
		{Stats{EntryDays: 40}, 5},
	}
	for i, c := range cases {
		ev := monthlyEvaluation(c.stats, signal.Signals{})
		if ev.Score != c.want {
			t.Errorf("case %d: score %d, want %d", i, ev.Score, c.want)
		}
	}
}

func TestWeeklyScore(t *testing.T) {
	cases := []struct {
		stats Stats
		want  int
	}{
		// round(7/7*6)=6, round(1.0*3)=3, floor(5/5)=1
		{Stats{EntryDays: 7, RevisionsCompletionRate: 1.0, QuestionsAnswered: 5}, 10},
		{Stats{}, 0},
		// round(4/7*6)=round(3.43)=3, round(0.5*3)=2, floor(3/5)=0
		{Stats{EntryDays: 4, RevisionsCompletionRate: 0.5, QuestionsAnswered: 3}, 5},
	}
	for i, c := range cases {
		ev := weeklyEvaluation(c.stats, signal.Signals{})
		if ev.Score != c.want {
			t.Errorf("case %d: score %d, want %d", i, ev.Score, c.want)
		}
	}
}

func TestMonthlyEvaluationThresholds(t *testing.T) {
	ev := monthlyEvaluation(Stats{EntryDays: 22, ReviseItemsCreated: 5, RevisionsScheduled: 10, RevisionsCompleted: 8, RevisionsCompletionRate: 0.8, QuestionsAnswered: 16}, signal.Signals{})
	if len(ev.WhatWorked) != 4 {
		t.Errorf("expected 4 whatWorked items, got %d: %v", len(ev.WhatWorked), ev.WhatWorked)
	}
	if len(ev.WhatToImprove) != 0 {
		t.Errorf("expected no improvements, got %v", ev.WhatToImprove)
	}

	ev = monthlyEvaluation(Stats{EntryDays: 3}, signal.Signals{})
	if len(ev.WhatToImprove) < 2 {
		t.Errorf("sparse month should collect improvement notes, got %v", ev.WhatToImprove)
	}
}

func TestEvaluationFocusFromSignals(t *testing.T) {
	sig := signal.Signals{
		Algorithms: []string{"dynamic programming", "graphs", "sorting", "greedy"},
		Subjects:   []string{"operating systems", "databases", "networking"},
	}
	ev := monthlyEvaluation(Stats{}, sig)
	if len(ev.NextFocus) != 1 {
		t.Fatalf("expected one focus line, got %v", ev.NextFocus)
	}
	want := "Focus on: dynamic programming, graphs, sorting, operating systems, databases."
	if ev.NextFocus[0] != want {
		t.Errorf("got %q, want %q", ev.NextFocus[0], want)
	}
}

func TestMonthlyRecommendationsPositiveOnly(t *testing.T) {
	sig := signal.Signals{Platforms: []string{"LeetCode"}}
	recs := monthlyRecommendations(sig)
	if len(recs) == 0 {
		t.Fatal("expected at least one recommendation")
	}
	for _, r := range recs {
		if r.Score <= 0 {
			t.Errorf("recommendation %q has non-positive score %v", r.Title, r.Score)
		}
	}
	if recs[0].Title != "LeetCode" {
		t.Errorf("expected LeetCode first, got %q", recs[0].Title)
	}
	if !strings.HasPrefix(recs[0].Reason, "You already used") {
		t.Errorf("expected used-platform reason prefix, got %q", recs[0].Reason)
	}
	if len(recs) > 5 {
		t.Errorf("monthly list capped at 5, got %d", len(recs))
	}
}

func TestNarrativesMentionStats(t *testing.T) {
	stats := Stats{EntryDays: 12, ReviseItemsCreated: 4, RevisionsScheduled: 9, RevisionsCompleted: 6, QuestionsAnswered: 8}
	ev := monthlyEvaluation(stats, signal.Signals{})
	n := monthlyNarrative("2024-03", stats, signal.Signals{}, ev)
	for _, want := range []string{"2024-03", "12 day(s)", "6/9", "8 daily question(s)"} {
		if !strings.Contains(n, want) {
			t.Errorf("monthly narrative missing %q: %s", want, n)
		}
	}

	wn := weeklyNarrative("2024-03-01", "2024-03-07", stats, ev)
	if !strings.Contains(wn, "2024-03-01 to 2024-03-07") {
		t.Errorf("weekly narrative missing period: %s", wn)
	}
}
