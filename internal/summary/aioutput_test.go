package summary

import "testing"

func TestParseAIOutputPlainJSON(t *testing.T) {
	raw, ok := parseAIOutput(`{"narrative":"good month","keyLearnings":["a","b"]}`)
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if raw.Narrative != "good month" {
		t.Errorf("narrative = %q", raw.Narrative)
	}
	if got := coerceStrings(raw.KeyLearnings, 10); len(got) != 2 {
		t.Errorf("keyLearnings = %v", got)
	}
}

func TestParseAIOutputFenced(t *testing.T) {
	content := "Here you go:\n```json\n{\"narrative\":\"fenced\"}\n```\nthanks"
	raw, ok := parseAIOutput(content)
	if !ok || raw.Narrative != "fenced" {
		t.Fatalf("ok=%v narrative=%q", ok, raw.Narrative)
	}
}

func TestParseAIOutputGarbage(t *testing.T) {
	for _, content := range []string{"", "   ", "I cannot produce JSON", "```json\nnot json\n```"} {
		if _, ok := parseAIOutput(content); ok {
			t.Errorf("expected failure for %q", content)
		}
	}
}

func TestCoerceStrings(t *testing.T) {
	in := []any{"  a  ", "", 42, nil, "b", "c", "d"}
	got := coerceStrings(in, 3)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCoerceRecommendationsDropsIncomplete(t *testing.T) {
	score := 4.0
	got := coerceRecommendations([]rawAIRec{
		{Title: "A", URL: "https://a", Reason: "fits"},
		{Title: "", URL: "https://b", Reason: "no title"},
		{Title: "C", URL: "", Reason: "no url"},
		{Title: "D", URL: "https://d", Reason: "", Score: &score},
		{Title: "E", URL: "https://e", Reason: "ok", Score: &score},
	})
	if len(got) != 2 {
		t.Fatalf("got %d recs: %v", len(got), got)
	}
	if got[1].Score != 4 {
		t.Errorf("score not carried: %v", got[1].Score)
	}
}

func TestBlendRecommendations(t *testing.T) {
	aiRecs := []Recommendation{{Title: "ai1"}, {Title: "ai2"}}
	heuristic := []Recommendation{{Title: "h1"}, {Title: "h2"}, {Title: "h3"}, {Title: "h4"}}

	got := blendRecommendations(aiRecs, heuristic)
	if len(got) != 6 {
		t.Fatalf("expected 6 blended, got %d", len(got))
	}
	if got[0].Title != "ai1" || got[1].Title != "ai2" {
		t.Errorf("AI recs must come first: %v", got)
	}

	three := []Recommendation{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	if got := blendRecommendations(three, heuristic); len(got) != 3 {
		t.Errorf("3+ AI recs should pass through unchanged, got %d", len(got))
	}
}

func TestMergeEvaluationFallsBackPerField(t *testing.T) {
	draft := Evaluation{
		WhatWorked:    []string{"draft worked"},
		WhatToImprove: []string{"draft improve"},
		NextFocus:     []string{"draft focus"},
		Score:         4,
	}
	score := 12.0
	merged := mergeEvaluation(draft, rawAIEvaluation{
		WhatWorked: []any{"ai worked"},
		Score:      &score,
	})
	if merged.WhatWorked[0] != "ai worked" {
		t.Errorf("whatWorked not overridden: %v", merged.WhatWorked)
	}
	if merged.WhatToImprove[0] != "draft improve" {
		t.Errorf("empty AI list must keep draft: %v", merged.WhatToImprove)
	}
	if merged.Score != 10 {
		t.Errorf("score must clamp to 10, got %d", merged.Score)
	}

	weekly := mergeEvaluation(draft, rawAIEvaluation{NextWeekFocus: []any{"ai week focus"}})
	if weekly.NextFocus[0] != "ai week focus" {
		t.Errorf("nextWeekFocus not picked up: %v", weekly.NextFocus)
	}
}

func TestResolveMode(t *testing.T) {
	cases := []struct {
		requested string
		aiReady   bool
		want      string
	}{
		{"", true, ModeAI},
		{"", false, ModeHeuristic},
		{"heuristic", true, ModeHeuristic},
		{"AI", false, ModeAI},
		{" ai-rag ", false, ModeAIRAG},
	}
	for _, c := range cases {
		if got := resolveMode(c.requested, c.aiReady); got != c.want {
			t.Errorf("resolveMode(%q, %v) = %q, want %q", c.requested, c.aiReady, got, c.want)
		}
	}
}
