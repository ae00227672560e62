package signal

import (
	"fmt"
	"strings"
	"testing"

	"trilog/internal/journal"
)

func entry(learned, completed string, tags []string, reviseTexts ...string) journal.Entry {
	items := make([]journal.ReviseItem, 0, len(reviseTexts))
	for i, t := range reviseTexts {
		items = append(items, journal.ReviseItem{ID: fmt.Sprintf("i%d", i), Text: t})
	}
	return journal.Entry{Learned: learned, Completed: completed, Tags: tags, ReviseLater: items}
}

func TestExtractDetectsPlatformsAndAlgorithms(t *testing.T) {
	entries := []journal.Entry{
		entry("Learned binary search on LeetCode", "Solved two problems", []string{"dsa"}),
		entry("Practiced dynamic programming", "Watched a YouTube lecture", nil, "revisit dp on trees"),
	}

	sig := Extract(entries)

	wantPlatforms := []string{"LeetCode", "YouTube"}
	if strings.Join(sig.Platforms, ",") != strings.Join(wantPlatforms, ",") {
		t.Errorf("platforms = %v, want %v", sig.Platforms, wantPlatforms)
	}
	if !contains(sig.Algorithms, "binary search") || !contains(sig.Algorithms, "dynamic programming") {
		t.Errorf("algorithms = %v", sig.Algorithms)
	}
	if !contains(sig.Algorithms, "dp") {
		t.Errorf("dp not picked up from revise item: %v", sig.Algorithms)
	}
	if !contains(sig.Topics, "dsa") {
		t.Errorf("topics = %v", sig.Topics)
	}
}

func TestExtractHighlightTruncation(t *testing.T) {
	long := strings.Repeat("x", 400)
	sig := Extract([]journal.Entry{entry(long, "done", nil)})
	if len(sig.Highlights) != 1 {
		t.Fatalf("highlights = %v", sig.Highlights)
	}
	if len(sig.Highlights[0]) != 180 {
		t.Errorf("highlight length = %d, want 180", len(sig.Highlights[0]))
	}
}

func TestExtractKeywordFiltering(t *testing.T) {
	sig := Extract([]journal.Entry{
		entry("the graphs graphs graphs and 12345 ab", "graphs again today", nil),
	})
	if len(sig.Keywords) == 0 || sig.Keywords[0] != "graphs" {
		t.Fatalf("keywords = %v, want graphs first", sig.Keywords)
	}
	for _, k := range sig.Keywords {
		if k == "the" || k == "and" || k == "12345" || k == "ab" || k == "today" {
			t.Errorf("keyword %q should have been filtered", k)
		}
	}
}

func TestExtractDedupeCaseInsensitive(t *testing.T) {
	entries := []journal.Entry{
		entry("leetcode grind", "more LeetCode", nil),
		entry("LEETCODE again", "done", nil),
	}
	sig := Extract(entries)
	count := 0
	for _, p := range sig.Platforms {
		if strings.EqualFold(p, "leetcode") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("LeetCode deduped %d times: %v", count, sig.Platforms)
	}
}

func TestUniqTopNCaps(t *testing.T) {
	in := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		in = append(in, fmt.Sprintf("item-%d", i))
	}
	out := uniqTopN(in, 10)
	if len(out) != 10 {
		t.Errorf("len = %d, want 10", len(out))
	}
	if out[0] != "item-0" {
		t.Errorf("first-seen order broken: %v", out[0])
	}
}

func TestScoreResourcesWeights(t *testing.T) {
	sig := Signals{
		Platforms:  []string{"LeetCode"},
		Algorithms: []string{"dijkstra"},
		Subjects:   []string{"react"},
		Topics:     []string{"interview"},
	}
	scored := ScoreResources(DefaultResources, sig)

	byTitle := map[string]int{}
	for _, r := range scored {
		byTitle[r.Title] = r.Score
	}

	// LeetCode: tag "LeetCode" platform(5) + "interview" topic(2) = 7
	if byTitle["LeetCode"] != 7 {
		t.Errorf("LeetCode score = %d, want 7", byTitle["LeetCode"])
	}
	// CP-Algorithms: "dijkstra" algorithm(4) = 4
	if byTitle["CP-Algorithms"] != 4 {
		t.Errorf("CP-Algorithms score = %d, want 4", byTitle["CP-Algorithms"])
	}
	// React Docs: "react" subject(3) = 3
	if byTitle["React Docs"] != 3 {
		t.Errorf("React Docs score = %d, want 3", byTitle["React Docs"])
	}

	for i := 1; i < len(scored); i++ {
		if scored[i].Score > scored[i-1].Score {
			t.Fatal("resources not sorted descending by score")
		}
	}
}

func contains(items []string, want string) bool {
	for _, s := range items {
		if s == want {
			return true
		}
	}
	return false
}
