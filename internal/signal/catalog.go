package signal

import (
	"sort"
	"strings"
)

// Resource is one item of the fixed recommendation catalog.
type Resource struct {
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	Tags           []string `json:"tags"`
	ReasonTemplate string   `json:"-"`
}

// ScoredResource pairs a catalog resource with its signal-match score.
type ScoredResource struct {
	Resource
	Score int `json:"score"`
}

// DefaultResources is the static catalog scored against detected signals.
var DefaultResources = []Resource{
	{
		Title:          "LeetCode",
		URL:            "https://leetcode.com/",
		Tags:           []string{"LeetCode", "algorithms", "data structures", "interview"},
		ReasonTemplate: "Practice problems aligned to your recent topics and revision items.",
	},
	{
		Title:          "NeetCode Roadmap",
		URL:            "https://neetcode.io/",
		Tags:           []string{"algorithms", "data structures", "leetcode"},
		ReasonTemplate: "Structured patterns/roadmap to improve consistency on core problem types.",
	},
	{
		Title:          "GeeksforGeeks",
		URL:            "https://www.geeksforgeeks.org/",
		Tags:           []string{"GeeksforGeeks", "algorithms", "data structures"},
		ReasonTemplate: "Reference explanations for the concepts you're studying.",
	},
	{
		Title:          "CP-Algorithms",
		URL:            "https://cp-algorithms.com/",
		Tags:           []string{"algorithms", "graphs", "dp", "dijkstra"},
		ReasonTemplate: "Deep dives on competitive programming algorithms you mentioned.",
	},
	{
		Title:          "freeCodeCamp",
		URL:            "https://www.freecodecamp.org/",
		Tags:           []string{"freeCodeCamp", "javascript", "react", "backend"},
		ReasonTemplate: "Hands-on practice to reinforce fundamentals and projects.",
	},
	{
		Title:          "MDN Web Docs",
		URL:            "https://developer.mozilla.org/",
		Tags:           []string{"javascript", "frontend"},
		ReasonTemplate: "High-quality docs for the JS topics appearing in your notes.",
	},
	{
		Title:          "React Docs",
		URL:            "https://react.dev/",
		Tags:           []string{"react", "frontend"},
		ReasonTemplate: "Strengthen React concepts based on your recent work.",
	},
	{
		Title:          "MongoDB University",
		URL:            "https://learn.mongodb.com/",
		Tags:           []string{"mongodb", "backend"},
		ReasonTemplate: "Free courses aligned with your MongoDB-related learning entries.",
	},
}

// ScoreResources weighs each resource tag against the detected signals
// (platform 5, algorithm 4, subject 3, topic/keyword 2) and returns the
// catalog sorted by descending score.
func ScoreResources(resources []Resource, sig Signals) []ScoredResource {
	platformSet := lowerSet(sig.Platforms)
	algoSet := lowerSet(sig.Algorithms)
	subjectSet := lowerSet(sig.Subjects)
	topicSet := lowerSet(sig.Topics)
	keywordSet := lowerSet(sig.Keywords)

	scoreTag := func(tag string) int {
		t := strings.ToLower(strings.TrimSpace(tag))
		switch {
		case t == "":
			return 0
		case has(platformSet, t):
			return 5
		case has(algoSet, t):
			return 4
		case has(subjectSet, t):
			return 3
		case has(topicSet, t), has(keywordSet, t):
			return 2
		}
		return 0
	}

	out := make([]ScoredResource, 0, len(resources))
	for _, r := range resources {
		score := 0
		for _, tag := range r.Tags {
			score += scoreTag(tag)
		}
		out = append(out, ScoredResource{Resource: r, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func lowerSet(items []string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, s := range items {
		m[strings.ToLower(s)] = struct{}{}
	}
	return m
}

func has(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}
