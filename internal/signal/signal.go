package signal

import (
	"regexp"
	"sort"
	"strings"

	"trilog/internal/journal"
)

// Signals is the normalized bag of themes detected across a set of entries.
type Signals struct {
	Subjects   []string `json:"subjects"`
	Algorithms []string `json:"algorithms"`
	Platforms  []string `json:"platforms"`
	Topics     []string `json:"topics"`
	Keywords   []string `json:"keywords"`
	Highlights []string `json:"highlights"`
}

const (
	maxPlatforms  = 10
	maxAlgorithms = 12
	maxSubjects   = 12
	maxTopics     = 12
	maxKeywords   = 14
	maxHighlights = 10
	highlightLen  = 180
)

var (
	nonTokenRe    = regexp.MustCompile(`[^a-z0-9+.#/\-\s]`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	pureNumbersRe = regexp.MustCompile(`^\d+$`)
)

// normalize lowercases, strips punctuation outside the whitelist and
// collapses whitespace.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = nonTokenRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(
		"a an and are as at be been but by can did do does doing done for from had has have how i if in into is it its just like me my not of on or our so that the their them then there these they this to today tomorrow was we were what when where which who will with you your") {
		stopwords[w] = struct{}{}
	}
}

type platformPattern struct {
	key string
	re  *regexp.Regexp
}

var platformPatterns = []platformPattern{
	{"LeetCode", regexp.MustCompile(`\bleetcode\b`)},
	{"HackerRank", regexp.MustCompile(`\bhackerrank\b`)},
	{"Codeforces", regexp.MustCompile(`\bcodeforces\b`)},
	{"CodeChef", regexp.MustCompile(`\bcodechef\b`)},
	{"GeeksforGeeks", regexp.MustCompile(`\bgeeksforgeeks\b|\bgfg\b`)},
	{"YouTube", regexp.MustCompile(`\byoutube\b`)},
	{"Coursera", regexp.MustCompile(`\bcoursera\b`)},
	{"Udemy", regexp.MustCompile(`\budemy\b`)},
	{"freeCodeCamp", regexp.MustCompile(`\bfreecodecamp\b`)},
	{"GitHub", regexp.MustCompile(`\bgithub\b`)},
	{"Stack Overflow", regexp.MustCompile(`\bstack\s*overflow\b`)},
}

var algorithmKeywords = []string{
	"binary search", "two pointers", "sliding window", "hashing", "prefix sum",
	"sorting", "greedy", "recursion", "backtracking", "dynamic programming",
	"dp", "graphs", "bfs", "dfs", "dijkstra", "topological sort", "tries",
	"heap", "priority queue", "stack", "queue", "linked list", "tree",
	"segment tree",
}

var subjectKeywords = []string{
	"javascript", "typescript", "react", "node", "express", "mongodb",
	"mongoose", "sql", "postgres", "mysql", "system design", "backend",
	"frontend", "data structures", "algorithms", "leetcode",
}

var phraseRes = map[string]*regexp.Regexp{}

func init() {
	for _, kw := range algorithmKeywords {
		phraseRes[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
	}
	for _, kw := range subjectKeywords {
		if _, ok := phraseRes[kw]; !ok {
			phraseRes[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
		}
	}
}

// Extract turns a window of entries into normalized signals. Output lists are
// deduplicated case-insensitively in first-seen order and capped.
func Extract(entries []journal.Entry) Signals {
	var subjects, algorithms, platforms, topics, highlights []string
	var keywordTexts []string

	for _, e := range entries {
		learned := normalize(e.Learned)
		completed := normalize(e.Completed)

		parts := []string{learned, completed}
		for _, item := range e.ReviseLater {
			if t := normalize(item.Text); t != "" {
				parts = append(parts, t)
			}
		}
		allText := strings.TrimSpace(strings.Join(parts, " "))
		if allText != "" {
			keywordTexts = append(keywordTexts, allText)
		}

		for _, p := range platformPatterns {
			if p.re.MatchString(allText) {
				platforms = append(platforms, p.key)
			}
		}
		for _, kw := range algorithmKeywords {
			if phraseRes[kw].MatchString(allText) {
				algorithms = append(algorithms, kw)
			}
		}
		for _, kw := range subjectKeywords {
			if phraseRes[kw].MatchString(allText) {
				subjects = append(subjects, kw)
			}
		}

		for _, t := range e.Tags {
			topics = append(topics, t)
		}
		if len(e.Tags) > 0 {
			keywordTexts = append(keywordTexts, strings.Join(e.Tags, " "))
		}

		if learned := strings.TrimSpace(e.Learned); learned != "" {
			if len(learned) > highlightLen {
				learned = learned[:highlightLen]
			}
			highlights = append(highlights, learned)
		}
	}

	keywords := extractKeywords(strings.Join(keywordTexts, " "), maxKeywords)

	return Signals{
		Subjects:   uniqTopN(subjects, maxSubjects),
		Algorithms: uniqTopN(algorithms, maxAlgorithms),
		Platforms:  uniqTopN(platforms, maxPlatforms),
		Topics:     uniqTopN(topics, maxTopics),
		Keywords:   uniqTopN(keywords, maxKeywords),
		Highlights: uniqTopN(highlights, maxHighlights),
	}
}

// extractKeywords tokenizes the normalized text, drops stopwords and pure
// numbers, and ranks the rest by frequency (ties broken by first appearance).
func extractKeywords(text string, max int) []string {
	normalized := normalize(text)
	if normalized == "" {
		return nil
	}

	counts := map[string]int{}
	firstSeen := map[string]int{}
	for i, tok := range strings.Fields(normalized) {
		if len(tok) < 3 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if pureNumbersRe.MatchString(tok) {
			continue
		}
		if _, ok := firstSeen[tok]; !ok {
			firstSeen[tok] = i
		}
		counts[tok]++
	}

	tokens := make([]string, 0, len(counts))
	for tok := range counts {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return firstSeen[tokens[i]] < firstSeen[tokens[j]]
	})

	if len(tokens) > max {
		tokens = tokens[:max]
	}
	return tokens
}

// uniqTopN deduplicates case-insensitively, keeping first-seen order, capped
// at n.
func uniqTopN(items []string, n int) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, n)
	for _, item := range items {
		key := strings.TrimSpace(item)
		if key == "" {
			continue
		}
		lower := strings.ToLower(key)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, key)
		if len(out) >= n {
			break
		}
	}
	return out
}
