package rag

import (
	"math"
	"regexp"
	"strings"
)

const (
	// DefaultChunkLen bounds entry/revision chunks; answers get a little more.
	DefaultChunkLen = 900
	AnswerChunkLen  = 1100

	maxChunksPerField = 8
)

var sentenceSplitRe = regexp.MustCompile(`\n+|(?:[.!?])\s+`)

// ChunkText splits free text into segments of at most maxLen characters on
// sentence/newline boundaries, greedily packing consecutive sentences. The
// output is capped at 8 chunks per field so very long inputs cannot explode
// the store.
func ChunkText(text string, maxLen int) []string {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil
	}
	if maxLen <= 0 {
		maxLen = DefaultChunkLen
	}
	if len(t) <= maxLen {
		return []string{t}
	}

	parts := splitSentences(t)

	var out []string
	var buf string
	flushOversize := func(p string) {
		for len(p) > maxLen {
			out = append(out, p[:maxLen])
			p = p[maxLen:]
		}
		if p != "" {
			buf = p
		}
	}
	for _, p := range parts {
		if len(p) > maxLen {
			if buf != "" {
				out = append(out, buf)
				buf = ""
			}
			flushOversize(p)
			continue
		}
		switch {
		case buf == "":
			buf = p
		case len(buf)+1+len(p) <= maxLen:
			buf = buf + " " + p
		default:
			out = append(out, buf)
			buf = p
		}
	}
	if buf != "" {
		out = append(out, buf)
	}
	if len(out) > maxChunksPerField {
		out = out[:maxChunksPerField]
	}
	return out
}

// splitSentences cuts on newlines and sentence-ending punctuation followed by
// whitespace, keeping the punctuation with its sentence.
func splitSentences(t string) []string {
	idxs := sentenceSplitRe.FindAllStringIndex(t, -1)
	var parts []string
	last := 0
	for _, loc := range idxs {
		// keep a trailing ., ! or ? with the left side
		end := loc[0]
		if end < len(t) {
			switch t[end] {
			case '.', '!', '?':
				end++
			}
		}
		if p := strings.TrimSpace(t[last:end]); p != "" {
			parts = append(parts, p)
		}
		last = loc[1]
	}
	if p := strings.TrimSpace(t[last:]); p != "" {
		parts = append(parts, p)
	}
	return parts
}

// CosineSimilarity is the standard dot-product-over-norms similarity. Zero or
// dimension-mismatched vectors score 0 rather than erroring.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
