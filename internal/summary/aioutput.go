package summary

import (
	"encoding/json"
	"regexp"
	"strings"
)

var jsonFenceRe = regexp.MustCompile("(?is)```json\\s*(.*?)\\s*```")

// rawAIOutput mirrors the JSON schema the chat prompt demands.
type rawAIOutput struct {
	Narrative    string          `json:"narrative"`
	KeyLearnings []any           `json:"keyLearnings"`
	Evaluation   rawAIEvaluation `json:"evaluation"`
	RevisionPlan []any           `json:"revisionPlan"`
	Recs         []rawAIRec      `json:"recommendations"`
}

type rawAIEvaluation struct {
	WhatWorked     []any    `json:"whatWorked"`
	WhatToImprove  []any    `json:"whatToImprove"`
	NextMonthFocus []any    `json:"nextMonthFocus"`
	NextWeekFocus  []any    `json:"nextWeekFocus"`
	Score          *float64 `json:"score"`
}

type rawAIRec struct {
	Title  string   `json:"title"`
	URL    string   `json:"url"`
	Reason string   `json:"reason"`
	Tags   []any    `json:"tags"`
	Score  *float64 `json:"score"`
}

// parseAIOutput decodes the model response, tolerating a fenced ```json
// block. A nil result with ok=false means the content is unusable.
func parseAIOutput(content string) (rawAIOutput, bool) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return rawAIOutput{}, false
	}

	var out rawAIOutput
	if err := json.Unmarshal([]byte(trimmed), &out); err == nil {
		return out, true
	}
	if m := jsonFenceRe.FindStringSubmatch(trimmed); m != nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &out); err == nil {
			return out, true
		}
	}
	return rawAIOutput{}, false
}

// coerceStrings keeps non-empty trimmed strings, up to max.
func coerceStrings(values []any, max int) []string {
	var out []string
	for _, v := range values {
		s, _ := v.(string)
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == max {
			break
		}
	}
	return out
}

// coerceRecommendations drops entries missing title, url or reason and caps
// the list at 6.
func coerceRecommendations(recs []rawAIRec) []Recommendation {
	var out []Recommendation
	for _, r := range recs {
		title := strings.TrimSpace(r.Title)
		url := strings.TrimSpace(r.URL)
		reason := strings.TrimSpace(r.Reason)
		if title == "" || url == "" || reason == "" {
			continue
		}
		rec := Recommendation{Title: title, URL: url, Reason: reason, Tags: coerceStrings(r.Tags, 10)}
		if r.Score != nil {
			rec.Score = *r.Score
		}
		out = append(out, rec)
		if len(out) == 6 {
			break
		}
	}
	return out
}

// blendRecommendations keeps AI output as-is when the model produced at least
// 3 usable items, otherwise appends the heuristic list as filler up to 6.
func blendRecommendations(aiRecs, heuristic []Recommendation) []Recommendation {
	if len(aiRecs) >= 3 {
		return aiRecs
	}
	out := append([]Recommendation{}, aiRecs...)
	out = append(out, heuristic...)
	if len(out) > 6 {
		out = out[:6]
	}
	return out
}

// mergeEvaluation overlays the AI evaluation on the heuristic draft, falling
// back per-field when the model left a list empty.
func mergeEvaluation(draft Evaluation, raw rawAIEvaluation) Evaluation {
	merged := draft

	if v := coerceStrings(raw.WhatWorked, 10); len(v) > 0 {
		merged.WhatWorked = v
	}
	if v := coerceStrings(raw.WhatToImprove, 10); len(v) > 0 {
		merged.WhatToImprove = v
	}
	focus := raw.NextMonthFocus
	if len(focus) == 0 {
		focus = raw.NextWeekFocus
	}
	if v := coerceStrings(focus, 10); len(v) > 0 {
		merged.NextFocus = v
	}
	if raw.Score != nil {
		merged.Score = clampScore(int(*raw.Score))
	}
	return merged
}
