package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"trilog/internal/ai"
	"trilog/internal/journal"
	"trilog/internal/question"
	"trilog/internal/rag"
	"trilog/internal/revision"
	"trilog/internal/signal"
	"trilog/internal/timeutil"
)

var (
	ErrBadPeriod  = errors.New("invalid period")
	ErrNoActivity = errors.New("no activity in window")
	ErrNotFound   = errors.New("summary not found")
	// ErrBadOutput means the model returned something that is not the
	// requested JSON document. The caller decides whether to retry or to
	// re-invoke in heuristic mode; there is no silent fallback.
	ErrBadOutput = errors.New("ai output invalid")
)

type Service struct {
	DB  *gorm.DB
	AI  *ai.Client
	RAG *rag.Store
	Log *zap.Logger
}

func NewService(db *gorm.DB, aiClient *ai.Client, store *rag.Store, log *zap.Logger) *Service {
	return &Service{DB: db, AI: aiClient, RAG: store, Log: log.Named("summary")}
}

// GenerateMonthly builds (and upserts) the month review for one user.
// mode: "ai"/"ai-rag" requires a configured provider, "heuristic" never
// calls out, "" picks AI when available.
func (s *Service) GenerateMonthly(ctx context.Context, userID uint64, month, mode string) (Monthly, error) {
	startDate, endDate, err := rag.MonthRange(month)
	if err != nil {
		return Monthly{}, fmt.Errorf("%w: month must be YYYY-MM", ErrBadPeriod)
	}

	stats, sig, err := s.windowStats(ctx, userID, startDate, endDate)
	if err != nil {
		return Monthly{}, err
	}

	evaluation := monthlyEvaluation(stats, sig)
	heuristicRecs := monthlyRecommendations(sig)

	effective := resolveMode(mode, s.AI.Status().Ready())

	doc := Monthly{
		UserID:          userID,
		Month:           month,
		Period:          datatypesJSON(Period{StartDate: startDate, EndDate: endDate}),
		Stats:           datatypesJSON(stats),
		Signals:         datatypesJSON(sig),
		Evaluation:      datatypesJSON(evaluation),
		Recommendations: heuristicRecs,
		Generator:       GeneratorHeuristic,
		GeneratedAt:     time.Now().UTC(),
	}

	if effective == ModeAI || effective == ModeAIRAG {
		out, err := s.aiMonthly(ctx, userID, month, startDate, endDate, stats, sig, evaluation, heuristicRecs)
		if err != nil {
			return Monthly{}, err
		}
		doc.Narrative = out.narrative
		doc.KeyLearnings = out.keyLearnings
		doc.Evaluation = datatypesJSON(out.evaluation)
		doc.Recommendations = out.recommendations
		doc.Generator = GeneratorAIRAG
	} else {
		doc.Narrative = monthlyNarrative(month, stats, sig, evaluation)
		doc.KeyLearnings = firstN(sig.Highlights, 8)
	}

	return doc, s.upsertMonthly(ctx, &doc)
}

// GenerateWeekly builds the trailing-7-day review ending on endYMD (today
// UTC when empty). The returned revision plan comes only from the AI branch
// and is not persisted.
func (s *Service) GenerateWeekly(ctx context.Context, userID uint64, endYMD, mode string) (Weekly, []string, error) {
	end, err := resolveWeekEnd(endYMD)
	if err != nil {
		return Weekly{}, nil, err
	}
	start := end.AddDate(0, 0, -6)
	startDate, endDate := timeutil.YMD(start), timeutil.YMD(end)

	stats, sig, err := s.windowStats(ctx, userID, startDate, endDate)
	if err != nil {
		return Weekly{}, nil, err
	}
	if !stats.hasActivity() {
		return Weekly{}, nil, fmt.Errorf("%w: %s to %s", ErrNoActivity, startDate, endDate)
	}

	evaluation := weeklyEvaluation(stats, sig)
	heuristicRecs := weeklyRecommendations(sig)

	effective := resolveMode(mode, s.AI.Status().Ready())

	doc := Weekly{
		UserID:          userID,
		WeekStartDate:   startDate,
		WeekEndDate:     endDate,
		Period:          datatypesJSON(Period{StartDate: startDate, EndDate: endDate}),
		Stats:           datatypesJSON(stats),
		Signals:         datatypesJSON(sig),
		Evaluation:      datatypesJSON(evaluation),
		Recommendations: heuristicRecs,
		Generator:       GeneratorHeuristic,
		GeneratedAt:     time.Now().UTC(),
	}

	var revisionPlan []string
	if effective == ModeAI || effective == ModeAIRAG {
		out, err := s.aiWeekly(ctx, userID, startDate, endDate, stats, sig, evaluation, heuristicRecs)
		if err != nil {
			return Weekly{}, nil, err
		}
		doc.Narrative = out.narrative
		doc.KeyLearnings = out.keyLearnings
		doc.Evaluation = datatypesJSON(out.evaluation)
		doc.Recommendations = out.recommendations
		doc.Generator = GeneratorAIRAG
		revisionPlan = out.revisionPlan
	} else {
		doc.Narrative = weeklyNarrative(startDate, endDate, stats, evaluation)
		doc.KeyLearnings = firstN(sig.Highlights, 8)
	}

	return doc, revisionPlan, s.upsertWeekly(ctx, &doc)
}

// resolveMode honors an explicit request and otherwise auto-selects.
func resolveMode(requested string, aiReady bool) string {
	m := strings.ToLower(strings.TrimSpace(requested))
	if m != "" {
		return m
	}
	if aiReady {
		return ModeAI
	}
	return ModeHeuristic
}

func resolveWeekEnd(endYMD string) (time.Time, error) {
	if strings.TrimSpace(endYMD) == "" {
		return timeutil.StartOfUTCDay(time.Now().UTC()), nil
	}
	t, ok := timeutil.ParseYMD(endYMD)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: end must be YYYY-MM-DD", ErrBadPeriod)
	}
	return t, nil
}

// windowStats pulls entries, answers and revisions strictly inside the
// window and derives the five counters plus the extracted signals.
func (s *Service) windowStats(ctx context.Context, userID uint64, startDate, endDate string) (Stats, signal.Signals, error) {
	start, _ := timeutil.ParseYMD(startDate)
	endDay, _ := timeutil.ParseYMD(endDate)
	end := endDay.Add(24*time.Hour - time.Nanosecond)

	var entries []journal.Entry
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, startDate, endDate).
		Order("date asc").
		Find(&entries).Error
	if err != nil {
		return Stats{}, signal.Signals{}, err
	}

	reviseItems := 0
	for _, e := range entries {
		reviseItems += len(e.ReviseLater)
	}

	var scheduled, completed, answered int64
	err = s.DB.WithContext(ctx).Model(&revision.Schedule{}).
		Where("user_id = ? AND scheduled_at >= ? AND scheduled_at <= ?", userID, start, end).
		Count(&scheduled).Error
	if err != nil {
		return Stats{}, signal.Signals{}, err
	}
	err = s.DB.WithContext(ctx).Model(&revision.Schedule{}).
		Where("user_id = ? AND status = ? AND completed_at >= ? AND completed_at <= ?",
			userID, revision.StatusCompleted, start, end).
		Count(&completed).Error
	if err != nil {
		return Stats{}, signal.Signals{}, err
	}
	err = s.DB.WithContext(ctx).Model(&question.Answer{}).
		Where("user_id = ? AND created_at >= ? AND created_at <= ?", userID, start, end).
		Count(&answered).Error
	if err != nil {
		return Stats{}, signal.Signals{}, err
	}

	stats := Stats{
		EntryDays:               len(entries),
		ReviseItemsCreated:      reviseItems,
		RevisionsScheduled:      int(scheduled),
		RevisionsCompleted:      int(completed),
		RevisionsCompletionRate: CompletionRate(int(completed), int(scheduled)),
		QuestionsAnswered:       int(answered),
	}
	return stats, signal.Extract(entries), nil
}

type aiResult struct {
	narrative       string
	keyLearnings    []string
	evaluation      Evaluation
	recommendations []Recommendation
	revisionPlan    []string
}

func (s *Service) aiMonthly(ctx context.Context, userID uint64, month, startDate, endDate string, stats Stats, sig signal.Signals, evaluation Evaluation, heuristicRecs []Recommendation) (aiResult, error) {
	if _, err := s.RAG.UpsertMonth(ctx, userID, month); err != nil {
		return aiResult{}, err
	}

	query := monthlyRAGQuery(month, stats, sig)
	chunks, err := s.RAG.RetrieveTopChunks(ctx, userID, month, query, 12)
	if err != nil {
		return aiResult{}, err
	}

	payload := map[string]any{
		"task":            "Create an end-of-month learning summary and effectiveness evaluation. Use the provided context snippets and stats. Recommend resources from the provided catalog (or close matches).",
		"month":           month,
		"period":          Period{StartDate: startDate, EndDate: endDate},
		"stats":           stats,
		"signals":         sig,
		"evaluationDraft": evaluation,
		"contextSnippets": chunks,
		"resourceCatalog": catalogForPrompt(),
		"outputSchema": map[string]any{
			"narrative":    "string (short paragraph)",
			"keyLearnings": "string[] (3-8 items)",
			"evaluation": map[string]string{
				"whatWorked":     "string[] (2-6)",
				"whatToImprove":  "string[] (2-6)",
				"nextMonthFocus": "string[] (2-6)",
				"score":          "number 0-10",
			},
			"recommendations": []map[string]string{{
				"title":  "string",
				"url":    "string",
				"reason": "string (specific to my month)",
				"tags":   "string[]",
				"score":  "number (optional)",
			}},
		},
		"constraints": []string{
			"Use only facts that are present in the stats/signals/context; if uncertain, phrase as a hypothesis.",
			"Do NOT invent daily events or achievements.",
			"Prefer recommendations that match the topics/signals.",
			"Keep narrative concise and actionable.",
		},
		"rawContextText":          renderChunks(chunks),
		"fallbackRecommendations": heuristicRecs,
	}

	return s.runChat(ctx, monthlySystemPrompt, payload, evaluation, heuristicRecs, 0)
}

func (s *Service) aiWeekly(ctx context.Context, userID uint64, startDate, endDate string, stats Stats, sig signal.Signals, evaluation Evaluation, heuristicRecs []Recommendation) (aiResult, error) {
	for _, m := range rag.MonthsBetween(startDate, endDate) {
		if _, err := s.RAG.UpsertMonth(ctx, userID, m); err != nil {
			return aiResult{}, err
		}
	}

	query := weeklyRAGQuery(startDate, endDate, stats, sig)
	chunks, err := s.RAG.RetrieveRange(ctx, userID, startDate, endDate, query, 14)
	if err != nil {
		return aiResult{}, err
	}

	payload := map[string]any{
		"task":            "Weekly learning summary + effectiveness + 7-day revision plan + resource recommendations",
		"period":          Period{StartDate: startDate, EndDate: endDate},
		"stats":           stats,
		"signals":         sig,
		"evaluationDraft": evaluation,
		"contextSnippets": chunks,
		"resourceCatalog": catalogForPrompt(),
		"outputSchema": map[string]any{
			"narrative":    "string (short paragraph)",
			"keyLearnings": "string[] (3-8)",
			"evaluation": map[string]string{
				"whatWorked":    "string[] (2-6)",
				"whatToImprove": "string[] (2-6)",
				"nextWeekFocus": "string[] (2-6)",
				"score":         "number 0-10",
			},
			"revisionPlan": "string[] (7 items, Day 1..Day 7, each actionable)",
			"recommendations": []map[string]string{{
				"title":  "string",
				"url":    "string",
				"reason": "string",
				"tags":   "string[]",
				"score":  "number (optional)",
			}},
		},
		"constraints": []string{
			"Do NOT invent events or achievements.",
			"Use only facts supported by stats/signals/context; otherwise label as a hypothesis.",
		},
		"fallbackRecommendations": heuristicRecs,
	}

	return s.runChat(ctx, weeklySystemPrompt, payload, evaluation, heuristicRecs, 7)
}

const (
	monthlySystemPrompt = "You are TriLog AI Coach. Produce a helpful, specific monthly review. Output MUST be valid JSON only (no markdown), matching the schema described by the user message."
	weeklySystemPrompt  = "You are TriLog AI Coach. Output MUST be valid JSON only (no markdown). Be specific and actionable; do not invent facts that are not in the provided context/stats."
)

// runChat issues the single chat call and coerces the untrusted output.
func (s *Service) runChat(ctx context.Context, systemPrompt string, payload map[string]any, draft Evaluation, heuristicRecs []Recommendation, planLen int) (aiResult, error) {
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return aiResult{}, err
	}

	model, content, err := s.AI.CreateChatCompletion(ctx, []ai.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: string(body)},
	}, 0.2)
	if err != nil {
		return aiResult{}, err
	}

	raw, ok := parseAIOutput(content)
	if !ok {
		s.Log.Warn("unparseable model output",
			zap.String("model", model),
			zap.String("sample", truncate(content, 800)))
		return aiResult{}, fmt.Errorf("%w: model %s", ErrBadOutput, model)
	}

	res := aiResult{
		narrative:       strings.TrimSpace(raw.Narrative),
		keyLearnings:    coerceStrings(raw.KeyLearnings, 10),
		evaluation:      mergeEvaluation(draft, raw.Evaluation),
		recommendations: blendRecommendations(coerceRecommendations(raw.Recs), heuristicRecs),
	}
	if planLen > 0 {
		res.revisionPlan = coerceStrings(raw.RevisionPlan, planLen)
	}
	return res, nil
}

func monthlyRAGQuery(month string, stats Stats, sig signal.Signals) string {
	top := topSignals(sig)
	lines := []string{
		fmt.Sprintf("Summarize what I learned in %s from my daily logs and reflections.", month),
		fmt.Sprintf("Evaluate my approach and suggest specific improvements based on these stats: entryDays=%d, reviseItemsCreated=%d, revisionsCompleted=%d, revisionsScheduled=%d, questionsAnswered=%d.",
			stats.EntryDays, stats.ReviseItemsCreated, stats.RevisionsCompleted, stats.RevisionsScheduled, stats.QuestionsAnswered),
	}
	if len(top) > 0 {
		lines = append(lines, fmt.Sprintf("Key signals: %s.", strings.Join(top, ", ")))
	}
	lines = append(lines, "Recommend 4-6 platforms/websites/resources that fit my month, with reasons.")
	return strings.Join(lines, "\n")
}

func weeklyRAGQuery(startDate, endDate string, stats Stats, sig signal.Signals) string {
	top := topSignals(sig)
	lines := []string{
		fmt.Sprintf("Create a weekly learning review for %s to %s.", startDate, endDate),
		fmt.Sprintf("Use these stats: entryDays=%d, reviseItemsCreated=%d, revisionsCompleted=%d, revisionsScheduled=%d, questionsAnswered=%d.",
			stats.EntryDays, stats.ReviseItemsCreated, stats.RevisionsCompleted, stats.RevisionsScheduled, stats.QuestionsAnswered),
	}
	if len(top) > 0 {
		lines = append(lines, fmt.Sprintf("Key signals: %s.", strings.Join(top, ", ")))
	}
	lines = append(lines,
		"Give a 7-day revision plan (daily 15-30 minutes) with specific guidance.",
		"Recommend 4-6 platforms/websites/resources with reasons.")
	return strings.Join(lines, "\n")
}

func topSignals(sig signal.Signals) []string {
	var out []string
	out = append(out, firstN(sig.Algorithms, 6)...)
	out = append(out, firstN(sig.Subjects, 4)...)
	out = append(out, firstN(sig.Topics, 6)...)
	out = append(out, firstN(sig.Platforms, 4)...)
	return out
}

func catalogForPrompt() []map[string]any {
	out := make([]map[string]any, 0, len(signal.DefaultResources))
	for _, r := range signal.DefaultResources {
		out = append(out, map[string]any{"title": r.Title, "url": r.URL, "tags": r.Tags})
	}
	return out
}

func renderChunks(chunks []rag.RetrievedChunk) string {
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "#%d", i+1)
		if c.Date != "" {
			fmt.Fprintf(&b, " (%s)", c.Date)
		}
		fmt.Fprintf(&b, " [%s] %s", c.SourceType, c.Text)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func (s *Service) upsertMonthly(ctx context.Context, doc *Monthly) error {
	var existing Monthly
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND month = ?", doc.UserID, doc.Month).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.DB.WithContext(ctx).Create(doc).Error
	}
	if err != nil {
		return err
	}
	doc.ID = existing.ID
	doc.CreatedAt = existing.CreatedAt
	return s.DB.WithContext(ctx).Save(doc).Error
}

func (s *Service) upsertWeekly(ctx context.Context, doc *Weekly) error {
	var existing Weekly
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND week_start_date = ?", doc.UserID, doc.WeekStartDate).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.DB.WithContext(ctx).Create(doc).Error
	}
	if err != nil {
		return err
	}
	doc.ID = existing.ID
	doc.CreatedAt = existing.CreatedAt
	doc.EmailedAt = existing.EmailedAt
	return s.DB.WithContext(ctx).Save(doc).Error
}

func (s *Service) GetMonthly(ctx context.Context, userID uint64, month string) (Monthly, error) {
	var doc Monthly
	err := s.DB.WithContext(ctx).Where("user_id = ? AND month = ?", userID, month).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Monthly{}, ErrNotFound
	}
	return doc, err
}

func (s *Service) ListMonthly(ctx context.Context, userID uint64, limit int) ([]Monthly, error) {
	if limit <= 0 {
		limit = 24
	}
	var docs []Monthly
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("month desc").
		Limit(limit).
		Find(&docs).Error
	return docs, err
}

func (s *Service) GetWeekly(ctx context.Context, userID uint64, weekStartDate string) (Weekly, error) {
	var doc Weekly
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND week_start_date = ?", userID, weekStartDate).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Weekly{}, ErrNotFound
	}
	return doc, err
}

func (s *Service) ListWeekly(ctx context.Context, userID uint64, limit int) ([]Weekly, error) {
	if limit <= 0 {
		limit = 24
	}
	var docs []Weekly
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("week_start_date desc").
		Limit(limit).
		Find(&docs).Error
	return docs, err
}

// MarkEmailed stamps the weekly summary after the digest was delivered.
func (s *Service) MarkEmailed(ctx context.Context, userID uint64, weekStartDate string, at time.Time) error {
	return s.DB.WithContext(ctx).Model(&Weekly{}).
		Where("user_id = ? AND week_start_date = ?", userID, weekStartDate).
		Update("emailed_at", at).Error
}
