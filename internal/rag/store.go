package rag

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"trilog/internal/ai"
	"trilog/internal/journal"
	"trilog/internal/question"
	"trilog/internal/revision"
	"trilog/internal/timeutil"
)

// Store chunks source text, embeds it and answers top-K similarity queries.
// Retrieval is an exhaustive in-process scan over the candidate rows, which
// is fine while per-user-month chunk counts stay small.
type Store struct {
	DB        *gorm.DB
	AI        *ai.Client
	Log       *zap.Logger
	BatchSize int
	chunks    chunkStore
}

func NewStore(db *gorm.DB, aiClient *ai.Client, batchSize int, log *zap.Logger) *Store {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Store{DB: db, AI: aiClient, Log: log.Named("rag"), BatchSize: batchSize, chunks: gormChunkStore{db}}
}

// chunkStore is the persistence surface the upsert writes through. Identity
// is the (user, month, sourceType, sourceID, date, text) tuple.
type chunkStore interface {
	FindByIdentity(ctx context.Context, userID uint64, month string, d chunkDoc) (*Chunk, error)
	Create(ctx context.Context, c *Chunk) error
	Save(ctx context.Context, c *Chunk) error
}

type gormChunkStore struct{ db *gorm.DB }

func (g gormChunkStore) FindByIdentity(ctx context.Context, userID uint64, month string, d chunkDoc) (*Chunk, error) {
	var c Chunk
	err := g.db.WithContext(ctx).
		Where("user_id = ? AND month = ? AND source_type = ? AND source_id = ? AND date = ? AND text = ?",
			userID, month, d.SourceType, d.SourceID, d.Date, d.Text).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (g gormChunkStore) Create(ctx context.Context, c *Chunk) error {
	return g.db.WithContext(ctx).Create(c).Error
}

func (g gormChunkStore) Save(ctx context.Context, c *Chunk) error {
	return g.db.WithContext(ctx).Save(c).Error
}

// UpsertReport summarizes one month regeneration.
type UpsertReport struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Total    int `json:"total"`
}

type chunkDoc struct {
	Date       string
	SourceType string
	SourceID   uint64
	Text       string
	Tags       []string
}

// UpsertMonth regenerates the embedding chunks for one (user, month). The
// upsert key is (user, month, sourceType, sourceID, date, text), so rerunning
// on unchanged sources updates rows in place instead of duplicating, and a
// changed embedding model overwrites the stored vectors.
func (s *Store) UpsertMonth(ctx context.Context, userID uint64, month string) (UpsertReport, error) {
	startDate, endDate, err := MonthRange(month)
	if err != nil {
		return UpsertReport{}, err
	}
	start, _ := timeutil.ParseYMD(startDate)
	end, _ := timeutil.ParseYMD(endDate)
	end = end.Add(24*time.Hour - time.Nanosecond)

	docs, err := s.collectDocs(ctx, userID, startDate, endDate, start, end)
	if err != nil {
		return UpsertReport{}, err
	}
	if len(docs) == 0 {
		return UpsertReport{}, nil
	}

	report := UpsertReport{Total: len(docs)}
	for i := 0; i < len(docs); i += s.BatchSize {
		batch := docs[i:min(i+s.BatchSize, len(docs))]

		inputs := make([]string, len(batch))
		for j, d := range batch {
			inputs[j] = d.Text
		}
		model, vectors, err := s.AI.CreateEmbeddings(ctx, inputs)
		if err != nil {
			return report, err
		}

		for j, d := range batch {
			if j >= len(vectors) || len(vectors[j]) == 0 {
				continue
			}
			inserted, err := s.upsertChunk(ctx, userID, month, d, model, vectors[j])
			if err != nil {
				s.Log.Error("chunk upsert failed",
					zap.Uint64("user_id", userID),
					zap.String("source_type", d.SourceType),
					zap.Error(err))
				continue
			}
			if inserted {
				report.Inserted++
			} else {
				report.Updated++
			}
		}
	}
	return report, nil
}

func (s *Store) collectDocs(ctx context.Context, userID uint64, startDate, endDate string, start, end time.Time) ([]chunkDoc, error) {
	var docs []chunkDoc

	var entries []journal.Entry
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, startDate, endDate).
		Order("date asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		tags := []string(e.Tags)
		for _, t := range ChunkText(e.Learned, DefaultChunkLen) {
			docs = append(docs, chunkDoc{Date: e.Date, SourceType: SourceEntryLearned, SourceID: e.ID, Text: t, Tags: tags})
		}
		for _, t := range ChunkText(e.Completed, DefaultChunkLen) {
			docs = append(docs, chunkDoc{Date: e.Date, SourceType: SourceEntryCompleted, SourceID: e.ID, Text: t, Tags: tags})
		}
		for _, item := range e.ReviseLater {
			for _, t := range ChunkText(item.Text, DefaultChunkLen) {
				docs = append(docs, chunkDoc{Date: e.Date, SourceType: SourceEntryRevise, SourceID: e.ID, Text: t, Tags: tags})
			}
		}
	}

	var answers []question.Answer
	err = s.DB.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at <= ?", userID, start, end).
		Order("created_at asc").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}
	for _, a := range answers {
		date := timeutil.YMD(a.CreatedAt)
		for _, t := range ChunkText(a.Text, AnswerChunkLen) {
			docs = append(docs, chunkDoc{Date: date, SourceType: SourceAnswerText, SourceID: a.ID, Text: t})
		}
	}

	var revisions []revision.Schedule
	err = s.DB.WithContext(ctx).
		Where("user_id = ? AND completed_at >= ? AND completed_at <= ? AND response_text <> ''", userID, start, end).
		Find(&revisions).Error
	if err != nil {
		return nil, err
	}
	for _, r := range revisions {
		date := ""
		if r.CompletedAt != nil {
			date = timeutil.YMD(*r.CompletedAt)
		}
		for _, t := range ChunkText(r.ResponseText, DefaultChunkLen) {
			docs = append(docs, chunkDoc{Date: date, SourceType: SourceRevisionReply, SourceID: r.ID, Text: t})
		}
	}

	return docs, nil
}

func (s *Store) upsertChunk(ctx context.Context, userID uint64, month string, d chunkDoc, model string, vector []float64) (inserted bool, err error) {
	existing, err := s.chunks.FindByIdentity(ctx, userID, month, d)
	if err != nil {
		return false, err
	}

	if existing == nil {
		c := Chunk{
			UserID:         userID,
			Month:          month,
			Date:           d.Date,
			SourceType:     d.SourceType,
			SourceID:       d.SourceID,
			Text:           d.Text,
			EmbeddingModel: model,
			Embedding:      vector,
			Tags:           d.Tags,
		}
		return true, s.chunks.Create(ctx, &c)
	}

	existing.EmbeddingModel = model
	existing.Embedding = vector
	existing.Tags = d.Tags
	return false, s.chunks.Save(ctx, existing)
}

// RetrieveTopChunks embeds the query once and returns the topK most similar
// chunks for the month, vectors stripped.
func (s *Store) RetrieveTopChunks(ctx context.Context, userID uint64, month, queryText string, topK int) ([]RetrievedChunk, error) {
	vector, err := s.embedQuery(ctx, queryText)
	if err != nil {
		return nil, err
	}
	if vector == nil {
		return nil, nil
	}

	var candidates []Chunk
	if err := s.DB.WithContext(ctx).Where("user_id = ? AND month = ?", userID, month).Find(&candidates).Error; err != nil {
		return nil, err
	}
	return rank(candidates, vector, topK), nil
}

// RetrieveRange retrieves across a date range, scanning at most 24 months of
// chunks.
func (s *Store) RetrieveRange(ctx context.Context, userID uint64, startDate, endDate, queryText string, topK int) ([]RetrievedChunk, error) {
	months := MonthsBetween(startDate, endDate)
	if len(months) == 0 {
		return nil, nil
	}

	vector, err := s.embedQuery(ctx, queryText)
	if err != nil {
		return nil, err
	}
	if vector == nil {
		return nil, nil
	}

	var candidates []Chunk
	err = s.DB.WithContext(ctx).
		Where("user_id = ? AND month in ? AND date >= ? AND date <= ?", userID, months, startDate, endDate).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	return rank(candidates, vector, topK), nil
}

func (s *Store) embedQuery(ctx context.Context, queryText string) ([]float64, error) {
	_, vectors, err := s.AI.CreateEmbeddings(ctx, []string{queryText})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, nil
	}
	return vectors[0], nil
}

func rank(candidates []Chunk, query []float64, topK int) []RetrievedChunk {
	scored := make([]RetrievedChunk, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, RetrievedChunk{
			SourceType: c.SourceType,
			Date:       c.Date,
			Text:       c.Text,
			Tags:       []string(c.Tags),
			Similarity: CosineSimilarity(query, c.Embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}
