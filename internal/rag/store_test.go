package rag

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"
)

type memChunkStore struct {
	nextID uint64
	rows   map[string]*Chunk
}

func newMemChunkStore() *memChunkStore {
	return &memChunkStore{rows: map[string]*Chunk{}}
}

func identityKey(userID uint64, month string, d chunkDoc) string {
	return fmt.Sprintf("%d|%s|%s|%d|%s|%s", userID, month, d.SourceType, d.SourceID, d.Date, d.Text)
}

func chunkIdentity(c *Chunk) string {
	return identityKey(c.UserID, c.Month, chunkDoc{Date: c.Date, SourceType: c.SourceType, SourceID: c.SourceID, Text: c.Text})
}

func (m *memChunkStore) FindByIdentity(_ context.Context, userID uint64, month string, d chunkDoc) (*Chunk, error) {
	if c, ok := m.rows[identityKey(userID, month, d)]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *memChunkStore) Create(_ context.Context, c *Chunk) error {
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.rows[chunkIdentity(c)] = &cp
	return nil
}

func (m *memChunkStore) Save(_ context.Context, c *Chunk) error {
	cp := *c
	m.rows[chunkIdentity(c)] = &cp
	return nil
}

func TestUpsertChunkRerunUpdatesInPlace(t *testing.T) {
	mem := newMemChunkStore()
	s := &Store{Log: zap.NewNop(), chunks: mem}
	ctx := context.Background()

	d := chunkDoc{
		Date:       "2024-01-10",
		SourceType: SourceEntryLearned,
		SourceID:   5,
		Text:       "indexes beat sequential scans",
		Tags:       []string{"db"},
	}

	inserted, err := s.upsertChunk(ctx, 7, "2024-01", d, "embed-v1", []float64{0.1, 0.2})
	if err != nil {
		t.Fatal(err)
	}
	if !inserted {
		t.Fatal("first upsert did not insert")
	}
	if len(mem.rows) != 1 {
		t.Fatalf("store holds %d rows, want 1", len(mem.rows))
	}

	inserted, err = s.upsertChunk(ctx, 7, "2024-01", d, "embed-v2", []float64{0.3, 0.4})
	if err != nil {
		t.Fatal(err)
	}
	if inserted {
		t.Error("rerun inserted instead of updating")
	}
	if len(mem.rows) != 1 {
		t.Fatalf("rerun duplicated: store holds %d rows, want 1", len(mem.rows))
	}

	row := mem.rows[identityKey(7, "2024-01", d)]
	if row.ID != 1 {
		t.Errorf("row id %d changed on rerun, want 1", row.ID)
	}
	if row.EmbeddingModel != "embed-v2" {
		t.Errorf("embedding model %q, want embed-v2", row.EmbeddingModel)
	}
	if len(row.Embedding) != 2 || row.Embedding[0] != 0.3 || row.Embedding[1] != 0.4 {
		t.Errorf("embedding %v was not overwritten", row.Embedding)
	}
}

func TestUpsertChunkDistinctTextInsertsNewRow(t *testing.T) {
	mem := newMemChunkStore()
	s := &Store{Log: zap.NewNop(), chunks: mem}
	ctx := context.Background()

	d := chunkDoc{Date: "2024-01-10", SourceType: SourceEntryLearned, SourceID: 5, Text: "first half"}
	if _, err := s.upsertChunk(ctx, 7, "2024-01", d, "embed-v1", []float64{0.1}); err != nil {
		t.Fatal(err)
	}

	d2 := d
	d2.Text = "second half"
	inserted, err := s.upsertChunk(ctx, 7, "2024-01", d2, "embed-v1", []float64{0.2})
	if err != nil {
		t.Fatal(err)
	}
	if !inserted {
		t.Error("distinct text did not insert a new row")
	}
	if len(mem.rows) != 2 {
		t.Errorf("store holds %d rows, want 2", len(mem.rows))
	}
}
