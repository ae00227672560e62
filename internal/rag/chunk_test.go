package rag

import (
	"strings"
	"testing"
)

func TestChunkTextShort(t *testing.T) {
	got := ChunkText("learned about goroutines today", DefaultChunkLen)
	if len(got) != 1 || got[0] != "learned about goroutines today" {
		t.Fatalf("got %v", got)
	}
}

func TestChunkTextEmpty(t *testing.T) {
	if got := ChunkText("   ", DefaultChunkLen); got != nil {
		t.Fatalf("expected nil for blank input, got %v", got)
	}
}

func TestChunkTextSplitsOnSentences(t *testing.T) {
	sentence := strings.Repeat("x", 400) + ". "
	text := strings.Repeat(sentence, 4)
	got := ChunkText(text, DefaultChunkLen)
	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(got))
	}
	for i, c := range got {
		if len(c) > DefaultChunkLen {
			t.Errorf("chunk %d is %d chars, over the limit", i, len(c))
		}
	}
}

func TestChunkTextCap(t *testing.T) {
	text := strings.Repeat(strings.Repeat("y", 880)+".\n", 20)
	got := ChunkText(text, DefaultChunkLen)
	if len(got) != maxChunksPerField {
		t.Fatalf("expected cap at %d chunks, got %d", maxChunksPerField, len(got))
	}
}

func TestChunkTextHardSplitLongSentence(t *testing.T) {
	text := strings.Repeat("z", 2000)
	got := ChunkText(text, DefaultChunkLen)
	if len(got) < 2 {
		t.Fatalf("expected hard split, got %d chunks", len(got))
	}
	for _, c := range got {
		if len(c) > DefaultChunkLen {
			t.Fatalf("chunk length %d exceeds limit", len(c))
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float64{0.2, 0.5, 0.9}
	if got := CosineSimilarity(a, a); got < 0.9999 || got > 1.0001 {
		t.Errorf("identical vectors: got %f, want 1.0", got)
	}
	if got := CosineSimilarity(a, []float64{0, 0, 0}); got != 0 {
		t.Errorf("zero vector: got %f, want 0", got)
	}
	if got := CosineSimilarity(a, []float64{1, 2}); got != 0 {
		t.Errorf("length mismatch: got %f, want 0", got)
	}
	if got := CosineSimilarity([]float64{1, 0}, []float64{0, 1}); got != 0 {
		t.Errorf("orthogonal vectors: got %f, want 0", got)
	}
}

func TestMonthRange(t *testing.T) {
	start, end, err := MonthRange("2024-02")
	if err != nil {
		t.Fatal(err)
	}
	if start != "2024-02-01" || end != "2024-02-29" {
		t.Errorf("got %s..%s", start, end)
	}
	if _, _, err := MonthRange("2024-13"); err == nil {
		t.Error("expected error for month 13")
	}
	if _, _, err := MonthRange("202402"); err == nil {
		t.Error("expected error for unformatted month")
	}
}

func TestMonthsBetween(t *testing.T) {
	got := MonthsBetween("2023-11-15", "2024-01-02")
	want := []string{"2023-11", "2023-12", "2024-01"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("month %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestMonthsBetweenCapped(t *testing.T) {
	got := MonthsBetween("2000-01-01", "2024-01-01")
	if len(got) != maxMonthSpan {
		t.Fatalf("expected cap at %d months, got %d", maxMonthSpan, len(got))
	}
}
