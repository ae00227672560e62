package rag

import (
	"time"

	"github.com/lib/pq"
)

// Chunk source types: the five text origins that feed retrieval.
const (
	SourceEntryLearned   = "entry.learned"
	SourceEntryCompleted = "entry.completed"
	SourceEntryRevise    = "entry.revise_item"
	SourceAnswerText     = "answer.text"
	SourceRevisionReply  = "revision.response"
)

// Chunk is derived data: a slice of entry/answer/revision text plus its
// embedding. Fully regenerable from the sources at any time.
type Chunk struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID uint64 `gorm:"index;not null"`
	Month  string `gorm:"type:text;not null;index"` // YYYY-MM
	Date   string `gorm:"type:text;not null;default:''"`

	SourceType string `gorm:"type:text;not null"`
	SourceID   uint64 `gorm:"not null"`

	Text           string          `gorm:"type:text;not null"`
	EmbeddingModel string          `gorm:"type:text;not null"`
	Embedding      pq.Float64Array `gorm:"type:float8[];not null"`
	Tags           pq.StringArray  `gorm:"type:text[];not null;default:'{}'"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// RetrievedChunk is a scored chunk with the raw vector stripped.
type RetrievedChunk struct {
	SourceType string   `json:"sourceType"`
	Date       string   `json:"date,omitempty"`
	Text       string   `json:"text"`
	Tags       []string `json:"tags,omitempty"`
	Similarity float64  `json:"similarity"`
}
