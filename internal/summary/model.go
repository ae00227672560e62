package summary

import (
	"time"

	"gorm.io/datatypes"

	"trilog/internal/signal"
)

const (
	GeneratorHeuristic = "heuristic"
	GeneratorAIRAG     = "ai-rag"

	ModeAI        = "ai"
	ModeAIRAG     = "ai-rag"
	ModeHeuristic = "heuristic"
)

func datatypesJSON[T any](v T) datatypes.JSONType[T] { return datatypes.NewJSONType(v) }

// Period is the concrete date window a summary covers.
type Period struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Stats are the window activity counters every summary is built from.
type Stats struct {
	EntryDays               int     `json:"entryDays"`
	ReviseItemsCreated      int     `json:"reviseItemsCreated"`
	RevisionsScheduled      int     `json:"revisionsScheduled"`
	RevisionsCompleted      int     `json:"revisionsCompleted"`
	RevisionsCompletionRate float64 `json:"revisionsCompletionRate"`
	QuestionsAnswered       int     `json:"questionsAnswered"`
}

// hasActivity reports whether the window produced anything to review. The
// completion rate is derived and does not count. Weekly generation refuses
// an all-zero window.
func (s Stats) hasActivity() bool {
	return s.EntryDays > 0 || s.ReviseItemsCreated > 0 || s.RevisionsScheduled > 0 ||
		s.RevisionsCompleted > 0 || s.QuestionsAnswered > 0
}

// Evaluation is the qualitative assessment, heuristic-drafted and optionally
// AI-refined. NextFocus is "next month" or "next week" depending on the
// summary kind.
type Evaluation struct {
	WhatWorked    []string `json:"whatWorked"`
	WhatToImprove []string `json:"whatToImprove"`
	NextFocus     []string `json:"nextFocus"`
	Score         int      `json:"score"`
}

// Recommendation is one suggested resource with its match rationale.
type Recommendation struct {
	Title  string   `json:"title"`
	URL    string   `json:"url"`
	Reason string   `json:"reason"`
	Tags   []string `json:"tags"`
	Score  float64  `json:"score"`
}

// Monthly is the persisted month review, one per (user, month).
type Monthly struct {
	ID     uint64 `gorm:"primaryKey" json:"id"`
	UserID uint64 `gorm:"index:idx_monthly_user_month,unique" json:"userId"`
	Month  string `gorm:"size:7;index:idx_monthly_user_month,unique" json:"month"`

	Period          datatypes.JSONType[Period]          `json:"period"`
	Stats           datatypes.JSONType[Stats]           `json:"stats"`
	Signals         datatypes.JSONType[signal.Signals]  `json:"signals"`
	Narrative       string                              `gorm:"type:text" json:"narrative"`
	KeyLearnings    datatypes.JSONSlice[string]         `json:"keyLearnings"`
	Evaluation      datatypes.JSONType[Evaluation]      `json:"evaluation"`
	Recommendations datatypes.JSONSlice[Recommendation] `json:"recommendations"`
	Generator       string                              `gorm:"size:16" json:"generator"`
	GeneratedAt     time.Time                           `json:"generatedAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Monthly) TableName() string { return "monthly_summaries" }

// Weekly is the persisted trailing-7-day review, one per (user, week start).
type Weekly struct {
	ID            uint64 `gorm:"primaryKey" json:"id"`
	UserID        uint64 `gorm:"index:idx_weekly_user_start,unique" json:"userId"`
	WeekStartDate string `gorm:"size:10;index:idx_weekly_user_start,unique" json:"weekStartDate"`
	WeekEndDate   string `gorm:"size:10" json:"weekEndDate"`

	Period          datatypes.JSONType[Period]          `json:"period"`
	Stats           datatypes.JSONType[Stats]           `json:"stats"`
	Signals         datatypes.JSONType[signal.Signals]  `json:"signals"`
	Narrative       string                              `gorm:"type:text" json:"narrative"`
	KeyLearnings    datatypes.JSONSlice[string]         `json:"keyLearnings"`
	Evaluation      datatypes.JSONType[Evaluation]      `json:"evaluation"`
	Recommendations datatypes.JSONSlice[Recommendation] `json:"recommendations"`
	Generator       string                              `gorm:"size:16" json:"generator"`
	GeneratedAt     time.Time                           `json:"generatedAt"`

	// EmailedAt marks delivery by the weekly poller so it never resends.
	EmailedAt *time.Time `json:"emailedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Weekly) TableName() string { return "weekly_summaries" }
