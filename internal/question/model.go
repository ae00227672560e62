package question

import "time"

// Categories drives the daily rotation; the index of the category picked for
// a user is their answered-count over the last 30 days mod len(Categories).
var Categories = []string{
	"learning",
	"reflection",
	"planning",
	"gratitude",
	"growth",
}

// DefaultQuestion is asked when a category has no eligible template left.
const (
	DefaultCategory = "reflection"
	DefaultQuestion = "What stood out to you about today?"
)

// Template is one entry in the seeded question catalog.
type Template struct {
	ID         uint64 `gorm:"primaryKey" json:"id"`
	Category   string `gorm:"size:32;index" json:"category"`
	Text       string `gorm:"size:500" json:"text"`
	Active     bool   `gorm:"default:true" json:"active"`
	UsageCount int    `json:"usageCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Question is a template instance assigned to one user for one date.
type Question struct {
	ID            uint64  `gorm:"primaryKey" json:"id"`
	UserID        uint64  `gorm:"index" json:"userId"`
	TemplateID    *uint64 `json:"templateId,omitempty"`
	Category      string  `gorm:"size:32" json:"category"`
	Text          string  `gorm:"size:500" json:"text"`
	ScheduledDate string  `gorm:"size:10" json:"scheduledDate"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Answer stores the user's response to a daily question.
type Answer struct {
	ID         uint64  `gorm:"primaryKey" json:"id"`
	UserID     uint64  `gorm:"index" json:"userId"`
	QuestionID uint64  `gorm:"index" json:"questionId"`
	EntryID    *uint64 `json:"entryId,omitempty"`
	Text       string  `gorm:"type:text" json:"text"`
	Length     int     `json:"length"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
