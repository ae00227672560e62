package journal

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

const maxFieldLen = 500

// ReviseItem is a note the user flagged as worth revisiting later. Its ID is
// assigned once at creation and referenced by derived revision schedules.
type ReviseItem struct {
	ID   string   `json:"id"`
	Text string   `json:"text"`
	Tags []string `json:"tags,omitempty"`
}

// EditRecord is one line of the lightweight edit-history log.
type EditRecord struct {
	EditedAt time.Time `json:"edited_at"`
	Field    string    `json:"field"`
}

// Entry is the three-point daily reflection. One per (user, date).
type Entry struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID uint64 `gorm:"index;not null"`
	Date   string `gorm:"type:text;not null"` // YYYY-MM-DD

	Completed string `gorm:"type:text;not null"`
	Learned   string `gorm:"type:text;not null"`

	ReviseLater datatypes.JSONSlice[ReviseItem] `gorm:"type:jsonb;not null;default:'[]'"`
	Tags        pq.StringArray                  `gorm:"type:text[];not null;default:'{}'"`

	QuestionID *uint64
	AnswerID   *uint64

	EditHistory datatypes.JSONSlice[EditRecord] `gorm:"type:jsonb;not null;default:'[]'"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}
