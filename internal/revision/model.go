package revision

import "time"

// Schedule lifecycle statuses. A schedule never transitions backwards.
const (
	StatusPending   = "pending"
	StatusNotified  = "notified"
	StatusCompleted = "completed"
	StatusMissed    = "missed"
	StatusIgnored   = "ignored"
)

// Offsets are the spaced-repetition intervals, in days after the entry date.
var Offsets = []int{1, 3, 7}

// MaxAttempts caps the missed-with-reschedule cycle.
const MaxAttempts = 3

// Schedule is a concrete dated reminder derived from one revise-later item.
// OriginalText is denormalized so the reminder survives entry edits.
type Schedule struct {
	ID             uint64 `gorm:"primaryKey"`
	UserID         uint64 `gorm:"index;not null"`
	EntryID        uint64 `gorm:"not null"`
	RevisionItemID string `gorm:"type:text;not null"`
	OriginalText   string `gorm:"type:text;not null"`

	OffsetDays  int       `gorm:"not null"`
	ScheduledAt time.Time `gorm:"index;not null"`
	Status      string    `gorm:"type:text;not null;default:'pending';index"`

	NotifiedAt  *time.Time `gorm:"type:timestamptz"`
	CompletedAt *time.Time `gorm:"type:timestamptz"`

	ResponseText string `gorm:"type:text;not null;default:''"`
	Confidence   *int

	Attempts      int     `gorm:"not null;default:0"`
	PriorityScore float64 `gorm:"not null;default:1.0"`

	// IdempotencyKey makes scheduling safely re-runnable: at most one schedule
	// per (entry, item, offset). Reschedules after a miss carry no key; the
	// partial unique index lives in db.AutoMigrateAndIndexes.
	IdempotencyKey *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Schedule) TableName() string { return "revision_schedules" }
