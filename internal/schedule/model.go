package schedule

import (
	"time"

	"gorm.io/datatypes"
)

// Task is one time-blocked item inside a day plan.
type Task struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"startTime"` // HH:MM
	EndTime   string `json:"endTime"`   // HH:MM
	Duration  int    `json:"duration"`  // minutes
	Priority  string `json:"priority,omitempty"`
	Color     string `json:"color,omitempty"`
	Completed bool   `json:"completed"`
	Notes     string `json:"notes,omitempty"`
}

// DaySchedule is the single plan a user keeps for one date.
type DaySchedule struct {
	ID     uint64 `gorm:"primaryKey" json:"id"`
	UserID uint64 `gorm:"index:idx_schedule_user_date,unique" json:"userId"`
	Date   string `gorm:"size:10;index:idx_schedule_user_date,unique" json:"date"`

	WakeTime string `gorm:"size:5" json:"wakeTime"`
	BedTime  string `gorm:"size:5" json:"bedTime"`

	Tasks datatypes.JSONSlice[Task] `json:"tasks"`

	// ProductiveHours is recomputed from completed task durations on save.
	ProductiveHours float64 `json:"productiveHours"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
