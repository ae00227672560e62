package auth

import (
	"time"

	"github.com/lib/pq"
)

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// Preferences control notification delivery for a user.
type Preferences struct {
	EmailOptIn        bool           `gorm:"not null;default:false"`
	DNDEnabled        bool           `gorm:"not null;default:false"`
	DNDStart          string         `gorm:"type:text;not null;default:'22:00'"`
	DNDEnd            string         `gorm:"type:text;not null;default:'08:00'"`
	Categories        pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	DailyReminderTime string         `gorm:"type:text;not null;default:'20:00'"`
}

type User struct {
	ID           uint64 `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Name         string `gorm:"type:text;not null;default:''"`
	Timezone     string `gorm:"type:text;not null;default:'UTC'"`
	Status       string `gorm:"type:text;not null;default:'active';index"`

	Preferences Preferences `gorm:"embedded;embeddedPrefix:pref_"`

	LastActiveAt time.Time `gorm:"not null;default:now()"`
	CreatedAt    time.Time `gorm:"not null;default:now()"`
	UpdatedAt    time.Time `gorm:"not null;default:now()"`
}

// DefaultCategories seed the daily-question rotation for new users.
var DefaultCategories = []string{"Coding", "Logic", "Communication", "Interview", "Personal Growth"}

// DefaultPreferences is applied at registration.
func DefaultPreferences() Preferences {
	return Preferences{
		EmailOptIn:        false,
		DNDEnabled:        false,
		DNDStart:          "22:00",
		DNDEnd:            "08:00",
		Categories:        pq.StringArray(DefaultCategories),
		DailyReminderTime: "20:00",
	}
}
