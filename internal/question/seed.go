package question

import (
	"context"

	"gorm.io/gorm"
)

var seedTemplates = []Template{
	{Category: "learning", Text: "What is one thing you learned today that surprised you?", Active: true},
	{Category: "learning", Text: "Which concept from today would you struggle to explain to someone else?", Active: true},
	{Category: "learning", Text: "What did you get wrong today, and what did it teach you?", Active: true},
	{Category: "learning", Text: "If you could re-study one thing from this week, what would it be?", Active: true},
	{Category: "reflection", Text: "What stood out to you about today?", Active: true},
	{Category: "reflection", Text: "What drained your energy today, and what restored it?", Active: true},
	{Category: "reflection", Text: "What would you do differently if today started over?", Active: true},
	{Category: "planning", Text: "What is the single most important thing to finish tomorrow?", Active: true},
	{Category: "planning", Text: "What is one thing you keep postponing, and what is the smallest next step?", Active: true},
	{Category: "planning", Text: "What could block you tomorrow, and how will you handle it?", Active: true},
	{Category: "gratitude", Text: "What is one thing you are grateful for today?", Active: true},
	{Category: "gratitude", Text: "Who helped you recently, and have you thanked them?", Active: true},
	{Category: "gratitude", Text: "What small thing made today easier than it could have been?", Active: true},
	{Category: "growth", Text: "Where did you step outside your comfort zone today?", Active: true},
	{Category: "growth", Text: "What habit are you building, and how did it go today?", Active: true},
	{Category: "growth", Text: "What feedback did you receive recently, and what did you do with it?", Active: true},
}

// SeedTemplates inserts the question catalog once; an already-seeded table is
// left untouched so operator edits survive restarts.
func SeedTemplates(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&Template{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	templates := make([]Template, len(seedTemplates))
	copy(templates, seedTemplates)
	return db.WithContext(ctx).Create(&templates).Error
}
