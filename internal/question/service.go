package question

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"trilog/internal/timeutil"
)

var (
	ErrNotFound  = errors.New("question not found")
	ErrInvalid   = errors.New("invalid answer")
	ErrBadDate   = errors.New("invalid date, expected YYYY-MM-DD")
	ErrForbidden = errors.New("question belongs to another user")
)

const (
	maxAnswerLen     = 2000
	rotationLookback = 30 * 24 * time.Hour
)

type Service struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{DB: db, Log: log.Named("question")}
}

// AssignDaily returns the user's question for the date, creating one by
// rotation if it does not exist yet. Rotation keeps categories cycling with
// the user's answering pace and avoids repeating a template inside 30 days.
func (s *Service) AssignDaily(ctx context.Context, userID uint64, date string) (Question, error) {
	if _, ok := timeutil.ParseYMD(date); !ok {
		return Question{}, ErrBadDate
	}

	var existing Question
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND scheduled_date = ?", userID, date).
		First(&existing).Error
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Question{}, err
	}

	since := time.Now().UTC().Add(-rotationLookback)

	var answered int64
	err = s.DB.WithContext(ctx).Model(&Answer{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&answered).Error
	if err != nil {
		return Question{}, err
	}
	category := Categories[int(answered)%len(Categories)]

	var candidates []Template
	err = s.DB.WithContext(ctx).
		Where("category = ? AND active = ?", category, true).
		Order("usage_count asc, id asc").
		Find(&candidates).Error
	if err != nil {
		return Question{}, err
	}

	var recent []Question
	err = s.DB.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND template_id IS NOT NULL", userID, since).
		Find(&recent).Error
	if err != nil {
		return Question{}, err
	}
	asked := make(map[uint64]bool, len(recent))
	for _, q := range recent {
		if q.TemplateID != nil {
			asked[*q.TemplateID] = true
		}
	}

	q := Question{UserID: userID, ScheduledDate: date}
	if picked := pickTemplate(candidates, asked); picked != nil {
		id := picked.ID
		q.TemplateID = &id
		q.Category = picked.Category
		q.Text = picked.Text
		if err := s.DB.WithContext(ctx).Model(&Template{}).
			Where("id = ?", picked.ID).
			UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error; err != nil {
			s.Log.Warn("template usage bump failed", zap.Uint64("template_id", picked.ID), zap.Error(err))
		}
	} else {
		q.Category = DefaultCategory
		q.Text = DefaultQuestion
	}

	if err := s.DB.WithContext(ctx).Create(&q).Error; err != nil {
		// concurrent assignment for the same day loses the race; reuse the winner
		var again Question
		if ferr := s.DB.WithContext(ctx).
			Where("user_id = ? AND scheduled_date = ?", userID, date).
			First(&again).Error; ferr == nil {
			return again, nil
		}
		return Question{}, err
	}
	return q, nil
}

// pickTemplate chooses the least-used active template whose id is not in
// asked. Candidates must already be sorted by usage then id. Returns nil when
// every candidate was asked recently (or there are none).
func pickTemplate(candidates []Template, asked map[uint64]bool) *Template {
	for i := range candidates {
		if !asked[candidates[i].ID] {
			return &candidates[i]
		}
	}
	return nil
}

// Answer records a response to the given question, updating in place if the
// user already answered it.
func (s *Service) Answer(ctx context.Context, userID, questionID uint64, entryID *uint64, text string) (Answer, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || len(trimmed) > maxAnswerLen {
		return Answer{}, ErrInvalid
	}

	var q Question
	err := s.DB.WithContext(ctx).First(&q, "id = ?", questionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Answer{}, ErrNotFound
	}
	if err != nil {
		return Answer{}, err
	}
	if q.UserID != userID {
		return Answer{}, ErrForbidden
	}

	var a Answer
	err = s.DB.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		First(&a).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		a = Answer{UserID: userID, QuestionID: questionID, EntryID: entryID, Text: trimmed, Length: len(trimmed)}
		return a, s.DB.WithContext(ctx).Create(&a).Error
	case err != nil:
		return Answer{}, err
	}

	a.Text = trimmed
	a.Length = len(trimmed)
	if entryID != nil {
		a.EntryID = entryID
	}
	return a, s.DB.WithContext(ctx).Save(&a).Error
}

// Today resolves the question for the current UTC day.
func (s *Service) Today(ctx context.Context, userID uint64) (Question, error) {
	return s.AssignDaily(ctx, userID, timeutil.YMD(time.Now().UTC()))
}
