package revision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"trilog/internal/timeutil"
)

var (
	ErrNotFound         = errors.New("revision schedule not found")
	ErrAlreadyCompleted = errors.New("revision already completed")
	ErrBadEntryDate     = errors.New("entry date must be YYYY-MM-DD")
	ErrBadConfidence    = errors.New("confidence must be between 0 and 5")
)

// EntryRef is the slice of a journal entry the scheduler needs.
type EntryRef struct {
	ID     uint64
	UserID uint64
	Date   string // YYYY-MM-DD
}

// Item is one revise-later item to schedule.
type Item struct {
	ID   string
	Text string
}

type Service struct {
	DB    *gorm.DB
	Log   *zap.Logger
	store scheduleStore
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{DB: db, Log: log.Named("revision"), store: gormScheduleStore{db}}
}

// scheduleStore is the persistence surface the scheduler writes through.
// gormScheduleStore is the only implementation outside tests.
type scheduleStore interface {
	FindByKey(ctx context.Context, key string) (*Schedule, error)
	Create(ctx context.Context, sched *Schedule) error
}

type gormScheduleStore struct{ db *gorm.DB }

func (g gormScheduleStore) FindByKey(ctx context.Context, key string) (*Schedule, error) {
	var sched Schedule
	err := g.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&sched).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sched, nil
}

func (g gormScheduleStore) Create(ctx context.Context, sched *Schedule) error {
	return g.db.WithContext(ctx).Create(sched).Error
}

// IdempotencyKey is the deterministic identity of one (entry, item, offset)
// schedule: {entryID}_{itemID}_{offsetDays}.
func IdempotencyKey(entryID uint64, itemID string, offsetDays int) string {
	return fmt.Sprintf("%d_%s_%d", entryID, itemID, offsetDays)
}

// ScheduledAtFor computes the reminder instant for an entry date and offset:
// entryDate + offsetDays, pinned to 12:00 UTC.
func ScheduledAtFor(entryDate string, offsetDays int) (time.Time, error) {
	d, ok := timeutil.ParseYMD(entryDate)
	if !ok {
		return time.Time{}, ErrBadEntryDate
	}
	d = d.AddDate(0, 0, offsetDays)
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.UTC), nil
}

// ScheduleRevisions creates the 1/3/7-day schedules for the given items.
// Calling it twice with the same entry and items is a no-op for already
// scheduled pairs: the existing ids are returned instead of duplicates.
// A failure on one item/offset is logged and does not abort the rest.
func (s *Service) ScheduleRevisions(ctx context.Context, entry EntryRef, items []Item) ([]uint64, error) {
	if len(items) == 0 {
		return nil, nil
	}

	var ids []uint64
	for _, item := range items {
		for _, offset := range Offsets {
			id, err := s.scheduleOne(ctx, entry, item, offset)
			if err != nil {
				s.Log.Error("failed to schedule revision",
					zap.Uint64("entry_id", entry.ID),
					zap.String("item_id", item.ID),
					zap.Int("offset_days", offset),
					zap.Error(err))
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Service) scheduleOne(ctx context.Context, entry EntryRef, item Item, offsetDays int) (uint64, error) {
	scheduledAt, err := ScheduledAtFor(entry.Date, offsetDays)
	if err != nil {
		return 0, err
	}

	key := IdempotencyKey(entry.ID, item.ID, offsetDays)

	existing, err := s.store.FindByKey(ctx, key)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	sched := Schedule{
		UserID:         entry.UserID,
		EntryID:        entry.ID,
		RevisionItemID: item.ID,
		OriginalText:   item.Text,
		OffsetDays:     offsetDays,
		ScheduledAt:    scheduledAt,
		Status:         StatusPending,
		PriorityScore:  1.0,
		IdempotencyKey: &key,
	}
	if err := s.store.Create(ctx, &sched); err != nil {
		// Lost a race against a concurrent call with the same key; reuse theirs.
		if raced, ferr := s.store.FindByKey(ctx, key); ferr == nil && raced != nil {
			return raced.ID, nil
		}
		return 0, err
	}
	return sched.ID, nil
}

// ListDue returns pending schedules due at or before the given instant,
// oldest first.
func (s *Service) ListDue(ctx context.Context, userID uint64, before time.Time) ([]Schedule, error) {
	var out []Schedule
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND status = ? AND scheduled_at <= ?", userID, StatusPending, before).
		Order("scheduled_at asc").
		Find(&out).Error
	return out, err
}

// ListByStatus lists a user's schedules, optionally filtered by status,
// ordered by scheduledAt. An empty status defaults to pending+notified.
func (s *Service) ListByStatus(ctx context.Context, userID uint64, status string, limit, offset int) ([]Schedule, int64, error) {
	q := s.DB.WithContext(ctx).Model(&Schedule{}).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	} else {
		q = q.Where("status in ?", []string{StatusPending, StatusNotified})
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []Schedule
	err := q.Order("scheduled_at asc").Limit(limit).Offset(offset).Find(&out).Error
	return out, total, err
}

// Complete marks a schedule completed with the user's response.
func (s *Service) Complete(ctx context.Context, userID, id uint64, responseText string, confidence *int) (*Schedule, error) {
	if confidence != nil && (*confidence < 0 || *confidence > 5) {
		return nil, ErrBadConfidence
	}
	var sched Schedule
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&sched).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if sched.Status == StatusCompleted {
		return nil, ErrAlreadyCompleted
	}

	now := time.Now().UTC()
	sched.Status = StatusCompleted
	sched.CompletedAt = &now
	sched.ResponseText = responseText
	sched.Confidence = confidence
	if err := s.DB.WithContext(ctx).Save(&sched).Error; err != nil {
		return nil, err
	}
	return &sched, nil
}

// MarkMissed sets the schedule to missed and bumps the attempt counter.
// When reschedule is requested and fewer than MaxAttempts attempts have been
// made, a fresh pending schedule is created for tomorrow noon UTC with the
// priority score raised by 20%. Past the cap the record stays missed.
func (s *Service) MarkMissed(ctx context.Context, userID, id uint64, reschedule bool) (*Schedule, error) {
	var sched Schedule
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&sched).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sched.Status = StatusMissed
	sched.Attempts++
	if err := s.DB.WithContext(ctx).Save(&sched).Error; err != nil {
		return nil, err
	}

	if !reschedule {
		return &sched, nil
	}
	next, ok := planReschedule(sched, time.Now())
	if !ok {
		return &sched, nil
	}
	if err := s.DB.WithContext(ctx).Create(&next).Error; err != nil {
		return nil, err
	}
	return &next, nil
}

// planReschedule builds the follow-up schedule after a miss: tomorrow noon
// UTC, priority raised by 20%, no idempotency key. Past the attempt cap it
// reports false and nothing is created.
func planReschedule(prev Schedule, now time.Time) (Schedule, bool) {
	if prev.Attempts >= MaxAttempts {
		return Schedule{}, false
	}
	return Schedule{
		UserID:         prev.UserID,
		EntryID:        prev.EntryID,
		RevisionItemID: prev.RevisionItemID,
		OriginalText:   prev.OriginalText,
		OffsetDays:     prev.OffsetDays,
		ScheduledAt:    nextNoonUTC(now),
		Status:         StatusPending,
		Attempts:       prev.Attempts,
		PriorityScore:  prev.PriorityScore * 1.2,
	}, true
}

func nextNoonUTC(now time.Time) time.Time {
	d := now.UTC().AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.UTC)
}
