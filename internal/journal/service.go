package journal

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trilog/internal/revision"
	"trilog/internal/timeutil"
)

var (
	ErrNotFound = errors.New("entry not found")
	ErrExists   = errors.New("entry already exists for this date")
	ErrInvalid  = errors.New("invalid entry")
)

type Service struct {
	DB        *gorm.DB
	Revisions *revision.Service
	Log       *zap.Logger
}

func NewService(db *gorm.DB, revisions *revision.Service, log *zap.Logger) *Service {
	return &Service{DB: db, Revisions: revisions, Log: log.Named("journal")}
}

type NewItem struct {
	Text string
	Tags []string
}

type CreateInput struct {
	Date        string
	Completed   string
	Learned     string
	ReviseLater []NewItem
	Tags        []string
	QuestionID  *uint64
	AnswerID    *uint64
}

// Create stores a new daily entry and schedules its 1/3/7-day revisions.
// Revision scheduling is best-effort: a scheduling failure is logged and the
// entry creation still succeeds (the scheduler is idempotent and can be
// re-invoked later).
func (s *Service) Create(ctx context.Context, userID uint64, in CreateInput) (*Entry, []uint64, error) {
	if err := validateFields(in.Date, in.Completed, in.Learned, in.ReviseLater); err != nil {
		return nil, nil, err
	}

	items := make([]ReviseItem, 0, len(in.ReviseLater))
	for _, it := range in.ReviseLater {
		items = append(items, ReviseItem{
			ID:   uuid.NewString(),
			Text: strings.TrimSpace(it.Text),
			Tags: it.Tags,
		})
	}

	entry := Entry{
		UserID:      userID,
		Date:        in.Date,
		Completed:   strings.TrimSpace(in.Completed),
		Learned:     strings.TrimSpace(in.Learned),
		ReviseLater: items,
		Tags:        in.Tags,
		QuestionID:  in.QuestionID,
		AnswerID:    in.AnswerID,
	}

	var existing Entry
	err := s.DB.WithContext(ctx).Where("user_id = ? AND date = ?", userID, in.Date).First(&existing).Error
	if err == nil {
		return nil, nil, ErrExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	if err := s.DB.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, nil, err
	}

	scheduleIDs := s.scheduleItems(ctx, &entry, items)
	return &entry, scheduleIDs, nil
}

type ItemPatch struct {
	ID   string // empty for new items
	Text string
	Tags []string
}

type UpdateInput struct {
	Completed   *string
	Learned     *string
	Tags        []string
	ReviseLater []ItemPatch // nil leaves the list untouched
}

// Update edits an entry, appends to its edit-history log, and schedules
// revisions for genuinely new revise-later items only (existing item ids are
// preserved, so re-scheduling them is an idempotent no-op anyway).
func (s *Service) Update(ctx context.Context, userID, id uint64, in UpdateInput) (*Entry, error) {
	var entry Entry
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	history := []EditRecord(entry.EditHistory)

	if in.Completed != nil {
		v := strings.TrimSpace(*in.Completed)
		if v == "" || len(v) > maxFieldLen {
			return nil, ErrInvalid
		}
		if v != entry.Completed {
			history = append(history, EditRecord{EditedAt: now, Field: "completed"})
		}
		entry.Completed = v
	}
	if in.Learned != nil {
		v := strings.TrimSpace(*in.Learned)
		if v == "" || len(v) > maxFieldLen {
			return nil, ErrInvalid
		}
		if v != entry.Learned {
			history = append(history, EditRecord{EditedAt: now, Field: "learned"})
		}
		entry.Learned = v
	}
	if in.Tags != nil {
		entry.Tags = in.Tags
	}
	entry.EditHistory = history

	var newItems []ReviseItem
	if in.ReviseLater != nil {
		existingIDs := make(map[string]struct{}, len(entry.ReviseLater))
		for _, it := range entry.ReviseLater {
			existingIDs[it.ID] = struct{}{}
		}

		merged := make([]ReviseItem, 0, len(in.ReviseLater))
		for _, p := range in.ReviseLater {
			text := strings.TrimSpace(p.Text)
			if text == "" || len(text) > maxFieldLen {
				return nil, ErrInvalid
			}
			item := ReviseItem{ID: p.ID, Text: text, Tags: p.Tags}
			if _, ok := existingIDs[p.ID]; !ok || p.ID == "" {
				item.ID = uuid.NewString()
				newItems = append(newItems, item)
			}
			merged = append(merged, item)
		}
		entry.ReviseLater = merged
	}

	if err := s.DB.WithContext(ctx).Save(&entry).Error; err != nil {
		return nil, err
	}

	if len(newItems) > 0 {
		s.scheduleItems(ctx, &entry, newItems)
	}
	return &entry, nil
}

func (s *Service) scheduleItems(ctx context.Context, entry *Entry, items []ReviseItem) []uint64 {
	if len(items) == 0 {
		return nil
	}
	refs := make([]revision.Item, 0, len(items))
	for _, it := range items {
		refs = append(refs, revision.Item{ID: it.ID, Text: it.Text})
	}
	ids, err := s.Revisions.ScheduleRevisions(ctx, revision.EntryRef{
		ID:     entry.ID,
		UserID: entry.UserID,
		Date:   entry.Date,
	}, refs)
	if err != nil {
		s.Log.Error("failed to schedule revisions", zap.Uint64("entry_id", entry.ID), zap.Error(err))
	}
	return ids
}

func (s *Service) Get(ctx context.Context, userID, id uint64) (*Entry, error) {
	var entry Entry
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &entry, err
}

type ListFilter struct {
	Date      string
	StartDate string
	EndDate   string
	Limit     int
	Offset    int
}

func (s *Service) List(ctx context.Context, userID uint64, f ListFilter) ([]Entry, int64, error) {
	q := s.DB.WithContext(ctx).Model(&Entry{}).Where("user_id = ?", userID)
	switch {
	case f.Date != "":
		q = q.Where("date = ?", f.Date)
	case f.StartDate != "" && f.EndDate != "":
		q = q.Where("date >= ? AND date <= ?", f.StartDate, f.EndDate)
	case f.StartDate != "":
		q = q.Where("date >= ?", f.StartDate)
	case f.EndDate != "":
		q = q.Where("date <= ?", f.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 30
	}

	var out []Entry
	err := q.Order("date desc").Limit(limit).Offset(f.Offset).Find(&out).Error
	return out, total, err
}

// Delete hard-deletes the entry. Derived revision schedules keep their
// denormalized text and remain valid reminders.
func (s *Service) Delete(ctx context.Context, userID, id uint64) error {
	res := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&Entry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRange returns all of a user's entries with dates inside [start, end],
// ascending. Used by the signal extractor and summary generators.
func (s *Service) ListRange(ctx context.Context, userID uint64, startDate, endDate string) ([]Entry, error) {
	var out []Entry
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, startDate, endDate).
		Order("date asc").
		Find(&out).Error
	return out, err
}

func validateFields(date, completed, learned string, items []NewItem) error {
	if _, ok := timeutil.ParseYMD(date); !ok {
		return ErrInvalid
	}
	completed = strings.TrimSpace(completed)
	learned = strings.TrimSpace(learned)
	if completed == "" || len(completed) > maxFieldLen {
		return ErrInvalid
	}
	if learned == "" || len(learned) > maxFieldLen {
		return ErrInvalid
	}
	for _, it := range items {
		t := strings.TrimSpace(it.Text)
		if t == "" || len(t) > maxFieldLen {
			return ErrInvalid
		}
	}
	return nil
}
