package schedule

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trilog/internal/timeutil"
)

var (
	ErrNotFound = errors.New("schedule not found")
	ErrInvalid  = errors.New("invalid schedule")
)

type Service struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{DB: db, Log: log.Named("schedule")}
}

type UpsertInput struct {
	Date     string `json:"date"`
	WakeTime string `json:"wakeTime"`
	BedTime  string `json:"bedTime"`
	Tasks    []Task `json:"tasks"`
}

// Upsert creates or replaces the user's plan for the date. Task ids are kept
// when provided so clients can diff; blank ones are assigned.
func (s *Service) Upsert(ctx context.Context, userID uint64, in UpsertInput) (DaySchedule, error) {
	if _, ok := timeutil.ParseYMD(in.Date); !ok {
		return DaySchedule{}, ErrInvalid
	}
	if _, ok := timeutil.ParseHHMM(in.WakeTime); in.WakeTime != "" && !ok {
		return DaySchedule{}, ErrInvalid
	}
	if _, ok := timeutil.ParseHHMM(in.BedTime); in.BedTime != "" && !ok {
		return DaySchedule{}, ErrInvalid
	}

	tasks := make([]Task, 0, len(in.Tasks))
	for _, t := range in.Tasks {
		if strings.TrimSpace(t.Name) == "" {
			return DaySchedule{}, ErrInvalid
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.Duration <= 0 {
			t.Duration = taskDuration(t.StartTime, t.EndTime)
		}
		tasks = append(tasks, t)
	}

	var sched DaySchedule
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, in.Date).
		First(&sched).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return DaySchedule{}, err
	}

	sched.UserID = userID
	sched.Date = in.Date
	sched.WakeTime = in.WakeTime
	sched.BedTime = in.BedTime
	sched.Tasks = tasks
	sched.ProductiveHours = ProductiveHours(tasks)

	return sched, s.DB.WithContext(ctx).Save(&sched).Error
}

func (s *Service) Get(ctx context.Context, userID uint64, date string) (DaySchedule, error) {
	var sched DaySchedule
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&sched).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DaySchedule{}, ErrNotFound
	}
	return sched, err
}

// ProductiveHours sums completed task durations, rounded to two decimals.
func ProductiveHours(tasks []Task) float64 {
	minutes := 0
	for _, t := range tasks {
		if t.Completed && t.Duration > 0 {
			minutes += t.Duration
		}
	}
	return math.Round(float64(minutes)/60*100) / 100
}

// AvailableHours is the waking span between wake and bed times, handling
// bedtimes past midnight. Zero when either time is missing or malformed.
func AvailableHours(wake, bed string) float64 {
	w, okW := timeutil.ParseHHMM(wake)
	b, okB := timeutil.ParseHHMM(bed)
	if !okW || !okB {
		return 0
	}
	span := b - w
	if span <= 0 {
		span += 24 * 60
	}
	return math.Round(float64(span)/60*100) / 100
}

// taskDuration derives minutes from a start/end pair, tolerating tasks that
// cross midnight.
func taskDuration(start, end string) int {
	sm, okS := timeutil.ParseHHMM(start)
	em, okE := timeutil.ParseHHMM(end)
	if !okS || !okE {
		return 0
	}
	d := em - sm
	if d < 0 {
		d += 24 * 60
	}
	return d
}
