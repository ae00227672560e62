package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"trilog/internal/auth"
	"trilog/internal/mail"
	"trilog/internal/revision"
	"trilog/internal/timeutil"
)

// RevisionPoller periodically delivers due-revision emails. Work within one
// tick is sequential per record; the only guard against a concurrent tick is
// the status-conditioned update, which turns double-processing into a no-op.
type RevisionPoller struct {
	DB   *gorm.DB
	Mail *mail.Client
	Log  *zap.Logger

	Interval  time.Duration
	BatchSize int
	MaxPerDay int
	ClientURL string
	DND       DNDDefaults
}

// TickReport aggregates the per-record outcomes of one tick.
type TickReport struct {
	Due     int
	Sent    int
	Skipped map[SkipReason]int
	Failed  int
}

func (p *RevisionPoller) Run(ctx context.Context) {
	st := p.Mail.Status()
	if st.State == mail.StateDisabled {
		p.Log.Info("revision notifications disabled")
		return
	}
	if st.State == mail.StateMissing {
		p.Log.Warn("revision notifications enabled but smtp config incomplete",
			zap.Strings("missing", st.Missing))
		return
	}

	interval := p.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.Log.Info("revision notification poller started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := p.Tick(ctx, time.Now().UTC())
			if err != nil {
				p.Log.Error("notification tick failed", zap.Error(err))
				continue
			}
			if report.Due > 0 {
				p.Log.Info("notification tick",
					zap.Int("due", report.Due),
					zap.Int("sent", report.Sent),
					zap.Int("failed", report.Failed),
					zap.Any("skipped", report.Skipped))
			}
		}
	}
}

// Tick processes one batch of due pending schedules, oldest first.
func (p *RevisionPoller) Tick(ctx context.Context, now time.Time) (TickReport, error) {
	report := TickReport{Skipped: map[SkipReason]int{}}

	batch := p.BatchSize
	if batch <= 0 {
		batch = 50
	}

	var due []revision.Schedule
	err := p.DB.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", revision.StatusPending, now).
		Order("scheduled_at asc").
		Limit(batch).
		Find(&due).Error
	if err != nil {
		return report, err
	}
	report.Due = len(due)

	for _, sched := range due {
		reason, err := p.process(ctx, now, sched)
		if err != nil {
			report.Failed++
			p.Log.Error("revision notification failed",
				zap.Uint64("schedule_id", sched.ID),
				zap.Uint64("user_id", sched.UserID),
				zap.Error(err))
			continue
		}
		if reason != SkipNone {
			report.Skipped[reason]++
			continue
		}
		report.Sent++
	}
	return report, nil
}

func (p *RevisionPoller) process(ctx context.Context, now time.Time, sched revision.Schedule) (SkipReason, error) {
	var user auth.User
	err := p.DB.WithContext(ctx).First(&user, "id = ?", sched.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return SkipInactive, nil
	}
	if err != nil {
		return SkipNone, err
	}

	sentToday, err := p.countSentToday(ctx, user.ID, now)
	if err != nil {
		return SkipNone, err
	}

	if reason := Eligibility(user, now, sentToday, p.MaxPerDay, p.DND); reason != SkipNone {
		return reason, nil
	}

	msg := BuildRevisionEmail(user.Name, sched, p.ClientURL)
	msg.To = user.Email
	result, err := p.Mail.Send(ctx, msg)
	if err != nil {
		return SkipNone, err
	}
	if result.Skipped {
		return SkipMail, nil
	}

	// status-guarded update: a concurrent tick that already notified this
	// schedule makes this a zero-row no-op
	return SkipNone, p.DB.WithContext(ctx).Model(&revision.Schedule{}).
		Where("id = ? AND status = ?", sched.ID, revision.StatusPending).
		Updates(map[string]any{
			"status":      revision.StatusNotified,
			"notified_at": now,
		}).Error
}

// countSentToday counts notifications already delivered to the user during
// the current UTC day, the unit the daily cap is defined over.
func (p *RevisionPoller) countSentToday(ctx context.Context, userID uint64, now time.Time) (int, error) {
	dayStart := timeutil.StartOfUTCDay(now)
	dayEnd := dayStart.Add(24 * time.Hour)

	var n int64
	err := p.DB.WithContext(ctx).Model(&revision.Schedule{}).
		Where("user_id = ? AND notified_at >= ? AND notified_at < ?", userID, dayStart, dayEnd).
		Count(&n).Error
	return int(n), err
}
