package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"trilog/internal/auth"
	"trilog/internal/mail"
	"trilog/internal/summary"
	"trilog/internal/timeutil"
)

// WeeklyPoller generates and emails the Sunday weekly reviews. It checks
// every minute and fires once per Sunday at the configured send time.
type WeeklyPoller struct {
	DB        *gorm.DB
	Mail      *mail.Client
	Summaries *summary.Service
	Log       *zap.Logger

	Enabled   bool
	SendTime  string // HH:MM, UTC
	RequireAI bool
	BatchSize int
	ClientURL string
	DND       DNDDefaults

	lastRunDay string
}

func (p *WeeklyPoller) Run(ctx context.Context) {
	if !p.Enabled {
		p.Log.Info("weekly summary poller disabled")
		return
	}

	st := p.Mail.Status()
	if st.State == mail.StateDisabled {
		p.Log.Info("weekly summary emails disabled, summaries will still be generated")
	} else if st.State == mail.StateMissing {
		p.Log.Warn("weekly summary emails enabled but smtp config incomplete",
			zap.Strings("missing", st.Missing))
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	p.Log.Info("weekly summary poller started", zap.String("send_time", p.SendTime))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UTC()
			if !p.shouldFire(now) {
				continue
			}
			p.lastRunDay = timeutil.YMD(now)
			if err := p.Tick(ctx, now); err != nil {
				p.Log.Error("weekly summary tick failed", zap.Error(err))
			}
		}
	}
}

// shouldFire gates on Sunday, the configured UTC minute, and a once-per-day
// latch.
func (p *WeeklyPoller) shouldFire(now time.Time) bool {
	if now.Weekday() != time.Sunday {
		return false
	}
	if p.lastRunDay == timeutil.YMD(now) {
		return false
	}
	target, ok := timeutil.ParseHHMM(p.SendTime)
	if !ok {
		target, _ = timeutil.ParseHHMM("09:00")
	}
	return now.Hour()*60+now.Minute() >= target
}

// Tick runs one weekly batch: generate (AI-required runs fail closed when
// the provider is not configured), email, and stamp emailedAt.
func (p *WeeklyPoller) Tick(ctx context.Context, now time.Time) error {
	if p.RequireAI && !p.Summaries.AI.Status().Ready() {
		p.Log.Warn("weekly summary requires ai but provider is not configured, skipping run")
		return nil
	}

	batch := p.BatchSize
	if batch <= 0 {
		batch = 50
	}

	var users []auth.User
	err := p.DB.WithContext(ctx).
		Where("status = ? AND pref_email_opt_in = ?", auth.StatusActive, true).
		Limit(batch).
		Find(&users).Error
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return nil
	}

	weekEnd := timeutil.YMD(now)
	mailReady := p.Mail.Status().Ready()

	for _, user := range users {
		if err := p.processUser(ctx, now, user, weekEnd, mailReady); err != nil {
			p.Log.Error("weekly summary failed for user",
				zap.Uint64("user_id", user.ID),
				zap.Error(err))
		}
	}
	return nil
}

func (p *WeeklyPoller) processUser(ctx context.Context, now time.Time, user auth.User, weekEnd string, mailReady bool) error {
	if inDND(user, now, p.DND) {
		return nil
	}

	// dedupe: skip users whose review for this week already went out
	var existing summary.Weekly
	err := p.DB.WithContext(ctx).
		Where("user_id = ? AND week_end_date = ?", user.ID, weekEnd).
		First(&existing).Error
	if err == nil && existing.EmailedAt != nil {
		return nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	mode := ""
	if p.RequireAI {
		mode = summary.ModeAI
	}
	wk, plan, err := p.Summaries.GenerateWeekly(ctx, user.ID, weekEnd, mode)
	if errors.Is(err, summary.ErrNoActivity) {
		return nil
	}
	if err != nil {
		return err
	}

	if !mailReady {
		return nil
	}

	msg := BuildWeeklyEmail(user.Name, wk, plan, p.ClientURL)
	msg.To = user.Email
	result, err := p.Mail.Send(ctx, msg)
	if err != nil {
		return err
	}
	if result.Skipped {
		return nil
	}
	return p.Summaries.MarkEmailed(ctx, user.ID, wk.WeekStartDate, now)
}
