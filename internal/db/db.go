package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"trilog/internal/auth"
	"trilog/internal/friend"
	"trilog/internal/journal"
	"trilog/internal/question"
	"trilog/internal/rag"
	"trilog/internal/revision"
	"trilog/internal/schedule"
	"trilog/internal/summary"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&auth.User{},
		&journal.Entry{},
		&question.Template{},
		&question.Question{},
		&question.Answer{},
		&schedule.DaySchedule{},
		&friend.Friendship{},
		&revision.Schedule{},
		&rag.Chunk{},
		&summary.Monthly{},
		&summary.Weekly{},
	); err != nil {
		return err
	}

	// One journal entry per user per day.
	if err := gdb.Exec(`create unique index if not exists uq_entries_user_date on entries(user_id, date);`).Error; err != nil {
		return err
	}

	// One daily question per user per day.
	if err := gdb.Exec(`create unique index if not exists uq_questions_user_date on questions(user_id, scheduled_date);`).Error; err != nil {
		return err
	}

	// Scheduling idempotency; missed-revision reschedules carry no key and
	// stay outside the constraint.
	if err := gdb.Exec(`
create unique index if not exists uq_revision_schedules_idem
on revision_schedules(idempotency_key)
where idempotency_key is not null;
`).Error; err != nil {
		return err
	}

	// Embedding chunk upsert key. The text column participates via hash to
	// stay under the btree row limit.
	if err := gdb.Exec(`
create unique index if not exists uq_chunks_source
on chunks(user_id, month, source_type, source_id, date, md5(text));
`).Error; err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_entries_user_date on entries(user_id, date desc);`,
		`create index if not exists idx_revision_schedules_due on revision_schedules(status, scheduled_at);`,
		`create index if not exists idx_revision_schedules_user on revision_schedules(user_id, status, scheduled_at);`,
		`create index if not exists idx_revision_schedules_notified on revision_schedules(user_id, notified_at);`,
		`create index if not exists idx_answers_user_created on answers(user_id, created_at desc);`,
		`create index if not exists idx_chunks_user_month on chunks(user_id, month);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
