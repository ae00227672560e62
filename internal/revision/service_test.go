package revision

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
)

// memScheduleStore keeps schedules keyed by idempotency key, enforcing the
// same uniqueness the partial index gives us in Postgres.
type memScheduleStore struct {
	nextID uint64
	byKey  map[string]*Schedule
}

func newMemScheduleStore() *memScheduleStore {
	return &memScheduleStore{byKey: map[string]*Schedule{}}
}

func (m *memScheduleStore) FindByKey(_ context.Context, key string) (*Schedule, error) {
	if sched, ok := m.byKey[key]; ok {
		cp := *sched
		return &cp, nil
	}
	return nil, nil
}

func (m *memScheduleStore) Create(_ context.Context, sched *Schedule) error {
	if sched.IdempotencyKey == nil {
		return errors.New("missing idempotency key")
	}
	if _, ok := m.byKey[*sched.IdempotencyKey]; ok {
		return errors.New("duplicate idempotency key")
	}
	m.nextID++
	sched.ID = m.nextID
	cp := *sched
	m.byKey[*sched.IdempotencyKey] = &cp
	return nil
}

func TestIdempotencyKey(t *testing.T) {
	got := IdempotencyKey(42, "a1b2", 3)
	if got != "42_a1b2_3" {
		t.Errorf("IdempotencyKey = %q, want %q", got, "42_a1b2_3")
	}
}

func TestScheduledAtForOffsets(t *testing.T) {
	cases := []struct {
		offset int
		want   string
	}{
		{1, "2024-01-11T12:00:00Z"},
		{3, "2024-01-13T12:00:00Z"},
		{7, "2024-01-17T12:00:00Z"},
	}
	for _, c := range cases {
		got, err := ScheduledAtFor("2024-01-10", c.offset)
		if err != nil {
			t.Fatalf("ScheduledAtFor offset %d: %v", c.offset, err)
		}
		if got.Format(time.RFC3339) != c.want {
			t.Errorf("offset %d: got %s, want %s", c.offset, got.Format(time.RFC3339), c.want)
		}
	}
}

func TestScheduledAtForMonthBoundary(t *testing.T) {
	got, err := ScheduledAtFor("2024-01-30", 3)
	if err != nil {
		t.Fatal(err)
	}
	if got.Format(time.RFC3339) != "2024-02-02T12:00:00Z" {
		t.Errorf("month rollover: got %s", got.Format(time.RFC3339))
	}
}

func TestScheduledAtForBadDate(t *testing.T) {
	if _, err := ScheduledAtFor("not-a-date", 1); err == nil {
		t.Error("malformed date accepted")
	}
	if _, err := ScheduledAtFor("2024-02-31", 1); err == nil {
		t.Error("impossible date accepted")
	}
}

func TestScheduleRevisionsRerunReturnsSameIDs(t *testing.T) {
	store := newMemScheduleStore()
	svc := &Service{Log: zap.NewNop(), store: store}

	entry := EntryRef{ID: 42, UserID: 7, Date: "2024-01-10"}
	items := []Item{{ID: "a1", Text: "goroutine leaks"}, {ID: "b2", Text: "context trees"}}

	first, err := svc.ScheduleRevisions(context.Background(), entry, items)
	if err != nil {
		t.Fatal(err)
	}
	if want := len(items) * len(Offsets); len(first) != want {
		t.Fatalf("first run created %d schedules, want %d", len(first), want)
	}

	second, err := svc.ScheduleRevisions(context.Background(), entry, items)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != len(first) {
		t.Fatalf("rerun returned %d ids, want %d", len(second), len(first))
	}
	for i := range first {
		if second[i] != first[i] {
			t.Errorf("schedule %d: rerun id %d, want %d", i, second[i], first[i])
		}
	}
	if len(store.byKey) != len(first) {
		t.Errorf("store holds %d rows after rerun, want %d", len(store.byKey), len(first))
	}
}

// racingStore misses each key's first lookup, as when a concurrent request
// inserts the row between our lookup and insert.
type racingStore struct {
	*memScheduleStore
	missed map[string]bool
}

func (r *racingStore) FindByKey(ctx context.Context, key string) (*Schedule, error) {
	if !r.missed[key] {
		r.missed[key] = true
		return nil, nil
	}
	return r.memScheduleStore.FindByKey(ctx, key)
}

func TestScheduleRevisionsLostRaceReusesWinner(t *testing.T) {
	mem := newMemScheduleStore()
	entry := EntryRef{ID: 42, UserID: 7, Date: "2024-01-10"}
	item := Item{ID: "a1", Text: "goroutine leaks"}

	// The winner's rows are already in place.
	winnerSvc := &Service{Log: zap.NewNop(), store: mem}
	winner, err := winnerSvc.ScheduleRevisions(context.Background(), entry, []Item{item})
	if err != nil {
		t.Fatal(err)
	}

	svc := &Service{Log: zap.NewNop(), store: &racingStore{memScheduleStore: mem, missed: map[string]bool{}}}
	ids, err := svc.ScheduleRevisions(context.Background(), entry, []Item{item})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != len(winner) {
		t.Fatalf("got %d ids, want %d", len(ids), len(winner))
	}
	for i := range winner {
		if ids[i] != winner[i] {
			t.Errorf("offset %d: got id %d, want winner's %d", Offsets[i], ids[i], winner[i])
		}
	}
	if len(mem.byKey) != len(winner) {
		t.Errorf("store holds %d rows, want %d", len(mem.byKey), len(winner))
	}
}

func TestPlanReschedule(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	prev := Schedule{
		UserID:         7,
		EntryID:        42,
		RevisionItemID: "a1",
		OriginalText:   "goroutine leaks",
		OffsetDays:     3,
		Attempts:       1,
		PriorityScore:  1.2,
	}

	next, ok := planReschedule(prev, now)
	if !ok {
		t.Fatal("reschedule refused below the attempt cap")
	}
	if want := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC); !next.ScheduledAt.Equal(want) {
		t.Errorf("scheduled at %s, want %s", next.ScheduledAt, want)
	}
	if next.Status != StatusPending {
		t.Errorf("status %q, want %q", next.Status, StatusPending)
	}
	if next.Attempts != prev.Attempts {
		t.Errorf("attempts %d, want %d", next.Attempts, prev.Attempts)
	}
	if math.Abs(next.PriorityScore-1.44) > 1e-9 {
		t.Errorf("priority %v, want 1.44", next.PriorityScore)
	}
	if next.IdempotencyKey != nil {
		t.Error("reschedule must not carry an idempotency key")
	}
}

func TestPlanRescheduleStopsAtAttemptCap(t *testing.T) {
	if _, ok := planReschedule(Schedule{Attempts: MaxAttempts}, time.Now()); ok {
		t.Error("rescheduled past the attempt cap")
	}
	if _, ok := planReschedule(Schedule{Attempts: MaxAttempts + 1}, time.Now()); ok {
		t.Error("rescheduled past the attempt cap")
	}
}

func TestNextNoonUTC(t *testing.T) {
	now := time.Date(2024, 3, 1, 18, 45, 0, 0, time.UTC)
	got := nextNoonUTC(now)
	want := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("nextNoonUTC = %s, want %s", got, want)
	}
}
