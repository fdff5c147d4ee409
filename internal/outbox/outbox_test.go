package outbox_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"towlot/internal/logging"
	"towlot/internal/outbox"
	"towlot/internal/services"
	"towlot/internal/store"
	"towlot/internal/testsupport"
)

type fakeSender struct {
	mu    sync.Mutex
	err   error
	sends []string
}

func (f *fakeSender) Send(_ context.Context, recipient, subject, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sends = append(f.sends, recipient+":"+subject)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func newQueue(t *testing.T, sender outbox.Sender, clock *time.Time) (*outbox.Queue, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	q := outbox.NewQueue(st, sender, logging.NewNop(), outbox.WithClock(func() time.Time { return *clock }))
	return q, st
}

func TestEnqueueValidatesInput(t *testing.T) {
	now := time.Date(2026, time.March, 16, 9, 0, 0, 0, time.UTC)
	q, _ := newQueue(t, &fakeSender{}, &now)
	ctx := context.Background()

	err := q.Enqueue(ctx, outbox.Message{Subject: "no recipient"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	err = q.Enqueue(ctx, outbox.Message{Recipient: "operators"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := q.Enqueue(ctx, outbox.Message{Recipient: "operators", Subject: "ok"}); err != nil {
		t.Fatalf("valid enqueue: %v", err)
	}
}

func TestDrainDueDeliversOldestFirst(t *testing.T) {
	now := time.Date(2026, time.March, 16, 9, 0, 0, 0, time.UTC)
	sender := &fakeSender{}
	q, _ := newQueue(t, sender, &now)
	ctx := context.Background()

	if err := q.Enqueue(ctx, outbox.Message{Recipient: "a", Subject: "first", ScheduledAt: now.Add(-2 * time.Hour)}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, outbox.Message{Recipient: "b", Subject: "second", ScheduledAt: now.Add(-time.Hour)}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, outbox.Message{Recipient: "c", Subject: "future", ScheduledAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	processed, err := q.DrainDue(ctx, 10)
	if err != nil {
		t.Fatalf("DrainDue: %v", err)
	}
	if processed != 2 {
		t.Fatalf("expected 2 processed, got %d", processed)
	}
	if sender.count() != 2 || sender.sends[0] != "a:first" || sender.sends[1] != "b:second" {
		t.Fatalf("unexpected delivery order: %v", sender.sends)
	}

	counts, err := q.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts[store.NotificationSent] != 2 || counts[store.NotificationPending] != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestRetryExhaustionParksAfterThreeAttempts(t *testing.T) {
	now := time.Date(2026, time.March, 16, 9, 0, 0, 0, time.UTC)
	sender := &fakeSender{err: errors.New("endpoint down")}
	q, st := newQueue(t, sender, &now)
	ctx := context.Background()

	if err := q.Enqueue(ctx, outbox.Message{Recipient: "operators", Subject: "doomed"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	for attempt := 1; attempt <= 3; attempt++ {
		processed, err := q.DrainDue(ctx, 10)
		if err != nil {
			t.Fatalf("DrainDue attempt %d: %v", attempt, err)
		}
		if processed != 1 {
			t.Fatalf("attempt %d: expected 1 processed, got %d", attempt, processed)
		}
		// Jump past the backoff so the row is due again.
		now = now.Add(2 * time.Hour)
	}

	rows, err := st.ListNotifications(ctx, store.NotificationFailed, 10)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one failed row, got %d", len(rows))
	}
	if rows[0].RetryCount != 3 {
		t.Fatalf("expected retry count 3, got %d", rows[0].RetryCount)
	}
	if rows[0].LastError == "" {
		t.Fatal("expected last error retained")
	}

	// A parked row must never appear in a later drain.
	processed, err := q.DrainDue(ctx, 10)
	if err != nil {
		t.Fatalf("DrainDue after exhaustion: %v", err)
	}
	if processed != 0 {
		t.Fatalf("failed row re-drained, processed=%d", processed)
	}
}

func TestFailedAttemptBacksOffOneHour(t *testing.T) {
	now := time.Date(2026, time.March, 16, 9, 0, 0, 0, time.UTC)
	sender := &fakeSender{err: errors.New("timeout")}
	q, st := newQueue(t, sender, &now)
	ctx := context.Background()

	if err := q.Enqueue(ctx, outbox.Message{Recipient: "operators", Subject: "retry me"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := q.DrainDue(ctx, 10); err != nil {
		t.Fatalf("DrainDue: %v", err)
	}

	rows, err := st.ListNotifications(ctx, store.NotificationPending, 10)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one pending row, got %d", len(rows))
	}
	if !rows[0].ScheduledAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected one hour backoff, got %s", rows[0].ScheduledAt)
	}

	// Not due again within the hour.
	now = now.Add(30 * time.Minute)
	processed, err := q.DrainDue(ctx, 10)
	if err != nil {
		t.Fatalf("DrainDue within backoff: %v", err)
	}
	if processed != 0 {
		t.Fatalf("row drained before its backoff elapsed")
	}
}

func TestPruneRespectsRetention(t *testing.T) {
	now := time.Date(2026, time.March, 16, 9, 0, 0, 0, time.UTC)
	sender := &fakeSender{}
	q, _ := newQueue(t, sender, &now)
	ctx := context.Background()

	if err := q.Enqueue(ctx, outbox.Message{Recipient: "operators", Subject: "old"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := q.DrainDue(ctx, 10); err != nil {
		t.Fatalf("DrainDue: %v", err)
	}

	// Retention window still covers the row.
	removed, err := q.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected nothing pruned, got %d", removed)
	}

	now = now.Add(48 * time.Hour)
	removed, err = q.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune after window: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one pruned row, got %d", removed)
	}
}
