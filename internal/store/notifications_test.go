package store_test

import (
	"context"
	"testing"
	"time"

	"towlot/internal/store"
	"towlot/internal/testsupport"
)

func TestEnqueueAndDueNotifications(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	now := time.Now().UTC()
	ready, err := st.EnqueueNotification(ctx, &store.Notification{
		Kind:        "owner-notice",
		Recipient:   "operators",
		Subject:     "Notice due",
		ScheduledAt: now.Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("EnqueueNotification: %v", err)
	}
	if ready.Status != store.NotificationPending {
		t.Fatalf("expected pending, got %s", ready.Status)
	}

	if _, err := st.EnqueueNotification(ctx, &store.Notification{
		Kind:        "pickup-alert",
		Recipient:   "operators",
		Subject:     "Later",
		ScheduledAt: now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("EnqueueNotification future: %v", err)
	}

	due, err := st.DueNotifications(ctx, 10, now)
	if err != nil {
		t.Fatalf("DueNotifications: %v", err)
	}
	if len(due) != 1 || due[0].ID != ready.ID {
		t.Fatalf("expected only the past-due row, got %+v", due)
	}
}

func TestEnqueueDeduplicatesPendingRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, err := st.EnqueueNotification(ctx, &store.Notification{
		Kind:      "owner-notice",
		Recipient: "operators",
		Subject:   "Notice due",
		DedupeKey: "owner-notice:42",
	})
	if err != nil {
		t.Fatalf("EnqueueNotification: %v", err)
	}

	second, err := st.EnqueueNotification(ctx, &store.Notification{
		Kind:      "owner-notice",
		Recipient: "operators",
		Subject:   "Notice due again",
		DedupeKey: "owner-notice:42",
	})
	if err != nil {
		t.Fatalf("EnqueueNotification duplicate: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected dedupe to return row %d, got %d", first.ID, second.ID)
	}

	counts, err := st.NotificationCounts(ctx)
	if err != nil {
		t.Fatalf("NotificationCounts: %v", err)
	}
	if counts[store.NotificationPending] != 1 {
		t.Fatalf("expected single pending row, got %+v", counts)
	}

	if err := st.MarkNotificationSent(ctx, first.ID, time.Now().UTC()); err != nil {
		t.Fatalf("MarkNotificationSent: %v", err)
	}
	third, err := st.EnqueueNotification(ctx, &store.Notification{
		Kind:      "owner-notice",
		Recipient: "operators",
		Subject:   "Fresh notice",
		DedupeKey: "owner-notice:42",
	})
	if err != nil {
		t.Fatalf("EnqueueNotification after send: %v", err)
	}
	if third.ID == first.ID {
		t.Fatal("sent rows must not block new enqueues")
	}
}

func TestRetryAndFailureBookkeeping(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	n, err := st.EnqueueNotification(ctx, &store.Notification{
		Kind:      "pickup-alert",
		Recipient: "operators",
		Subject:   "Pickup overdue",
	})
	if err != nil {
		t.Fatalf("EnqueueNotification: %v", err)
	}

	next := time.Now().UTC().Add(time.Hour)
	if err := st.MarkNotificationRetry(ctx, n.ID, next, "endpoint timeout"); err != nil {
		t.Fatalf("MarkNotificationRetry: %v", err)
	}
	retried, err := st.GetNotification(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetNotification: %v", err)
	}
	if retried.Status != store.NotificationPending {
		t.Fatalf("expected pending after retry, got %s", retried.Status)
	}
	if retried.RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", retried.RetryCount)
	}
	if retried.LastError != "endpoint timeout" {
		t.Fatalf("expected last error retained, got %q", retried.LastError)
	}
	if !retried.ScheduledAt.After(time.Now().UTC().Add(50 * time.Minute)) {
		t.Fatalf("expected backoff reschedule, got %s", retried.ScheduledAt)
	}

	if err := st.MarkNotificationFailed(ctx, n.ID, "endpoint refused"); err != nil {
		t.Fatalf("MarkNotificationFailed: %v", err)
	}
	failed, err := st.GetNotification(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetNotification failed row: %v", err)
	}
	if failed.Status != store.NotificationFailed {
		t.Fatalf("expected failed, got %s", failed.Status)
	}
	if failed.LastError != "endpoint refused" {
		t.Fatalf("expected final error retained, got %q", failed.LastError)
	}
}

func TestPruneKeepsPendingRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	old, err := st.EnqueueNotification(ctx, &store.Notification{
		Kind:      "owner-notice",
		Recipient: "operators",
		Subject:   "Old sent row",
	})
	if err != nil {
		t.Fatalf("EnqueueNotification: %v", err)
	}
	if err := st.MarkNotificationSent(ctx, old.ID, time.Now().UTC()); err != nil {
		t.Fatalf("MarkNotificationSent: %v", err)
	}

	pending, err := st.EnqueueNotification(ctx, &store.Notification{
		Kind:      "owner-notice",
		Recipient: "operators",
		Subject:   "Still pending",
	})
	if err != nil {
		t.Fatalf("EnqueueNotification pending: %v", err)
	}

	removed, err := st.PruneNotifications(ctx, time.Now().UTC().Add(time.Minute))
	if err != nil {
		t.Fatalf("PruneNotifications: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one pruned row, got %d", removed)
	}

	kept, err := st.GetNotification(ctx, pending.ID)
	if err != nil {
		t.Fatalf("GetNotification: %v", err)
	}
	if kept == nil {
		t.Fatal("pending row must survive pruning")
	}
}
