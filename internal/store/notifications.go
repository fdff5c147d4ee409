package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const notificationColumns = "id, vehicle_id, kind, recipient, subject, body, priority, dedupe_key, " +
	"scheduled_at, status, retry_count, created_at, sent_at, last_error"

// EnqueueNotification appends a pending outbox row. When the notification
// carries a dedupe key and a pending row with the same key already exists,
// the existing row is returned instead of inserting a duplicate.
func (s *Store) EnqueueNotification(ctx context.Context, n *Notification) (*Notification, error) {
	if n == nil {
		return nil, errors.New("notification is nil")
	}
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	if n.ScheduledAt.IsZero() {
		n.ScheduledAt = now
	}
	if n.Status == "" {
		n.Status = NotificationPending
	}

	if n.DedupeKey != "" {
		existing, err := s.pendingByDedupeKey(ctx, n.DedupeKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO notifications (
            vehicle_id, kind, recipient, subject, body, priority, dedupe_key,
            scheduled_at, status, retry_count, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableInt64(n.VehicleID),
		n.Kind,
		n.Recipient,
		n.Subject,
		nullableString(n.Body),
		nullableString(n.Priority),
		nullableString(n.DedupeKey),
		formatTime(n.ScheduledAt),
		n.Status,
		n.RetryCount,
		formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("notification id: %w", err)
	}
	return s.GetNotification(ctx, id)
}

// GetNotification fetches an outbox row by identifier. Returns (nil, nil)
// when absent.
func (s *Store) GetNotification(ctx context.Context, id int64) (*Notification, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// DueNotifications returns pending rows whose scheduled time has passed,
// oldest first, capped at limit.
func (s *Store) DueNotifications(ctx context.Context, limit int, now time.Time) ([]*Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+notificationColumns+` FROM notifications
         WHERE status = ? AND scheduled_at <= ?
         ORDER BY scheduled_at, id LIMIT ?`,
		NotificationPending,
		formatTime(now),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query due notifications: %w", err)
	}
	defer rows.Close()

	var due []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, n)
	}
	return due, rows.Err()
}

// ListNotifications returns outbox rows filtered by status, newest first.
// An empty status returns everything.
func (s *Store) ListNotifications(ctx context.Context, status NotificationStatus, limit int) ([]*Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = s.db.QueryContext(
			ensureContext(ctx),
			`SELECT `+notificationColumns+` FROM notifications ORDER BY id DESC LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(
			ensureContext(ctx),
			`SELECT `+notificationColumns+` FROM notifications WHERE status = ? ORDER BY id DESC LIMIT ?`,
			status, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var list []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkNotificationSent records successful delivery.
func (s *Store) MarkNotificationSent(ctx context.Context, id int64, sentAt time.Time) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE notifications SET status = ?, sent_at = ?, last_error = NULL WHERE id = ?`,
		NotificationSent,
		formatTime(sentAt),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

// MarkNotificationRetry increments the retry counter, records the delivery
// error, and reschedules the row for the given time.
func (s *Store) MarkNotificationRetry(ctx context.Context, id int64, nextAttempt time.Time, deliveryErr string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE notifications
         SET status = ?, retry_count = retry_count + 1, scheduled_at = ?, last_error = ?
         WHERE id = ?`,
		NotificationPending,
		formatTime(nextAttempt),
		nullableString(deliveryErr),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark retry: %w", err)
	}
	return nil
}

// MarkNotificationFailed parks the row permanently, retaining the final error.
func (s *Store) MarkNotificationFailed(ctx context.Context, id int64, deliveryErr string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE notifications
         SET status = ?, retry_count = retry_count + 1, last_error = ?
         WHERE id = ?`,
		NotificationFailed,
		nullableString(deliveryErr),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// NotificationCounts returns outbox row counts grouped by status.
func (s *Store) NotificationCounts(ctx context.Context) (map[NotificationStatus]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT status, COUNT(1) FROM notifications GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("notification counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[NotificationStatus]int)
	for rows.Next() {
		var status NotificationStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// PruneNotifications deletes sent and failed rows created before the cutoff.
// Pending rows are never pruned.
func (s *Store) PruneNotifications(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM notifications WHERE status IN (?, ?) AND created_at < ?`,
		NotificationSent,
		NotificationFailed,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("prune notifications: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) pendingByDedupeKey(ctx context.Context, key string) (*Notification, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+notificationColumns+` FROM notifications
         WHERE dedupe_key = ? AND status = ? ORDER BY id DESC LIMIT 1`,
		key,
		NotificationPending,
	)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dedupe lookup: %w", err)
	}
	return n, nil
}

func scanNotification(scanner interface{ Scan(dest ...any) error }) (*Notification, error) {
	var (
		id         int64
		vehicleID  sql.NullInt64
		kind       string
		recipient  string
		subject    string
		body       sql.NullString
		priority   sql.NullString
		dedupeKey  sql.NullString
		scheduled  sql.NullString
		status     string
		retryCount int
		createdRaw sql.NullString
		sentRaw    sql.NullString
		lastError  sql.NullString
	)
	if err := scanner.Scan(
		&id, &vehicleID, &kind, &recipient, &subject, &body, &priority, &dedupeKey,
		&scheduled, &status, &retryCount, &createdRaw, &sentRaw, &lastError,
	); err != nil {
		return nil, err
	}

	n := &Notification{
		ID:         id,
		Kind:       kind,
		Recipient:  recipient,
		Subject:    subject,
		Body:       body.String,
		Priority:   priority.String,
		DedupeKey:  dedupeKey.String,
		Status:     NotificationStatus(status),
		RetryCount: retryCount,
		SentAt:     timePtr(sentRaw),
		LastError:  lastError.String,
	}
	if vehicleID.Valid {
		value := vehicleID.Int64
		n.VehicleID = &value
	}
	if scheduledAt, err := parseTimeString(scheduled.String); err == nil {
		n.ScheduledAt = scheduledAt
	}
	if createdAt, err := parseTimeString(createdRaw.String); err == nil {
		n.CreatedAt = createdAt
	}
	return n, nil
}
