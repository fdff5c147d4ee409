package outbox

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"towlot/internal/logging"
	"towlot/internal/services"
	"towlot/internal/store"
)

const (
	// maxAttempts is the delivery attempt ceiling. The third failure parks
	// the row permanently.
	maxAttempts = 3
	// retryBackoff is the fixed reschedule interval after a failed attempt.
	retryBackoff = time.Hour
)

// Sender delivers one notification. Implementations must bound their own
// timeouts; the queue treats any returned error as a failed attempt.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body, priority string) error
}

// Message is the enqueue payload.
type Message struct {
	Recipient   string
	Subject     string
	Body        string
	Kind        string
	VehicleID   *int64
	ScheduledAt time.Time
	Priority    string
	DedupeKey   string
}

// Queue wraps the persisted notification table with delivery behavior.
type Queue struct {
	store  *store.Store
	sender Sender
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes a Queue.
type Option func(*Queue)

// WithClock overrides the queue's time source.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// NewQueue constructs a notification queue over the given store and sender.
func NewQueue(st *store.Store, sender Sender, logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = logging.NewNop()
	}
	q := &Queue{
		store:  st,
		sender: sender,
		logger: logging.NewComponentLogger(logger, "outbox"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends a pending row. Missing recipient or subject is a
// validation error surfaced synchronously, never retried.
func (q *Queue) Enqueue(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.Recipient) == "" {
		return services.Wrap(services.ErrValidation, "outbox", "enqueue", "recipient is required", nil)
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return services.Wrap(services.ErrValidation, "outbox", "enqueue", "subject is required", nil)
	}

	scheduledAt := msg.ScheduledAt
	if scheduledAt.IsZero() {
		scheduledAt = q.now()
	}
	_, err := q.store.EnqueueNotification(ctx, &store.Notification{
		VehicleID:   msg.VehicleID,
		Kind:        msg.Kind,
		Recipient:   msg.Recipient,
		Subject:     msg.Subject,
		Body:        msg.Body,
		Priority:    msg.Priority,
		DedupeKey:   msg.DedupeKey,
		ScheduledAt: scheduledAt,
	})
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "outbox", "enqueue", "persist notification", err)
	}
	return nil
}

// DrainDue delivers up to limit due rows, oldest first, and returns how many
// were attempted. A delivery failure reschedules the row one hour out until
// the attempt ceiling, after which the row is parked as failed with its last
// error retained for operator inspection.
func (q *Queue) DrainDue(ctx context.Context, limit int) (int, error) {
	now := q.now()
	due, err := q.store.DueNotifications(ctx, limit, now)
	if err != nil {
		return 0, services.Wrap(services.ErrUnavailable, "outbox", "drain", "query due notifications", err)
	}

	processed := 0
	for _, n := range due {
		select {
		case <-ctx.Done():
			return processed, ctx.Err()
		default:
		}

		processed++
		sendErr := q.sender.Send(ctx, n.Recipient, n.Subject, n.Body, n.Priority)
		if sendErr == nil {
			if err := q.store.MarkNotificationSent(ctx, n.ID, q.now()); err != nil {
				q.logger.Error("mark sent failed",
					logging.Int64("notification_id", n.ID),
					logging.Error(err))
			}
			continue
		}

		if n.RetryCount+1 < maxAttempts {
			nextAttempt := q.now().Add(retryBackoff)
			if err := q.store.MarkNotificationRetry(ctx, n.ID, nextAttempt, sendErr.Error()); err != nil {
				q.logger.Error("mark retry failed",
					logging.Int64("notification_id", n.ID),
					logging.Error(err))
				continue
			}
			q.logger.Warn("delivery failed, rescheduled",
				logging.Int64("notification_id", n.ID),
				logging.Int("attempt", n.RetryCount+1),
				logging.Time("next_attempt", nextAttempt),
				logging.Error(sendErr))
			continue
		}

		if err := q.store.MarkNotificationFailed(ctx, n.ID, sendErr.Error()); err != nil {
			q.logger.Error("mark failed failed",
				logging.Int64("notification_id", n.ID),
				logging.Error(err))
			continue
		}
		q.logger.Error("delivery exhausted, notification parked",
			logging.Int64("notification_id", n.ID),
			logging.String("recipient", n.Recipient),
			logging.Error(sendErr))
	}
	return processed, nil
}

// Counts reports rows per status. Observability only, never control flow.
func (q *Queue) Counts(ctx context.Context) (map[store.NotificationStatus]int, error) {
	return q.store.NotificationCounts(ctx)
}

// Prune removes sent and failed rows older than the retention window.
func (q *Queue) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := q.now().Add(-olderThan)
	removed, err := q.store.PruneNotifications(ctx, cutoff)
	if err != nil {
		return 0, services.Wrap(services.ErrUnavailable, "outbox", "prune", "delete old notifications", err)
	}
	if removed > 0 {
		q.logger.Info("pruned delivered notifications",
			logging.Int64("removed", removed),
			logging.Time("cutoff", cutoff))
	}
	return removed, nil
}
