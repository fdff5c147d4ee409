package store

import (
	"time"

	"towlot/internal/lifecycle"
)

// Vehicle represents an impounded vehicle persisted in SQLite.
type Vehicle struct {
	ID               int64
	CallNumber       string
	Stage            lifecycle.Stage
	Jurisdiction     string
	Make             string
	Model            string
	Plate            string
	IntakeAt         time.Time
	NoticeSentAt     *time.Time
	ResponseDeadline *time.Time
	AuctionDate      *time.Time
	AdRunDate        *time.Time
	ScrapEligibleAt  *time.Time
	PickupScheduledAt *time.Time
	PickupConfirmed  bool
	HearingRequested bool
	HearingDate      *time.Time
	AuctionNoticeDoc string
	DispositionKind  lifecycle.DispositionKind
	DispositionReason string
	DisposedAt       *time.Time
	Archived         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Active reports whether the vehicle still participates in the workflow.
func (v *Vehicle) Active() bool {
	return v != nil && !v.Archived && !v.Stage.IsTerminal()
}

// StageTransition is one append-only audit record of a stage change.
// Exactly one record per vehicle has a nil ExitedAt: the current stage.
type StageTransition struct {
	ID        int64
	VehicleID int64
	FromStage lifecycle.Stage
	ToStage   lifecycle.Stage
	EnteredAt time.Time
	ExitedAt  *time.Time
	Notes     string
	Actor     string
}

// NotificationStatus is the delivery lifecycle of an outbox row.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// Notification is one durable outbox row awaiting delivery or retry.
type Notification struct {
	ID          int64
	VehicleID   *int64
	Kind        string
	Recipient   string
	Subject     string
	Body        string
	Priority    string
	DedupeKey   string
	ScheduledAt time.Time
	Status      NotificationStatus
	RetryCount  int
	CreatedAt   time.Time
	SentAt      *time.Time
	LastError   string
}

// StageCounts aggregates vehicles per stage for diagnostics.
type StageCounts map[lifecycle.Stage]int

// HealthSummary describes aggregated registry counts for key states.
type HealthSummary struct {
	Vehicles       int
	Active         int
	Archived       int
	PendingNotices int
}
