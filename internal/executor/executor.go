package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"towlot/internal/actions"
	"towlot/internal/config"
	"towlot/internal/engine"
	"towlot/internal/lifecycle"
	"towlot/internal/logging"
	"towlot/internal/outbox"
	"towlot/internal/services/documents"
	"towlot/internal/services/hearings"
	"towlot/internal/status"
	"towlot/internal/store"
)

// errSkip marks an action whose precondition disappeared between derivation
// and execution. Skips count as neither success nor error.
var errSkip = errors.New("action no longer applicable")

// Summary counts the outcomes of one executor cycle. Every executed action
// increments exactly one counter.
type Summary struct {
	NoticesSent       int
	StatusUpdates     int
	AlertsGenerated   int
	DocumentsCreated  int
	HearingsScheduled int
	Errors            int
}

// Executor dispatches automated actions. It composes the engine and status
// manager rather than extending them; all stage moves still flow through the
// validated transition path.
type Executor struct {
	engine    *engine.Engine
	status    *status.Manager
	queue     *outbox.Queue
	documents documents.Generator
	hearings  *hearings.Schedule
	store     *store.Store
	cfg       *config.Config
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes an Executor.
type Option func(*Executor)

// WithClock overrides the executor's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// New constructs an Executor.
func New(
	eng *engine.Engine,
	statusMgr *status.Manager,
	queue *outbox.Queue,
	generator documents.Generator,
	schedule *hearings.Schedule,
	st *store.Store,
	cfg *config.Config,
	logger *slog.Logger,
	opts ...Option,
) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Executor{
		engine:    eng,
		status:    statusMgr,
		queue:     queue,
		documents: generator,
		hearings:  schedule,
		store:     st,
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "executor"),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunCycle executes every due automated action across the fleet and returns
// the cycle summary. Cancellation is observed between vehicles; an in-flight
// vehicle finishes its actions.
func (e *Executor) RunCycle(ctx context.Context) (Summary, error) {
	cycleID := uuid.NewString()
	log := e.logger.With(logging.String(logging.FieldCycleID, cycleID))

	var summary Summary
	candidates, err := e.engine.AutomationQueue(ctx)
	if err != nil {
		return summary, err
	}
	log.Info("cycle started", logging.Int("candidates", len(candidates)))

	for _, candidate := range candidates {
		select {
		case <-ctx.Done():
			log.Warn("cycle interrupted", logging.Error(ctx.Err()))
			return summary, ctx.Err()
		default:
		}
		e.processVehicle(ctx, log, candidate.ID, &summary)
	}

	log.Info("cycle finished",
		logging.Int("notices_sent", summary.NoticesSent),
		logging.Int("status_updates", summary.StatusUpdates),
		logging.Int("alerts_generated", summary.AlertsGenerated),
		logging.Int("documents_created", summary.DocumentsCreated),
		logging.Int("hearings_scheduled", summary.HearingsScheduled),
		logging.Int("errors", summary.Errors))
	return summary, nil
}

// processVehicle re-derives fresh actions for one vehicle and executes each
// due automated action sequentially.
func (e *Executor) processVehicle(ctx context.Context, log *slog.Logger, vehicleID int64, summary *Summary) {
	derived, err := e.engine.NextActions(ctx, vehicleID)
	if err != nil {
		summary.Errors++
		log.Error("derive actions failed",
			logging.Int64(logging.FieldVehicleID, vehicleID),
			logging.Error(err))
		return
	}

	for _, action := range derived {
		if !action.Automated {
			continue
		}
		if err := e.execute(ctx, log, action); err != nil {
			if errors.Is(err, errSkip) {
				continue
			}
			summary.Errors++
			log.Error("action failed",
				logging.Int64(logging.FieldVehicleID, action.VehicleID),
				logging.String(logging.FieldAction, string(action.Kind)),
				logging.Error(err))
			continue
		}
		e.count(summary, action.Kind)
	}
}

func (e *Executor) execute(ctx context.Context, log *slog.Logger, action actions.Action) error {
	switch action.Kind {
	case actions.KindSendNotice:
		return e.sendNotice(ctx, log, action)
	case actions.KindUpdateStatus:
		return e.updateStatus(ctx, action)
	case actions.KindGenerateAlert:
		return e.generateAlert(ctx, log, action)
	case actions.KindCreateDocument:
		return e.createDocument(ctx, log, action)
	case actions.KindScheduleHearing:
		return e.scheduleHearing(ctx, log, action)
	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
}

func (e *Executor) count(summary *Summary, kind actions.Kind) {
	switch kind {
	case actions.KindSendNotice:
		summary.NoticesSent++
	case actions.KindUpdateStatus:
		summary.StatusUpdates++
	case actions.KindGenerateAlert:
		summary.AlertsGenerated++
	case actions.KindCreateDocument:
		summary.DocumentsCreated++
	case actions.KindScheduleHearing:
		summary.HearingsScheduled++
	}
}

// sendNotice enqueues the owner notice and, only after the enqueue succeeds,
// transitions the vehicle to notice_sent. The persisted flag is re-checked
// immediately before sending so overlapping cycles cannot double-send.
func (e *Executor) sendNotice(ctx context.Context, log *slog.Logger, action actions.Action) error {
	vehicle, err := e.store.GetByID(ctx, action.VehicleID)
	if err != nil {
		return err
	}
	if vehicle == nil || vehicle.NoticeSentAt != nil || vehicle.Stage != lifecycle.StageInitialHold {
		log.Debug("notice already handled",
			logging.Int64(logging.FieldVehicleID, action.VehicleID))
		return errSkip
	}

	recipient := strings.TrimSpace(e.cfg.Notifications.OwnerNoticeSender)
	if recipient == "" {
		recipient = "owner-notices"
	}
	body := fmt.Sprintf(
		"Vehicle %s (%s %s, plate %s) impounded on %s remains unclaimed. "+
			"Respond within %d days or the vehicle will be approved for disposition.",
		vehicle.CallNumber, vehicle.Make, vehicle.Model, vehicle.Plate,
		vehicle.IntakeAt.Format("2006-01-02"), e.cfg.Lifecycle.NoticeResponseDays)

	if err := e.queue.Enqueue(ctx, outbox.Message{
		Recipient: recipient,
		Subject:   "Impound notice: " + vehicle.CallNumber,
		Body:      body,
		Kind:      "owner-notice",
		VehicleID: &vehicle.ID,
		Priority:  "high",
		DedupeKey: fmt.Sprintf("owner-notice:%d", vehicle.ID),
	}); err != nil {
		return err
	}

	_, err = e.status.ApplyTransition(ctx, vehicle.ID, lifecycle.StageNoticeSent, "owner notice dispatched", "system")
	return err
}

// updateStatus advances a vehicle whose response window lapsed onto the
// configured default disposition route.
func (e *Executor) updateStatus(ctx context.Context, action actions.Action) error {
	to := lifecycle.StageApprovedAuction
	if e.cfg.Lifecycle.DefaultDispositionRoute == "scrap" {
		to = lifecycle.StageApprovedScrap
	}
	_, err := e.status.ApplyTransition(ctx, action.VehicleID, to, action.Description, "system")
	return err
}

// generateAlert notifies the operator list about an overdue condition and
// appends an audit log entry.
func (e *Executor) generateAlert(ctx context.Context, log *slog.Logger, action actions.Action) error {
	recipients := e.cfg.Notifications.OperatorList
	if len(recipients) == 0 {
		recipients = []string{"operators"}
	}

	body := fmt.Sprintf("vehicle=%d kind=%s severity=%s due=%s\n%s",
		action.VehicleID, action.Kind, action.Priority,
		action.DueDate.Format("2006-01-02"), action.Description)

	for _, recipient := range recipients {
		if err := e.queue.Enqueue(ctx, outbox.Message{
			Recipient: recipient,
			Subject:   fmt.Sprintf("Alert: vehicle %d", action.VehicleID),
			Body:      body,
			Kind:      "operator-alert",
			VehicleID: &action.VehicleID,
			Priority:  "high",
			DedupeKey: fmt.Sprintf("alert:%d:%s", action.VehicleID, action.DueDate.Format("2006-01-02")),
		}); err != nil {
			return err
		}
	}

	log.Info("operator alert generated",
		logging.Int64(logging.FieldVehicleID, action.VehicleID),
		logging.String(logging.FieldEventType, "operator_alert"),
		logging.String("severity", string(action.Priority)),
		logging.Time("due", action.DueDate))
	return nil
}

// createDocument generates the compliance form and records the artifact on
// the vehicle. Generation failures are never retried inline; the action
// derives again next cycle.
func (e *Executor) createDocument(ctx context.Context, log *slog.Logger, action actions.Action) error {
	vehicle, err := e.store.GetByID(ctx, action.VehicleID)
	if err != nil {
		return err
	}
	if vehicle == nil || vehicle.AuctionNoticeDoc != "" {
		return errSkip
	}

	path, err := e.documents.Generate(ctx, documents.KindAuctionNotice, vehicle)
	if err != nil {
		return err
	}
	vehicle.AuctionNoticeDoc = path
	if err := e.store.Update(ctx, vehicle); err != nil {
		return err
	}
	log.Info("document created",
		logging.Int64(logging.FieldVehicleID, vehicle.ID),
		logging.String("artifact", path))
	return nil
}

// scheduleHearing resolves the jurisdiction's next slot, persists it, and
// notifies the parties.
func (e *Executor) scheduleHearing(ctx context.Context, log *slog.Logger, action actions.Action) error {
	vehicle, err := e.store.GetByID(ctx, action.VehicleID)
	if err != nil {
		return err
	}
	if vehicle == nil || !vehicle.HearingRequested || vehicle.HearingDate != nil {
		return errSkip
	}

	slot, err := e.hearings.NextAvailableSlot(vehicle.Jurisdiction, e.now())
	if err != nil {
		return err
	}
	vehicle.HearingDate = &slot
	if err := e.store.Update(ctx, vehicle); err != nil {
		return err
	}

	recipients := e.cfg.Notifications.OperatorList
	if len(recipients) == 0 {
		recipients = []string{"operators"}
	}
	for _, recipient := range recipients {
		if err := e.queue.Enqueue(ctx, outbox.Message{
			Recipient: recipient,
			Subject:   "Hearing scheduled: " + vehicle.CallNumber,
			Body: fmt.Sprintf("Hearing for vehicle %s scheduled %s (%s)",
				vehicle.CallNumber, slot.Format("2006-01-02 15:04"), vehicle.Jurisdiction),
			Kind:      "hearing-scheduled",
			VehicleID: &vehicle.ID,
			Priority:  "default",
			DedupeKey: fmt.Sprintf("hearing:%d", vehicle.ID),
		}); err != nil {
			return err
		}
	}

	log.Info("hearing scheduled",
		logging.Int64(logging.FieldVehicleID, vehicle.ID),
		logging.Time("slot", slot))
	return nil
}
