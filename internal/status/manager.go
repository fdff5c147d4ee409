package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"towlot/internal/config"
	"towlot/internal/lifecycle"
	"towlot/internal/logging"
	"towlot/internal/services"
	"towlot/internal/store"
)

// Manager validates and applies stage transitions.
type Manager struct {
	store  *store.Store
	rules  config.Lifecycle
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the manager's time source. Tests use this to pin
// derived deadlines.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager constructs a transition manager over the given store.
func NewManager(st *store.Store, rules config.Lifecycle, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		store:  st,
		rules:  rules,
		logger: logging.NewComponentLogger(logger, "status"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ApplyTransition moves a vehicle to a new stage. It rejects unknown
// vehicles and moves the lifecycle graph does not permit, computes the
// stage-specific derived fields, and persists the vehicle together with a
// new audit record in one transaction.
func (m *Manager) ApplyTransition(ctx context.Context, vehicleID int64, to lifecycle.Stage, notes, actor string) (*store.Vehicle, error) {
	vehicle, err := m.store.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "status", "apply-transition", "load vehicle", err)
	}
	if vehicle == nil {
		return nil, services.Wrap(services.ErrNotFound, "status", "apply-transition",
			fmt.Sprintf("vehicle %d not found", vehicleID), nil)
	}

	if !lifecycle.CanTransition(vehicle.Stage, to) {
		return nil, services.Wrap(services.ErrInvalidTransition, "status", "apply-transition",
			fmt.Sprintf("vehicle %d cannot move from %s to %s", vehicleID, vehicle.Stage, to), nil)
	}

	from := vehicle.Stage
	if err := m.applyDerivedFields(vehicle, to, notes); err != nil {
		return nil, services.Wrap(services.ErrValidation, "status", "apply-transition", "derive stage fields", err)
	}

	record := store.StageTransition{
		VehicleID: vehicleID,
		FromStage: from,
		ToStage:   to,
		EnteredAt: m.now(),
		Notes:     notes,
		Actor:     actor,
	}
	if err := m.store.ApplyTransition(ctx, vehicle, record); err != nil {
		if errors.Is(err, store.ErrStaleStage) {
			return nil, services.Wrap(services.ErrInvalidTransition, "status", "apply-transition",
				fmt.Sprintf("vehicle %d left %s concurrently", vehicleID, from), err)
		}
		return nil, services.Wrap(services.ErrUnavailable, "status", "apply-transition", "persist transition", err)
	}

	m.logger.Info("stage transition applied",
		logging.Int64(logging.FieldVehicleID, vehicleID),
		logging.String(logging.FieldCallNumber, vehicle.CallNumber),
		logging.String("from", string(from)),
		logging.String(logging.FieldStage, string(to)),
		logging.String("actor", actor))
	return vehicle, nil
}

// BatchResult reports the outcome of an administrative batch move.
type BatchResult struct {
	Applied int
	Failed  int
	Errors  []error
}

// BatchApplyTransition moves many vehicles to the same stage without the
// graph check. This is the administrative correction path; per-vehicle
// failures are counted and never abort the batch.
func (m *Manager) BatchApplyTransition(ctx context.Context, vehicleIDs []int64, to lifecycle.Stage, notes, actor string) BatchResult {
	var result BatchResult
	for _, id := range vehicleIDs {
		if err := m.forceTransition(ctx, id, to, notes, actor); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("vehicle %d: %w", id, err))
			m.logger.Warn("batch transition failed",
				logging.Int64(logging.FieldVehicleID, id),
				logging.String(logging.FieldStage, string(to)),
				logging.Error(err))
			continue
		}
		result.Applied++
	}
	return result
}

func (m *Manager) forceTransition(ctx context.Context, vehicleID int64, to lifecycle.Stage, notes, actor string) error {
	if !to.Known() {
		return services.Wrap(services.ErrValidation, "status", "batch-transition",
			fmt.Sprintf("unknown stage %q", to), nil)
	}
	vehicle, err := m.store.GetByID(ctx, vehicleID)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "status", "batch-transition", "load vehicle", err)
	}
	if vehicle == nil {
		return services.Wrap(services.ErrNotFound, "status", "batch-transition",
			fmt.Sprintf("vehicle %d not found", vehicleID), nil)
	}

	from := vehicle.Stage
	if err := m.applyDerivedFields(vehicle, to, notes); err != nil {
		return services.Wrap(services.ErrValidation, "status", "batch-transition", "derive stage fields", err)
	}
	record := store.StageTransition{
		VehicleID: vehicleID,
		FromStage: from,
		ToStage:   to,
		EnteredAt: m.now(),
		Notes:     notes,
		Actor:     actor,
	}
	return m.store.ApplyTransition(ctx, vehicle, record)
}

func (m *Manager) applyDerivedFields(vehicle *store.Vehicle, to lifecycle.Stage, notes string) error {
	now := m.now()
	switch to {
	case lifecycle.StageNoticeSent:
		fields := deriveNoticeFields(now, m.rules)
		vehicle.NoticeSentAt = &fields.SentAt
		vehicle.ResponseDeadline = &fields.ResponseDeadline
	case lifecycle.StageApprovedAuction:
		fields, err := deriveAuctionFields(now, m.rules)
		if err != nil {
			return err
		}
		vehicle.AuctionDate = &fields.AuctionDate
		vehicle.AdRunDate = &fields.AdRunDate
	case lifecycle.StageApprovedScrap:
		fields := deriveScrapFields(now, m.rules)
		vehicle.ScrapEligibleAt = &fields.EligibleAt
	case lifecycle.StageDisposed:
		fields := deriveDispositionFields(vehicle, now, notes)
		vehicle.DispositionKind = fields.Kind
		vehicle.DispositionReason = fields.Reason
		vehicle.DisposedAt = &fields.DisposedAt
		vehicle.Archived = true
	}
	return nil
}
