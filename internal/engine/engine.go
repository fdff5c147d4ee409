package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"towlot/internal/actions"
	"towlot/internal/config"
	"towlot/internal/lifecycle"
	"towlot/internal/logging"
	"towlot/internal/services"
	"towlot/internal/status"
	"towlot/internal/store"
)

// Engine composes the store, the action deriver, and the status manager.
type Engine struct {
	store      *store.Store
	status     *status.Manager
	thresholds actions.Thresholds
	logger     *slog.Logger
	now        func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New constructs an Engine.
func New(st *store.Store, statusMgr *status.Manager, rules config.Lifecycle, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Engine{
		store:      st,
		status:     statusMgr,
		thresholds: actions.ThresholdsFromConfig(rules),
		logger:     logging.NewComponentLogger(logger, "engine"),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Thresholds exposes the deadline constants the engine derives with.
func (e *Engine) Thresholds() actions.Thresholds {
	return e.thresholds
}

// Priorities buckets the fleet's outstanding actions for the dashboard.
type Priorities struct {
	Urgent   []actions.Action
	DueToday []actions.Action
	Upcoming []actions.Action
}

// Total returns the number of actions across all buckets.
func (p Priorities) Total() int {
	return len(p.Urgent) + len(p.DueToday) + len(p.Upcoming)
}

// DailyPriorities derives actions for every active vehicle and buckets them:
// urgent priority first, then anything due by end of day, then the rest.
func (e *Engine) DailyPriorities(ctx context.Context) (Priorities, error) {
	vehicles, err := e.store.ActiveVehicles(ctx)
	if err != nil {
		return Priorities{}, services.Wrap(services.ErrUnavailable, "engine", "daily-priorities", "load active vehicles", err)
	}

	now := e.now()
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, time.UTC)

	var priorities Priorities
	for _, vehicle := range vehicles {
		for _, action := range actions.Derive(vehicle, now, e.thresholds) {
			switch {
			case action.Priority == actions.PriorityUrgent:
				priorities.Urgent = append(priorities.Urgent, action)
			case !action.DueDate.After(endOfDay):
				priorities.DueToday = append(priorities.DueToday, action)
			default:
				priorities.Upcoming = append(priorities.Upcoming, action)
			}
		}
	}
	actions.Sort(priorities.Urgent)
	actions.Sort(priorities.DueToday)
	actions.Sort(priorities.Upcoming)
	return priorities, nil
}

// NextActions derives the outstanding actions for one vehicle.
func (e *Engine) NextActions(ctx context.Context, vehicleID int64) ([]actions.Action, error) {
	vehicle, err := e.store.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "engine", "next-actions", "load vehicle", err)
	}
	if vehicle == nil {
		return nil, services.Wrap(services.ErrNotFound, "engine", "next-actions",
			fmt.Sprintf("vehicle %d not found", vehicleID), nil)
	}
	derived := actions.Derive(vehicle, e.now(), e.thresholds)
	actions.Sort(derived)
	return derived, nil
}

// AdvanceStage is the only externally-triggered mutation path. Manual
// operator overrides pass through the same validation as automated moves.
func (e *Engine) AdvanceStage(ctx context.Context, vehicleID int64, to lifecycle.Stage, notes, actor string) (*store.Vehicle, error) {
	return e.status.ApplyTransition(ctx, vehicleID, to, notes, actor)
}

// AutomationQueue returns the active vehicles carrying at least one
// automated action. The deriver only marks an action automated once it is
// actionable, so no extra due filter is applied here. The executor
// re-derives per vehicle before acting; this is only the candidate scan.
func (e *Engine) AutomationQueue(ctx context.Context) ([]*store.Vehicle, error) {
	vehicles, err := e.store.ActiveVehicles(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "engine", "automation-queue", "load active vehicles", err)
	}

	now := e.now()
	var candidates []*store.Vehicle
	for _, vehicle := range vehicles {
		for _, action := range actions.Derive(vehicle, now, e.thresholds) {
			if action.Automated {
				candidates = append(candidates, vehicle)
				break
			}
		}
	}
	return candidates, nil
}
