package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"towlot/internal/config"
	"towlot/internal/engine"
	"towlot/internal/executor"
	"towlot/internal/logging"
	"towlot/internal/outbox"
	"towlot/internal/scheduler"
	"towlot/internal/services/documents"
	"towlot/internal/services/hearings"
	"towlot/internal/services/push"
	"towlot/internal/status"
	"towlot/internal/store"
)

// Daemon coordinates the background workflow services and enforces
// single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	engine    *engine.Engine
	executor  *executor.Executor
	queue     *outbox.Queue
	scheduler *scheduler.Scheduler
	sender    push.Sender

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Scheduler    scheduler.Summary
	Outbox       map[store.NotificationStatus]int
	Registry     store.HealthSummary
	DBPath       string
	LockFilePath string
}

// New wires the full engine from configuration and an open store.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	sender := push.NewSender(cfg)
	queue := outbox.NewQueue(st, sender, logger)
	statusMgr := status.NewManager(st, cfg.Lifecycle, logger)
	eng := engine.New(st, statusMgr, cfg.Lifecycle, logger)
	schedule, err := hearings.NewSchedule(cfg)
	if err != nil {
		return nil, fmt.Errorf("configure hearing schedule: %w", err)
	}

	var generator documents.Generator
	if cfg.Documents.Enabled {
		generator = documents.NewFileGenerator(cfg)
	} else {
		generator = disabledGenerator{}
	}

	exec := executor.New(eng, statusMgr, queue, generator, schedule, st, cfg, logger)

	sched := scheduler.New(cfg.TickInterval(), logger)
	d := &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		store:     st,
		engine:    eng,
		executor:  exec,
		queue:     queue,
		scheduler: sched,
		sender:    sender,
		lockPath:  filepath.Join(cfg.Paths.DataDir, "towlot.lock"),
	}
	d.lock = flock.New(d.lockPath)
	d.registerTasks()
	return d, nil
}

func (d *Daemon) registerTasks() {
	d.scheduler.Register("workflow-check", d.cfg.WorkflowCheckInterval(), func(ctx context.Context) error {
		_, err := d.executor.RunCycle(ctx)
		return err
	})
	d.scheduler.Register("status-refresh", d.cfg.StatusRefreshInterval(), func(ctx context.Context) error {
		priorities, err := d.engine.DailyPriorities(ctx)
		if err != nil {
			return err
		}
		d.logger.Info("priority sweep",
			logging.Int("urgent", len(priorities.Urgent)),
			logging.Int("due_today", len(priorities.DueToday)),
			logging.Int("upcoming", len(priorities.Upcoming)))
		return nil
	})
	d.scheduler.Register("notification-check", d.cfg.NotificationCheckInterval(), func(ctx context.Context) error {
		if _, err := d.queue.DrainDue(ctx, d.cfg.Notifications.DrainBatchSize); err != nil {
			return err
		}
		retention := time.Duration(d.cfg.Notifications.RetentionDays) * 24 * time.Hour
		_, err := d.queue.Prune(ctx, retention)
		return err
	})
}

// Start acquires the daemon lock and launches the scheduler.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another towlot daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.scheduler.Start(runCtx)

	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.scheduler.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Engine returns the shared engine for synchronous callers (CLI, API).
func (d *Daemon) Engine() *engine.Engine {
	return d.engine
}

// RunCycleNow triggers one executor cycle outside the schedule.
func (d *Daemon) RunCycleNow(ctx context.Context) (executor.Summary, error) {
	return d.executor.RunCycle(ctx)
}

// DrainOutboxNow triggers one outbox drain outside the schedule.
func (d *Daemon) DrainOutboxNow(ctx context.Context) (int, error) {
	return d.queue.DrainDue(ctx, d.cfg.Notifications.DrainBatchSize)
}

// TestNotification sends a test push through the configured endpoint.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.PushEndpoint) == "" {
		return false, "push endpoint not configured", nil
	}
	if err := d.sender.Test(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status aggregates scheduler, outbox, and registry diagnostics.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	counts, err := d.queue.Counts(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("outbox counts: %w", err)
	}
	health, err := d.store.Health(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("registry health: %w", err)
	}
	return Status{
		Running:      d.running.Load(),
		Scheduler:    d.scheduler.Status(),
		Outbox:       counts,
		Registry:     health,
		DBPath:       d.store.Path(),
		LockFilePath: d.lockPath,
	}, nil
}

// disabledGenerator stands in when form generation is turned off. Document
// actions fail visibly instead of silently writing files.
type disabledGenerator struct{}

func (disabledGenerator) Generate(context.Context, string, *store.Vehicle) (string, error) {
	return "", errors.New("document generation disabled in configuration")
}
