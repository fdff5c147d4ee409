package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"towlot/internal/logging"
)

// TaskFunc is one periodic unit of work.
type TaskFunc func(ctx context.Context) error

type task struct {
	name     string
	interval time.Duration
	run      TaskFunc
	lastRun  time.Time
}

// Scheduler runs registered tasks on a single background worker.
type Scheduler struct {
	logger *slog.Logger
	tick   time.Duration
	now    func() time.Time

	mu      sync.Mutex
	tasks   []*task
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the scheduler's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Scheduler checking task intervals every tick.
func New(tick time.Duration, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if tick <= 0 {
		tick = time.Minute
	}
	s := &Scheduler{
		logger: logging.NewComponentLogger(logger, "scheduler"),
		tick:   tick,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a periodic task. Tasks registered after Start are picked up
// on the next tick.
func (s *Scheduler) Register(name string, interval time.Duration, fn TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, &task{name: name, interval: interval, run: fn})
}

// Start launches the background worker. It is a no-op when already running.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go s.loop(runCtx)
	s.logger.Info("scheduler started", logging.Duration("tick", s.tick))
}

// Stop signals cancellation and blocks until the worker exits. An in-flight
// task is allowed to finish; no new task starts after the signal.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	// Run due tasks once at startup so a fresh daemon does not idle for a
	// full tick before its first sweep.
	s.runDue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

func (s *Scheduler) runDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []*task
	for _, t := range s.tasks {
		if now.Sub(t.lastRun) >= t.interval {
			t.lastRun = now
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := t.run(ctx); err != nil {
			s.logger.Error("task failed",
				logging.String(logging.FieldTask, t.name),
				logging.Error(err))
			continue
		}
		s.logger.Debug("task completed", logging.String(logging.FieldTask, t.name))
	}
}

// TaskStatus describes one registered task for the status readout.
type TaskStatus struct {
	Name     string
	Interval time.Duration
	LastRun  time.Time
}

// Summary is the scheduler status readout.
type Summary struct {
	Running bool
	Tasks   []TaskStatus
}

// Status reports whether the worker runs and when each task last ran.
func (s *Scheduler) Status() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := Summary{Running: s.running}
	for _, t := range s.tasks {
		summary.Tasks = append(summary.Tasks, TaskStatus{
			Name:     t.name,
			Interval: t.interval,
			LastRun:  t.lastRun,
		})
	}
	return summary
}
