package daemon_test

import (
	"context"
	"testing"
	"time"

	"towlot/internal/daemon"
	"towlot/internal/logging"
	"towlot/internal/testsupport"
)

func TestDaemonStartStopLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	d, err := daemon.New(cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Stop() })

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("second Start must fail while running")
	}

	status, err := d.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || !status.Scheduler.Running {
		t.Fatalf("expected running daemon and scheduler, got %+v", status)
	}
	if len(status.Scheduler.Tasks) != 3 {
		t.Fatalf("expected 3 scheduled tasks, got %d", len(status.Scheduler.Tasks))
	}

	d.Stop()
	status, err = d.Status(ctx)
	if err != nil {
		t.Fatalf("Status after stop: %v", err)
	}
	if status.Running {
		t.Fatal("expected stopped daemon")
	}
}

func TestDaemonLockPreventsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	first, err := daemon.New(cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(first.Stop)

	second, err := daemon.New(cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New second: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance must not acquire the lock")
	}
}

func TestDaemonRunsExecutorOnDemand(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	d, err := daemon.New(cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Stop() })

	testsupport.NewVehicle(t, st, "C-500", time.Now().UTC().AddDate(0, 0, -8))

	summary, err := d.RunCycleNow(context.Background())
	if err != nil {
		t.Fatalf("RunCycleNow: %v", err)
	}
	if summary.NoticesSent != 1 {
		t.Fatalf("expected one notice sent, got %+v", summary)
	}
}

func TestTestNotificationWithoutEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	d, err := daemon.New(cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Stop() })

	ok, message, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if ok {
		t.Fatal("expected not-ok without an endpoint")
	}
	if message == "" {
		t.Fatal("expected explanatory message")
	}
}
