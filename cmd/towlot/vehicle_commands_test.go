package main

import (
	"testing"
)

func TestVehicleAddListShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath,
		"vehicle", "add", "V-2026-0100",
		"--jurisdiction", "metro", "--make", "Ford", "--model", "Focus", "--plate", "ABC-123")
	if err != nil {
		t.Fatalf("vehicle add: %v", err)
	}
	requireContains(t, out, "Registered vehicle V-2026-0100")
	requireContains(t, out, "Initial Hold")

	out, _, err = runCLI(t, env.configPath, "vehicle", "list")
	if err != nil {
		t.Fatalf("vehicle list: %v", err)
	}
	requireContains(t, out, "V-2026-0100")
	requireContains(t, out, "Ford Focus")

	out, _, err = runCLI(t, env.configPath, "vehicle", "show", "V-2026-0100")
	if err != nil {
		t.Fatalf("vehicle show: %v", err)
	}
	requireContains(t, out, "Audit trail")
	requireContains(t, out, "vehicle intake")
}

func TestVehicleAddRejectsDuplicateCallNumber(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env.configPath, "vehicle", "add", "V-DUP"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, _, err := runCLI(t, env.configPath, "vehicle", "add", "V-DUP"); err == nil {
		t.Fatal("expected duplicate call number to fail")
	}
}

func TestVehicleAdvance(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env.configPath, "vehicle", "add", "V-ADV"); err != nil {
		t.Fatalf("vehicle add: %v", err)
	}

	out, _, err := runCLI(t, env.configPath,
		"vehicle", "advance", "V-ADV", "notice_sent", "--notes", "manual notice")
	if err != nil {
		t.Fatalf("vehicle advance: %v", err)
	}
	requireContains(t, out, "advanced to Notice Sent")

	// Lifecycle graph forbids skipping back to the hold stage.
	if _, _, err := runCLI(t, env.configPath, "vehicle", "advance", "V-ADV", "initial_hold"); err == nil {
		t.Fatal("expected invalid transition to fail")
	}

	if _, _, err := runCLI(t, env.configPath, "vehicle", "advance", "V-ADV", "impounded"); err == nil {
		t.Fatal("expected unknown stage to fail")
	}
}

func TestVehicleShowUnknown(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env.configPath, "vehicle", "show", "V-MISSING"); err == nil {
		t.Fatal("expected unknown vehicle to fail")
	}
}
