package testsupport

import (
	"context"
	"testing"
	"time"

	"towlot/internal/config"
	"towlot/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewVehicle creates an impounded vehicle for tests using the provided store.
func NewVehicle(t testing.TB, st *store.Store, callNumber string, intakeAt time.Time) *store.Vehicle {
	t.Helper()

	vehicle, err := st.NewVehicle(context.Background(), &store.Vehicle{
		CallNumber:   callNumber,
		Jurisdiction: "metro",
		Make:         "Ford",
		Model:        "Focus",
		Plate:        "TST-" + callNumber,
		IntakeAt:     intakeAt,
	})
	if err != nil {
		t.Fatalf("store.NewVehicle: %v", err)
	}
	return vehicle
}
