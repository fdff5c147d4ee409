package lifecycle_test

import (
	"testing"

	"towlot/internal/lifecycle"
)

// expectedGraph mirrors the legal adjacency table; the exhaustive check below
// keeps CanTransition consistent with it for every stage pair.
var expectedGraph = map[lifecycle.Stage][]lifecycle.Stage{
	lifecycle.StageInitialHold:     {lifecycle.StageNoticeSent},
	lifecycle.StageNoticeSent:      {lifecycle.StageApprovedAuction, lifecycle.StageApprovedScrap},
	lifecycle.StageApprovedAuction: {lifecycle.StageScheduledPickup},
	lifecycle.StageApprovedScrap:   {lifecycle.StageScheduledPickup},
	lifecycle.StageScheduledPickup: {lifecycle.StagePendingRemoval},
	lifecycle.StagePendingRemoval:  {},
	lifecycle.StageDisposed:        {},
}

func TestCanTransitionTotality(t *testing.T) {
	stages := lifecycle.AllStages()
	for _, from := range stages {
		allowed := make(map[lifecycle.Stage]bool)
		for _, to := range expectedGraph[from] {
			allowed[to] = true
		}
		if !from.IsTerminal() {
			allowed[lifecycle.StageDisposed] = true
		}
		for _, to := range stages {
			want := allowed[to] && from != to
			if got := lifecycle.CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestNoSkipExceptDisposed(t *testing.T) {
	if lifecycle.CanTransition(lifecycle.StageInitialHold, lifecycle.StageScheduledPickup) {
		t.Fatal("initial hold must not reach scheduled pickup directly")
	}
	if !lifecycle.CanTransition(lifecycle.StageInitialHold, lifecycle.StageDisposed) {
		t.Fatal("initial hold must reach disposed directly")
	}
}

func TestDisposedIsTerminal(t *testing.T) {
	for _, to := range lifecycle.AllStages() {
		if lifecycle.CanTransition(lifecycle.StageDisposed, to) {
			t.Fatalf("disposed must not transition to %s", to)
		}
	}
}

func TestCanTransitionUnknownStages(t *testing.T) {
	if lifecycle.CanTransition("limbo", lifecycle.StageDisposed) {
		t.Fatal("unknown from-stage must be rejected")
	}
	if lifecycle.CanTransition(lifecycle.StageInitialHold, "limbo") {
		t.Fatal("unknown to-stage must be rejected")
	}
}

func TestParseStage(t *testing.T) {
	cases := []struct {
		in   string
		want lifecycle.Stage
		ok   bool
	}{
		{"initial_hold", lifecycle.StageInitialHold, true},
		{" Notice_Sent ", lifecycle.StageNoticeSent, true},
		{"DISPOSED", lifecycle.StageDisposed, true},
		{"", "", false},
		{"parked", "", false},
	}
	for _, tc := range cases {
		got, ok := lifecycle.ParseStage(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseStage(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseDispositionKind(t *testing.T) {
	if kind, ok := lifecycle.ParseDispositionKind("Auctioned"); !ok || kind != lifecycle.DispositionAuctioned {
		t.Fatalf("unexpected parse result: %q %v", kind, ok)
	}
	if _, ok := lifecycle.ParseDispositionKind("melted"); ok {
		t.Fatal("expected unknown disposition kind to fail")
	}
}
