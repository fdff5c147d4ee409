package actions_test

import (
	"reflect"
	"testing"
	"time"

	"towlot/internal/actions"
	"towlot/internal/config"
	"towlot/internal/lifecycle"
	"towlot/internal/store"
)

func thresholds() actions.Thresholds {
	return actions.ThresholdsFromConfig(config.Default().Lifecycle)
}

func heldVehicle(intake time.Time) *store.Vehicle {
	return &store.Vehicle{
		ID:         1,
		CallNumber: "C-1",
		Stage:      lifecycle.StageInitialHold,
		IntakeAt:   intake,
	}
}

func TestNoticeThresholdProgression(t *testing.T) {
	intake := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	v := heldVehicle(intake)
	th := thresholds()

	// Day 6: placeholder only.
	early := actions.Derive(v, intake.AddDate(0, 0, 6), th)
	if len(early) != 1 {
		t.Fatalf("expected one action, got %d", len(early))
	}
	if early[0].Kind != actions.KindSendNotice || early[0].Priority != actions.PriorityLow || early[0].Automated {
		t.Fatalf("expected low-priority placeholder, got %+v", early[0])
	}

	// Day 7: automated send at high priority.
	due := actions.Derive(v, intake.AddDate(0, 0, 7), th)
	if len(due) != 1 {
		t.Fatalf("expected one action, got %d", len(due))
	}
	if due[0].Kind != actions.KindSendNotice || due[0].Priority != actions.PriorityHigh || !due[0].Automated {
		t.Fatalf("expected automated high send-notice, got %+v", due[0])
	}
	if !due[0].DueDate.Equal(intake.AddDate(0, 0, 7)) {
		t.Fatalf("due date: %v", due[0].DueDate)
	}

	// Day 9: escalated to urgent.
	late := actions.Derive(v, intake.AddDate(0, 0, 9), th)
	if late[0].Priority != actions.PriorityUrgent {
		t.Fatalf("expected urgent past escalation threshold, got %s", late[0].Priority)
	}
}

func TestNoticeAlreadySentDerivesNoSendAction(t *testing.T) {
	intake := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	sent := intake.AddDate(0, 0, 7)
	v := heldVehicle(intake)
	v.NoticeSentAt = &sent

	derived := actions.Derive(v, intake.AddDate(0, 0, 9), thresholds())
	for _, action := range derived {
		if action.Kind == actions.KindSendNotice && action.Automated {
			t.Fatalf("vehicle with notice_sent_at must not derive automated send-notice: %+v", action)
		}
	}
}

func TestResponseWindowLapseDerivesDispositionApproval(t *testing.T) {
	sent := time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC)
	deadline := sent.AddDate(0, 0, 7)
	v := &store.Vehicle{
		ID:               2,
		CallNumber:       "C-2",
		Stage:            lifecycle.StageNoticeSent,
		IntakeAt:         sent.AddDate(0, 0, -7),
		NoticeSentAt:     &sent,
		ResponseDeadline: &deadline,
	}
	th := thresholds()

	waiting := actions.Derive(v, deadline.Add(-time.Hour), th)
	if len(waiting) != 1 || waiting[0].Priority != actions.PriorityLow || waiting[0].Automated {
		t.Fatalf("expected low waiting action, got %+v", waiting)
	}

	lapsed := actions.Derive(v, deadline, th)
	if len(lapsed) != 1 {
		t.Fatalf("expected one action, got %d", len(lapsed))
	}
	if lapsed[0].Kind != actions.KindUpdateStatus || lapsed[0].Priority != actions.PriorityHigh || !lapsed[0].Automated {
		t.Fatalf("expected automated update-status, got %+v", lapsed[0])
	}
}

func TestApprovedStagesDerivePickupWindow(t *testing.T) {
	now := time.Date(2026, time.March, 16, 8, 0, 0, 0, time.UTC)
	th := thresholds()

	auction := &store.Vehicle{ID: 3, CallNumber: "C-3", Stage: lifecycle.StageApprovedAuction, IntakeAt: now.AddDate(0, 0, -20)}
	derived := actions.Derive(auction, now, th)
	if len(derived) != 1 || derived[0].Priority != actions.PriorityMedium {
		t.Fatalf("expected one medium action, got %+v", derived)
	}
	if !derived[0].DueDate.Equal(now.Add(th.AuctionPickupWindow)) {
		t.Fatalf("auction pickup due: %v", derived[0].DueDate)
	}

	scrap := &store.Vehicle{ID: 4, CallNumber: "C-4", Stage: lifecycle.StageApprovedScrap, IntakeAt: now.AddDate(0, 0, -20)}
	derived = actions.Derive(scrap, now, th)
	if !derived[0].DueDate.Equal(now.Add(th.ScrapPickupWindow)) {
		t.Fatalf("scrap pickup due: %v", derived[0].DueDate)
	}
}

func TestAuctionAdWithinLeadDerivesDocumentAction(t *testing.T) {
	now := time.Date(2026, time.March, 16, 8, 0, 0, 0, time.UTC)
	adDate := now.AddDate(0, 0, 2)
	v := &store.Vehicle{
		ID:         5,
		CallNumber: "C-5",
		Stage:      lifecycle.StageApprovedAuction,
		IntakeAt:   now.AddDate(0, 0, -20),
		AdRunDate:  &adDate,
	}
	derived := actions.Derive(v, now, thresholds())

	var doc *actions.Action
	for i := range derived {
		if derived[i].Kind == actions.KindCreateDocument {
			doc = &derived[i]
		}
	}
	if doc == nil {
		t.Fatalf("expected create-document action, got %+v", derived)
	}
	if !doc.Automated || doc.Priority != actions.PriorityHigh {
		t.Fatalf("unexpected document action: %+v", doc)
	}

	v.AuctionNoticeDoc = "documents/C-5.txt"
	for _, action := range actions.Derive(v, now, thresholds()) {
		if action.Kind == actions.KindCreateDocument {
			t.Fatal("document action must disappear once the artifact exists")
		}
	}
}

func TestOverduePickupDerivesAlert(t *testing.T) {
	now := time.Date(2026, time.March, 20, 8, 0, 0, 0, time.UTC)
	scheduled := now.AddDate(0, 0, -1)
	v := &store.Vehicle{
		ID:                6,
		CallNumber:        "C-6",
		Stage:             lifecycle.StageScheduledPickup,
		IntakeAt:          now.AddDate(0, 0, -30),
		PickupScheduledAt: &scheduled,
	}

	derived := actions.Derive(v, now, thresholds())
	if len(derived) != 1 || derived[0].Kind != actions.KindGenerateAlert {
		t.Fatalf("expected generate-alert, got %+v", derived)
	}

	v.PickupConfirmed = true
	if remaining := actions.Derive(v, now, thresholds()); len(remaining) != 0 {
		t.Fatalf("confirmed pickup must derive nothing, got %+v", remaining)
	}
}

func TestHearingRequestDerivesSchedulingAction(t *testing.T) {
	now := time.Date(2026, time.March, 16, 8, 0, 0, 0, time.UTC)
	v := &store.Vehicle{
		ID:               7,
		CallNumber:       "C-7",
		Stage:            lifecycle.StageNoticeSent,
		IntakeAt:         now.AddDate(0, 0, -10),
		HearingRequested: true,
	}
	sent := now.AddDate(0, 0, -3)
	v.NoticeSentAt = &sent

	derived := actions.Derive(v, now, thresholds())
	var hearing *actions.Action
	for i := range derived {
		if derived[i].Kind == actions.KindScheduleHearing {
			hearing = &derived[i]
		}
	}
	if hearing == nil || hearing.Priority != actions.PriorityUrgent || !hearing.Automated {
		t.Fatalf("expected urgent automated schedule-hearing, got %+v", derived)
	}

	slot := now.AddDate(0, 0, 5)
	v.HearingDate = &slot
	for _, action := range actions.Derive(v, now, thresholds()) {
		if action.Kind == actions.KindScheduleHearing {
			t.Fatal("scheduled hearing must not derive another scheduling action")
		}
	}
}

func TestArchivedAndDisposedVehiclesDeriveNothing(t *testing.T) {
	now := time.Now().UTC()
	disposed := &store.Vehicle{ID: 8, CallNumber: "C-8", Stage: lifecycle.StageDisposed, IntakeAt: now.AddDate(0, 0, -40)}
	if derived := actions.Derive(disposed, now, thresholds()); len(derived) != 0 {
		t.Fatalf("disposed vehicle derived %+v", derived)
	}
	archived := heldVehicle(now.AddDate(0, 0, -40))
	archived.Archived = true
	if derived := actions.Derive(archived, now, thresholds()); len(derived) != 0 {
		t.Fatalf("archived vehicle derived %+v", derived)
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	now := time.Date(2026, time.March, 16, 8, 0, 0, 0, time.UTC)
	v := heldVehicle(now.AddDate(0, 0, -9))
	v.HearingRequested = true

	first := actions.Derive(v, now, thresholds())
	second := actions.Derive(v, now, thresholds())
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("derivation not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestSortOrdersByPriorityThenDueDate(t *testing.T) {
	now := time.Now().UTC()
	list := []actions.Action{
		{Kind: actions.KindUpdateStatus, Priority: actions.PriorityLow, DueDate: now},
		{Kind: actions.KindGenerateAlert, Priority: actions.PriorityHigh, DueDate: now.Add(time.Hour)},
		{Kind: actions.KindSendNotice, Priority: actions.PriorityHigh, DueDate: now},
		{Kind: actions.KindScheduleHearing, Priority: actions.PriorityUrgent, DueDate: now},
	}
	actions.Sort(list)

	if list[0].Kind != actions.KindScheduleHearing {
		t.Fatalf("expected urgent first, got %+v", list[0])
	}
	if list[1].Kind != actions.KindSendNotice || list[2].Kind != actions.KindGenerateAlert {
		t.Fatalf("expected due-date tie break within high, got %+v", list)
	}
	if list[3].Priority != actions.PriorityLow {
		t.Fatalf("expected low last, got %+v", list[3])
	}
}
