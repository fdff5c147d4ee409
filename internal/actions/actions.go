package actions

import (
	"fmt"
	"sort"
	"time"

	"towlot/internal/config"
	"towlot/internal/lifecycle"
	"towlot/internal/store"
)

// Kind identifies what an action asks an operator or the executor to do.
type Kind string

const (
	KindSendNotice      Kind = "send-notice"
	KindUpdateStatus    Kind = "update-status"
	KindGenerateAlert   Kind = "generate-alert"
	KindCreateDocument  Kind = "create-document"
	KindScheduleHearing Kind = "schedule-hearing"
)

// Priority orders actions for display and for executor triage.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Weight returns a sortable rank, highest priority first.
func (p Priority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Action is one outstanding piece of work for a vehicle.
type Action struct {
	Kind        Kind
	Priority    Priority
	DueDate     time.Time
	VehicleID   int64
	Description string
	Automated   bool
}

// Thresholds carries the deadline constants used during derivation.
type Thresholds struct {
	NoticeAfter         time.Duration
	NoticeEscalate      time.Duration
	NoticeResponse      time.Duration
	AuctionPickupWindow time.Duration
	ScrapPickupWindow   time.Duration
	DocumentLead        time.Duration
}

// ThresholdsFromConfig converts configured day counts into durations.
func ThresholdsFromConfig(rules config.Lifecycle) Thresholds {
	day := 24 * time.Hour
	return Thresholds{
		NoticeAfter:         time.Duration(rules.NoticeAfterDays) * day,
		NoticeEscalate:      time.Duration(rules.NoticeEscalateDays) * day,
		NoticeResponse:      time.Duration(rules.NoticeResponseDays) * day,
		AuctionPickupWindow: time.Duration(rules.AuctionPickupWindowDays) * day,
		ScrapPickupWindow:   time.Duration(rules.ScrapPickupWindowDays) * day,
		DocumentLead:        time.Duration(rules.DocumentLeadDays) * day,
	}
}

// Derive returns every action a vehicle currently qualifies for. All
// qualifying actions are returned; the caller buckets by priority.
func Derive(v *store.Vehicle, now time.Time, th Thresholds) []Action {
	if v == nil || v.Archived || v.Stage.IsTerminal() {
		return nil
	}

	var derived []Action

	switch v.Stage {
	case lifecycle.StageInitialHold:
		derived = append(derived, deriveNoticeAction(v, now, th))
	case lifecycle.StageNoticeSent:
		derived = append(derived, deriveResponseAction(v, now, th))
	case lifecycle.StageApprovedAuction:
		derived = append(derived, pickupAction(v, now, th.AuctionPickupWindow))
		if doc := deriveDocumentAction(v, now, th); doc != nil {
			derived = append(derived, *doc)
		}
	case lifecycle.StageApprovedScrap:
		derived = append(derived, pickupAction(v, now, th.ScrapPickupWindow))
	case lifecycle.StageScheduledPickup:
		if alert := deriveOverduePickupAction(v, now); alert != nil {
			derived = append(derived, *alert)
		}
	}

	if v.HearingRequested && v.HearingDate == nil {
		derived = append(derived, Action{
			Kind:        KindScheduleHearing,
			Priority:    PriorityUrgent,
			DueDate:     now,
			VehicleID:   v.ID,
			Description: fmt.Sprintf("schedule hearing for %s", v.CallNumber),
			Automated:   true,
		})
	}

	return derived
}

// Sort orders actions by priority weight, earliest due date breaking ties.
func Sort(list []Action) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Priority.Weight() != list[j].Priority.Weight() {
			return list[i].Priority.Weight() < list[j].Priority.Weight()
		}
		return list[i].DueDate.Before(list[j].DueDate)
	})
}

func deriveNoticeAction(v *store.Vehicle, now time.Time, th Thresholds) Action {
	due := v.IntakeAt.Add(th.NoticeAfter)
	if v.NoticeSentAt == nil && !now.Before(due) {
		priority := PriorityHigh
		if !now.Before(v.IntakeAt.Add(th.NoticeEscalate)) {
			priority = PriorityUrgent
		}
		return Action{
			Kind:        KindSendNotice,
			Priority:    priority,
			DueDate:     due,
			VehicleID:   v.ID,
			Description: fmt.Sprintf("send owner notice for %s", v.CallNumber),
			Automated:   true,
		}
	}
	return Action{
		Kind:        KindSendNotice,
		Priority:    PriorityLow,
		DueDate:     due,
		VehicleID:   v.ID,
		Description: fmt.Sprintf("owner notice for %s due %s", v.CallNumber, due.Format("2006-01-02")),
		Automated:   false,
	}
}

func deriveResponseAction(v *store.Vehicle, now time.Time, th Thresholds) Action {
	deadline := v.ResponseDeadline
	if deadline == nil && v.NoticeSentAt != nil {
		d := v.NoticeSentAt.Add(th.NoticeResponse)
		deadline = &d
	}
	if deadline == nil {
		d := now
		deadline = &d
	}
	if !now.Before(*deadline) {
		return Action{
			Kind:        KindUpdateStatus,
			Priority:    PriorityHigh,
			DueDate:     *deadline,
			VehicleID:   v.ID,
			Description: fmt.Sprintf("approve %s for disposition", v.CallNumber),
			Automated:   true,
		}
	}
	return Action{
		Kind:        KindUpdateStatus,
		Priority:    PriorityLow,
		DueDate:     *deadline,
		VehicleID:   v.ID,
		Description: fmt.Sprintf("response window for %s ends %s", v.CallNumber, deadline.Format("2006-01-02")),
		Automated:   false,
	}
}

func pickupAction(v *store.Vehicle, now time.Time, window time.Duration) Action {
	due := now.Add(window)
	return Action{
		Kind:        KindUpdateStatus,
		Priority:    PriorityMedium,
		DueDate:     due,
		VehicleID:   v.ID,
		Description: fmt.Sprintf("schedule pickup for %s by %s", v.CallNumber, due.Format("2006-01-02")),
		Automated:   false,
	}
}

func deriveDocumentAction(v *store.Vehicle, now time.Time, th Thresholds) *Action {
	if v.AdRunDate == nil || v.AuctionNoticeDoc != "" {
		return nil
	}
	if v.AdRunDate.After(now.Add(th.DocumentLead)) {
		return nil
	}
	return &Action{
		Kind:        KindCreateDocument,
		Priority:    PriorityHigh,
		DueDate:     *v.AdRunDate,
		VehicleID:   v.ID,
		Description: fmt.Sprintf("prepare auction notice form for %s", v.CallNumber),
		Automated:   true,
	}
}

func deriveOverduePickupAction(v *store.Vehicle, now time.Time) *Action {
	if v.PickupScheduledAt == nil || v.PickupConfirmed || now.Before(*v.PickupScheduledAt) {
		return nil
	}
	return &Action{
		Kind:        KindGenerateAlert,
		Priority:    PriorityHigh,
		DueDate:     *v.PickupScheduledAt,
		VehicleID:   v.ID,
		Description: fmt.Sprintf("pickup for %s overdue since %s, confirm removal", v.CallNumber, v.PickupScheduledAt.Format("2006-01-02")),
		Automated:   true,
	}
}
