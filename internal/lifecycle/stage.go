package lifecycle

import "strings"

// Stage represents a vehicle's position in the disposition lifecycle.
type Stage string

const (
	StageInitialHold     Stage = "initial_hold"
	StageNoticeSent      Stage = "notice_sent"
	StageApprovedAuction Stage = "approved_auction"
	StageApprovedScrap   Stage = "approved_scrap"
	StageScheduledPickup Stage = "scheduled_pickup"
	StagePendingRemoval  Stage = "pending_removal"
	StageDisposed        Stage = "disposed"
)

// DispositionKind distinguishes the terminal outcomes within StageDisposed.
type DispositionKind string

const (
	DispositionReleased  DispositionKind = "released"
	DispositionAuctioned DispositionKind = "auctioned"
	DispositionScrapped  DispositionKind = "scrapped"
)

var allStages = []Stage{
	StageInitialHold,
	StageNoticeSent,
	StageApprovedAuction,
	StageApprovedScrap,
	StageScheduledPickup,
	StagePendingRemoval,
	StageDisposed,
}

var stageSet = func() map[Stage]struct{} {
	set := make(map[Stage]struct{}, len(allStages))
	for _, stage := range allStages {
		set[stage] = struct{}{}
	}
	return set
}()

// transitions is the fixed adjacency map of the lifecycle. Every stage
// additionally permits a direct move to StageDisposed (owners can redeem a
// vehicle at any point), handled in CanTransition rather than repeated here.
var transitions = map[Stage][]Stage{
	StageInitialHold:     {StageNoticeSent},
	StageNoticeSent:      {StageApprovedAuction, StageApprovedScrap},
	StageApprovedAuction: {StageScheduledPickup},
	StageApprovedScrap:   {StageScheduledPickup},
	StageScheduledPickup: {StagePendingRemoval},
	StagePendingRemoval:  {},
	StageDisposed:        {},
}

// AllStages returns the ordered list of known stages.
func AllStages() []Stage {
	cp := make([]Stage, len(allStages))
	copy(cp, allStages)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a stage ends the lifecycle.
func (s Stage) IsTerminal() bool {
	return s == StageDisposed
}

// Known reports whether the stage is part of the lifecycle enum.
func (s Stage) Known() bool {
	_, ok := stageSet[s]
	return ok
}

// Label returns a human-readable name for the stage.
func (s Stage) Label() string {
	switch s {
	case StageInitialHold:
		return "Initial Hold"
	case StageNoticeSent:
		return "Notice Sent"
	case StageApprovedAuction:
		return "Approved for Auction"
	case StageApprovedScrap:
		return "Approved for Scrap"
	case StageScheduledPickup:
		return "Scheduled Pickup"
	case StagePendingRemoval:
		return "Pending Removal"
	case StageDisposed:
		return "Disposed"
	default:
		return string(s)
	}
}

// CanTransition reports whether the lifecycle graph permits moving a vehicle
// from one stage to another. It is total: unknown stages yield false, and a
// direct move to StageDisposed is allowed from every non-terminal stage.
func CanTransition(from, to Stage) bool {
	if !from.Known() || !to.Known() {
		return false
	}
	if from == to {
		return false
	}
	if to == StageDisposed {
		return !from.IsTerminal()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseDispositionKind converts a string into a known DispositionKind.
func ParseDispositionKind(value string) (DispositionKind, bool) {
	switch DispositionKind(strings.ToLower(strings.TrimSpace(value))) {
	case DispositionReleased:
		return DispositionReleased, true
	case DispositionAuctioned:
		return DispositionAuctioned, true
	case DispositionScrapped:
		return DispositionScrapped, true
	default:
		return "", false
	}
}
