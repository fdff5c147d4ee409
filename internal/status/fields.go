package status

import (
	"time"

	"towlot/internal/config"
	"towlot/internal/lifecycle"
	"towlot/internal/store"
)

// NoticeFields carries the values set when a vehicle enters notice_sent.
type NoticeFields struct {
	SentAt           time.Time
	ResponseDeadline time.Time
}

// AuctionFields carries the auction calendar computed when a vehicle is
// approved for auction.
type AuctionFields struct {
	AuctionDate time.Time
	AdRunDate   time.Time
}

// ScrapFields carries the hold expiry computed when a vehicle is approved
// for scrap.
type ScrapFields struct {
	EligibleAt time.Time
}

// DispositionFields carries the terminal record written when a vehicle is
// disposed.
type DispositionFields struct {
	Kind       lifecycle.DispositionKind
	Reason     string
	DisposedAt time.Time
}

func deriveNoticeFields(now time.Time, rules config.Lifecycle) NoticeFields {
	return NoticeFields{
		SentAt:           now,
		ResponseDeadline: now.AddDate(0, 0, rules.NoticeResponseDays),
	}
}

// deriveAuctionFields picks the next auction slot on the configured weekday
// that still leaves the legally required newspaper-ad lead time, then counts
// the lead backward and rolls the ad date to the publication weekday.
func deriveAuctionFields(now time.Time, rules config.Lifecycle) (AuctionFields, error) {
	auctionDay, err := config.ParseWeekday(rules.AuctionWeekday)
	if err != nil {
		return AuctionFields{}, err
	}
	publicationDay, err := config.ParseWeekday(rules.PublicationWeekday)
	if err != nil {
		return AuctionFields{}, err
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	slot := nextWeekday(today, auctionDay)
	adDate := adRunDateFor(slot, rules.AdLeadDays, publicationDay)
	// The rolled-back publication date must still be placeable. A slot whose
	// ad date already passed cannot satisfy the lead; take the next slot.
	for adDate.Before(today) {
		slot = slot.AddDate(0, 0, 7)
		adDate = adRunDateFor(slot, rules.AdLeadDays, publicationDay)
	}

	return AuctionFields{AuctionDate: slot, AdRunDate: adDate}, nil
}

// adRunDateFor counts the ad lead backward from the auction slot and rolls
// the result back to the required publication weekday.
func adRunDateFor(slot time.Time, leadDays int, publicationDay time.Weekday) time.Time {
	adDate := slot.AddDate(0, 0, -leadDays)
	for adDate.Weekday() != publicationDay {
		adDate = adDate.AddDate(0, 0, -1)
	}
	return adDate
}

func deriveScrapFields(now time.Time, rules config.Lifecycle) ScrapFields {
	return ScrapFields{EligibleAt: now.AddDate(0, 0, rules.ScrapHoldDays)}
}

func deriveDispositionFields(v *store.Vehicle, now time.Time, notes string) DispositionFields {
	kind := inferDispositionKind(v)
	reason := notes
	if reason == "" {
		reason = "disposed via " + string(kind) + " path"
	}
	return DispositionFields{Kind: kind, Reason: reason, DisposedAt: now}
}

// inferDispositionKind resolves the terminal sub-kind from the path the
// vehicle travelled. Vehicles pulled out before approval were released to
// their owner.
func inferDispositionKind(v *store.Vehicle) lifecycle.DispositionKind {
	switch v.Stage {
	case lifecycle.StageApprovedAuction:
		return lifecycle.DispositionAuctioned
	case lifecycle.StageApprovedScrap:
		return lifecycle.DispositionScrapped
	case lifecycle.StageScheduledPickup, lifecycle.StagePendingRemoval:
		if v.AuctionDate != nil {
			return lifecycle.DispositionAuctioned
		}
		if v.ScrapEligibleAt != nil {
			return lifecycle.DispositionScrapped
		}
	}
	return lifecycle.DispositionReleased
}

// nextWeekday returns the first occurrence of day strictly after from.
func nextWeekday(from time.Time, day time.Weekday) time.Time {
	offset := (int(day) - int(from.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return from.AddDate(0, 0, offset)
}
