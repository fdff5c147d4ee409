package config

import (
	"fmt"
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday converts a lowercase weekday name into a time.Weekday.
func ParseWeekday(value string) (time.Weekday, error) {
	day, ok := weekdays[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", value)
	}
	return day, nil
}

// Validate checks configuration invariants and returns the first violation.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return fmt.Errorf("paths.data_dir is required")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return fmt.Errorf("paths.log_dir is required")
	}

	for name, value := range map[string]int{
		"lifecycle.notice_after_days":          c.Lifecycle.NoticeAfterDays,
		"lifecycle.notice_response_days":       c.Lifecycle.NoticeResponseDays,
		"lifecycle.auction_pickup_window_days": c.Lifecycle.AuctionPickupWindowDays,
		"lifecycle.scrap_pickup_window_days":   c.Lifecycle.ScrapPickupWindowDays,
		"lifecycle.scrap_hold_days":            c.Lifecycle.ScrapHoldDays,
		"lifecycle.ad_lead_days":               c.Lifecycle.AdLeadDays,
	} {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, value)
		}
	}
	if c.Lifecycle.NoticeEscalateDays < c.Lifecycle.NoticeAfterDays {
		return fmt.Errorf("lifecycle.notice_escalate_days (%d) must not precede notice_after_days (%d)",
			c.Lifecycle.NoticeEscalateDays, c.Lifecycle.NoticeAfterDays)
	}
	if _, err := ParseWeekday(c.Lifecycle.AuctionWeekday); err != nil {
		return fmt.Errorf("lifecycle.auction_weekday: %w", err)
	}
	if _, err := ParseWeekday(c.Lifecycle.PublicationWeekday); err != nil {
		return fmt.Errorf("lifecycle.publication_weekday: %w", err)
	}
	switch c.Lifecycle.DefaultDispositionRoute {
	case "auction", "scrap":
	default:
		return fmt.Errorf("lifecycle.default_disposition_route must be \"auction\" or \"scrap\", got %q",
			c.Lifecycle.DefaultDispositionRoute)
	}

	for name, value := range map[string]int{
		"workflow.tick_interval":               c.Workflow.TickInterval,
		"workflow.workflow_check_interval":     c.Workflow.WorkflowCheckInterval,
		"workflow.status_refresh_interval":     c.Workflow.StatusRefreshInterval,
		"workflow.notification_check_interval": c.Workflow.NotificationCheckInterval,
	} {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, value)
		}
	}

	if c.Notifications.RequestTimeout <= 0 {
		return fmt.Errorf("notifications.request_timeout must be positive, got %d", c.Notifications.RequestTimeout)
	}
	if c.Notifications.DrainBatchSize <= 0 {
		return fmt.Errorf("notifications.drain_batch_size must be positive, got %d", c.Notifications.DrainBatchSize)
	}

	if c.Hearings.DefaultHour < 0 || c.Hearings.DefaultHour > 23 {
		return fmt.Errorf("hearings.default_hour must be within 0-23, got %d", c.Hearings.DefaultHour)
	}
	if _, err := ParseWeekday(c.Hearings.DefaultWeekday); err != nil {
		return fmt.Errorf("hearings.default_weekday: %w", err)
	}
	for jurisdiction, day := range c.Hearings.Weekdays {
		if _, err := ParseWeekday(day); err != nil {
			return fmt.Errorf("hearings.weekdays[%s]: %w", jurisdiction, err)
		}
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}

	return nil
}
