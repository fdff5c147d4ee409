package hearings

import (
	"strings"
	"time"

	"towlot/internal/config"
	"towlot/internal/services"
)

// Schedule resolves hearing slots from the configured weekly pattern.
type Schedule struct {
	defaultDay  time.Weekday
	defaultHour int
	weekdays    map[string]time.Weekday
}

// NewSchedule builds a schedule from configuration. Unknown weekday names in
// the per-jurisdiction map are rejected.
func NewSchedule(cfg *config.Config) (*Schedule, error) {
	defaultDay, err := config.ParseWeekday(cfg.Hearings.DefaultWeekday)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "hearings", "configure", "default weekday", err)
	}

	weekdays := make(map[string]time.Weekday, len(cfg.Hearings.Weekdays))
	for jurisdiction, name := range cfg.Hearings.Weekdays {
		day, err := config.ParseWeekday(name)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "hearings", "configure",
				"weekday for jurisdiction "+jurisdiction, err)
		}
		weekdays[normalize(jurisdiction)] = day
	}

	return &Schedule{
		defaultDay:  defaultDay,
		defaultHour: cfg.Hearings.DefaultHour,
		weekdays:    weekdays,
	}, nil
}

// NextAvailableSlot returns the first hearing slot for the jurisdiction
// strictly after the given time.
func (s *Schedule) NextAvailableSlot(jurisdiction string, after time.Time) (time.Time, error) {
	day, ok := s.weekdays[normalize(jurisdiction)]
	if !ok {
		day = s.defaultDay
	}

	after = after.UTC()
	slot := time.Date(after.Year(), after.Month(), after.Day(), s.defaultHour, 0, 0, 0, time.UTC)
	offset := (int(day) - int(slot.Weekday()) + 7) % 7
	slot = slot.AddDate(0, 0, offset)
	if !slot.After(after) {
		slot = slot.AddDate(0, 0, 7)
	}
	return slot, nil
}

func normalize(jurisdiction string) string {
	return strings.ToLower(strings.TrimSpace(jurisdiction))
}
