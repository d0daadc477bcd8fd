package scheduler

import (
	"fmt"
	"time"

	"fleetsched/pkg/config"
)

// Rules holds the scheduling constants. It is built once at startup and never mutated.
type Rules struct {
	TravelBuffer     time.Duration
	PickupDuration   time.Duration
	DeliveryDuration time.Duration

	// WorkdayStart and WorkdayEnd are offsets from local midnight.
	WorkdayStart time.Duration
	WorkdayEnd   time.Duration

	MaxDeliveriesPerDay int
	MinSlotDuration     time.Duration
	DefaultTravelTime   time.Duration

	SuggestionOffsets     []time.Duration
	DefaultMaxSuggestions int

	// Location decides calendar-day boundaries for availability and workload.
	Location *time.Location
}

func DefaultRules() Rules {
	return Rules{
		TravelBuffer:        30 * time.Minute,
		PickupDuration:      15 * time.Minute,
		DeliveryDuration:    10 * time.Minute,
		WorkdayStart:        8 * time.Hour,
		WorkdayEnd:          20 * time.Hour,
		MaxDeliveriesPerDay: 12,
		MinSlotDuration:     30 * time.Minute,
		DefaultTravelTime:   30 * time.Minute,
		SuggestionOffsets: []time.Duration{
			0,
			30 * time.Minute,
			60 * time.Minute,
			90 * time.Minute,
			120 * time.Minute,
			180 * time.Minute,
			240 * time.Minute,
		},
		DefaultMaxSuggestions: 5,
		Location:              time.UTC,
	}
}

// RulesFromConfig overlays the SCHEDULE_* settings onto DefaultRules.
func RulesFromConfig(cfg *config.Config) (Rules, error) {
	rules := DefaultRules()

	loc, err := time.LoadLocation(cfg.ScheduleTimezone)
	if err != nil {
		return Rules{}, fmt.Errorf("invalid schedule timezone %q: %w", cfg.ScheduleTimezone, err)
	}
	start, err := parseClock(cfg.ScheduleWorkdayStart)
	if err != nil {
		return Rules{}, fmt.Errorf("invalid workday start: %w", err)
	}
	end, err := parseClock(cfg.ScheduleWorkdayEnd)
	if err != nil {
		return Rules{}, fmt.Errorf("invalid workday end: %w", err)
	}
	if end <= start {
		return Rules{}, fmt.Errorf("workday end %s must be after start %s", cfg.ScheduleWorkdayEnd, cfg.ScheduleWorkdayStart)
	}

	rules.TravelBuffer = cfg.ScheduleTravelBuffer
	rules.PickupDuration = cfg.SchedulePickupDuration
	rules.DeliveryDuration = cfg.ScheduleDeliveryDuration
	rules.WorkdayStart = start
	rules.WorkdayEnd = end
	rules.MaxDeliveriesPerDay = cfg.ScheduleMaxDeliveriesPerDay
	rules.MinSlotDuration = cfg.ScheduleMinSlotDuration
	rules.DefaultTravelTime = cfg.ScheduleDefaultTravelTime
	rules.Location = loc

	return rules, nil
}

func parseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("%q is not in HH:MM format", value)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func (r Rules) location() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

// DayBounds returns the first and last instant of the calendar day containing t.
func (r Rules) DayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.In(r.location()).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, r.location())
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// WorkdayBounds returns the start and end of working hours on the calendar day
// containing t, read as wall-clock times so DST days keep their local hours.
func (r Rules) WorkdayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.In(r.location()).Date()
	return r.clockOn(y, m, d, r.WorkdayStart), r.clockOn(y, m, d, r.WorkdayEnd)
}

func (r Rules) clockOn(y int, m time.Month, d int, offset time.Duration) time.Time {
	hour := int(offset / time.Hour)
	minute := int(offset % time.Hour / time.Minute)
	return time.Date(y, m, d, hour, minute, 0, 0, r.location())
}

func (r Rules) pickupSlot(t time.Time) TimeSlot {
	return TimeSlot{Start: t.Add(-r.TravelBuffer), End: t.Add(r.PickupDuration)}
}

func (r Rules) deliverySlot(t time.Time) TimeSlot {
	return TimeSlot{Start: t.Add(-r.TravelBuffer), End: t.Add(r.DeliveryDuration)}
}
