package scheduler

import (
	"testing"
	"time"

	"fleetsched/pkg/config"
)

func TestRulesFromConfig(t *testing.T) {
	cfg := &config.Config{
		ScheduleTimezone:            "Europe/Berlin",
		ScheduleTravelBuffer:        20 * time.Minute,
		SchedulePickupDuration:      10 * time.Minute,
		ScheduleDeliveryDuration:    5 * time.Minute,
		ScheduleWorkdayStart:        "07:30",
		ScheduleWorkdayEnd:          "18:00",
		ScheduleMaxDeliveriesPerDay: 8,
		ScheduleMinSlotDuration:     45 * time.Minute,
		ScheduleDefaultTravelTime:   25 * time.Minute,
	}

	rules, err := RulesFromConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rules.WorkdayStart != 7*time.Hour+30*time.Minute {
		t.Errorf("WorkdayStart = %s", rules.WorkdayStart)
	}
	if rules.WorkdayEnd != 18*time.Hour {
		t.Errorf("WorkdayEnd = %s", rules.WorkdayEnd)
	}
	if rules.Location.String() != "Europe/Berlin" {
		t.Errorf("Location = %s", rules.Location)
	}
	if rules.TravelBuffer != 20*time.Minute || rules.MaxDeliveriesPerDay != 8 {
		t.Errorf("config values not applied: %+v", rules)
	}
	if len(rules.SuggestionOffsets) != 7 || rules.DefaultMaxSuggestions != 5 {
		t.Errorf("suggestion defaults lost: %+v", rules)
	}
}

func TestRulesFromConfig_Invalid(t *testing.T) {
	base := config.Config{
		ScheduleTimezone:     "UTC",
		ScheduleWorkdayStart: "08:00",
		ScheduleWorkdayEnd:   "20:00",
	}

	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"bad timezone", func(c *config.Config) { c.ScheduleTimezone = "Mars/Olympus" }},
		{"bad start", func(c *config.Config) { c.ScheduleWorkdayStart = "8am" }},
		{"bad end", func(c *config.Config) { c.ScheduleWorkdayEnd = "25:00" }},
		{"end before start", func(c *config.Config) { c.ScheduleWorkdayEnd = "07:00" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if _, err := RulesFromConfig(&cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestDayBounds(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	rules := DefaultRules()
	rules.Location = loc

	// 02:00 UTC on the 11th is still the 10th in New York.
	start, end := rules.DayBounds(time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC))

	if got := start.Format(time.RFC3339); got != "2025-03-10T00:00:00-04:00" {
		t.Errorf("start = %s", got)
	}
	if end.Day() != 10 || end.Hour() != 23 || end.Minute() != 59 {
		t.Errorf("end = %s", end)
	}
}

func TestWorkdayBounds_DSTDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	rules := DefaultRules()
	rules.Location = loc
	rules.WorkdayStart = 8*time.Hour + 30*time.Minute

	tests := []struct {
		name string
		day  time.Time
	}{
		{"spring forward", time.Date(2025, 3, 9, 12, 0, 0, 0, loc)},
		{"fall back", time.Date(2025, 11, 2, 12, 0, 0, 0, loc)},
		{"regular day", time.Date(2025, 6, 4, 12, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := rules.WorkdayBounds(tt.day)
			if got := start.In(loc).Format("15:04"); got != "08:30" {
				t.Errorf("start = %s, want 08:30", got)
			}
			if got := end.In(loc).Format("15:04"); got != "20:00" {
				t.Errorf("end = %s, want 20:00", got)
			}
			if start.In(loc).Day() != tt.day.Day() {
				t.Errorf("start on day %d, want %d", start.In(loc).Day(), tt.day.Day())
			}
		})
	}
}
