package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleetsched/pkg/logger"
	"fleetsched/pkg/model"
)

// Mock store for testing
type mockBookingStore struct {
	findFunc  func(ctx context.Context, driverID string, window *TimeSlot) ([]*model.Delivery, error)
	countFunc func(ctx context.Context, driverID string, window TimeSlot) (int64, error)
}

func (m *mockBookingStore) FindActiveForDriver(ctx context.Context, driverID string, window *TimeSlot) ([]*model.Delivery, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, driverID, window)
	}
	return []*model.Delivery{}, nil
}

func (m *mockBookingStore) CountActiveForDriver(ctx context.Context, driverID string, window TimeSlot) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, driverID, window)
	}
	return 0, nil
}

const testDriver = "507f1f77bcf86cd799439011"

var errStoreDown = errors.New("server selection timeout")

func timePtr(clock string) *time.Time {
	t := at(clock)
	return &t
}

func booking(id string, pickup, delivery string) *model.Delivery {
	d := &model.Delivery{ID: id, Driver: testDriver, Status: model.StatusAssigned}
	if pickup != "" {
		d.Pickup.ScheduledTime = timePtr(pickup)
	}
	if delivery != "" {
		d.Delivery.ScheduledTime = timePtr(delivery)
	}
	return d
}

func newTestScheduler(bookings ...*model.Delivery) *Scheduler {
	return New(&mockBookingStore{
		findFunc: func(ctx context.Context, driverID string, window *TimeSlot) ([]*model.Delivery, error) {
			return bookings, nil
		},
	}, DefaultRules(), logger.Discard())
}

func failingScheduler() *Scheduler {
	return New(&mockBookingStore{
		findFunc: func(ctx context.Context, driverID string, window *TimeSlot) ([]*model.Delivery, error) {
			return nil, errStoreDown
		},
		countFunc: func(ctx context.Context, driverID string, window TimeSlot) (int64, error) {
			return 0, errStoreDown
		},
	}, DefaultRules(), logger.Discard())
}

func TestValidateDeliverySchedule_PickupCollision(t *testing.T) {
	s := newTestScheduler(booking("booking-1", "10:00", ""))

	result := s.ValidateDeliverySchedule(context.Background(), testDriver, at("10:10"), at("10:40"), 30*time.Minute)

	if result.IsValid {
		t.Fatal("expected schedule to be invalid")
	}

	expected := []model.ScheduleConflict{
		{ConflictingBookingID: "booking-1", ConflictType: model.ConflictPickup, TimeOverlap: slot("09:40", "10:15")},
		{ConflictingBookingID: "booking-1", ConflictType: model.ConflictPickup, TimeOverlap: slot("10:10", "10:15")},
		{ConflictingBookingID: model.SelfConflictID, ConflictType: model.ConflictTravel, TimeOverlap: slot("10:10", "10:40")},
	}
	assertConflicts(t, result.Conflicts, expected)
}

func TestValidateDeliverySchedule_NoBookings(t *testing.T) {
	s := newTestScheduler()

	result := s.ValidateDeliverySchedule(context.Background(), testDriver, at("10:00"), at("10:45"), 30*time.Minute)

	if !result.IsValid {
		t.Errorf("expected valid schedule, got conflicts %+v", result.Conflicts)
	}
	if result.Conflicts == nil || len(result.Conflicts) != 0 {
		t.Errorf("expected empty non-nil conflicts, got %#v", result.Conflicts)
	}
}

func TestValidateDeliverySchedule_TravelFloor(t *testing.T) {
	s := newTestScheduler()

	tests := []struct {
		name       string
		delivery   string
		travel     time.Duration
		wantTravel bool
	}{
		{"exactly at floor", "10:45", 30 * time.Minute, false},
		{"one minute short", "10:44", 30 * time.Minute, true},
		{"well above floor", "12:00", 30 * time.Minute, false},
		{"delivery before pickup", "09:50", 30 * time.Minute, true},
		{"short travel", "10:25", 10 * time.Minute, false},
		{"zero travel clears floor at pickup duration", "10:15", 0, false},
		{"zero travel below pickup duration", "10:14", 0, true},
		{"negative travel treated as zero", "10:15", -5 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.ValidateDeliverySchedule(context.Background(), testDriver, at("10:00"), at(tt.delivery), tt.travel)

			hasTravel := false
			for _, c := range result.Conflicts {
				if c.ConflictType == model.ConflictTravel {
					hasTravel = true
					if c.ConflictingBookingID != model.SelfConflictID {
						t.Errorf("travel conflict id = %q, want %q", c.ConflictingBookingID, model.SelfConflictID)
					}
				}
			}
			if hasTravel != tt.wantTravel {
				t.Errorf("travel conflict = %v, want %v", hasTravel, tt.wantTravel)
			}
			if result.IsValid == tt.wantTravel {
				t.Errorf("IsValid = %v, want %v", result.IsValid, !tt.wantTravel)
			}
		})
	}
}

func TestValidateDeliverySchedule_TouchingSlotsDoNotConflict(t *testing.T) {
	// Existing pickup at 11:00 blocks [10:30, 11:15].
	s := newTestScheduler(booking("booking-1", "11:00", ""))

	// Proposed delivery at 10:20 blocks [09:50, 10:30] and ends exactly where the existing slot starts.
	result := s.ValidateDeliverySchedule(context.Background(), testDriver, at("09:45"), at("10:20"), 20*time.Minute)

	if !result.IsValid {
		t.Errorf("expected touching slots to be valid, got %+v", result.Conflicts)
	}
}

func TestValidateDeliverySchedule_DeliveryOnlyBooking(t *testing.T) {
	// Existing delivery at 14:00 blocks [13:30, 14:10].
	s := newTestScheduler(booking("booking-2", "", "14:00"))

	result := s.ValidateDeliverySchedule(context.Background(), testDriver, at("14:05"), at("15:00"), 30*time.Minute)

	expected := []model.ScheduleConflict{
		{ConflictingBookingID: "booking-2", ConflictType: model.ConflictDelivery, TimeOverlap: slot("13:35", "14:10")},
	}
	assertConflicts(t, result.Conflicts, expected)
}

func TestValidateDeliverySchedule_CheckOrder(t *testing.T) {
	// Existing pickup 10:00 [09:30, 10:15] and delivery 11:00 [10:30, 11:10].
	// Proposed pickup 10:05 [09:35, 10:20], delivery 11:05 [10:35, 11:15].
	s := newTestScheduler(booking("booking-3", "10:00", "11:00"))

	result := s.ValidateDeliverySchedule(context.Background(), testDriver, at("10:05"), at("11:05"), 30*time.Minute)

	expected := []model.ScheduleConflict{
		{ConflictingBookingID: "booking-3", ConflictType: model.ConflictPickup, TimeOverlap: slot("09:35", "10:15")},
		{ConflictingBookingID: "booking-3", ConflictType: model.ConflictDelivery, TimeOverlap: slot("10:35", "11:10")},
	}
	assertConflicts(t, result.Conflicts, expected)
}

func TestValidateDeliverySchedule_StoreFailureFailsClosed(t *testing.T) {
	s := failingScheduler()

	result := s.ValidateDeliverySchedule(context.Background(), testDriver, at("10:00"), at("12:00"), 30*time.Minute)

	if result.IsValid {
		t.Error("expected invalid result on store failure")
	}
	if result.Conflicts == nil || len(result.Conflicts) != 0 {
		t.Errorf("expected empty non-nil conflicts, got %#v", result.Conflicts)
	}
}

func TestValidateDeliverySchedule_QueriesAllActiveBookings(t *testing.T) {
	var gotDriver string
	var gotWindow *TimeSlot
	called := false
	s := New(&mockBookingStore{
		findFunc: func(ctx context.Context, driverID string, window *TimeSlot) ([]*model.Delivery, error) {
			called = true
			gotDriver = driverID
			gotWindow = window
			return nil, nil
		},
	}, DefaultRules(), logger.Discard())

	s.ValidateDeliverySchedule(context.Background(), testDriver, at("10:00"), at("11:00"), 30*time.Minute)

	if !called || gotDriver != testDriver {
		t.Fatalf("store called = %v with driver %q", called, gotDriver)
	}
	if gotWindow != nil {
		t.Errorf("expected nil window, got %+v", gotWindow)
	}
}

func TestSuggestAlternativeTimeSlots_FreeDriver(t *testing.T) {
	s := newTestScheduler()

	got := s.SuggestAlternativeTimeSlots(context.Background(), testDriver, at("10:00"), 30*time.Minute, 3)

	expectedPickups := []string{"10:00", "10:30", "11:00"}
	if len(got) != len(expectedPickups) {
		t.Fatalf("got %d suggestions, want %d", len(got), len(expectedPickups))
	}
	for i, pair := range got {
		if !pair.PickupTime.Equal(at(expectedPickups[i])) {
			t.Errorf("suggestion %d pickup = %s, want %s", i, pair.PickupTime.Format("15:04"), expectedPickups[i])
		}
		if pair.DeliveryTime.Sub(pair.PickupTime) != 45*time.Minute {
			t.Errorf("suggestion %d delivery offset = %s, want 45m", i, pair.DeliveryTime.Sub(pair.PickupTime))
		}
	}
}

func TestSuggestAlternativeTimeSlots_SkipsBusyOffsets(t *testing.T) {
	s := newTestScheduler(booking("booking-1", "10:00", ""))

	got := s.SuggestAlternativeTimeSlots(context.Background(), testDriver, at("10:00"), 30*time.Minute, 0)

	expectedPickups := []string{"11:00", "11:30", "12:00", "13:00", "14:00"}
	if len(got) != len(expectedPickups) {
		t.Fatalf("got %d suggestions, want %d: %+v", len(got), len(expectedPickups), got)
	}
	for i, pair := range got {
		if !pair.PickupTime.Equal(at(expectedPickups[i])) {
			t.Errorf("suggestion %d pickup = %s, want %s", i, pair.PickupTime.Format("15:04"), expectedPickups[i])
		}
		result := s.ValidateDeliverySchedule(context.Background(), testDriver, pair.PickupTime, pair.DeliveryTime, 30*time.Minute)
		if !result.IsValid {
			t.Errorf("suggestion %d does not validate: %+v", i, result.Conflicts)
		}
	}
}

func TestSuggestAlternativeTimeSlots_NeverExceedsMax(t *testing.T) {
	s := newTestScheduler()

	for _, requested := range []int{1, 2, 5, 7, 20} {
		got := s.SuggestAlternativeTimeSlots(context.Background(), testDriver, at("09:00"), 30*time.Minute, requested)
		limit := requested
		if limit > len(DefaultRules().SuggestionOffsets) {
			limit = len(DefaultRules().SuggestionOffsets)
		}
		if len(got) != limit {
			t.Errorf("requested %d: got %d suggestions, want %d", requested, len(got), limit)
		}
	}
}

func TestSuggestAlternativeTimeSlots_StoreFailure(t *testing.T) {
	s := failingScheduler()

	got := s.SuggestAlternativeTimeSlots(context.Background(), testDriver, at("10:00"), 30*time.Minute, 5)

	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil suggestions, got %#v", got)
	}
}

func TestGetDriverAvailability(t *testing.T) {
	tests := []struct {
		name          string
		bookings      []*model.Delivery
		wantBusy      []TimeSlot
		wantAvailable []TimeSlot
	}{
		{
			name:          "empty day",
			bookings:      nil,
			wantBusy:      []TimeSlot{},
			wantAvailable: []TimeSlot{slot("08:00", "20:00")},
		},
		{
			name: "touching pickup and delivery merge",
			bookings: []*model.Delivery{
				booking("booking-1", "10:00", "10:45"),
				booking("booking-2", "14:00", ""),
			},
			wantBusy: []TimeSlot{slot("09:30", "10:55"), slot("13:30", "14:15")},
			wantAvailable: []TimeSlot{
				slot("08:00", "09:30"),
				slot("10:55", "13:30"),
				slot("14:15", "20:00"),
			},
		},
		{
			name: "short gaps dropped",
			bookings: []*model.Delivery{
				booking("booking-1", "08:20", ""),
				booking("booking-2", "09:20", ""),
			},
			wantBusy:      []TimeSlot{slot("07:50", "08:35"), slot("08:50", "09:35")},
			wantAvailable: []TimeSlot{slot("09:35", "20:00")},
		},
		{
			name: "busy past end of workday",
			bookings: []*model.Delivery{
				booking("booking-1", "19:50", ""),
			},
			wantBusy:      []TimeSlot{slot("19:20", "20:05")},
			wantAvailable: []TimeSlot{slot("08:00", "19:20")},
		},
		{
			name: "busy outside working hours",
			bookings: []*model.Delivery{
				booking("booking-1", "06:00", ""),
				booking("booking-2", "21:00", ""),
			},
			wantBusy:      []TimeSlot{slot("05:30", "06:15"), slot("20:30", "21:15")},
			wantAvailable: []TimeSlot{slot("08:00", "20:00")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler(tt.bookings...)

			got := s.GetDriverAvailability(context.Background(), testDriver, at("15:00"))

			assertSlots(t, got.BusySlots, tt.wantBusy)
			assertSlots(t, got.AvailableSlots, tt.wantAvailable)
		})
	}
}

func TestGetDriverAvailability_QueriesCalendarDay(t *testing.T) {
	var gotWindow *TimeSlot
	s := New(&mockBookingStore{
		findFunc: func(ctx context.Context, driverID string, window *TimeSlot) ([]*model.Delivery, error) {
			gotWindow = window
			return nil, nil
		},
	}, DefaultRules(), logger.Discard())

	s.GetDriverAvailability(context.Background(), testDriver, at("15:42"))

	if gotWindow == nil {
		t.Fatal("expected a day window")
	}
	if !gotWindow.Start.Equal(at("00:00")) {
		t.Errorf("window start = %s", gotWindow.Start)
	}
	if want := at("00:00").Add(24*time.Hour - time.Millisecond); !gotWindow.End.Equal(want) {
		t.Errorf("window end = %s, want %s", gotWindow.End, want)
	}
}

func TestGetDriverAvailability_StoreFailure(t *testing.T) {
	s := failingScheduler()

	got := s.GetDriverAvailability(context.Background(), testDriver, at("12:00"))

	if got.BusySlots == nil || len(got.BusySlots) != 0 {
		t.Errorf("expected empty busy slots, got %#v", got.BusySlots)
	}
	if got.AvailableSlots == nil || len(got.AvailableSlots) != 0 {
		t.Errorf("expected empty available slots, got %#v", got.AvailableSlots)
	}
}

func TestValidateWorkloadLimits(t *testing.T) {
	tests := []struct {
		name       string
		count      int64
		wantWithin bool
	}{
		{"no deliveries", 0, true},
		{"one below limit", 11, true},
		{"at limit", 12, false},
		{"above limit", 15, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotWindow TimeSlot
			s := New(&mockBookingStore{
				countFunc: func(ctx context.Context, driverID string, window TimeSlot) (int64, error) {
					gotWindow = window
					return tt.count, nil
				},
			}, DefaultRules(), logger.Discard())

			got := s.ValidateWorkloadLimits(context.Background(), testDriver, at("13:00"))

			if got.IsWithinLimits != tt.wantWithin {
				t.Errorf("IsWithinLimits = %v, want %v", got.IsWithinLimits, tt.wantWithin)
			}
			if got.CurrentWorkload != int(tt.count) || got.MaxWorkload != 12 {
				t.Errorf("got %+v", got)
			}
			if !gotWindow.Start.Equal(at("00:00")) {
				t.Errorf("window start = %s", gotWindow.Start)
			}
		})
	}
}

func TestValidateWorkloadLimits_StoreFailure(t *testing.T) {
	s := failingScheduler()

	got := s.ValidateWorkloadLimits(context.Background(), testDriver, at("13:00"))

	expected := model.Workload{IsWithinLimits: false, CurrentWorkload: 12, MaxWorkload: 12}
	if got != expected {
		t.Errorf("got %+v, want %+v", got, expected)
	}
}

func TestCustomRules(t *testing.T) {
	rules := DefaultRules()
	rules.TravelBuffer = 0
	rules.PickupDuration = 5 * time.Minute
	rules.MaxDeliveriesPerDay = 2

	s := New(&mockBookingStore{
		findFunc: func(ctx context.Context, driverID string, window *TimeSlot) ([]*model.Delivery, error) {
			return []*model.Delivery{booking("booking-1", "10:00", "")}, nil
		},
		countFunc: func(ctx context.Context, driverID string, window TimeSlot) (int64, error) {
			return 1, nil
		},
	}, rules, logger.Discard())

	// Without a buffer the existing pickup only blocks [10:00, 10:05].
	result := s.ValidateDeliverySchedule(context.Background(), testDriver, at("10:05"), at("10:40"), 30*time.Minute)
	if !result.IsValid {
		t.Errorf("expected valid schedule, got %+v", result.Conflicts)
	}

	workload := s.ValidateWorkloadLimits(context.Background(), testDriver, at("10:00"))
	if !workload.IsWithinLimits || workload.MaxWorkload != 2 {
		t.Errorf("got %+v", workload)
	}
}

func assertConflicts(t *testing.T, got, expected []model.ScheduleConflict) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("got %d conflicts %+v, want %d", len(got), got, len(expected))
	}
	for i := range got {
		g, e := got[i], expected[i]
		if g.ConflictingBookingID != e.ConflictingBookingID || g.ConflictType != e.ConflictType {
			t.Errorf("conflict %d = %s/%s, want %s/%s", i, g.ConflictingBookingID, g.ConflictType, e.ConflictingBookingID, e.ConflictType)
		}
		if !g.TimeOverlap.Start.Equal(e.TimeOverlap.Start) || !g.TimeOverlap.End.Equal(e.TimeOverlap.End) {
			t.Errorf("conflict %d overlap = [%s, %s], want [%s, %s]", i,
				g.TimeOverlap.Start.Format("15:04"), g.TimeOverlap.End.Format("15:04"),
				e.TimeOverlap.Start.Format("15:04"), e.TimeOverlap.End.Format("15:04"))
		}
	}
}

func TestSuggestAlternativeTimeSlots_ZeroTravel(t *testing.T) {
	s := newTestScheduler()

	got := s.SuggestAlternativeTimeSlots(context.Background(), testDriver, at("10:00"), 0, 1)

	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(got))
	}
	if offset := got[0].DeliveryTime.Sub(got[0].PickupTime); offset != DefaultRules().PickupDuration {
		t.Errorf("delivery offset = %s, want pickup duration only", offset)
	}
}
