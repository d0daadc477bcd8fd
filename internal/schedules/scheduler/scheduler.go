package scheduler

import (
	"context"
	"time"

	"fleetsched/pkg/logger"
	"fleetsched/pkg/model"
)

// BookingStore is the read-only view of the delivery store the scheduler needs.
// Implementations return only bookings in an active status.
type BookingStore interface {
	// FindActiveForDriver returns active bookings whose pickup or delivery time
	// falls inside window. A nil window matches any booking with at least one
	// scheduled time.
	FindActiveForDriver(ctx context.Context, driverID string, window *TimeSlot) ([]*model.Delivery, error)
	CountActiveForDriver(ctx context.Context, driverID string, window TimeSlot) (int64, error)
}

// Scheduler checks proposed driver bookings against the driver's active ones.
// It keeps no state between calls and is safe for concurrent use.
type Scheduler struct {
	store BookingStore
	rules Rules
	log   *logger.Logger
}

func New(store BookingStore, rules Rules, log *logger.Logger) *Scheduler {
	return &Scheduler{
		store: store,
		rules: rules,
		log:   log,
	}
}

func (s *Scheduler) Rules() Rules {
	return s.rules
}

// ValidateDeliverySchedule reports every conflict between the proposed pickup
// and delivery and the driver's active bookings, plus a travel conflict when the
// two are closer than the travel floor. estimatedTravelTime is used as given,
// zero included; callers substitute Rules.DefaultTravelTime for an omitted
// value. If the bookings cannot be loaded the result is invalid with no
// conflicts.
func (s *Scheduler) ValidateDeliverySchedule(
	ctx context.Context,
	driverID string,
	pickupTime, deliveryTime time.Time,
	estimatedTravelTime time.Duration,
) model.ValidationResult {
	estimatedTravelTime = max(estimatedTravelTime, 0)

	existing, err := s.store.FindActiveForDriver(ctx, driverID, nil)
	if err != nil {
		s.log.Error("Failed to load driver bookings",
			"operation", "ValidateDeliverySchedule",
			"driver_id", driverID,
			"error", err,
		)
		return model.ValidationResult{IsValid: false, Conflicts: []model.ScheduleConflict{}}
	}

	proposedPickup := s.rules.pickupSlot(pickupTime)
	proposedDelivery := s.rules.deliverySlot(deliveryTime)

	conflicts := []model.ScheduleConflict{}
	for _, booking := range existing {
		if booking.Pickup.ScheduledTime != nil {
			existingPickup := s.rules.pickupSlot(*booking.Pickup.ScheduledTime)
			conflicts = appendConflict(conflicts, booking.ID, model.ConflictPickup, proposedPickup, existingPickup)
			conflicts = appendConflict(conflicts, booking.ID, model.ConflictPickup, proposedDelivery, existingPickup)
		}
		if booking.Delivery.ScheduledTime != nil {
			existingDelivery := s.rules.deliverySlot(*booking.Delivery.ScheduledTime)
			conflicts = appendConflict(conflicts, booking.ID, model.ConflictDelivery, proposedDelivery, existingDelivery)
			conflicts = appendConflict(conflicts, booking.ID, model.ConflictDelivery, proposedPickup, existingDelivery)
		}
	}

	if deliveryTime.Sub(pickupTime) < estimatedTravelTime+s.rules.PickupDuration {
		conflicts = append(conflicts, model.ScheduleConflict{
			ConflictingBookingID: model.SelfConflictID,
			ConflictType:         model.ConflictTravel,
			TimeOverlap:          TimeSlot{Start: pickupTime, End: deliveryTime},
		})
	}

	return model.ValidationResult{
		IsValid:   len(conflicts) == 0,
		Conflicts: conflicts,
	}
}

func appendConflict(conflicts []model.ScheduleConflict, bookingID string, kind model.ConflictType, proposed, existing TimeSlot) []model.ScheduleConflict {
	overlap, ok := Overlap(proposed, existing)
	if !ok {
		return conflicts
	}
	return append(conflicts, model.ScheduleConflict{
		ConflictingBookingID: bookingID,
		ConflictType:         kind,
		TimeOverlap:          overlap,
	})
}

// SuggestAlternativeTimeSlots tries the configured offsets from preferredPickup
// in ascending order and returns up to maxSuggestions pairs that validate. Each
// candidate delivery is pickup + PickupDuration + estimatedTravelTime, the
// earliest time that clears the travel floor.
func (s *Scheduler) SuggestAlternativeTimeSlots(
	ctx context.Context,
	driverID string,
	preferredPickup time.Time,
	estimatedTravelTime time.Duration,
	maxSuggestions int,
) []model.SlotPair {
	estimatedTravelTime = max(estimatedTravelTime, 0)
	if maxSuggestions <= 0 {
		maxSuggestions = s.rules.DefaultMaxSuggestions
	}

	suggestions := []model.SlotPair{}
	for _, offset := range s.rules.SuggestionOffsets {
		if len(suggestions) >= maxSuggestions {
			break
		}
		if ctx.Err() != nil {
			s.log.Warn("Stopped probing alternative slots",
				"driver_id", driverID,
				"error", ctx.Err(),
			)
			break
		}

		pickup := preferredPickup.Add(offset)
		delivery := pickup.Add(s.rules.PickupDuration + estimatedTravelTime)

		result := s.ValidateDeliverySchedule(ctx, driverID, pickup, delivery, estimatedTravelTime)
		if result.IsValid {
			suggestions = append(suggestions, model.SlotPair{PickupTime: pickup, DeliveryTime: delivery})
		}
	}
	return suggestions
}

// GetDriverAvailability returns the merged busy windows of the calendar day
// containing date and the free windows inside working hours.
func (s *Scheduler) GetDriverAvailability(ctx context.Context, driverID string, date time.Time) model.Availability {
	dayStart, dayEnd := s.rules.DayBounds(date)

	bookings, err := s.store.FindActiveForDriver(ctx, driverID, &TimeSlot{Start: dayStart, End: dayEnd})
	if err != nil {
		s.log.Error("Failed to load driver bookings",
			"operation", "GetDriverAvailability",
			"driver_id", driverID,
			"date", dayStart.Format(time.DateOnly),
			"error", err,
		)
		return model.Availability{BusySlots: []TimeSlot{}, AvailableSlots: []TimeSlot{}}
	}

	var busy []TimeSlot
	for _, booking := range bookings {
		if booking.Pickup.ScheduledTime != nil {
			busy = append(busy, s.rules.pickupSlot(*booking.Pickup.ScheduledTime))
		}
		if booking.Delivery.ScheduledTime != nil {
			busy = append(busy, s.rules.deliverySlot(*booking.Delivery.ScheduledTime))
		}
	}
	busySlots := MergeOverlappingSlots(busy)

	workStart, workEnd := s.rules.WorkdayBounds(dayStart)

	return model.Availability{
		BusySlots:      busySlots,
		AvailableSlots: freeSlots(busySlots, workStart, workEnd, s.rules.MinSlotDuration),
	}
}

// freeSlots walks merged busy slots and returns the gaps inside [workStart, workEnd]
// lasting at least minDuration.
func freeSlots(busySlots []TimeSlot, workStart, workEnd time.Time, minDuration time.Duration) []TimeSlot {
	available := []TimeSlot{}
	emit := func(start, end time.Time) {
		if start.Before(end) && end.Sub(start) >= minDuration {
			available = append(available, TimeSlot{Start: start, End: end})
		}
	}

	cursor := workStart
	for _, busy := range busySlots {
		if !cursor.Before(workEnd) {
			break
		}
		if busy.Start.After(cursor) {
			gapEnd := busy.Start
			if gapEnd.After(workEnd) {
				gapEnd = workEnd
			}
			emit(cursor, gapEnd)
		}
		if busy.End.After(cursor) {
			cursor = busy.End
		}
	}
	if cursor.Before(workEnd) {
		emit(cursor, workEnd)
	}
	return available
}

// ValidateWorkloadLimits counts the driver's active bookings on the calendar day
// containing date. Store failures report the driver as fully booked.
func (s *Scheduler) ValidateWorkloadLimits(ctx context.Context, driverID string, date time.Time) model.Workload {
	maxWorkload := s.rules.MaxDeliveriesPerDay
	dayStart, dayEnd := s.rules.DayBounds(date)

	count, err := s.store.CountActiveForDriver(ctx, driverID, TimeSlot{Start: dayStart, End: dayEnd})
	if err != nil {
		s.log.Error("Failed to count driver bookings",
			"operation", "ValidateWorkloadLimits",
			"driver_id", driverID,
			"date", dayStart.Format(time.DateOnly),
			"error", err,
		)
		return model.Workload{IsWithinLimits: false, CurrentWorkload: maxWorkload, MaxWorkload: maxWorkload}
	}

	return model.Workload{
		IsWithinLimits:  count < int64(maxWorkload),
		CurrentWorkload: int(count),
		MaxWorkload:     maxWorkload,
	}
}
