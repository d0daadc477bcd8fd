package model

import "time"

type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (s TimeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

type ConflictType string

const (
	ConflictPickup   ConflictType = "pickup"
	ConflictDelivery ConflictType = "delivery"
	ConflictTravel   ConflictType = "travel"
)

// SelfConflictID marks a conflict raised by the proposed booking itself.
const SelfConflictID = "self"

type ScheduleConflict struct {
	ConflictingBookingID string       `json:"conflictingBookingId"`
	ConflictType         ConflictType `json:"conflictType"`
	TimeOverlap          TimeSlot     `json:"timeOverlap"`
}

type SlotPair struct {
	PickupTime   time.Time `json:"pickupTime"`
	DeliveryTime time.Time `json:"deliveryTime"`
}

type ValidationResult struct {
	IsValid   bool               `json:"isValid"`
	Conflicts []ScheduleConflict `json:"conflicts"`
}

type Availability struct {
	BusySlots      []TimeSlot `json:"busySlots"`
	AvailableSlots []TimeSlot `json:"availableSlots"`
}

type Workload struct {
	IsWithinLimits  bool `json:"isWithinLimits"`
	CurrentWorkload int  `json:"currentWorkload"`
	MaxWorkload     int  `json:"maxWorkload"`
}
