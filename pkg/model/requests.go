package model

import "time"

// Travel times in requests are whole minutes.

type ValidateScheduleRequest struct {
	DriverID            string     `json:"driverId" validate:"required,mongodb"`
	PickupTime          *time.Time `json:"pickupTime" validate:"required"`
	DeliveryTime        *time.Time `json:"deliveryTime" validate:"required"`
	EstimatedTravelTime *int       `json:"estimatedTravelTime,omitempty" validate:"omitempty,gte=0,lte=1440"`
}

type AlternativesRequest struct {
	DriverID            string     `json:"driverId" validate:"required,mongodb"`
	PreferredPickupTime *time.Time `json:"preferredPickupTime" validate:"required"`
	EstimatedTravelTime *int       `json:"estimatedTravelTime,omitempty" validate:"omitempty,gte=0,lte=1440"`
	MaxSuggestions      *int       `json:"maxSuggestions,omitempty" validate:"omitempty,min=1,max=20"`
}

type AlternativesResponse struct {
	Alternatives []SlotPair `json:"alternatives"`
}

type AssignRequest struct {
	DriverID            string `json:"driverId" validate:"required,mongodb"`
	VehicleID           string `json:"vehicleId,omitempty" validate:"omitempty,max=64"`
	EstimatedTravelTime *int   `json:"estimatedTravelTime,omitempty" validate:"omitempty,gte=0,lte=1440"`
}

type CreateDeliveryRequest struct {
	Customer        string     `json:"customer" validate:"required,min=1,max=200"`
	PickupAddress   string     `json:"pickupAddress" validate:"required,min=3,max=300"`
	PickupTime      *time.Time `json:"pickupTime,omitempty" validate:"required_with=DeliveryTime"`
	DeliveryAddress string     `json:"deliveryAddress" validate:"required,min=3,max=300"`
	DeliveryTime    *time.Time `json:"deliveryTime,omitempty" validate:"required_with=PickupTime"`
}

// TravelTime converts an optional minute count to a duration. An omitted value
// yields fallback; an explicit zero stays zero.
func TravelTime(v *int, fallback time.Duration) time.Duration {
	if v == nil {
		return fallback
	}
	if *v < 0 {
		return 0
	}
	return time.Duration(*v) * time.Minute
}

// DriverDayRequest carries the path parameters of the per-day driver lookups.
type DriverDayRequest struct {
	DriverID string `json:"driverId" validate:"required,mongodb"`
	Date     string `json:"date" validate:"required"`
}
