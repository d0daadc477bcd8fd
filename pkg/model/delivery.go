package model

import "time"

type DeliveryStatus string

const (
	StatusPending   DeliveryStatus = "pending"
	StatusAssigned  DeliveryStatus = "assigned"
	StatusAccepted  DeliveryStatus = "accepted"
	StatusStarted   DeliveryStatus = "started"
	StatusInTransit DeliveryStatus = "in-transit"
	StatusDelivered DeliveryStatus = "delivered"
	StatusCancelled DeliveryStatus = "cancelled"
	StatusRejected  DeliveryStatus = "rejected"
)

// ActiveDeliveryStatuses lists the statuses that occupy a driver's schedule.
func ActiveDeliveryStatuses() []DeliveryStatus {
	return []DeliveryStatus{StatusAssigned, StatusAccepted, StatusStarted, StatusInTransit}
}

func (s DeliveryStatus) IsActive() bool {
	for _, active := range ActiveDeliveryStatuses() {
		if s == active {
			return true
		}
	}
	return false
}

type Stop struct {
	Address       string     `json:"address" bson:"address"`
	ScheduledTime *time.Time `json:"scheduledTime,omitempty" bson:"scheduledTime,omitempty"`
}

type Delivery struct {
	ID        string         `json:"id,omitempty" bson:"_id,omitempty"`
	Customer  string         `json:"customer" bson:"customer"`
	Driver    string         `json:"driver,omitempty" bson:"driver,omitempty"`
	Vehicle   string         `json:"vehicle,omitempty" bson:"vehicle,omitempty"`
	Status    DeliveryStatus `json:"status" bson:"status"`
	Pickup    Stop           `json:"pickup" bson:"pickup"`
	Delivery  Stop           `json:"delivery" bson:"delivery"`
	Version   int64          `json:"version" bson:"version"`
	CreatedAt time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time      `json:"updatedAt" bson:"updated_at"`
}

func (d *Delivery) HasSchedule() bool {
	return d.Pickup.ScheduledTime != nil && d.Delivery.ScheduledTime != nil
}
