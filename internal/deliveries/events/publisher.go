package events

import (
	"context"
	"fmt"
	"time"

	"fleetsched/pkg/kafka"
	"fleetsched/pkg/model"
)

const (
	EventTypeAssigned          = "delivery.assigned"
	EventTypeAssignmentRequest = "delivery.assignment.requested"
	SchemaVersion              = "1"
)

// AssignedEvent is the payload of delivery.assigned.
type AssignedEvent struct {
	DeliveryID   string     `json:"deliveryId"`
	DriverID     string     `json:"driverId"`
	VehicleID    string     `json:"vehicleId,omitempty"`
	Version      int64      `json:"version"`
	PickupTime   *time.Time `json:"pickupTime,omitempty"`
	DeliveryTime *time.Time `json:"deliveryTime,omitempty"`
	AssignedAt   time.Time  `json:"assignedAt"`
}

func NewAssignedEvent(delivery *model.Delivery) AssignedEvent {
	return AssignedEvent{
		DeliveryID:   delivery.ID,
		DriverID:     delivery.Driver,
		VehicleID:    delivery.Vehicle,
		Version:      delivery.Version,
		PickupTime:   delivery.Pickup.ScheduledTime,
		DeliveryTime: delivery.Delivery.ScheduledTime,
		AssignedAt:   delivery.UpdatedAt,
	}
}

// Publisher is the part of *kafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaPublisher emits delivery.assigned keyed by delivery ID, so events for one
// delivery stay ordered on one partition.
type KafkaPublisher struct {
	producer Publisher
	source   string
}

func NewKafkaPublisher(producer Publisher, source string) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		source:   source,
	}
}

func (p *KafkaPublisher) PublishAssigned(ctx context.Context, delivery *model.Delivery) error {
	msg, err := kafka.NewMessage().
		WithKey(delivery.ID).
		WithValue(NewAssignedEvent(delivery)).
		WithEventType(EventTypeAssigned).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithCorrelationID(CorrelationID(ctx)).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", EventTypeAssigned, err)
	}

	return p.producer.Publish(ctx, msg)
}

// NoopPublisher drops events. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishAssigned(ctx context.Context, delivery *model.Delivery) error {
	return nil
}

type correlationKey struct{}

// WithCorrelationID carries the ID of the request that caused an assignment
// through to the event it publishes.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
