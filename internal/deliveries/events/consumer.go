package events

import (
	"context"
	"errors"

	"fleetsched/internal/deliveries/service"
	apperrors "fleetsched/pkg/errors"
	"fleetsched/pkg/kafka"
	"fleetsched/pkg/logger"
	"fleetsched/pkg/model"
)

// AssignmentRequest is the payload of delivery.assignment.requested.
type AssignmentRequest struct {
	DeliveryID          string `json:"deliveryId"`
	DriverID            string `json:"driverId"`
	VehicleID           string `json:"vehicleId,omitempty"`
	EstimatedTravelTime *int   `json:"estimatedTravelTime,omitempty"`
}

// AssignmentHandler applies queued assignment requests through the same path as
// the HTTP endpoint.
type AssignmentHandler struct {
	service service.DeliveryService
	log     *logger.Logger
}

func NewAssignmentHandler(service service.DeliveryService, log *logger.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		log:     log,
	}
}

// Handle is a kafka.MessageHandler. Rejections the caller has to fix are
// permanent; store outages are transient and retried.
func (h *AssignmentHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var req AssignmentRequest
	if err := msg.DecodeValue(&req); err != nil {
		return kafka.NewPermanentError("malformed assignment request", err)
	}
	if req.DeliveryID == "" {
		return kafka.NewPermanentError("assignment request has no deliveryId", kafka.ErrInvalidMessage)
	}

	correlationID := msg.GetCorrelationID()
	if correlationID == "" {
		correlationID = msg.GetEventID()
	}
	ctx = WithCorrelationID(ctx, correlationID)

	delivery, err := h.service.AssignDriver(ctx, req.DeliveryID, &model.AssignRequest{
		DriverID:            req.DriverID,
		VehicleID:           req.VehicleID,
		EstimatedTravelTime: req.EstimatedTravelTime,
	})
	if err != nil {
		return classify(err)
	}

	h.log.Info("Assignment request applied",
		"delivery_id", delivery.ID,
		"driver_id", delivery.Driver,
		"event_id", msg.GetEventID(),
	)
	return nil
}

func classify(err error) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return kafka.NewTransientError("assignment failed", err)
	}

	switch appErr.Code {
	case apperrors.CodeInternal, apperrors.CodeUnavailable, apperrors.CodeLocked:
		return kafka.NewTransientError("assignment failed", err)
	default:
		return kafka.NewPermanentError("assignment rejected", err)
	}
}
