package service

import (
	"context"
	"errors"
	"time"

	deliverieserrors "fleetsched/internal/deliveries/errors"
	"fleetsched/internal/deliveries/repository"
	"fleetsched/internal/schedules/validator"
	"fleetsched/pkg/config"
	apperrors "fleetsched/pkg/errors"
	"fleetsched/pkg/model"
	"fleetsched/pkg/sanitizer"
)

type DeliveryService interface {
	Create(ctx context.Context, req *model.CreateDeliveryRequest) (*model.Delivery, error)
	GetByID(ctx context.Context, id string) (*model.Delivery, error)
	AssignDriver(ctx context.Context, id string, req *model.AssignRequest) (*model.Delivery, error)
}

// ScheduleChecker is the part of the scheduler used to re-check an assignment
// before it is committed.
type ScheduleChecker interface {
	ValidateDeliverySchedule(ctx context.Context, driverID string, pickupTime, deliveryTime time.Time, estimatedTravelTime time.Duration) model.ValidationResult
	ValidateWorkloadLimits(ctx context.Context, driverID string, date time.Time) model.Workload
}

type EventPublisher interface {
	PublishAssigned(ctx context.Context, delivery *model.Delivery) error
}

type deliveryService struct {
	repo      repository.DeliveryRepository
	lockRepo  repository.DriverLockRepository
	checker   ScheduleChecker
	validator *validator.RequestValidator
	publisher EventPublisher
	cfg       *config.Config
}

func NewDeliveryService(
	repo repository.DeliveryRepository,
	lockRepo repository.DriverLockRepository,
	checker ScheduleChecker,
	validator *validator.RequestValidator,
	publisher EventPublisher,
	cfg *config.Config,
) DeliveryService {
	return &deliveryService{
		repo:      repo,
		lockRepo:  lockRepo,
		checker:   checker,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *deliveryService) Create(ctx context.Context, req *model.CreateDeliveryRequest) (*model.Delivery, error) {
	sanitizer.CreateDeliveryRequest(req)
	if err := s.validate(req); err != nil {
		return nil, err
	}

	delivery := &model.Delivery{
		Customer: req.Customer,
		Status:   model.StatusPending,
		Pickup: model.Stop{
			Address:       req.PickupAddress,
			ScheduledTime: req.PickupTime,
		},
		Delivery: model.Stop{
			Address:       req.DeliveryAddress,
			ScheduledTime: req.DeliveryTime,
		},
	}

	if err := s.repo.Create(ctx, delivery); err != nil {
		s.cfg.Log.Error("Failed to create delivery", "customer", req.Customer, "error", err)
		return nil, apperrors.Internal("Failed to create delivery", err)
	}

	s.cfg.Log.Info("Delivery created successfully",
		"id", delivery.ID,
		"customer", delivery.Customer,
	)
	return delivery, nil
}

func (s *deliveryService) GetByID(ctx context.Context, id string) (*model.Delivery, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Delivery ID cannot be empty")
	}

	delivery, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, deliverieserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Delivery", id)
		}
		if errors.Is(err, deliverieserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid delivery ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve delivery", err)
	}

	return delivery, nil
}

func (s *deliveryService) validate(req any) error {
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Delivery request validation failed", "error", err)
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return apperrors.Validation("Request validation failed", validationErrs.Details())
		}
		return apperrors.Validation("Request validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}
