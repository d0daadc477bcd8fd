package service

import (
	"context"
	"errors"
	"time"

	scheduleerrors "fleetsched/internal/schedules/errors"
	"fleetsched/internal/schedules/scheduler"
	"fleetsched/internal/schedules/validator"
	"fleetsched/pkg/config"
	apperrors "fleetsched/pkg/errors"
	"fleetsched/pkg/model"
)

type ScheduleService interface {
	ValidateSchedule(ctx context.Context, req *model.ValidateScheduleRequest) (*model.ValidationResult, error)
	SuggestAlternatives(ctx context.Context, req *model.AlternativesRequest) (*model.AlternativesResponse, error)
	GetAvailability(ctx context.Context, driverID, date string) (*model.Availability, error)
	GetWorkload(ctx context.Context, driverID, date string) (*model.Workload, error)
}

// Planner is the scheduler surface exposed over HTTP.
type Planner interface {
	Rules() scheduler.Rules
	ValidateDeliverySchedule(ctx context.Context, driverID string, pickupTime, deliveryTime time.Time, estimatedTravelTime time.Duration) model.ValidationResult
	SuggestAlternativeTimeSlots(ctx context.Context, driverID string, preferredPickup time.Time, estimatedTravelTime time.Duration, maxSuggestions int) []model.SlotPair
	GetDriverAvailability(ctx context.Context, driverID string, date time.Time) model.Availability
	ValidateWorkloadLimits(ctx context.Context, driverID string, date time.Time) model.Workload
}

type scheduleService struct {
	planner   Planner
	validator *validator.RequestValidator
	cfg       *config.Config
}

func NewScheduleService(
	planner Planner,
	validator *validator.RequestValidator,
	cfg *config.Config,
) ScheduleService {
	return &scheduleService{
		planner:   planner,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *scheduleService) ValidateSchedule(ctx context.Context, req *model.ValidateScheduleRequest) (*model.ValidationResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	result := s.planner.ValidateDeliverySchedule(ctx, req.DriverID, *req.PickupTime, *req.DeliveryTime, s.travelTime(req.EstimatedTravelTime))
	if !result.IsValid && len(result.Conflicts) == 0 {
		appErr := apperrors.Unavailable("Schedule validation")
		appErr.Err = scheduleerrors.ErrScheduleUnavailable
		return nil, appErr
	}

	s.cfg.Log.Debug("Schedule validated",
		"driver_id", req.DriverID,
		"is_valid", result.IsValid,
		"conflicts", len(result.Conflicts),
	)
	return &result, nil
}

func (s *scheduleService) SuggestAlternatives(ctx context.Context, req *model.AlternativesRequest) (*model.AlternativesResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	maxSuggestions := 0
	if req.MaxSuggestions != nil {
		maxSuggestions = *req.MaxSuggestions
	}

	alternatives := s.planner.SuggestAlternativeTimeSlots(ctx, req.DriverID, *req.PreferredPickupTime, s.travelTime(req.EstimatedTravelTime), maxSuggestions)
	return &model.AlternativesResponse{Alternatives: alternatives}, nil
}

func (s *scheduleService) GetAvailability(ctx context.Context, driverID, date string) (*model.Availability, error) {
	day, err := s.driverDay(driverID, date)
	if err != nil {
		return nil, err
	}

	availability := s.planner.GetDriverAvailability(ctx, driverID, day)
	return &availability, nil
}

func (s *scheduleService) GetWorkload(ctx context.Context, driverID, date string) (*model.Workload, error) {
	day, err := s.driverDay(driverID, date)
	if err != nil {
		return nil, err
	}

	workload := s.planner.ValidateWorkloadLimits(ctx, driverID, day)
	return &workload, nil
}

func (s *scheduleService) travelTime(minutes *int) time.Duration {
	return model.TravelTime(minutes, s.planner.Rules().DefaultTravelTime)
}

func (s *scheduleService) driverDay(driverID, date string) (time.Time, error) {
	if err := s.validate(&model.DriverDayRequest{DriverID: driverID, Date: date}); err != nil {
		return time.Time{}, err
	}

	day, err := ParseDate(date, s.planner.Rules().Location)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput(err.Error())
	}
	return day, nil
}

// ParseDate accepts a calendar date, read in loc, or a full RFC3339 timestamp.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(time.DateOnly, value, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, scheduleerrors.ErrInvalidDate
}

func (s *scheduleService) validate(req any) error {
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Schedule request validation failed", "error", err)
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return apperrors.Validation("Request validation failed", validationErrs.Details())
		}
		return apperrors.Validation("Request validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}
