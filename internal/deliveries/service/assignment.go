package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	deliverieserrors "fleetsched/internal/deliveries/errors"
	apperrors "fleetsched/pkg/errors"
	"fleetsched/pkg/model"
	"fleetsched/pkg/sanitizer"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// AssignDriver commits a driver to a pending delivery. The schedule is re-checked
// while the driver lock is held and the write only lands if the delivery is
// unchanged since it was read.
func (s *deliveryService) AssignDriver(ctx context.Context, id string, req *model.AssignRequest) (*model.Delivery, error) {
	sanitizer.AssignRequest(req)
	if err := s.validate(req); err != nil {
		return nil, err
	}

	delivery, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if delivery.Status != model.StatusPending {
		return nil, apperrors.Conflict(fmt.Sprintf("Delivery is %s and cannot be assigned", delivery.Status))
	}
	if !delivery.HasSchedule() {
		return nil, apperrors.Validation("Delivery must have pickup and delivery times before assignment", map[string]any{
			"pickupTime":   delivery.Pickup.ScheduledTime,
			"deliveryTime": delivery.Delivery.ScheduledTime,
		})
	}

	lock, err := s.acquireDriverLock(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.lockRepo.Delete(context.WithoutCancel(ctx), lock.ID, lock.Owner); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release driver lock", "lock_id", lock.ID, "error", releaseErr)
		}
	}()

	// The check and the write must finish while the lock is still ours; once it
	// expires another request may take it over.
	lockedCtx, cancel := context.WithDeadline(ctx, lock.ExpiresAt.Add(-s.cfg.DriverLockTTL/5))
	defer cancel()

	var assigned *model.Delivery
	err = s.repo.ExecuteTransaction(lockedCtx, func(sessCtx mongo.SessionContext) error {
		if err := s.checkSchedule(sessCtx, delivery, req); err != nil {
			return err
		}

		updated, err := s.repo.AssignDriver(sessCtx, id, delivery.Version, req.DriverID, req.VehicleID)
		if err != nil {
			if errors.Is(err, deliverieserrors.ErrVersionConflict) {
				return apperrors.Conflict("Delivery was modified by another request. Please reload and try again.")
			}
			return apperrors.Internal("Failed to assign driver", err)
		}
		assigned = updated
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Driver assignment rejected",
			"delivery_id", id,
			"driver_id", req.DriverID,
			"error", err,
		)
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, apperrors.Unavailable("Driver assignment")
		}
		if !apperrors.IsAppError(err) {
			return nil, apperrors.Internal("Failed to assign driver", err)
		}
		return nil, err
	}

	s.cfg.Log.Info("Driver assigned successfully",
		"delivery_id", assigned.ID,
		"driver_id", assigned.Driver,
		"vehicle_id", assigned.Vehicle,
		"version", assigned.Version,
	)

	if err := s.publisher.PublishAssigned(ctx, assigned); err != nil {
		s.cfg.Log.Error("Failed to publish assignment event",
			"delivery_id", assigned.ID,
			"driver_id", assigned.Driver,
			"error", err,
		)
	}

	return assigned, nil
}

func (s *deliveryService) checkSchedule(ctx context.Context, delivery *model.Delivery, req *model.AssignRequest) error {
	pickup := *delivery.Pickup.ScheduledTime
	dropoff := *delivery.Delivery.ScheduledTime

	result := s.checker.ValidateDeliverySchedule(ctx, req.DriverID, pickup, dropoff, model.TravelTime(req.EstimatedTravelTime, s.cfg.ScheduleDefaultTravelTime))
	if !result.IsValid {
		// An invalid result without conflicts means the schedule could not be read.
		if len(result.Conflicts) == 0 {
			return apperrors.Unavailable("Schedule validation")
		}
		return apperrors.Conflict("Driver schedule conflicts with existing deliveries").
			WithDetails(map[string]any{"conflicts": result.Conflicts})
	}

	workload := s.checker.ValidateWorkloadLimits(ctx, req.DriverID, pickup)
	if !workload.IsWithinLimits {
		return apperrors.Conflict("Driver has reached the daily delivery limit").
			WithDetails(map[string]any{
				"currentWorkload": workload.CurrentWorkload,
				"maxWorkload":     workload.MaxWorkload,
			})
	}

	return nil
}

// acquireDriverLock inserts the driver's lock document under a fresh owner
// token. A lock left behind past its expiry is cleared once before giving up.
func (s *deliveryService) acquireDriverLock(ctx context.Context, driverID string) (*model.DriverLock, error) {
	lockID := model.DriverLockID(driverID)

	lock, err := s.createLock(ctx, lockID)
	if err == nil {
		return lock, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, apperrors.Internal("Failed to acquire driver lock", err)
	}

	removed, delErr := s.lockRepo.DeleteExpired(ctx, lockID, time.Now())
	if delErr != nil {
		s.cfg.Log.Warn("Failed to clear expired driver lock", "lock_id", lockID, "error", delErr)
	}
	if removed {
		lock, err = s.createLock(ctx, lockID)
		if err == nil {
			return lock, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, apperrors.Internal("Failed to acquire driver lock", err)
		}
	}

	return nil, apperrors.Locked("Driver is currently being assigned by another request. Please try again.")
}

func (s *deliveryService) createLock(ctx context.Context, lockID string) (*model.DriverLock, error) {
	return s.lockRepo.Create(ctx, &model.DriverLock{
		ID:        lockID,
		Owner:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.cfg.DriverLockTTL),
	})
}
