package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	deliverieserrors "fleetsched/internal/deliveries/errors"
	"fleetsched/pkg/config"
	mongotx "fleetsched/pkg/db/mongo"
	"fleetsched/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Deliveries"
)

const (
	fieldDriver       = "driver"
	fieldVehicle      = "vehicle"
	fieldStatus       = "status"
	fieldVersion      = "version"
	fieldUpdatedAt    = "updated_at"
	fieldPickupTime   = "pickup.scheduledTime"
	fieldDeliveryTime = "delivery.scheduledTime"
)

type DeliveryRepository interface {
	Create(ctx context.Context, delivery *model.Delivery) error
	FindByID(ctx context.Context, id string) (*model.Delivery, error)
	FindActiveForDriver(ctx context.Context, driverID string, window *model.TimeSlot) ([]*model.Delivery, error)
	CountActiveForDriver(ctx context.Context, driverID string, window model.TimeSlot) (int64, error)
	AssignDriver(ctx context.Context, id string, expectedVersion int64, driverID, vehicleID string) (*model.Delivery, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoDeliveryRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoDeliveryRepository(cfg *config.Config) DeliveryRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoDeliveryRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout bounds ctx by timeout unless it is a SessionContext, which cannot
// be wrapped without losing the transaction.
func (r *mongoDeliveryRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoDeliveryRepository) Create(ctx context.Context, delivery *model.Delivery) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	delivery.CreatedAt = now
	delivery.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, delivery)
	if err != nil {
		return fmt.Errorf("failed to create delivery: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		delivery.ID = oid.Hex()
	}
	return nil
}

func (r *mongoDeliveryRepository) FindByID(ctx context.Context, id string) (*model.Delivery, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", deliverieserrors.ErrInvalidID, id)
	}

	var delivery model.Delivery
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&delivery)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, deliverieserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find delivery: %w", err)
	}

	return &delivery, nil
}

func (r *mongoDeliveryRepository) FindActiveForDriver(ctx context.Context, driverID string, window *model.TimeSlot) ([]*model.Delivery, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: fieldPickupTime, Value: 1}})

	cursor, err := r.collection.Find(ctx, activeDriverFilter(driverID, window), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find driver deliveries: %w", err)
	}
	defer cursor.Close(ctx)

	deliveries := []*model.Delivery{}
	if err = cursor.All(ctx, &deliveries); err != nil {
		return nil, fmt.Errorf("failed to decode driver deliveries: %w", err)
	}

	return deliveries, nil
}

func (r *mongoDeliveryRepository) CountActiveForDriver(ctx context.Context, driverID string, window model.TimeSlot) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, activeDriverFilter(driverID, &window))
	if err != nil {
		return 0, fmt.Errorf("failed to count driver deliveries: %w", err)
	}
	return count, nil
}

// AssignDriver moves a pending delivery to assigned only if it still carries
// expectedVersion. A lost race surfaces as ErrVersionConflict.
func (r *mongoDeliveryRepository) AssignDriver(ctx context.Context, id string, expectedVersion int64, driverID, vehicleID string) (*model.Delivery, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", deliverieserrors.ErrInvalidID, id)
	}

	filter, update := assignUpdate(objectID, expectedVersion, driverID, vehicleID, time.Now().UTC())
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Delivery
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, deliverieserrors.ErrVersionConflict
		}
		return nil, fmt.Errorf("failed to assign driver: %w", err)
	}

	return &updated, nil
}

func (r *mongoDeliveryRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

// activeDriverFilter matches the driver's active deliveries with a pickup or
// delivery time inside window, or with any scheduled time when window is nil.
func activeDriverFilter(driverID string, window *model.TimeSlot) bson.M {
	timeCond := bson.M{"$exists": true, "$ne": nil}
	if window != nil {
		timeCond = bson.M{"$gte": window.Start, "$lte": window.End}
	}

	return bson.M{
		fieldDriver: driverID,
		fieldStatus: bson.M{"$in": model.ActiveDeliveryStatuses()},
		"$or": []bson.M{
			{fieldPickupTime: timeCond},
			{fieldDeliveryTime: timeCond},
		},
	}
}

func assignUpdate(id primitive.ObjectID, expectedVersion int64, driverID, vehicleID string, now time.Time) (bson.M, bson.M) {
	filter := bson.M{
		"_id":        id,
		fieldStatus:  model.StatusPending,
		fieldVersion: expectedVersion,
	}

	set := bson.M{
		fieldDriver:    driverID,
		fieldStatus:    model.StatusAssigned,
		fieldUpdatedAt: now,
	}
	if vehicleID != "" {
		set[fieldVehicle] = vehicleID
	}

	update := bson.M{
		"$set": set,
		"$inc": bson.M{fieldVersion: 1},
	}
	return filter, update
}
