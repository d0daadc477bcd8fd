package repository

import (
	"context"
	"time"

	"fleetsched/pkg/config"
	"fleetsched/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LockCollectionName = "Driver_locks"
)

// DriverLockRepository stores advisory driver locks. Create returns a duplicate
// key error while another holder owns the lock. Delete only removes the lock
// while owner still holds it.
type DriverLockRepository interface {
	Create(ctx context.Context, lock *model.DriverLock) (*model.DriverLock, error)
	Delete(ctx context.Context, lockID, owner string) error
	DeleteExpired(ctx context.Context, lockID string, now time.Time) (bool, error)
}

type mongoDriverLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewDriverLockRepository(cfg *config.Config) DriverLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoDriverLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoDriverLockRepository) Create(ctx context.Context, lock *model.DriverLock) (*model.DriverLock, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	lock.CreatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		return nil, err
	}
	return lock, nil
}

func (r *mongoDriverLockRepository) Delete(ctx context.Context, lockID, owner string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner})
	return err
}

// DeleteExpired removes the lock only if it has already expired. The TTL monitor
// runs about once a minute, so stale locks can outlive their expiry.
func (r *mongoDriverLockRepository) DeleteExpired(ctx context.Context, lockID string, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":        lockID,
		"expires_at": bson.M{"$lte": now},
	})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}
