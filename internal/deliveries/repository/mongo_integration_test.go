package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	deliverieserrors "fleetsched/internal/deliveries/errors"
	"fleetsched/internal/deliveries/repository"
	migrations "fleetsched/internal/migrations/mongo"
	"fleetsched/pkg/client"
	"fleetsched/pkg/config"
	"fleetsched/pkg/logger"
	"fleetsched/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const integrationDriverID = "507f1f77bcf86cd799439011"

// newIntegrationConfig connects to TEST_MONGO_URI and migrates a scratch
// database. Tests are skipped when the variable is unset.
func newIntegrationConfig(t *testing.T) *config.Config {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	cfg := &config.Config{
		MongoDatabaseName: "fleetsched_test",
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		Log:               logger.Discard(),
		Client:            &client.Client{Mongo: mongoClient},
	}

	db := mongoClient.Database(cfg.MongoDatabaseName)
	if err := db.Drop(ctx); err != nil {
		t.Fatalf("failed to drop test database: %v", err)
	}
	if err := migrations.RunMigration(ctx, db, cfg.Log); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = mongoClient.Disconnect(ctx)
	})
	return cfg
}

func TestMongoDeliveryRepository_AssignAndQuery(t *testing.T) {
	cfg := newIntegrationConfig(t)
	repo := repository.NewMongoDeliveryRepository(cfg)
	ctx := context.Background()

	pickup := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	delivery := pickup.Add(time.Hour)
	d := &model.Delivery{
		Customer: "acme",
		Status:   model.StatusPending,
		Pickup:   model.Stop{Address: "1 Dock Rd", ScheduledTime: &pickup},
		Delivery: model.Stop{Address: "9 Main St", ScheduledTime: &delivery},
	}
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("create: %v", err)
	}

	window := model.TimeSlot{Start: pickup.Add(-time.Hour), End: pickup.Add(2 * time.Hour)}
	if n, err := repo.CountActiveForDriver(ctx, integrationDriverID, window); err != nil || n != 0 {
		t.Fatalf("pending delivery counted as active: n=%d err=%v", n, err)
	}

	assigned, err := repo.AssignDriver(ctx, d.ID, 0, integrationDriverID, "van-12")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.Status != model.StatusAssigned || assigned.Version != 1 {
		t.Errorf("unexpected assigned delivery: %+v", assigned)
	}

	if _, err := repo.AssignDriver(ctx, d.ID, 0, integrationDriverID, ""); !errors.Is(err, deliverieserrors.ErrVersionConflict) {
		t.Errorf("stale version: got %v, want ErrVersionConflict", err)
	}

	active, err := repo.FindActiveForDriver(ctx, integrationDriverID, &window)
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if len(active) != 1 || active[0].ID != d.ID {
		t.Errorf("got %d active deliveries, want the assigned one", len(active))
	}
}

func TestMongoDriverLockRepository_ExclusiveUntilExpired(t *testing.T) {
	cfg := newIntegrationConfig(t)
	locks := repository.NewDriverLockRepository(cfg)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	lockID := model.DriverLockID(integrationDriverID)

	if _, err := locks.Create(ctx, &model.DriverLock{ID: lockID, Owner: "first", ExpiresAt: now.Add(-time.Second)}); err != nil {
		t.Fatalf("create lock: %v", err)
	}
	if _, err := locks.Create(ctx, &model.DriverLock{ID: lockID, Owner: "second", ExpiresAt: now.Add(time.Minute)}); !mongo.IsDuplicateKeyError(err) {
		t.Fatalf("second create: got %v, want duplicate key", err)
	}

	removed, err := locks.DeleteExpired(ctx, lockID, now)
	if err != nil || !removed {
		t.Fatalf("delete expired: removed=%v err=%v", removed, err)
	}
	if _, err := locks.Create(ctx, &model.DriverLock{ID: lockID, Owner: "second", ExpiresAt: now.Add(time.Minute)}); err != nil {
		t.Fatalf("re-create after expiry: %v", err)
	}
	if removed, _ := locks.DeleteExpired(ctx, lockID, now); removed {
		t.Error("live lock must not be removed as expired")
	}
	if err := locks.Delete(ctx, lockID, "first"); err != nil {
		t.Errorf("delete by stale owner: %v", err)
	}
	if _, err := locks.Create(ctx, &model.DriverLock{ID: lockID, Owner: "third", ExpiresAt: now.Add(time.Minute)}); !mongo.IsDuplicateKeyError(err) {
		t.Errorf("stale owner removed the live lock: %v", err)
	}
	if err := locks.Delete(ctx, lockID, "second"); err != nil {
		t.Errorf("delete: %v", err)
	}
}
