package repository

import (
	"context"
	"fmt"
	"time"

	reservationerrors "reserva/internal/reservations/errors"
	"reserva/pkg/config"
	"reserva/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const lockIDPrefix = "resource_lock_"

// ResourceLockRepository provides operations for advisory locks
type ResourceLockRepository interface {
	Create(ctx context.Context, lock *model.ResourceLock) (*model.ResourceLock, error)
	Delete(ctx context.Context, lockID, owner string) error
}

type mongoResourceLockRepository struct {
	collection *mongo.Collection
}

func NewResourceLockRepository(cfg *config.Config) ResourceLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoResourceLockRepository{
		collection: db.Collection("Resource_locks"),
	}
}

// Returns duplicate key error if lock already exists
func (r *mongoResourceLockRepository) Create(ctx context.Context, lock *model.ResourceLock) (*model.ResourceLock, error) {
	lock.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		return nil, err
	}

	return lock, nil
}

// Delete removes an advisory lock, but only for its owner; an expired lock
// reclaimed by someone else stays put.
func (r *mongoResourceLockRepository) Delete(ctx context.Context, lockID, owner string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner})
	return err
}

// MongoGuard serializes resource mutations across processes through advisory
// lock documents. Acquisition retries until the holder releases, the lock's
// TTL reaps it, or the acquire budget runs out; callers therefore queue
// rather than fail fast.
type MongoGuard struct {
	lockRepo      ResourceLockRepository
	ttl           time.Duration
	retryInterval time.Duration
	acquireBudget time.Duration
}

func NewMongoGuard(lockRepo ResourceLockRepository, cfg *config.Config) *MongoGuard {
	return &MongoGuard{
		lockRepo:      lockRepo,
		ttl:           cfg.LockTTL,
		retryInterval: cfg.LockRetryInterval,
		acquireBudget: cfg.LockAcquireBudget,
	}
}

func (g *MongoGuard) Acquire(ctx context.Context, resourceID string) (func(), error) {
	lockID := lockIDPrefix + resourceID
	owner := uuid.New().String()

	deadline := time.Now().Add(g.acquireBudget)
	for {
		lock := &model.ResourceLock{
			ID:        lockID,
			Owner:     owner,
			ExpiresAt: time.Now().Add(g.ttl),
		}

		_, err := g.lockRepo.Create(ctx, lock)
		if err == nil {
			release := func() {
				// Release runs after the guarded section; a fresh context
				// keeps it working when the request context is done.
				releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = g.lockRepo.Delete(releaseCtx, lockID, owner)
			}
			return release, nil
		}

		if !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to acquire resource lock: %w", err)
		}

		if time.Now().After(deadline) {
			return nil, reservationerrors.ErrLockUnavailable
		}

		select {
		case <-time.After(g.retryInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
