package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	resourceerrors "reserva/internal/resources/errors"
	"reserva/pkg/config"
	mongotx "reserva/pkg/db/mongo"
	"reserva/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Resources"
)

type mongoResourceRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

// ResourceRepository is the durable store for reservable resources. The
// capacity mutations are single atomic commands; check-then-update sequences
// never leave this package.
type ResourceRepository interface {
	Create(ctx context.Context, resource *model.Resource) error
	FindByID(ctx context.Context, id string) (*model.Resource, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Resource, error)
	Count(ctx context.Context) (int64, error)
	TryDecrement(ctx context.Context, id string, units int) (*model.Resource, error)
	Increment(ctx context.Context, id string, units int) (*model.Resource, error)
	Retire(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoResourceRepository(cfg *config.Config) ResourceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoResourceRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// SessionContext cannot be wrapped without breaking transaction semantics, so
// inside a transaction the original context is returned with a no-op cancel.
func (r *mongoResourceRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

// mapStorageErr folds context deadline errors into the timeout sentinel so
// callers can distinguish "storage is slow" from "storage said no".
func mapStorageErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return resourceerrors.ErrStorageTimeout
	}
	return err
}

func (r *mongoResourceRepository) Create(ctx context.Context, resource *model.Resource) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	resource.CreatedAt = now
	resource.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, resource)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return resourceerrors.ErrDuplicateID
		}
		return fmt.Errorf("failed to create resource: %w", mapStorageErr(err))
	}

	return nil
}

func (r *mongoResourceRepository) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var resource model.Resource
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&resource)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, resourceerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find resource: %w", mapStorageErr(err))
	}

	return &resource, nil
}

func (r *mongoResourceRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Resource, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find resources: %w", mapStorageErr(err))
	}
	defer cursor.Close(ctx)

	var resources []*model.Resource
	if err = cursor.All(ctx, &resources); err != nil {
		return nil, fmt.Errorf("failed to decode resources: %w", err)
	}

	return resources, nil
}

func (r *mongoResourceRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count resources: %w", mapStorageErr(err))
	}

	return count, nil
}

// TryDecrement atomically takes units from the resource's capacity. The
// filter admits the document only when enough capacity remains and the
// resource is not retired, so availability check and decrement are one
// command; concurrent callers can never both pass a stale check.
func (r *mongoResourceRepository) TryDecrement(ctx context.Context, id string, units int) (*model.Resource, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"_id":            id,
		"status":         bson.M{"$ne": model.ResourceRetired},
		"capacity_units": bson.M{"$gte": units},
	}

	remaining := bson.M{"$subtract": bson.A{"$capacity_units", units}}
	update := bson.A{
		bson.M{"$set": bson.M{
			"capacity_units": remaining,
			"status":         statusExpr(remaining),
			"updated_at":     time.Now().UTC().Truncate(time.Millisecond),
		}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Resource
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to decrement capacity: %w", mapStorageErr(err))
	}

	// The filter missed: figure out which precondition failed.
	existing, findErr := r.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	if existing.Status == model.ResourceRetired {
		return nil, resourceerrors.ErrRetired
	}
	return nil, resourceerrors.ErrInsufficientCapacity
}

// Increment atomically restores units of capacity, capped at the resource's
// original total. Retirement is sticky; everything else re-derives its status
// from the new capacity.
func (r *mongoResourceRepository) Increment(ctx context.Context, id string, units int) (*model.Resource, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	restored := bson.M{"$min": bson.A{
		bson.M{"$add": bson.A{"$capacity_units", units}},
		"$total_units",
	}}
	update := bson.A{
		bson.M{"$set": bson.M{
			"capacity_units": restored,
			"status": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", model.ResourceRetired}},
				model.ResourceRetired,
				statusExpr(restored),
			}},
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Resource
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, resourceerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to restore capacity: %w", mapStorageErr(err))
	}

	return &updated, nil
}

func (r *mongoResourceRepository) Retire(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "status": bson.M{"$ne": model.ResourceRetired}}
	update := bson.M{"$set": bson.M{
		"status":     model.ResourceRetired,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to retire resource: %w", mapStorageErr(err))
	}
	if result.MatchedCount == 0 {
		existing, findErr := r.FindByID(ctx, id)
		if findErr != nil {
			return findErr
		}
		if existing.Status == model.ResourceRetired {
			return resourceerrors.ErrRetired
		}
		return resourceerrors.ErrNotFound
	}

	return nil
}

func (r *mongoResourceRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

// statusExpr derives the stored status from a capacity expression, mirroring
// model.StatusForCapacity on the database side.
func statusExpr(capacity bson.M) bson.M {
	return bson.M{"$cond": bson.A{
		bson.M{"$lte": bson.A{capacity, 0}},
		model.ResourceOccupied,
		bson.M{"$cond": bson.A{
			bson.M{"$lt": bson.A{capacity, "$total_units"}},
			model.ResourceReserved,
			model.ResourceAvailable,
		}},
	}}
}
