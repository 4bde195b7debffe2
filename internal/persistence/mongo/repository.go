// Package mongo provides the MongoDB-backed case repository.
package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Aman-Sigroha/WildWardenServer/internal/domain"
)

const collectionName = "cases"

// Repository stores cases as flat documents in a single collection, one
// document per case with the case id as _id.
type Repository struct {
	collection *mongo.Collection
}

// NewRepository constructs a Repository over the given database.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{collection: db.Collection(collectionName)}
}

// EnsureIndexes creates the deviceId index used by device-scoped queries and
// the ingest sweep. Safe to call on every startup.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "deviceId", Value: 1}},
	})
	return err
}

// DeletePending removes every unreviewed case for the device and reports how
// many were swept.
func (r *Repository) DeletePending(ctx context.Context, deviceID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{
		"deviceId": deviceID,
		"status":   domain.StatusNone,
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Insert persists a new case document.
func (r *Repository) Insert(ctx context.Context, c domain.Case) error {
	_, err := r.collection.InsertOne(ctx, c)
	return err
}

// ListAll returns every case, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]domain.Case, error) {
	return r.find(ctx, bson.M{})
}

// ListByStatus returns cases in any of the given statuses, newest first.
func (r *Repository) ListByStatus(ctx context.Context, statuses ...domain.Status) ([]domain.Case, error) {
	return r.find(ctx, bson.M{"status": bson.M{"$in": statuses}})
}

// ListByDevice returns every case reported by the device, newest first.
func (r *Repository) ListByDevice(ctx context.Context, deviceID string) ([]domain.Case, error) {
	return r.find(ctx, bson.M{"deviceId": deviceID})
}

func (r *Repository) find(ctx context.Context, filter bson.M) ([]domain.Case, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	cases := make([]domain.Case, 0)
	if err := cursor.All(ctx, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}

// UpdateStatus writes the new status and returns the post-update case, or
// (nil, nil) when no case has that id.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Case, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
		opts,
	)

	var c domain.Case
	if err := res.Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Delete removes the case document and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// Ping verifies connectivity to the backing deployment.
func (r *Repository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, nil)
}
