package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const keysCollection = "idempotency_keys"

// MongoStore implements Store using MongoDB
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore creates a MongoDB-backed store
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{collection: db.Collection(keysCollection)}
}

// EnsureIndexes creates the TTL index that expires old keys
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_ttl"),
	})
	return err
}

// Acquire inserts the record when its id is free
func (s *MongoStore) Acquire(ctx context.Context, record *Record) (*Record, bool, error) {
	now := time.Now().UTC()
	record.LockedAt = &now

	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": record.ID},
		bson.M{"$setOnInsert": record},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, false, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if result.UpsertedCount == 1 {
		return record, true, nil
	}

	var existing Record
	if err := s.collection.FindOne(ctx, bson.M{"_id": record.ID}).Decode(&existing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, ErrNotFound
		}
		return nil, false, fmt.Errorf("load idempotency key: %w", err)
	}
	return &existing, false, nil
}

// Complete stores the response and clears the lock
func (s *MongoStore) Complete(ctx context.Context, id string, code int, body []byte, contentType string) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{
				"responseCode": code,
				"responseBody": body,
				"contentType":  contentType,
				"completedAt":  time.Now().UTC(),
			},
			"$unset": bson.M{"lockedAt": ""},
		},
	)
	return err
}

// Release forgets the record so the key can be retried
func (s *MongoStore) Release(ctx context.Context, id string) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
