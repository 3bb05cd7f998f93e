package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SortAscending creates an ascending sort option
func SortAscending(field string) bson.D {
	return bson.D{{Key: field, Value: 1}}
}

// SortDescending creates a descending sort option
func SortDescending(field string) bson.D {
	return bson.D{{Key: field, Value: -1}}
}

// UpsertByID replaces the fields of the document with _id id, inserting it when absent
func UpsertByID(ctx context.Context, coll *mongo.Collection, id string, doc interface{}) error {
	opts := options.Update().SetUpsert(true)
	if _, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": doc}, opts); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", coll.Name(), id, err)
	}
	return nil
}

// FindOneByID decodes the document with _id id into out; found is false when it does not exist
func FindOneByID(ctx context.Context, coll *mongo.Collection, id string, out interface{}) (bool, error) {
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find %s/%s: %w", coll.Name(), id, err)
	}
	return true, nil
}

// DeleteByID removes the document with _id id and reports whether it existed
func DeleteByID(ctx context.Context, coll *mongo.Collection, id string) (bool, error) {
	result, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", coll.Name(), id, err)
	}
	return result.DeletedCount > 0, nil
}

// FindAll decodes every document matching filter into out, a pointer to a slice
func FindAll(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}, opts ...*options.FindOptions) error {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return nil
}
