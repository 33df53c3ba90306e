package store

import (
	"context"
	"fmt"
	"time"

	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const PendingRequestIndex = "pending_request_unique"

// NotificationIndexes returns the index models of the notifications collection.
// retention <= 0 disables the TTL index.
func NotificationIndexes(retention time.Duration) []mongo.IndexModel {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{
				{Key: "recipient", Value: 1},
				{Key: "actor", Value: 1},
				{Key: "family", Value: 1},
				{Key: "referenceObject.reference", Value: 1},
				{Key: "referenceObject.referenceModel", Value: 1},
			},
			Options: options.Index().
				SetName(PendingRequestIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"actionStatus": models.ActionStatusRequired}),
		},
	}
	if retention > 0 {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("retention_ttl").SetExpireAfterSeconds(int32(retention / time.Second)),
		})
	}
	return indexes
}

func ConnectionIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pairKey", Value: 1}, {Key: "type", Value: 1}},
			Options: options.Index().SetName("pair_type_unique").SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "users", Value: 1}, {Key: "type", Value: 1}},
		},
	}
}

func DeviceIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetName("token_unique").SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user", Value: 1}},
		},
	}
}

// EnsureIndexes creates every index the stores depend on.
func EnsureIndexes(ctx context.Context, db *mongo.Database, retention time.Duration) error {
	plan := map[string][]mongo.IndexModel{
		NotificationsCollection: NotificationIndexes(retention),
		ConnectionsCollection:   ConnectionIndexes(),
		DevicesCollection:       DeviceIndexes(),
	}
	for collection, indexes := range plan {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
