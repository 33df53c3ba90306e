package store

import (
	"context"
	"time"

	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DevicesCollection = "devices"

type DeviceStore struct {
	coll *mongo.Collection
}

func NewDeviceStore(db *mongo.Database) *DeviceStore {
	return &DeviceStore{coll: db.Collection(DevicesCollection)}
}

// Register upserts a device by token. A token registered by another user moves
// to the caller.
func (s *DeviceStore) Register(ctx context.Context, userID primitive.ObjectID, token, platform string) (*models.Device, error) {
	now := time.Now().UTC()
	filter := bson.M{"token": token}
	update := bson.M{
		"$set": bson.M{
			"user":       userID,
			"platform":   platform,
			"lastSeenAt": now,
		},
		"$setOnInsert": bson.M{
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var device models.Device
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&device); err != nil {
		return nil, translate(err)
	}
	return &device, nil
}

func (s *DeviceStore) Unregister(ctx context.Context, userID primitive.ObjectID, token string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"user": userID, "token": token})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DeviceStore) FindByToken(ctx context.Context, token string) (*models.Device, error) {
	var device models.Device
	if err := s.coll.FindOne(ctx, bson.M{"token": token}).Decode(&device); err != nil {
		return nil, translate(err)
	}
	return &device, nil
}

func (s *DeviceStore) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Device, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"user": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	devices := make([]models.Device, 0)
	if err := cursor.All(ctx, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

func (s *DeviceStore) Touch(ctx context.Context, token string) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"token": token}, bson.M{"$set": bson.M{"lastSeenAt": time.Now().UTC()}})
	return err
}
