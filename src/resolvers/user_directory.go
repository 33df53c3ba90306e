package resolvers

import (
	"context"
	"errors"

	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"github.com/theleywin/Backend-Pitch-Review/src/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const UsersCollection = "users"

// UserDirectory reads users and their notification preferences.
type UserDirectory struct {
	coll *mongo.Collection
}

func NewUserDirectory(db *mongo.Database) *UserDirectory {
	return &UserDirectory{coll: db.Collection(UsersCollection)}
}

// FindUser searches a user by id and leaves credentials out of the result.
func (d *UserDirectory) FindUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := d.coll.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"password": 0}),
	).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *UserDirectory) SetPushEnabled(ctx context.Context, id primitive.ObjectID, enabled bool) error {
	res, err := d.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"pushDisabled": !enabled}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
