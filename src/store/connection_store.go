package store

import (
	"context"
	"errors"
	"time"

	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ConnectionsCollection = "connections"

type ConnectionStore struct {
	coll *mongo.Collection
}

func NewConnectionStore(db *mongo.Database) *ConnectionStore {
	return &ConnectionStore{coll: db.Collection(ConnectionsCollection)}
}

// CreateIfAbsent inserts the connection for the unordered pair and relies on the
// (pairKey, type) unique index. When another writer got there first the stored
// connection is returned with created=false.
func (s *ConnectionStore) CreateIfAbsent(ctx context.Context, a, b primitive.ObjectID, t models.ConnectionType) (*models.Connection, bool, error) {
	conn := models.NewConnection(a, b, t, time.Now().UTC())
	conn.Id = primitive.NewObjectID()

	_, err := s.coll.InsertOne(ctx, conn)
	if err == nil {
		return &conn, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, false, err
	}

	existing, err := s.Find(ctx, a, b, t)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *ConnectionStore) Find(ctx context.Context, a, b primitive.ObjectID, t models.ConnectionType) (*models.Connection, error) {
	var conn models.Connection
	err := s.coll.FindOne(ctx, bson.M{"pairKey": models.PairKey(a, b), "type": t}).Decode(&conn)
	if err != nil {
		return nil, translate(err)
	}
	return &conn, nil
}

func (s *ConnectionStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Connection, error) {
	var conn models.Connection
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&conn); err != nil {
		return nil, translate(err)
	}
	return &conn, nil
}

func (s *ConnectionStore) Exists(ctx context.Context, a, b primitive.ObjectID, t models.ConnectionType) (bool, error) {
	_, err := s.Find(ctx, a, b, t)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ListForUser returns the connections of the given type userID takes part in.
func (s *ConnectionStore) ListForUser(ctx context.Context, userID primitive.ObjectID, t models.ConnectionType) ([]models.Connection, error) {
	return s.list(ctx, bson.M{"users": userID, "type": t})
}

// ListBetween returns the connections of the given type between two users.
func (s *ConnectionStore) ListBetween(ctx context.Context, a, b primitive.ObjectID, t models.ConnectionType) ([]models.Connection, error) {
	return s.list(ctx, bson.M{"pairKey": models.PairKey(a, b), "type": t})
}

func (s *ConnectionStore) list(ctx context.Context, filter bson.M) ([]models.Connection, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	connections := make([]models.Connection, 0)
	if err := cursor.All(ctx, &connections); err != nil {
		return nil, err
	}
	return connections, nil
}
