package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const NotificationsCollection = "notifications"

// PendingKey identifies an open request. At most one notification per key may
// carry actionStatus=REQUIRED; the pending_request_unique index enforces it.
type PendingKey struct {
	Recipient primitive.ObjectID
	Actor     primitive.ObjectID
	Family    models.Family
	Reference *models.Reference
}

type NotificationStore struct {
	coll      *mongo.Collection
	listLimit int64
	logger    *zap.Logger
}

func NewNotificationStore(db *mongo.Database, listLimit int64, logger *zap.Logger) *NotificationStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationStore{
		coll:      db.Collection(NotificationsCollection),
		listLimit: listLimit,
		logger:    logger,
	}
}

// InsertRequestPair stores the actionable notification and then the actor's
// "sent" copy. The actionable one goes first so a duplicate leaves nothing behind;
// if the second insert fails the first is removed again.
func (s *NotificationStore) InsertRequestPair(ctx context.Context, request, sent *models.Notification) error {
	prepare(request)
	prepare(sent)

	// The request goes first so the pending index rejects duplicates
	// before any sent copy exists
	if _, err := s.coll.InsertOne(ctx, request); err != nil {
		return translate(err)
	}
	if _, err := s.coll.InsertOne(ctx, sent); err != nil {
		// Undo the request so the actor can try again
		if _, delErr := s.coll.DeleteOne(ctx, bson.M{"_id": request.Id}); delErr != nil {
			s.logger.Error("failed to roll back request notification",
				zap.String("notification_id", request.Id.Hex()), zap.Error(delErr))
		}
		return fmt.Errorf("insert sent notification: %w", translate(err))
	}
	return nil
}

// Insert stores non-actionable notifications.
func (s *NotificationStore) Insert(ctx context.Context, notifications ...*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(notifications))
	for _, n := range notifications {
		prepare(n)
		docs = append(docs, n)
	}
	_, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	return translate(err)
}

func (s *NotificationStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

func (s *NotificationStore) FindPending(ctx context.Context, key PendingKey) (*models.Notification, error) {
	var n models.Notification
	if err := s.coll.FindOne(ctx, PendingFilter(key)).Decode(&n); err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

// Complete moves a REQUIRED notification owned by recipient to COMPLETED/READ.
// Only one caller can win; the others get ErrNotPending.
func (s *NotificationStore) Complete(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error) {
	filter := bson.M{
		"_id":          id,
		"recipient":    recipient,
		"actionStatus": models.ActionStatusRequired,
	}
	update := bson.M{
		"$set": bson.M{
			"actionStatus": models.ActionStatusCompleted,
			"status":       models.NotificationStatusRead,
			"updatedAt":    time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Notification
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

// Reopen undoes Complete when the acceptance side effect could not be applied.
func (s *NotificationStore) Reopen(ctx context.Context, id, recipient primitive.ObjectID) error {
	filter := bson.M{
		"_id":          id,
		"recipient":    recipient,
		"actionStatus": models.ActionStatusCompleted,
	}
	update := bson.M{
		"$set": bson.M{
			"actionStatus": models.ActionStatusRequired,
			"updatedAt":    time.Now().UTC(),
		},
	}
	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *NotificationStore) MarkRead(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error) {
	filter := bson.M{
		"_id":       id,
		"recipient": recipient,
	}
	update := bson.M{
		"$set": bson.M{
			"status":    models.NotificationStatusRead,
			"updatedAt": time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Notification
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

// ListByRecipient returns the newest notifications of a user, capped at the
// configured list limit.
func (s *NotificationStore) ListByRecipient(ctx context.Context, recipient primitive.ObjectID) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if s.listLimit > 0 {
		opts.SetLimit(s.listLimit)
	}

	cursor, err := s.coll.Find(ctx, bson.M{"recipient": recipient}, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	notifications := make([]models.Notification, 0)
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *NotificationStore) CountUnread(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{
		"recipient": recipient,
		"status":    models.NotificationStatusUnread,
	})
}

// PendingFilter builds the query matching an open request for key.
func PendingFilter(key PendingKey) bson.M {
	filter := bson.M{
		"recipient":    key.Recipient,
		"actor":        key.Actor,
		"family":       key.Family,
		"actionStatus": models.ActionStatusRequired,
	}
	if key.Reference != nil {
		filter["referenceObject.reference"] = key.Reference.Reference
		filter["referenceObject.referenceModel"] = key.Reference.ReferenceModel
	} else {
		filter["referenceObject"] = bson.M{"$exists": false}
	}
	return filter
}

func prepare(n *models.Notification) {
	if n.Id.IsZero() {
		n.Id = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = n.CreatedAt
	if n.Status == "" {
		n.Status = models.NotificationStatusUnread
	}
}
