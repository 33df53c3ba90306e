package resolvers

import (
	"context"
	"errors"
	"time"

	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"github.com/theleywin/Backend-Pitch-Review/src/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	PitchesCollection      = "pitches"
	PitchReviewsCollection = "pitchreviews"
)

type PitchRepository struct {
	coll *mongo.Collection
}

func NewPitchRepository(db *mongo.Database) *PitchRepository {
	return &PitchRepository{coll: db.Collection(PitchesCollection)}
}

func (r *PitchRepository) FindPitch(ctx context.Context, id primitive.ObjectID) (*models.Pitch, error) {
	var pitch models.Pitch
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&pitch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pitch, nil
}

// GrantDeckAccess adds userID to the pitch's deck access list. Granting twice
// leaves a single entry.
func (r *PitchRepository) GrantDeckAccess(ctx context.Context, pitchID, userID primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": pitchID},
		bson.M{
			"$addToSet": bson.M{"deckAccess": userID},
			"$set":      bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *PitchRepository) Resolve(ctx context.Context, id primitive.ObjectID) (*DomainRef, error) {
	pitch, err := r.FindPitch(ctx, id)
	if err != nil {
		return nil, err
	}
	return PitchRef(pitch), nil
}

func PitchRef(p *models.Pitch) *DomainRef {
	return &DomainRef{
		Model: models.ReferenceModelPitch,
		ID:    p.Id,
		Owner: p.Owner,
		Title: p.Title,
		State: string(p.Status),
	}
}

type PitchReviewRepository struct {
	coll *mongo.Collection
}

func NewPitchReviewRepository(db *mongo.Database) *PitchReviewRepository {
	return &PitchReviewRepository{coll: db.Collection(PitchReviewsCollection)}
}

func (r *PitchReviewRepository) FindReview(ctx context.Context, id primitive.ObjectID) (*models.PitchReview, error) {
	var review models.PitchReview
	err := r.coll.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"comment": 0}),
	).Decode(&review)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *PitchReviewRepository) Resolve(ctx context.Context, id primitive.ObjectID) (*DomainRef, error) {
	review, err := r.FindReview(ctx, id)
	if err != nil {
		return nil, err
	}
	return PitchReviewRef(review), nil
}

func PitchReviewRef(r *models.PitchReview) *DomainRef {
	return &DomainRef{
		Model: models.ReferenceModelPitchReview,
		ID:    r.Id,
		Owner: r.Reviewer,
		State: r.Status,
	}
}
