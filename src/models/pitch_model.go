package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PitchStatus string

const (
	PitchStatusDraft     PitchStatus = "draft"
	PitchStatusSubmitted PitchStatus = "submitted"
	PitchStatusApproved  PitchStatus = "approved"
	PitchStatusRejected  PitchStatus = "rejected"
	PitchStatusArchived  PitchStatus = "archived"
)

type Pitch struct {
	Id         primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Owner      primitive.ObjectID   `json:"owner" bson:"owner"`
	Title      string               `json:"title" bson:"title"`
	Status     PitchStatus          `json:"status" bson:"status"`
	DeckURL    string               `json:"deckUrl,omitempty" bson:"deckUrl,omitempty"`
	DeckAccess []primitive.ObjectID `json:"deckAccess" bson:"deckAccess"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updatedAt"`
}

func (p *Pitch) HasDeckAccess(userID primitive.ObjectID) bool {
	for _, u := range p.DeckAccess {
		if u == userID {
			return true
		}
	}
	return false
}

type PitchReview struct {
	Id        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Pitch     primitive.ObjectID `json:"pitch" bson:"pitch"`
	Reviewer  primitive.ObjectID `json:"reviewer" bson:"reviewer"`
	Rating    int                `json:"rating" bson:"rating"`
	Comment   string             `json:"comment,omitempty" bson:"comment,omitempty"`
	Status    string             `json:"status" bson:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
