package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Device is a registered push endpoint of a user.
type Device struct {
	Id         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	User       primitive.ObjectID `json:"user" bson:"user"`
	Token      string             `json:"token" bson:"token"`
	Platform   string             `json:"platform" bson:"platform"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	LastSeenAt time.Time          `bson:"lastSeenAt" json:"lastSeenAt"`
}
