package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationStatus string

const (
	NotificationStatusUnread NotificationStatus = "UNREAD"
	NotificationStatusRead   NotificationStatus = "READ"
)

type ActionStatus string

const (
	ActionStatusRequired  ActionStatus = "REQUIRED"
	ActionStatusCompleted ActionStatus = "COMPLETED"
)

type ReferenceModel string

const (
	ReferenceModelPitch          ReferenceModel = "Pitch"
	ReferenceModelPitchReview    ReferenceModel = "PitchReview"
	ReferenceModelUserConnection ReferenceModel = "UserConnection"
)

func (m ReferenceModel) Valid() bool {
	switch m {
	case ReferenceModelPitch, ReferenceModelPitchReview, ReferenceModelUserConnection:
		return true
	}
	return false
}

// Reference points at the domain object a request concerns.
type Reference struct {
	Reference      primitive.ObjectID `json:"reference" bson:"reference"`
	ReferenceModel ReferenceModel     `json:"referenceModel" bson:"referenceModel"`
}

// Payload is the value a responder attaches when accepting, e.g. a deck link.
type Payload struct {
	Value string `json:"value" bson:"value"`
}

type Notification struct {
	Id              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Recipient       primitive.ObjectID `json:"recipientId" bson:"recipient"`
	Actor           primitive.ObjectID `json:"actorId,omitempty" bson:"actor,omitempty"`
	Type            NotificationType   `json:"type" bson:"type"`
	TemplateKey     NotificationType   `json:"templateKey,omitempty" bson:"templateKey,omitempty"`
	Family          Family             `json:"family,omitempty" bson:"family,omitempty"`
	Message         string             `json:"message" bson:"message"`
	Status          NotificationStatus `json:"status" bson:"status"`
	ActionStatus    ActionStatus       `json:"actionStatus,omitempty" bson:"actionStatus,omitempty"`
	ReferenceObject *Reference         `json:"referenceObject,omitempty" bson:"referenceObject,omitempty"`
	Payload         *Payload           `json:"payload,omitempty" bson:"payload,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RenderKey is the type used to pick the display template.
func (n *Notification) RenderKey() NotificationType {
	if n.TemplateKey != "" {
		return n.TemplateKey
	}
	return n.Type
}

func (n *Notification) Actionable() bool {
	return n.ActionStatus == ActionStatusRequired
}

func (n *Notification) Unread() bool {
	return n.Status != NotificationStatusRead
}
