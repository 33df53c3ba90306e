package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConnectionType string

const (
	ConnectionTypeMentor   ConnectionType = "mentor"
	ConnectionTypeInvestor ConnectionType = "investor"
)

func (t ConnectionType) Valid() bool {
	switch t {
	case ConnectionTypeMentor, ConnectionTypeInvestor:
		return true
	}
	return false
}

// Connection is a symmetric relationship. Users is always sorted and PairKey is
// derived from it, so (PairKey, Type) identifies the unordered pair.
type Connection struct {
	Id        primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Users     []primitive.ObjectID `json:"users" bson:"users"`
	PairKey   string               `json:"-" bson:"pairKey"`
	Type      ConnectionType       `json:"type" bson:"type"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// NewConnection builds a connection for the unordered pair (a, b).
func NewConnection(a, b primitive.ObjectID, t ConnectionType, now time.Time) Connection {
	users := SortedPair(a, b)
	return Connection{
		Users:     users,
		PairKey:   PairKey(a, b),
		Type:      t,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SortedPair orders two ids by their hex form.
func SortedPair(a, b primitive.ObjectID) []primitive.ObjectID {
	if a.Hex() > b.Hex() {
		a, b = b, a
	}
	return []primitive.ObjectID{a, b}
}

func PairKey(a, b primitive.ObjectID) string {
	pair := SortedPair(a, b)
	return pair[0].Hex() + "_" + pair[1].Hex()
}

// Other returns the participant that is not userID.
func (c *Connection) Other(userID primitive.ObjectID) primitive.ObjectID {
	for _, u := range c.Users {
		if u != userID {
			return u
		}
	}
	return primitive.NilObjectID
}

func (c *Connection) Has(userID primitive.ObjectID) bool {
	for _, u := range c.Users {
		if u == userID {
			return true
		}
	}
	return false
}
