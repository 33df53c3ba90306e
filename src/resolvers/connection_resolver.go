package resolvers

import (
	"context"

	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConnectionFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Connection, error)
}

// ConnectionResolver resolves UserConnection references.
type ConnectionResolver struct {
	connections ConnectionFinder
}

func NewConnectionResolver(connections ConnectionFinder) *ConnectionResolver {
	return &ConnectionResolver{connections: connections}
}

func (r *ConnectionResolver) Resolve(ctx context.Context, id primitive.ObjectID) (*DomainRef, error) {
	conn, err := r.connections.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DomainRef{
		Model:        models.ReferenceModelUserConnection,
		ID:           conn.Id,
		State:        string(conn.Type),
		Participants: conn.Users,
	}, nil
}
