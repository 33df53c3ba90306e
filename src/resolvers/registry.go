// Package resolvers adapts the collections a request can point at (pitches,
// pitch reviews, user connections, users) to the request/response engine.
package resolvers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrUnsupportedModel = errors.New("resolvers: unsupported reference model")

// DomainRef is the resolved view of a referenced object.
type DomainRef struct {
	Model        models.ReferenceModel `json:"referenceModel"`
	ID           primitive.ObjectID    `json:"reference"`
	Owner        primitive.ObjectID    `json:"owner,omitempty"`
	Title        string                `json:"title,omitempty"`
	State        string                `json:"state,omitempty"`
	Participants []primitive.ObjectID  `json:"participants,omitempty"`
}

type Resolver interface {
	Resolve(ctx context.Context, id primitive.ObjectID) (*DomainRef, error)
}

type ResolverFunc func(ctx context.Context, id primitive.ObjectID) (*DomainRef, error)

func (f ResolverFunc) Resolve(ctx context.Context, id primitive.ObjectID) (*DomainRef, error) {
	return f(ctx, id)
}

// Registry dispatches a reference to the resolver registered for its model.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[models.ReferenceModel]Resolver
}

func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[models.ReferenceModel]Resolver)}
}

func (r *Registry) Register(model models.ReferenceModel, resolver Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[model] = resolver
}

func (r *Registry) Resolve(ctx context.Context, ref models.Reference) (*DomainRef, error) {
	r.mu.RLock()
	resolver, ok := r.resolvers[ref.ReferenceModel]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, ref.ReferenceModel)
	}
	return resolver.Resolve(ctx, ref.Reference)
}
