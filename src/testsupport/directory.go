package testsupport

import (
	"context"
	"sync"
	"time"

	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"github.com/theleywin/Backend-Pitch-Review/src/resolvers"
	"github.com/theleywin/Backend-Pitch-Review/src/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Users struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func NewUsers(users ...models.User) *Users {
	u := &Users{users: make(map[primitive.ObjectID]models.User)}
	for _, user := range users {
		u.Add(user)
	}
	return u
}

// Add stores user, assigning an id when it has none, and returns it.
func (u *Users) Add(user models.User) models.User {
	u.mu.Lock()
	defer u.mu.Unlock()
	if user.Id.IsZero() {
		user.Id = primitive.NewObjectID()
	}
	u.users[user.Id] = user
	return user
}

func (u *Users) FindUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (u *Users) SetPushEnabled(_ context.Context, id primitive.ObjectID, enabled bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.PushDisabled = !enabled
	u.users[id] = user
	return nil
}

type Pitches struct {
	mu      sync.Mutex
	pitches map[primitive.ObjectID]models.Pitch
}

func NewPitches(pitches ...models.Pitch) *Pitches {
	p := &Pitches{pitches: make(map[primitive.ObjectID]models.Pitch)}
	for _, pitch := range pitches {
		p.Add(pitch)
	}
	return p
}

func (p *Pitches) Add(pitch models.Pitch) models.Pitch {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pitch.Id.IsZero() {
		pitch.Id = primitive.NewObjectID()
	}
	p.pitches[pitch.Id] = pitch
	return pitch
}

func (p *Pitches) FindPitch(_ context.Context, id primitive.ObjectID) (*models.Pitch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pitch, ok := p.pitches[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	pitch.DeckAccess = append([]primitive.ObjectID(nil), pitch.DeckAccess...)
	return &pitch, nil
}

func (p *Pitches) GrantDeckAccess(_ context.Context, pitchID, userID primitive.ObjectID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	pitch, ok := p.pitches[pitchID]
	if !ok {
		return store.ErrNotFound
	}
	if !pitch.HasDeckAccess(userID) {
		pitch.DeckAccess = append(pitch.DeckAccess, userID)
		pitch.UpdatedAt = time.Now().UTC()
	}
	p.pitches[pitchID] = pitch
	return nil
}

func (p *Pitches) Resolve(ctx context.Context, id primitive.ObjectID) (*resolvers.DomainRef, error) {
	pitch, err := p.FindPitch(ctx, id)
	if err != nil {
		return nil, err
	}
	return resolvers.PitchRef(pitch), nil
}
