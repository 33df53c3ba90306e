package testsupport

import (
	"context"
	"sync"
	"time"

	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"github.com/theleywin/Backend-Pitch-Review/src/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConnectionStore struct {
	mu    sync.Mutex
	items []models.Connection

	// FailCreate makes the next CreateIfAbsent call fail with this error.
	FailCreate error
}

func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{}
}

func (s *ConnectionStore) CreateIfAbsent(_ context.Context, a, b primitive.ObjectID, t models.ConnectionType) (*models.Connection, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailCreate; err != nil {
		s.FailCreate = nil
		return nil, false, err
	}
	if c := s.findLocked(a, b, t); c != nil {
		return c, false, nil
	}
	c := models.NewConnection(a, b, t, time.Now().UTC())
	c.Id = primitive.NewObjectID()
	s.items = append(s.items, c)
	return &c, true, nil
}

func (s *ConnectionStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.items {
		if c.Id == id {
			found := c
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *ConnectionStore) Exists(_ context.Context, a, b primitive.ObjectID, t models.ConnectionType) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(a, b, t) != nil, nil
}

func (s *ConnectionStore) ListForUser(_ context.Context, userID primitive.ObjectID, t models.ConnectionType) ([]models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Connection, 0)
	for _, c := range s.items {
		if c.Type == t && c.Has(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *ConnectionStore) ListBetween(_ context.Context, a, b primitive.ObjectID, t models.ConnectionType) ([]models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Connection, 0)
	if c := s.findLocked(a, b, t); c != nil {
		out = append(out, *c)
	}
	return out, nil
}

// Len is the number of stored connections.
func (s *ConnectionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *ConnectionStore) findLocked(a, b primitive.ObjectID, t models.ConnectionType) *models.Connection {
	key := models.PairKey(a, b)
	for _, c := range s.items {
		if c.PairKey == key && c.Type == t {
			found := c
			return &found
		}
	}
	return nil
}
