// Package testsupport provides in-memory stand-ins for the Mongo-backed stores.
// They enforce the same uniqueness rules as the indexes in package store.
package testsupport

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"github.com/theleywin/Backend-Pitch-Review/src/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationStore struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Notification
	clock time.Time

	// FailInsert makes the next Insert call fail with this error.
	FailInsert error
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		items: make(map[primitive.ObjectID]models.Notification),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *NotificationStore) InsertRequestPair(_ context.Context, request, sent *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingLocked(store.PendingKey{
		Recipient: request.Recipient,
		Actor:     request.Actor,
		Family:    request.Family,
		Reference: request.ReferenceObject,
	}) != nil {
		return store.ErrDuplicate
	}
	s.putLocked(request)
	s.putLocked(sent)
	return nil
}

func (s *NotificationStore) Insert(_ context.Context, notifications ...*models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailInsert; err != nil {
		s.FailInsert = nil
		return err
	}
	for _, n := range notifications {
		s.putLocked(n)
	}
	return nil
}

func (s *NotificationStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &n, nil
}

func (s *NotificationStore) FindPending(_ context.Context, key store.PendingKey) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := s.pendingLocked(key); n != nil {
		return n, nil
	}
	return nil, store.ErrNotFound
}

func (s *NotificationStore) Complete(_ context.Context, id, recipient primitive.ObjectID) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[id]
	if !ok || n.Recipient != recipient || n.ActionStatus != models.ActionStatusRequired {
		return nil, store.ErrNotPending
	}
	n.ActionStatus = models.ActionStatusCompleted
	n.Status = models.NotificationStatusRead
	s.items[id] = n
	return &n, nil
}

func (s *NotificationStore) Reopen(_ context.Context, id, recipient primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[id]
	if !ok || n.Recipient != recipient || n.ActionStatus != models.ActionStatusCompleted {
		return store.ErrNotFound
	}
	n.ActionStatus = models.ActionStatusRequired
	s.items[id] = n
	return nil
}

func (s *NotificationStore) MarkRead(_ context.Context, id, recipient primitive.ObjectID) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[id]
	if !ok || n.Recipient != recipient {
		return nil, store.ErrNotFound
	}
	n.Status = models.NotificationStatusRead
	s.items[id] = n
	return &n, nil
}

func (s *NotificationStore) ListByRecipient(_ context.Context, recipient primitive.ObjectID) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Notification, 0)
	for _, n := range s.items {
		if n.Recipient == recipient {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].Id[:], out[j].Id[:]) > 0
	})
	return out, nil
}

func (s *NotificationStore) CountUnread(_ context.Context, recipient primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, n := range s.items {
		if n.Recipient == recipient && n.Unread() {
			count++
		}
	}
	return count, nil
}

// All returns every stored notification owned by recipient.
func (s *NotificationStore) All(recipient primitive.ObjectID) []models.Notification {
	list, _ := s.ListByRecipient(context.Background(), recipient)
	return list
}

// Len is the total number of stored notifications.
func (s *NotificationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *NotificationStore) pendingLocked(key store.PendingKey) *models.Notification {
	for _, n := range s.items {
		if n.ActionStatus != models.ActionStatusRequired ||
			n.Recipient != key.Recipient || n.Actor != key.Actor || n.Family != key.Family {
			continue
		}
		if !sameReference(n.ReferenceObject, key.Reference) {
			continue
		}
		found := n
		return &found
	}
	return nil
}

func (s *NotificationStore) putLocked(n *models.Notification) {
	if n.Id.IsZero() {
		n.Id = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		s.clock = s.clock.Add(time.Second)
		n.CreatedAt = s.clock
	}
	n.UpdatedAt = n.CreatedAt
	if n.Status == "" {
		n.Status = models.NotificationStatusUnread
	}
	s.items[n.Id] = *n
}

func sameReference(a, b *models.Reference) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
