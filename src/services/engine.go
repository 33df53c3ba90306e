package services

import (
	"context"
	"errors"

	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"github.com/theleywin/Backend-Pitch-Review/src/push"
	"github.com/theleywin/Backend-Pitch-Review/src/resolvers"
	"github.com/theleywin/Backend-Pitch-Review/src/store"
	"github.com/theleywin/Backend-Pitch-Review/src/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type NotificationStore interface {
	InsertRequestPair(ctx context.Context, request, sent *models.Notification) error
	Insert(ctx context.Context, notifications ...*models.Notification) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	FindPending(ctx context.Context, key store.PendingKey) (*models.Notification, error)
	Complete(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error)
	Reopen(ctx context.Context, id, recipient primitive.ObjectID) error
	MarkRead(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error)
	ListByRecipient(ctx context.Context, recipient primitive.ObjectID) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipient primitive.ObjectID) (int64, error)
}

type ConnectionStore interface {
	CreateIfAbsent(ctx context.Context, a, b primitive.ObjectID, t models.ConnectionType) (*models.Connection, bool, error)
	Exists(ctx context.Context, a, b primitive.ObjectID, t models.ConnectionType) (bool, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, t models.ConnectionType) ([]models.Connection, error)
	ListBetween(ctx context.Context, a, b primitive.ObjectID, t models.ConnectionType) ([]models.Connection, error)
}

type UserDirectory interface {
	FindUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type PitchRepository interface {
	FindPitch(ctx context.Context, id primitive.ObjectID) (*models.Pitch, error)
	GrantDeckAccess(ctx context.Context, pitchID, userID primitive.ObjectID) error
}

type ReferenceResolver interface {
	Resolve(ctx context.Context, ref models.Reference) (*resolvers.DomainRef, error)
}

type Renderer interface {
	Render(typ models.NotificationType, locale string, ctx templates.Context) (string, error)
}

type Pusher interface {
	Push(ctx context.Context, userID primitive.ObjectID, msg push.Message)
}

type Deps struct {
	Notifications NotificationStore
	Connections   ConnectionStore
	Users         UserDirectory
	Pitches       PitchRepository
	References    ReferenceResolver
	Templates     Renderer
	Pusher        Pusher
	Logger        *zap.Logger
}

// Engine runs the request/response workflow shared by every request family.
type Engine struct {
	notifications NotificationStore
	connections   ConnectionStore
	users         UserDirectory
	pitches       PitchRepository
	references    ReferenceResolver
	templates     Renderer
	pusher        Pusher
	logger        *zap.Logger
}

func NewEngine(d Deps) *Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		notifications: d.Notifications,
		connections:   d.Connections,
		users:         d.Users,
		pitches:       d.Pitches,
		references:    d.References,
		templates:     d.Templates,
		pusher:        d.Pusher,
		logger:        logger,
	}
}

// NotificationView is a notification with a summary of what it references.
type NotificationView struct {
	models.Notification
	Reference *resolvers.DomainRef `json:"reference,omitempty"`
}

// NotificationList is a user's inbox with its badge count.
type NotificationList struct {
	Notifications []NotificationView `json:"payload"`
	BadgeCount    int64              `json:"badgeCount"`
}

// ListForUser returns the user's notifications, newest first, and the number of
// unread ones. References that no longer resolve are left out of the summary.
func (e *Engine) ListForUser(ctx context.Context, userID primitive.ObjectID) (*NotificationList, error) {
	notifications, err := e.notifications.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, e.internal("list notifications", err)
	}
	badge, err := e.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, e.internal("count unread notifications", err)
	}

	views := make([]NotificationView, 0, len(notifications))
	resolved := make(map[models.Reference]*resolvers.DomainRef)
	for _, n := range notifications {
		view := NotificationView{Notification: n}
		if n.ReferenceObject != nil && e.references != nil {
			ref, seen := resolved[*n.ReferenceObject]
			if !seen {
				ref, err = e.references.Resolve(ctx, *n.ReferenceObject)
				if err != nil && !errors.Is(err, store.ErrNotFound) {
					e.logger.Warn("reference lookup failed",
						zap.String("notification_id", n.Id.Hex()), zap.Error(err))
				}
				resolved[*n.ReferenceObject] = ref
			}
			view.Reference = ref
		}
		views = append(views, view)
	}
	return &NotificationList{Notifications: views, BadgeCount: badge}, nil
}

// MarkRead sets the notification to READ. Marking a read notification again
// succeeds without touching it.
func (e *Engine) MarkRead(ctx context.Context, id, userID primitive.ObjectID) (*models.Notification, error) {
	n, err := e.ownedNotification(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !n.Unread() {
		return n, nil
	}

	updated, err := e.notifications.MarkRead(ctx, id, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("notification not found")
	}
	if err != nil {
		return nil, e.internal("mark notification read", err)
	}
	return updated, nil
}

// ListConnections returns the accepted connections of type t userID takes part in.
func (e *Engine) ListConnections(ctx context.Context, userID primitive.ObjectID, t models.ConnectionType) ([]models.Connection, error) {
	if !t.Valid() {
		return nil, Invalid("unknown connection type")
	}
	connections, err := e.connections.ListForUser(ctx, userID, t)
	if err != nil {
		return nil, e.internal("list connections", err)
	}
	return connections, nil
}

// ListConnectionsBetween returns the accepted connections of type t between two users.
func (e *Engine) ListConnectionsBetween(ctx context.Context, a, b primitive.ObjectID, t models.ConnectionType) ([]models.Connection, error) {
	if !t.Valid() {
		return nil, Invalid("unknown connection type")
	}
	connections, err := e.connections.ListBetween(ctx, a, b, t)
	if err != nil {
		return nil, e.internal("list connections", err)
	}
	return connections, nil
}

func (e *Engine) ownedNotification(ctx context.Context, id, userID primitive.ObjectID) (*models.Notification, error) {
	n, err := e.notifications.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("notification not found")
	}
	if err != nil {
		return nil, e.internal("find notification", err)
	}
	if n.Recipient != userID {
		return nil, Forbidden("notification belongs to another user")
	}
	return n, nil
}

func (e *Engine) findUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := e.users.FindUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("user not found")
	}
	if err != nil {
		return nil, e.internal("find user", err)
	}
	return user, nil
}

func (e *Engine) findPitch(ctx context.Context, id primitive.ObjectID) (*models.Pitch, error) {
	pitch, err := e.pitches.FindPitch(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("pitch not found")
	}
	if err != nil {
		return nil, e.internal("find pitch", err)
	}
	return pitch, nil
}

func (e *Engine) render(typ models.NotificationType, locale string, data templates.Context) (string, error) {
	message, err := e.templates.Render(typ, locale, data)
	if err != nil {
		return "", e.internal("render notification message", err)
	}
	return message, nil
}

// notify pushes n to its owner with a fresh badge count.
func (e *Engine) notify(ctx context.Context, n *models.Notification) {
	if e.pusher == nil {
		return
	}
	badge, err := e.notifications.CountUnread(ctx, n.Recipient)
	if err != nil {
		e.logger.Warn("badge count failed, pushing without it",
			zap.String("user_id", n.Recipient.Hex()), zap.Error(err))
	}
	e.pusher.Push(ctx, n.Recipient, push.NewMessage(n, badge))
}

func (e *Engine) internal(op string, err error) *Error {
	e.logger.Error(op+" failed", zap.Error(err))
	return wrapError(KindInternal, op, err)
}
