package services

import (
	"context"
	"errors"

	"github.com/theleywin/Backend-Pitch-Review/src/metrics"
	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"github.com/theleywin/Backend-Pitch-Review/src/store"
	"github.com/theleywin/Backend-Pitch-Review/src/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type RequestInput struct {
	Actor     primitive.ObjectID
	Recipient primitive.ObjectID
	Family    models.Family
	Reference *models.Reference
	Payload   *models.Payload
}

// requestContext collects what a request needs once its parties and
// reference have been validated.
type requestContext struct {
	spec      models.FamilySpec
	actor     *models.User
	recipient *models.User
	pitch     *models.Pitch
	reference *models.Reference
}

func (rc *requestContext) templateData() templates.Context {
	data := templates.Context{
		templates.KeyRequesterName: rc.actor.DisplayName(),
		templates.KeyResponderName: rc.recipient.DisplayName(),
		templates.KeyPitchTitle:    "",
		templates.KeyLink:          "",
	}
	if rc.pitch != nil {
		data[templates.KeyPitchTitle] = rc.pitch.Title
	}
	return data
}

// RequestConnection asks recipient to form a connection of type t with actor.
func (e *Engine) RequestConnection(ctx context.Context, actor, recipient primitive.ObjectID, t models.ConnectionType) (*models.Notification, error) {
	spec, ok := models.FamilyForConnection(t)
	if !ok {
		return nil, Invalid("unknown connection type")
	}
	return e.CreateRequest(ctx, RequestInput{Actor: actor, Recipient: recipient, Family: spec.Name})
}

// RequestPitchDeck asks the owner of pitchID to share its deck with actor.
func (e *Engine) RequestPitchDeck(ctx context.Context, actor, pitchID primitive.ObjectID) (*models.Notification, error) {
	return e.CreateRequest(ctx, RequestInput{
		Actor:     actor,
		Family:    models.FamilyPitchDeck,
		Reference: &models.Reference{Reference: pitchID, ReferenceModel: models.ReferenceModelPitch},
	})
}

// RequestMeeting asks recipient for a meeting, optionally about a pitch or review.
func (e *Engine) RequestMeeting(ctx context.Context, actor, recipient primitive.ObjectID, ref *models.Reference) (*models.Notification, error) {
	return e.CreateRequest(ctx, RequestInput{
		Actor:     actor,
		Recipient: recipient,
		Family:    models.FamilyMeeting,
		Reference: ref,
	})
}

// CreateRequest raises a new request. The recipient gets an actionable
// notification and the actor a "sent" copy. The recipient's notification is
// returned.
func (e *Engine) CreateRequest(ctx context.Context, in RequestInput) (*models.Notification, error) {
	n, err := e.createRequest(ctx, in)
	if err != nil {
		if kind := KindOf(err); kind != KindInternal {
			metrics.RequestsRefused.WithLabelValues(string(in.Family), string(kind)).Inc()
		}
		return nil, err
	}
	metrics.RequestsCreated.WithLabelValues(string(in.Family)).Inc()
	return n, nil
}

func (e *Engine) createRequest(ctx context.Context, in RequestInput) (*models.Notification, error) {
	rc, err := e.validateRequest(ctx, in)
	if err != nil {
		return nil, err
	}

	key := store.PendingKey{
		Recipient: rc.recipient.Id,
		Actor:     rc.actor.Id,
		Family:    rc.spec.Name,
		Reference: rc.reference,
	}
	if _, err := e.notifications.FindPending(ctx, key); err == nil {
		return nil, newError(KindDuplicate, "a request is already pending")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, e.internal("find pending request", err)
	}

	request := &models.Notification{
		Recipient:       rc.recipient.Id,
		Actor:           rc.actor.Id,
		Type:            rc.spec.Request,
		Family:          rc.spec.Name,
		ActionStatus:    models.ActionStatusRequired,
		ReferenceObject: rc.reference,
		Payload:         in.Payload,
	}
	sent := &models.Notification{
		Recipient:       rc.actor.Id,
		Actor:           rc.actor.Id,
		Type:            rc.spec.Sent,
		TemplateKey:     rc.spec.SentTemplate,
		Family:          rc.spec.Name,
		ReferenceObject: rc.reference,
	}

	// Each copy is rendered in its owner's locale.
	data := rc.templateData()
	if request.Message, err = e.render(request.RenderKey(), rc.recipient.Locale, data); err != nil {
		return nil, err
	}
	if sent.Message, err = e.render(sent.RenderKey(), rc.actor.Locale, data); err != nil {
		return nil, err
	}

	// The pending index closes the race between FindPending and the insert.
	if err := e.notifications.InsertRequestPair(ctx, request, sent); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, wrapError(KindDuplicate, "a request is already pending", err)
		}
		return nil, e.internal("store request notifications", err)
	}

	e.logger.Info("request created",
		zap.String("family", string(rc.spec.Name)),
		zap.String("notification_id", request.Id.Hex()),
		zap.String("actor_id", rc.actor.Id.Hex()),
		zap.String("recipient_id", rc.recipient.Id.Hex()),
	)
	e.notify(ctx, request)
	return request, nil
}

func (e *Engine) validateRequest(ctx context.Context, in RequestInput) (*requestContext, error) {
	spec, ok := models.LookupFamily(in.Family)
	if !ok {
		return nil, Invalid("unknown request family")
	}
	rc := &requestContext{spec: spec}

	if in.Reference != nil {
		if !spec.AllowsReference(in.Reference.ReferenceModel) {
			return nil, Invalid("reference model not allowed for this request")
		}
		ref := *in.Reference
		rc.reference = &ref
	} else if spec.ReferenceNeeded {
		return nil, Invalid("request needs a reference")
	}

	recipientID := in.Recipient
	if spec.Kind == models.FamilyKindPitchDeck {
		pitch, err := e.deckPitch(ctx, rc.reference.Reference, in.Actor)
		if err != nil {
			return nil, err
		}
		rc.pitch = pitch
		recipientID = pitch.Owner
	}

	if in.Actor == recipientID {
		return nil, Invalid("cannot send a request to yourself")
	}

	actor, err := e.findUser(ctx, in.Actor)
	if err != nil {
		return nil, err
	}
	recipient, err := e.findUser(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	rc.actor, rc.recipient = actor, recipient

	if !spec.AllowsRecipient(recipient.Role) {
		return nil, Forbidden("recipient cannot accept this kind of request")
	}
	if !spec.AllowsActor(actor.Role) {
		return nil, Forbidden("your role cannot send this kind of request")
	}

	if rc.reference != nil && rc.pitch == nil {
		if err := e.resolveReference(ctx, rc); err != nil {
			return nil, err
		}
	}

	if spec.Kind == models.FamilyKindConnection {
		exists, err := e.connections.Exists(ctx, actor.Id, recipient.Id, spec.ConnectionType)
		if err != nil {
			return nil, e.internal("check connection", err)
		}
		if exists {
			return nil, newError(KindDuplicate, "users are already connected")
		}
	}
	return rc, nil
}

// deckPitch loads a pitch whose deck actor may request.
func (e *Engine) deckPitch(ctx context.Context, pitchID, actor primitive.ObjectID) (*models.Pitch, error) {
	pitch, err := e.findPitch(ctx, pitchID)
	if err != nil {
		return nil, err
	}
	if err := checkPitchOpen(pitch, actor); err != nil {
		return nil, err
	}
	if pitch.HasDeckAccess(actor) {
		return nil, IllegalState("deck already shared with you")
	}
	return pitch, nil
}

// checkPitchOpen reports whether requester may still ask about pitch.
// Drafts are only visible to their owner.
func checkPitchOpen(pitch *models.Pitch, requester primitive.ObjectID) error {
	switch {
	case pitch.Status == models.PitchStatusDraft && pitch.Owner != requester:
		return NotFound("pitch not found")
	case pitch.Status == models.PitchStatusArchived:
		return IllegalState("pitch is archived")
	}
	return nil
}

func (e *Engine) resolveReference(ctx context.Context, rc *requestContext) error {
	if rc.reference.ReferenceModel == models.ReferenceModelPitch {
		pitch, err := e.findPitch(ctx, rc.reference.Reference)
		if err != nil {
			return err
		}
		if err := checkPitchOpen(pitch, rc.actor.Id); err != nil {
			return err
		}
		rc.pitch = pitch
		return nil
	}
	return e.resolveExternal(ctx, *rc.reference)
}

// resolveExternal checks that a non-pitch reference still points at something.
func (e *Engine) resolveExternal(ctx context.Context, ref models.Reference) error {
	if e.references == nil {
		return nil
	}
	_, err := e.references.Resolve(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		return NotFound("referenced object not found")
	}
	if err != nil {
		return e.internal("resolve reference", err)
	}
	return nil
}
