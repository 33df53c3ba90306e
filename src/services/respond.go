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

type Decision string

const (
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

func (d Decision) Valid() bool {
	return d == DecisionAccepted || d == DecisionRejected
}

type RespondInput struct {
	NotificationID primitive.ObjectID
	UserID         primitive.ObjectID
	Decision       Decision
	Payload        *models.Payload
}

// Respond accepts or rejects an actionable notification owned by the caller.
// The decision is terminal. The responder's confirmation is returned.
func (e *Engine) Respond(ctx context.Context, in RespondInput) (*models.Notification, error) {
	// Only the recipient may answer, and only once
	n, err := e.ownedNotification(ctx, in.NotificationID, in.UserID)
	if err != nil {
		return nil, err
	}
	if !in.Decision.Valid() {
		return nil, IllegalState("unknown decision")
	}
	if !n.Actionable() {
		return nil, IllegalState("notification was already responded to")
	}
	spec, ok := models.LookupFamily(n.Family)
	if !ok {
		return nil, IllegalState("notification is not a request")
	}

	requester, err := e.findUser(ctx, n.Actor)
	if err != nil {
		return nil, err
	}
	responder, err := e.findUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	accepted := in.Decision == DecisionAccepted
	data := templates.Context{
		templates.KeyRequesterName: requester.DisplayName(),
		templates.KeyResponderName: responder.DisplayName(),
		templates.KeyPitchTitle:    "",
		templates.KeyLink:          "",
	}
	payload := in.Payload
	if payload != nil && payload.Value == "" {
		payload = nil
	}

	var pitch *models.Pitch
	if n.ReferenceObject != nil && n.ReferenceObject.ReferenceModel == models.ReferenceModelPitch {
		pitch, err = e.findPitch(ctx, n.ReferenceObject.Reference)
		if err != nil {
			return nil, err
		}
		data[templates.KeyPitchTitle] = pitch.Title
	}

	if accepted {
		// The referenced object may have changed since the request was made
		if err := e.revalidateReference(ctx, n, pitch); err != nil {
			return nil, err
		}

		// Accepting a deck or meeting request has to hand over a link
		switch spec.Kind {
		case models.FamilyKindPitchDeck:
			if pitch == nil {
				return nil, Unprocessable("request has no pitch")
			}
			if payload == nil && pitch.DeckURL != "" {
				payload = &models.Payload{Value: pitch.DeckURL}
			}
			if payload == nil {
				return nil, Unprocessable("a deck link is required to accept")
			}
		case models.FamilyKindMeeting:
			if payload == nil && responder.SchedulingLink != "" {
				payload = &models.Payload{Value: responder.SchedulingLink}
			}
			if payload == nil {
				return nil, Unprocessable("a scheduling link is required to accept")
			}
		}
	}
	if payload != nil {
		data[templates.KeyLink] = payload.Value
	}

	confirmation := &models.Notification{
		Recipient:       responder.Id,
		Actor:           responder.Id,
		Type:            spec.RejectedConfirmation,
		Family:          spec.Name,
		ReferenceObject: n.ReferenceObject,
	}
	result := &models.Notification{
		Recipient:       requester.Id,
		Actor:           responder.Id,
		Type:            spec.Rejected,
		TemplateKey:     spec.RejectedTemplate,
		Family:          spec.Name,
		ReferenceObject: n.ReferenceObject,
		Payload:         payload,
	}
	if accepted {
		confirmation.Type = spec.AcceptedConfirmation
		result.Type, result.TemplateKey = spec.Accepted, spec.AcceptedTemplate
	}

	// Render before the transition so a template error leaves the request pending
	if confirmation.Message, err = e.render(confirmation.RenderKey(), responder.Locale, data); err != nil {
		return nil, err
	}
	if result.Message, err = e.render(result.RenderKey(), requester.Locale, data); err != nil {
		return nil, err
	}

	// Losing a concurrent response shows up here as ErrNotPending
	if _, err := e.notifications.Complete(ctx, n.Id, in.UserID); err != nil {
		if errors.Is(err, store.ErrNotPending) {
			return nil, wrapError(KindIllegalState, "notification was already responded to", err)
		}
		return nil, e.internal("complete notification", err)
	}

	if accepted {
		ref, err := e.applyAcceptance(ctx, spec, n, pitch)
		if err != nil {
			e.reopen(ctx, n)
			return nil, err
		}
		if ref != nil {
			confirmation.ReferenceObject, result.ReferenceObject = ref, ref
		}
	}

	if err := e.notifications.Insert(ctx, confirmation, result); err != nil {
		e.reopen(ctx, n)
		return nil, e.internal("store response notifications", err)
	}

	metrics.RequestsResponded.WithLabelValues(string(spec.Name), string(in.Decision)).Inc()
	e.logger.Info("request answered",
		zap.String("family", string(spec.Name)),
		zap.String("decision", string(in.Decision)),
		zap.String("notification_id", n.Id.Hex()),
		zap.String("responder_id", responder.Id.Hex()),
	)

	e.notify(ctx, confirmation)
	e.notify(ctx, result)
	return confirmation, nil
}

// revalidateReference repeats the creation-time checks on the object a
// request points at. pitch is the already loaded target of a Pitch reference.
func (e *Engine) revalidateReference(ctx context.Context, n *models.Notification, pitch *models.Pitch) error {
	switch {
	case n.ReferenceObject == nil:
		return nil
	case pitch != nil:
		return checkPitchOpen(pitch, n.Actor)
	default:
		return e.resolveExternal(ctx, *n.ReferenceObject)
	}
}

// applyAcceptance runs the family's side effect and returns the reference the
// outcome notifications should carry, if it changes.
func (e *Engine) applyAcceptance(ctx context.Context, spec models.FamilySpec, n *models.Notification, pitch *models.Pitch) (*models.Reference, error) {
	switch spec.Kind {
	case models.FamilyKindConnection:
		conn, created, err := e.connections.CreateIfAbsent(ctx, n.Actor, n.Recipient, spec.ConnectionType)
		if err != nil {
			return nil, e.internal("create connection", err)
		}
		if created {
			e.logger.Info("connection created",
				zap.String("connection_id", conn.Id.Hex()),
				zap.String("type", string(conn.Type)),
			)
		}
		return &models.Reference{Reference: conn.Id, ReferenceModel: models.ReferenceModelUserConnection}, nil
	case models.FamilyKindPitchDeck:
		if err := e.pitches.GrantDeckAccess(ctx, pitch.Id, n.Actor); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, NotFound("pitch not found")
			}
			return nil, e.internal("grant deck access", err)
		}
	}
	return nil, nil
}

func (e *Engine) reopen(ctx context.Context, n *models.Notification) {
	if err := e.notifications.Reopen(ctx, n.Id, n.Recipient); err != nil {
		e.logger.Error("failed to reopen request",
			zap.String("notification_id", n.Id.Hex()), zap.Error(err))
	}
}
