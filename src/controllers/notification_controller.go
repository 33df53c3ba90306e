package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/Backend-Pitch-Review/src/lib"
	"github.com/theleywin/Backend-Pitch-Review/src/middleware"
	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"github.com/theleywin/Backend-Pitch-Review/src/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PreferenceStore interface {
	SetPushEnabled(ctx context.Context, id primitive.ObjectID, enabled bool) error
}

type NotificationController struct {
	engine      *services.Engine
	preferences PreferenceStore
}

func NewNotificationController(engine *services.Engine, preferences PreferenceStore) *NotificationController {
	return &NotificationController{engine: engine, preferences: preferences}
}

// GetNotifications returns the caller's notifications and badge count
func (ctl *NotificationController) GetNotifications(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	list, err := ctl.engine.ListForUser(c.UserContext(), user.Id)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// Accept and Reject answer an actionable notification. Accept takes an
// optional {"value": ...} body, e.g. the deck link being shared.
func (ctl *NotificationController) Accept(c *fiber.Ctx) error {
	return ctl.respond(c, services.DecisionAccepted)
}

func (ctl *NotificationController) Reject(c *fiber.Ctx) error {
	return ctl.respond(c, services.DecisionRejected)
}

func (ctl *NotificationController) respond(c *fiber.Ctx, decision services.Decision) error {
	// Get notification ID from params
	notificationID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)

	// Body is optional, reject ignores it
	var payload *models.Payload
	if len(c.Body()) > 0 {
		payload = new(models.Payload)
		if err := c.BodyParser(payload); err != nil {
			return services.BadRequest("invalid request body")
		}
	}

	// Hand the decision to the engine, its errors carry the status
	confirmation, err := ctl.engine.Respond(c.UserContext(), services.RespondInput{
		NotificationID: notificationID,
		UserID:         user.Id,
		Decision:       decision,
		Payload:        payload,
	})
	if err != nil {
		return err
	}
	return c.JSON(lib.PayloadResponse(confirmation))
}

// MarkAsRead marks one of the caller's notifications as read
func (ctl *NotificationController) MarkAsRead(c *fiber.Ctx) error {
	notificationID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)

	notification, err := ctl.engine.MarkRead(c.UserContext(), notificationID, user.Id)
	if err != nil {
		return err
	}
	return c.JSON(lib.PayloadResponse(notification))
}

type preferencesBody struct {
	PushEnabled *bool `json:"pushEnabled"`
}

// UpdatePreferences turns push delivery on or off for the caller
func (ctl *NotificationController) UpdatePreferences(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	// Check if the flag was sent
	var body preferencesBody
	if err := c.BodyParser(&body); err != nil || body.PushEnabled == nil {
		return services.BadRequest("pushEnabled is required")
	}
	if err := ctl.preferences.SetPushEnabled(c.UserContext(), user.Id, *body.PushEnabled); err != nil {
		return err
	}
	return c.JSON(lib.PayloadResponse(fiber.Map{"pushEnabled": *body.PushEnabled}))
}
