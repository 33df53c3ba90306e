package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/Backend-Pitch-Review/src/lib"
	"github.com/theleywin/Backend-Pitch-Review/src/middleware"
	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"github.com/theleywin/Backend-Pitch-Review/src/services"
)

type ConnectionController struct {
	engine *services.Engine
}

func NewConnectionController(engine *services.Engine) *ConnectionController {
	return &ConnectionController{engine: engine}
}

// SendConnectionRequest asks the user in the path to connect with the caller
func (ctl *ConnectionController) SendConnectionRequest(c *fiber.Ctx) error {
	// Get target user ID from params
	targetUserID, err := objectIDParam(c, "userId")
	if err != nil {
		return err
	}
	// Get authenticated user from middleware
	user := middleware.CurrentUser(c)

	// The engine checks roles, self requests and existing connections
	notification, err := ctl.engine.RequestConnection(c.UserContext(), user.Id, targetUserID, models.ConnectionType(c.Params("type")))
	if err != nil {
		return err
	}
	return c.JSON(lib.PayloadResponse(notification))
}

// GetUserConnections lists the caller's accepted connections of a type
func (ctl *ConnectionController) GetUserConnections(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	connections, err := ctl.engine.ListConnections(c.UserContext(), user.Id, models.ConnectionType(c.Params("type")))
	if err != nil {
		return err
	}
	return c.JSON(lib.PayloadResponse(connections))
}

// GetConnectionsBetween lists accepted connections of a type between the
// caller and another user
func (ctl *ConnectionController) GetConnectionsBetween(c *fiber.Ctx) error {
	otherUserID, err := objectIDParam(c, "userId")
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)

	connections, err := ctl.engine.ListConnectionsBetween(c.UserContext(), user.Id, otherUserID, models.ConnectionType(c.Params("type")))
	if err != nil {
		return err
	}
	return c.JSON(lib.PayloadResponse(connections))
}
