package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/Backend-Pitch-Review/src/controllers"
)

// ConnectionRoutes sets up routes for requesting connections and listing accepted ones
func ConnectionRoutes(app *fiber.App, protect fiber.Handler, ctl *controllers.ConnectionController) {
	connection := app.Group("/connection", protect)

	connection.Put("/:type/:userId", ctl.SendConnectionRequest)
	connection.Get("/:type", ctl.GetUserConnections)
	connection.Get("/:userId/:type", ctl.GetConnectionsBetween)
}
