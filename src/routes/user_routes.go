package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/Backend-Pitch-Review/src/controllers"
)

func UserRoutes(app *fiber.App, protect fiber.Handler, ctl *controllers.UserController) {
	user := app.Group("/user", protect)
	user.Put("/meeting/:userId", ctl.RequestMeeting)
}

func PitchRoutes(app *fiber.App, protect fiber.Handler, ctl *controllers.PitchController) {
	pitch := app.Group("/pitch", protect)
	pitch.Put("/:pitchId/deck/request", ctl.RequestDeck)
}
