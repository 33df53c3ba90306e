package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/Backend-Pitch-Review/src/controllers"
)

// NotificationRoutes sets up the inbox, decisions on requests and push preferences
func NotificationRoutes(app *fiber.App, protect fiber.Handler, ctl *controllers.NotificationController) {
	notification := app.Group("/notification", protect)

	notification.Get("/", ctl.GetNotifications)
	notification.Put("/preferences", ctl.UpdatePreferences)
	notification.Post("/:id/accepted", ctl.Accept)
	notification.Post("/:id/rejected", ctl.Reject)
	notification.Post("/:id/read", ctl.MarkAsRead)
}

func DeviceRoutes(app *fiber.App, protect fiber.Handler, ctl *controllers.DeviceController) {
	device := app.Group("/device", protect)

	device.Post("/", ctl.RegisterDevice)
	device.Delete("/:token", ctl.UnregisterDevice)
}
