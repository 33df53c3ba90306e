package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/theleywin/Backend-Pitch-Review/src/controllers"
)

func SystemRoutes(app *fiber.App, health *controllers.HealthController) {
	app.Get("/health", health.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
