package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/theleywin/Backend-Pitch-Review/src/controllers"
	"github.com/theleywin/Backend-Pitch-Review/src/middleware"
	"go.uber.org/zap"
)

type Handlers struct {
	Protect       fiber.Handler
	Connections   *controllers.ConnectionController
	Users         *controllers.UserController
	Pitches       *controllers.PitchController
	Notifications *controllers.NotificationController
	Devices       *controllers.DeviceController
	Health        *controllers.HealthController
}

// NewApp builds the fiber app with the shared middleware stack.
func NewApp(logger *zap.Logger, allowOrigins string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "pitch-review",
		ErrorHandler: controllers.ErrorHandler(logger),
	})

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(middleware.RequestLogger(logger))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	return app
}

// Register mounts every route group.
func Register(app *fiber.App, h Handlers) {
	SystemRoutes(app, h.Health)
	ConnectionRoutes(app, h.Protect, h.Connections)
	UserRoutes(app, h.Protect, h.Users)
	PitchRoutes(app, h.Protect, h.Pitches)
	NotificationRoutes(app, h.Protect, h.Notifications)
	DeviceRoutes(app, h.Protect, h.Devices)
}
