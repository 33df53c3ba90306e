package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

type Pinger func(ctx context.Context) error

type HealthController struct {
	ping Pinger
}

func NewHealthController(ping Pinger) *HealthController {
	return &HealthController{ping: ping}
}

// Health reports whether the document store answers.
func (ctl *HealthController) Health(c *fiber.Ctx) error {
	if ctl.ping != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := ctl.ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
