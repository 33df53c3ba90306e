package controllers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/Backend-Pitch-Review/src/lib"
	"github.com/theleywin/Backend-Pitch-Review/src/middleware"
	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"github.com/theleywin/Backend-Pitch-Review/src/services"
	"github.com/theleywin/Backend-Pitch-Review/src/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DeviceRegistry interface {
	Register(ctx context.Context, userID primitive.ObjectID, token, platform string) (*models.Device, error)
	Unregister(ctx context.Context, userID primitive.ObjectID, token string) error
}

type DeviceController struct {
	devices DeviceRegistry
}

func NewDeviceController(devices DeviceRegistry) *DeviceController {
	return &DeviceController{devices: devices}
}

type registerDeviceBody struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// RegisterDevice records a device that should receive the caller's pushes
func (ctl *DeviceController) RegisterDevice(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var body registerDeviceBody
	if err := c.BodyParser(&body); err != nil {
		return services.BadRequest("invalid request body")
	}
	// Validate token
	body.Token = strings.TrimSpace(body.Token)
	if body.Token == "" {
		return services.BadRequest("token is required")
	}

	device, err := ctl.devices.Register(c.UserContext(), user.Id, body.Token, body.Platform)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(lib.PayloadResponse(device))
}

// UnregisterDevice stops pushes to one of the caller's devices
func (ctl *DeviceController) UnregisterDevice(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	// Only the owner can remove a device
	err := ctl.devices.Unregister(c.UserContext(), user.Id, c.Params("token"))
	if errors.Is(err, store.ErrNotFound) {
		return services.NotFound("device not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(lib.MessageResponse("Device removed"))
}
