package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/Backend-Pitch-Review/src/lib"
	"github.com/theleywin/Backend-Pitch-Review/src/middleware"
	"github.com/theleywin/Backend-Pitch-Review/src/services"
)

type PitchController struct {
	engine *services.Engine
}

func NewPitchController(engine *services.Engine) *PitchController {
	return &PitchController{engine: engine}
}

// RequestDeck asks the pitch owner to share the deck with the caller
func (ctl *PitchController) RequestDeck(c *fiber.Ctx) error {
	pitchID, err := objectIDParam(c, "pitchId")
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)

	notification, err := ctl.engine.RequestPitchDeck(c.UserContext(), user.Id, pitchID)
	if err != nil {
		return err
	}
	return c.JSON(lib.PayloadResponse(notification))
}
