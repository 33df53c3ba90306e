package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/Backend-Pitch-Review/src/lib"
	"github.com/theleywin/Backend-Pitch-Review/src/middleware"
	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"github.com/theleywin/Backend-Pitch-Review/src/services"
)

type UserController struct {
	engine *services.Engine
}

func NewUserController(engine *services.Engine) *UserController {
	return &UserController{engine: engine}
}

type meetingRequestBody struct {
	ReferenceObject *models.Reference `json:"referenceObject"`
}

// RequestMeeting asks the user in the path for a meeting. The body may point
// at the pitch or review the meeting is about.
func (ctl *UserController) RequestMeeting(c *fiber.Ctx) error {
	// Get target user ID from params
	targetUserID, err := objectIDParam(c, "userId")
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)

	// Parse the optional reference
	var body meetingRequestBody
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return services.BadRequest("invalid request body")
		}
	}
	if body.ReferenceObject != nil && !body.ReferenceObject.ReferenceModel.Valid() {
		return services.Invalid("unknown reference model")
	}

	notification, err := ctl.engine.RequestMeeting(c.UserContext(), user.Id, targetUserID, body.ReferenceObject)
	if err != nil {
		return err
	}
	return c.JSON(lib.PayloadResponse(notification))
}
