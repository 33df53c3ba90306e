package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/theleywin/Backend-Pitch-Review/src/lib"
	"github.com/theleywin/Backend-Pitch-Review/src/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var kindStatus = map[services.Kind]int{
	services.KindNotFound:      fiber.StatusNotFound,
	services.KindForbidden:     fiber.StatusForbidden,
	services.KindDuplicate:     fiber.StatusUnprocessableEntity,
	services.KindIllegalState:  fiber.StatusNotAcceptable,
	services.KindUnprocessable: fiber.StatusUnprocessableEntity,
	services.KindInvalid:       fiber.StatusUnprocessableEntity,
	services.KindBadRequest:    fiber.StatusBadRequest,
	services.KindUnauthorized:  fiber.StatusUnauthorized,
}

// StatusFor maps an engine error kind to its HTTP status.
func StatusFor(kind services.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler writes every failure in the errors envelope. Internal errors
// are logged and reported without detail.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var svcErr *services.Error
		if errors.As(err, &svcErr) && svcErr.Kind != services.KindInternal {
			return c.Status(StatusFor(svcErr.Kind)).
				JSON(lib.ErrorResponse(string(svcErr.Kind), svcErr.Message))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).
				JSON(lib.ErrorResponse(codeForStatus(fiberErr.Code), fiberErr.Message))
		}

		logger.Error("unhandled error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).
			JSON(lib.ErrorResponse(string(services.KindInternal), "internal server error"))
	}
}

// codeForStatus turns e.g. 404 into NOT_FOUND.
func codeForStatus(status int) string {
	return strings.ToUpper(strings.ReplaceAll(utils.StatusMessage(status), " ", "_"))
}

func objectIDParam(c *fiber.Ctx, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Params(name))
	if err != nil {
		return primitive.NilObjectID, services.BadRequest("invalid " + name)
	}
	return id, nil
}
