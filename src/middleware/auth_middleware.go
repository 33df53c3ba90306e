package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/Backend-Pitch-Review/src/lib"
	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"github.com/theleywin/Backend-Pitch-Review/src/services"
	"github.com/theleywin/Backend-Pitch-Review/src/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const UserKey = "user"

type UserFinder interface {
	FindUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// ProtectRoute checks for a valid bearer token, loads the user it was issued
// for and attaches it to the request context
func ProtectRoute(users UserFinder, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return services.Unauthorized("no token provided")
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			return services.Unauthorized("invalid token format")
		}

		userID, err := lib.UserIDFromToken(token, secret)
		if err != nil {
			return services.Unauthorized("invalid token")
		}

		user, err := users.FindUser(c.UserContext(), userID)
		if errors.Is(err, store.ErrNotFound) {
			return services.Unauthorized("user not found")
		}
		if err != nil {
			return err
		}

		c.Locals(UserKey, *user)
		return c.Next()
	}
}

// CurrentUser returns the user attached by ProtectRoute.
func CurrentUser(c *fiber.Ctx) models.User {
	user, _ := c.Locals(UserKey).(models.User)
	return user
}
