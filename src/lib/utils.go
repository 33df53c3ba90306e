package lib

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidToken = errors.New("invalid token")

// Returns a map with a message key for API responses
func MessageResponse(message string) fiber.Map {
	return fiber.Map{
		"message": message,
	}
}

// Wraps a successful result in the payload envelope
func PayloadResponse(payload any) fiber.Map {
	return fiber.Map{
		"payload": payload,
	}
}

type ErrorItem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Wraps a failure in the errors envelope
func ErrorResponse(code, message string) fiber.Map {
	return fiber.Map{
		"errors": []ErrorItem{{Code: code, Message: message}},
	}
}

// Generates a JWT token for the given user ID
func GenerateJWT(userID primitive.ObjectID, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userId": userID.Hex(),
		"exp":    time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Verifies and decodes a JWT token, returning its claims
func VerifyJWT(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// Verifies a token and returns the user ID it was issued for
func UserIDFromToken(tokenString, secret string) (primitive.ObjectID, error) {
	claims, err := VerifyJWT(tokenString, secret)
	if err != nil {
		return primitive.NilObjectID, err
	}
	userID, ok := claims["userId"].(string)
	if !ok {
		return primitive.NilObjectID, ErrInvalidToken
	}
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidToken
	}
	return id, nil
}
