// Package middleware holds the HTTP middleware stack.
package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"assistant_server/pkg/apperr"
	"assistant_server/pkg/response"
)

// UserKeyLocal is the fiber locals key carrying the authenticated user.
const UserKeyLocal = "userKey"

// Auth validates the bearer token and stores the subject as the user key.
func Auth(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return response.FromError(c, apperr.Unauthorized("missing authorization header"))
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			return response.FromError(c, apperr.Unauthorized("malformed authorization header"))
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			return response.FromError(c, apperr.Unauthorized("invalid token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return response.FromError(c, apperr.Unauthorized("invalid claims"))
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			return response.FromError(c, apperr.Unauthorized("token has no subject"))
		}

		c.Locals(UserKeyLocal, sub)
		return c.Next()
	}
}

// UserKey returns the authenticated user key for the request.
func UserKey(c *fiber.Ctx) string {
	key, _ := c.Locals(UserKeyLocal).(string)
	return key
}
