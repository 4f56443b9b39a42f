package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"donorlink/internal/domain"
	"donorlink/internal/service/auth"
)

const (
	SessionContextKey = "session"
	UserIDContextKey  = "user_id"
)

// AuthRequired validates the bearer token and checks it against the active
// session: a token outliving its session (logout, re-login as someone else)
// is rejected.
func AuthRequired(authService auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "Missing authorization header",
			})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "Invalid authorization header format",
			})
		}

		claims, err := authService.ValidateAccessToken(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "Invalid or expired token",
			})
		}

		sess := authService.CurrentSession()
		if sess == nil || sess.UserID != claims.UserID {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "Session is no longer active",
			})
		}

		c.Locals(SessionContextKey, sess)
		c.Locals(UserIDContextKey, sess.UserID)

		return c.Next()
	}
}

func GetCurrentSession(c *fiber.Ctx) *domain.Session {
	sess, ok := c.Locals(SessionContextKey).(*domain.Session)
	if !ok {
		return nil
	}
	return sess
}

func GetCurrentUserID(c *fiber.Ctx) uuid.UUID {
	userID, ok := c.Locals(UserIDContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}
