package middleware

import (
	"github.com/gofiber/fiber/v2"

	"donorlink/internal/domain"
)

// RequireRole guards a route for exactly one role. Roles here are flat actor
// categories, not an escalation hierarchy.
func RequireRole(required domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := GetCurrentSession(c)
		if sess == nil {
			return Unauthorized("Session not found")
		}

		if sess.Role != required {
			return Forbidden("Insufficient permissions for this operation")
		}

		return c.Next()
	}
}

func RequireAnyRole(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := GetCurrentSession(c)
		if sess == nil {
			return Unauthorized("Session not found")
		}

		for _, role := range roles {
			if sess.Role == role {
				return c.Next()
			}
		}

		return Forbidden("Insufficient permissions for this operation")
	}
}

func GetCurrentRole(c *fiber.Ctx) domain.Role {
	sess := GetCurrentSession(c)
	if sess == nil {
		return ""
	}
	return sess.Role
}
