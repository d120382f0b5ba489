package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/JetsadaSomporn/docverify-api/internal/utils"
)

// RequireRole ensures that the authenticated user's role set intersects the
// allowed roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		if normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		for _, role := range RolesFromContext(c) {
			if _, ok := allowed[role]; ok {
				return c.Next()
			}
		}
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}
}

// RolesFromContext returns the role set attached by the session middleware.
func RolesFromContext(c *fiber.Ctx) []string {
	value := c.Locals("user_roles")
	switch v := value.(type) {
	case []string:
		return v
	case string:
		role := strings.ToLower(strings.TrimSpace(v))
		if role == "" {
			return nil
		}
		return []string{role}
	default:
		return nil
	}
}

// HasRole reports whether the request's role set contains the given role.
func HasRole(c *fiber.Ctx, role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	for _, r := range RolesFromContext(c) {
		if r == role {
			return true
		}
	}
	return false
}
