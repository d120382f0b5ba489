package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/JetsadaSomporn/docverify-api/internal/utils"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "docverify_session"

// SessionTTL is how long an issued session token stays valid.
const SessionTTL = 24 * time.Hour

// SessionClaims is the payload carried by a session token.
type SessionClaims struct {
	UserID   uint
	Roles    []string
	LastName string
}

// IssueSessionToken signs a session token for the given claims.
func IssueSessionToken(secret string, claims SessionClaims, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       strconv.FormatUint(uint64(claims.UserID), 10),
		"roles":     claims.Roles,
		"last_name": claims.LastName,
		"iat":       now.Unix(),
		"exp":       now.Add(SessionTTL).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// SessionCookie builds the session cookie for a signed token.
func SessionCookie(token string, secure bool, now time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Expires:  now.Add(SessionTTL),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	}
}

// SessionProtected returns a middleware that validates session tokens taken
// from the Authorization header or the session cookie.
func SessionProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid session token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid session claims")
		}

		if userID := extractUserIDFromClaims(claims); userID != nil {
			c.Locals("user_id", *userID)
		}
		c.Locals("user_roles", extractRolesFromClaims(claims))
		if lastName, ok := claims["last_name"].(string); ok {
			c.Locals("user_last_name", lastName)
		}

		return c.Next()
	}
}

func tokenFromRequest(c *fiber.Ctx) string {
	authorization := c.Get("Authorization")
	const bearer = "Bearer "
	if strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
		if token := strings.TrimSpace(authorization[len(bearer):]); token != "" {
			return token
		}
	}

	return strings.TrimSpace(c.Cookies(SessionCookieName))
}

func extractUserIDFromClaims(claims jwt.MapClaims) *uint {
	keys := []string{"sub", "user_id", "id"}
	for _, key := range keys {
		if value, ok := claims[key]; ok {
			if normalized, err := normalizeUserID(value); err == nil {
				return &normalized
			}
		}
	}

	return nil
}

func normalizeUserID(value interface{}) (uint, error) {
	switch v := value.(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint(parsed), nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(v), nil
	default:
		return 0, fmt.Errorf("unsupported subject type")
	}
}

// extractRolesFromClaims collects the role set. Roles are a set, not an enum:
// a user can hold several tags simultaneously.
func extractRolesFromClaims(claims jwt.MapClaims) []string {
	for _, key := range []string{"roles", "role"} {
		value, ok := claims[key]
		if !ok {
			continue
		}
		if roles := normalizeRoles(value); len(roles) > 0 {
			return roles
		}
	}
	return []string{}
}

func normalizeRoles(value interface{}) []string {
	switch v := value.(type) {
	case string:
		role := strings.ToLower(strings.TrimSpace(v))
		if role == "" {
			return nil
		}
		return []string{role}
	case []string:
		roles := make([]string, 0, len(v))
		for _, item := range v {
			if role := strings.ToLower(strings.TrimSpace(item)); role != "" {
				roles = append(roles, role)
			}
		}
		return roles
	case []interface{}:
		roles := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				if role := strings.ToLower(strings.TrimSpace(str)); role != "" {
					roles = append(roles, role)
				}
			}
		}
		return roles
	default:
		return nil
	}
}
