package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func sessionTestApp(secret string) *fiber.App {
	app := fiber.New()
	app.Use(SessionProtected(secret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals("user_id"),
			"roles":   c.Locals("user_roles"),
		})
	})
	return app
}

func TestSessionProtectedAcceptsCookie(t *testing.T) {
	token, err := IssueSessionToken("secret", SessionClaims{
		UserID: 7, Roles: []string{"student"}, LastName: "Dee",
	}, time.Now())
	require.NoError(t, err)

	app := sessionTestApp("secret")
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSessionProtectedAcceptsBearerHeader(t *testing.T) {
	token, err := IssueSessionToken("secret", SessionClaims{UserID: 7, Roles: []string{"admin"}}, time.Now())
	require.NoError(t, err)

	app := sessionTestApp("secret")
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSessionProtectedRejectsMissingToken(t *testing.T) {
	app := sessionTestApp("secret")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSessionProtectedRejectsWrongSecret(t *testing.T) {
	token, err := IssueSessionToken("other-secret", SessionClaims{UserID: 7}, time.Now())
	require.NoError(t, err)

	app := sessionTestApp("secret")
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSessionProtectedRejectsExpiredToken(t *testing.T) {
	token, err := IssueSessionToken("secret", SessionClaims{UserID: 7}, time.Now().Add(-2*SessionTTL))
	require.NoError(t, err)

	app := sessionTestApp("secret")
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSessionClaimsRoundTrip(t *testing.T) {
	now := time.Now()
	token, err := IssueSessionToken("secret", SessionClaims{
		UserID: 42, Roles: []string{"teacher", "admin"}, LastName: "Kan",
	}, now)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(SessionProtected("secret"))
	app.Get("/", func(c *fiber.Ctx) error {
		require.Equal(t, uint(42), c.Locals("user_id"))
		require.Equal(t, []string{"teacher", "admin"}, c.Locals("user_roles"))
		require.Equal(t, "Kan", c.Locals("user_last_name"))
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
