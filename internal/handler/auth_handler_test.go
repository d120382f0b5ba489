package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/JetsadaSomporn/docverify-api/internal/dto"
	"github.com/JetsadaSomporn/docverify-api/internal/handler"
	"github.com/JetsadaSomporn/docverify-api/internal/middleware"
	"github.com/JetsadaSomporn/docverify-api/internal/models"
	"github.com/JetsadaSomporn/docverify-api/internal/repository"
	"github.com/JetsadaSomporn/docverify-api/internal/service"
)

const testSessionSecret = "test-secret"

func setupAuthApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db := openTestDB(t)
	validate := testValidator()
	logger := testLogger()

	userRepo := repository.NewUserRepository(db)
	authService := service.NewAuthService(userRepo, nil, validate, testSessionSecret, logger)
	userService := service.NewUserService(userRepo, validate, logger)
	authHandler := handler.NewAuthHandler(authService, userService, validate, false, logger)

	app := fiber.New()
	auth := app.Group("/api/auth")
	authHandler.Register(auth)
	protected := app.Group("/api/auth", middleware.SessionProtected(testSessionSecret))
	authHandler.RegisterProtected(protected)

	return app, db
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()

	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.SessionCookieName {
			return cookie
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestAuthRegisterLoginAndMe(t *testing.T) {
	app, _ := setupAuthApp(t)

	registerReq := jsonRequest(t, "POST", "/api/auth/register", dto.RegisterRequest{
		Email:     "somchai@kkumail.com",
		Password:  "correct-horse",
		FirstName: "Somchai",
		LastName:  "Dee",
		StudentID: "65-3021-112-2",
		Track:     "BIT",
	})
	resp, err := app.Test(registerReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var registerBody struct {
		Success bool                `json:"success"`
		Data    dto.SessionResponse `json:"data"`
	}
	cookie := sessionCookie(t, resp)
	decodeResponse(t, resp, &registerBody)
	require.True(t, registerBody.Success)
	require.NotEmpty(t, registerBody.Data.Token)
	require.Equal(t, "6530211122", registerBody.Data.User.StudentID)
	require.Contains(t, registerBody.Data.User.Roles, "student")

	meReq := httptest.NewRequest("GET", "/api/auth/me", nil)
	meReq.AddCookie(cookie)
	meResp, err := app.Test(meReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, meResp.StatusCode)

	var meBody struct {
		Data dto.UserResponse `json:"data"`
	}
	decodeResponse(t, meResp, &meBody)
	require.Equal(t, "somchai@kkumail.com", meBody.Data.Email)

	loginReq := jsonRequest(t, "POST", "/api/auth/login", dto.LoginRequest{
		Email:    "somchai@kkumail.com",
		Password: "correct-horse",
	})
	loginResp, err := app.Test(loginReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, loginResp.StatusCode)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	app, _ := setupAuthApp(t)

	registerReq := jsonRequest(t, "POST", "/api/auth/register", dto.RegisterRequest{
		Email:     "somchai@kkumail.com",
		Password:  "correct-horse",
		FirstName: "Somchai",
		LastName:  "Dee",
		StudentID: "6530211122",
	})
	resp, err := app.Test(registerReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	loginReq := jsonRequest(t, "POST", "/api/auth/login", dto.LoginRequest{
		Email:    "somchai@kkumail.com",
		Password: "wrong",
	})
	loginResp, err := app.Test(loginReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, loginResp.StatusCode)
}

func TestAuthLoginOAuthOnlyAccount(t *testing.T) {
	app, db := setupAuthApp(t)

	require.NoError(t, db.Create(&models.User{
		Email:     "ajarn@kku.ac.th",
		FirstName: "Preecha",
		LastName:  "Kan",
		Roles:     []string{"staff"},
	}).Error)

	loginReq := jsonRequest(t, "POST", "/api/auth/login", dto.LoginRequest{
		Email:    "ajarn@kku.ac.th",
		Password: "anything",
	})
	resp, err := app.Test(loginReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	decodeResponse(t, resp, &body)
	require.Contains(t, body.Error, "no password set")
}

func TestAuthRegisterRejectsStaffDomain(t *testing.T) {
	app, _ := setupAuthApp(t)

	req := jsonRequest(t, "POST", "/api/auth/register", dto.RegisterRequest{
		Email:     "ajarn@kku.ac.th",
		Password:  "correct-horse",
		FirstName: "Preecha",
		LastName:  "Kan",
		StudentID: "6530211122",
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAuthMeWithoutSession(t *testing.T) {
	app, _ := setupAuthApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/auth/me", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthGoogleUnavailableWithoutConfig(t *testing.T) {
	app, _ := setupAuthApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/auth/google", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestAuthLogoutClearsCookie(t *testing.T) {
	app, _ := setupAuthApp(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/auth/logout", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	cookie := sessionCookie(t, resp)
	require.Empty(t, cookie.Value)
}
