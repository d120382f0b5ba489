package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/JetsadaSomporn/docverify-api/internal/config"
	"github.com/JetsadaSomporn/docverify-api/internal/handler"
	"github.com/JetsadaSomporn/docverify-api/internal/middleware"
	"github.com/JetsadaSomporn/docverify-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	SubjectHandler      *handler.SubjectHandler
	GroupHandler        *handler.GroupHandler
	AssignmentHandler   *handler.AssignmentHandler
	SubmissionHandler   *handler.SubmissionHandler
	DashboardHandler    *handler.DashboardHandler
	NotificationHandler *handler.NotificationHandler
	FileHandler         *handler.FileHandler
}

// Register wires the HTTP routes into the fiber application. Every route
// lives under an explicit role-scoped prefix; the session middleware runs on
// everything except the public auth endpoints.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	session := middleware.SessionProtected(cfg.SessionSecret)

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		auth.Use("/login", middleware.LoginRateLimit())
		deps.AuthHandler.Register(auth)
		deps.AuthHandler.RegisterProtected(api.Group("/auth", session))
	}

	admin := api.Group("/admin", session, middleware.RequireRole("admin"))
	if deps.UserHandler != nil {
		deps.UserHandler.Register(admin.Group("/users"))
	}
	if deps.SubjectHandler != nil {
		deps.SubjectHandler.Register(admin.Group("/subjects"))
	}
	if deps.GroupHandler != nil {
		deps.GroupHandler.Register(admin)
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(admin)
	}
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.RegisterAdmin(admin)
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(admin)
	}

	teacher := api.Group("/teacher", session, middleware.RequireRole("teacher", "admin"))
	if deps.SubjectHandler != nil {
		deps.SubjectHandler.RegisterReadOnly(teacher.Group("/subjects"))
	}
	if deps.GroupHandler != nil {
		deps.GroupHandler.RegisterTeacher(teacher)
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.RegisterReadOnly(teacher)
	}
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.RegisterTeacher(teacher)
	}

	student := api.Group("/student", session, middleware.RequireRole("student", "admin"))
	if deps.GroupHandler != nil {
		deps.GroupHandler.RegisterStudent(student)
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.RegisterReadOnly(student)
	}
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.RegisterStudent(student)
	}

	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications", session))
	}
	if deps.FileHandler != nil {
		deps.FileHandler.Register(api.Group("/files", session))
	}
}
