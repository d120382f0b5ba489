package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/JetsadaSomporn/docverify-api/internal/middleware"
	"github.com/JetsadaSomporn/docverify-api/internal/service"
	"github.com/JetsadaSomporn/docverify-api/internal/utils"
)

// NotificationHandler serves the flagged-document polling feed.
type NotificationHandler struct {
	service service.NotificationService
	logger  zerolog.Logger
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.With().Str("component", "notification_handler").Logger(),
	}
}

// Register attaches the feed endpoint to the router group.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Get("", h.feed)
}

// feed scopes the result set by the caller's role: admins see everything,
// teachers see their advised groups, students see their own group.
func (h *NotificationHandler) feed(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var (
		feed interface{}
		err  error
	)
	switch {
	case middleware.HasRole(c, "admin"):
		feed, err = h.service.FeedForAdmin(c.Context())
	case middleware.HasRole(c, "teacher"):
		feed, err = h.service.FeedForAdvisor(c.Context(), userID)
	default:
		feed, err = h.service.FeedForStudent(c.Context(), userID)
	}
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "notifications retrieved", feed)
}
