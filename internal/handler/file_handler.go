package handler

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/JetsadaSomporn/docverify-api/internal/storage"
	"github.com/JetsadaSomporn/docverify-api/internal/utils"
)

// FileHandler serves stored documents back to authenticated users.
type FileHandler struct {
	store  *storage.LocalStore
	logger zerolog.Logger
}

// NewFileHandler constructs the handler.
func NewFileHandler(store *storage.LocalStore, logger zerolog.Logger) *FileHandler {
	return &FileHandler{
		store:  store,
		logger: logger.With().Str("component", "file_handler").Logger(),
	}
}

// Register attaches the download endpoint to the router group.
func (h *FileHandler) Register(router fiber.Router) {
	router.Get("/:name", h.download)
}

// download streams a stored file as an attachment. The stored name is opaque;
// lookup tries the known storage subdirectories.
func (h *FileHandler) download(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "file name is required")
	}

	full, err := h.store.Resolve(name)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "file not found")
		}
		return utils.SendError(c, fiber.StatusBadRequest, "invalid file name")
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filepath.Base(full)))
	return c.SendFile(full)
}
