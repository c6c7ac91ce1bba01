package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/davidokumbo/cyberdocs/internal/model"
	"github.com/davidokumbo/cyberdocs/internal/repository"
	"github.com/davidokumbo/cyberdocs/internal/upload"
	"github.com/davidokumbo/cyberdocs/pkg/logger"
)

// ServicesHandler serves the public service catalog and its admin CRUD.
type ServicesHandler struct {
	Services ServiceStore
	Files    *upload.Store
}

func NewServicesHandler(services ServiceStore, files *upload.Store) *ServicesHandler {
	return &ServicesHandler{Services: services, Files: files}
}

// uploadError maps upload rejections to their HTTP statuses.  Anything else
// from the upload store is a filesystem failure.
func uploadError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, upload.ErrUnsupportedType):
		return c.JSON(http.StatusUnsupportedMediaType, echo.Map{"error": "unsupported file type"})
	case errors.Is(err, upload.ErrTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
	default:
		lg := logger.Get()
		lg.Error().Err(err).Msg("upload failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
}

// List handles GET /api/services.
func (h *ServicesHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Services.List(ctx)
	if err != nil {
		lg := logger.Get()
		lg.Error().Err(err).Msg("services: list failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"services": items})
}

// Get handles GET /api/services/:id.
func (h *ServicesHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Services.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"service": s})
}

// Create handles POST /api/services (admin, multipart).  The image file is
// optional; a rejected one fails the request before any database write.
func (h *ServicesHandler) Create(c echo.Context) error {
	title := strings.TrimSpace(c.FormValue("title"))
	description := strings.TrimSpace(c.FormValue("description"))
	if title == "" || description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and description are required"})
	}
	longDescription := strings.TrimSpace(c.FormValue("long_description"))
	if longDescription == "" {
		longDescription = description
	}

	s := model.Service{
		Title:           title,
		Description:     description,
		LongDescription: &longDescription,
	}
	if fh, err := c.FormFile("image"); err == nil {
		path, err := h.Files.Save(fh, upload.ServiceImage)
		if err != nil {
			return uploadError(c, err)
		}
		s.ImagePath = &path
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	created, err := h.Services.Create(ctx, s)
	if err != nil {
		if s.ImagePath != nil {
			h.Files.Remove(*s.ImagePath)
		}
		lg := logger.Get()
		lg.Error().Err(err).Msg("services: create failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "service created successfully", "service": created})
}

// Update handles PUT /api/services/:id (admin, multipart).  Only supplied
// fields overwrite.  A replacement image is written first, then the row is
// updated, then the old file is removed, so a crash mid-update never leaves
// the row pointing at a deleted file.
func (h *ServicesHandler) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Services.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	if v := strings.TrimSpace(c.FormValue("title")); v != "" {
		s.Title = v
	}
	if v := strings.TrimSpace(c.FormValue("description")); v != "" {
		s.Description = v
	}
	if v := strings.TrimSpace(c.FormValue("long_description")); v != "" {
		s.LongDescription = &v
	}

	var oldImage *string
	if fh, err := c.FormFile("image"); err == nil {
		path, err := h.Files.Save(fh, upload.ServiceImage)
		if err != nil {
			return uploadError(c, err)
		}
		oldImage = s.ImagePath
		s.ImagePath = &path
	}

	updated, err := h.Services.Update(ctx, s)
	if err != nil {
		if oldImage != nil && s.ImagePath != nil {
			h.Files.Remove(*s.ImagePath) // roll back the new file, keep the old
		}
		lg := logger.Get()
		lg.Error().Err(err).Msg("services: update failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	if oldImage != nil {
		h.Files.Remove(*oldImage)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "service updated successfully", "service": updated})
}

// Delete handles DELETE /api/services/:id (admin).  File removal is
// best-effort after the row is gone.
func (h *ServicesHandler) Delete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Services.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	if err := h.Services.Delete(ctx, id); err != nil {
		lg := logger.Get()
		lg.Error().Err(err).Msg("services: delete failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	if s.ImagePath != nil {
		h.Files.Remove(*s.ImagePath)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "service deleted successfully"})
}
