package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/davidokumbo/cyberdocs/internal/model"
	"github.com/davidokumbo/cyberdocs/internal/preview"
	"github.com/davidokumbo/cyberdocs/internal/repository"
	"github.com/davidokumbo/cyberdocs/internal/upload"
	"github.com/davidokumbo/cyberdocs/pkg/logger"
)

// DocumentsHandler serves the public document catalog, previews, downloads
// and the admin CRUD.
type DocumentsHandler struct {
	Documents DocumentStore
	Files     *upload.Store
}

func NewDocumentsHandler(documents DocumentStore, files *upload.Store) *DocumentsHandler {
	return &DocumentsHandler{Documents: documents, Files: files}
}

// List handles GET /api/documents with optional ?category= and ?search=.
func (h *DocumentsHandler) List(c echo.Context) error {
	filter := repository.DocumentFilter{
		Category: strings.TrimSpace(c.QueryParam("category")),
		Search:   strings.TrimSpace(c.QueryParam("search")),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Documents.List(ctx, filter)
	if err != nil {
		lg := logger.Get()
		lg.Error().Err(err).Msg("documents: list failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"documents": items})
}

// Get handles GET /api/documents/:id.
func (h *DocumentsHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Documents.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"document": d})
}

// Preview handles GET /api/documents/:id/preview.  The descriptor tells the
// client which viewer to mount and carries the locked-region geometry; for
// text formats it also carries the capped excerpt.  Strategies other than
// text never read file content here.
func (h *DocumentsHandler) Preview(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Documents.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	desc := preview.Describe(d.DocumentPath, d.DocumentPath, func() (io.ReadCloser, error) {
		full, ok := h.Files.FilePath(d.DocumentPath)
		if !ok {
			return nil, os.ErrNotExist
		}
		return os.Open(full)
	})
	return c.JSON(http.StatusOK, echo.Map{"preview": desc})
}

// Download handles GET /api/documents/:id/download and streams the stored
// binary.  The preview mask is a rendering rule only; the bytes here are the
// real file.
func (h *DocumentsHandler) Download(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Documents.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	full, ok := h.Files.FilePath(d.DocumentPath)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "document file not found"})
	}
	return c.File(full)
}

// Create handles POST /api/documents (admin, multipart).  The document file
// is required; a rejected upload fails before any database write.
func (h *DocumentsHandler) Create(c echo.Context) error {
	title := strings.TrimSpace(c.FormValue("title"))
	description := strings.TrimSpace(c.FormValue("description"))
	if title == "" || description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and description are required"})
	}
	category := strings.TrimSpace(c.FormValue("category"))
	if category == "" {
		category = "other"
	}

	docFile, err := c.FormFile("document")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "document file is required"})
	}
	// Validate both files before writing either, so a bad thumbnail cannot
	// strand a freshly stored document binary.
	if err := h.Files.Validate(docFile, upload.DocumentFile); err != nil {
		return uploadError(c, err)
	}
	thumbFile, thumbErr := c.FormFile("thumbnail")
	if thumbErr == nil {
		if err := h.Files.Validate(thumbFile, upload.Thumbnail); err != nil {
			return uploadError(c, err)
		}
	}

	docPath, err := h.Files.Save(docFile, upload.DocumentFile)
	if err != nil {
		return uploadError(c, err)
	}
	d := model.Document{
		Title:        title,
		Description:  description,
		Category:     category,
		DocumentPath: docPath,
	}
	if pt := strings.TrimSpace(c.FormValue("preview_text")); pt != "" {
		d.PreviewText = &pt
	}
	if thumbErr == nil {
		path, err := h.Files.Save(thumbFile, upload.Thumbnail)
		if err != nil {
			h.Files.Remove(docPath)
			return uploadError(c, err)
		}
		d.ThumbnailPath = &path
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	created, err := h.Documents.Create(ctx, d)
	if err != nil {
		h.Files.Remove(d.DocumentPath)
		if d.ThumbnailPath != nil {
			h.Files.Remove(*d.ThumbnailPath)
		}
		lg := logger.Get()
		lg.Error().Err(err).Msg("documents: create failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "document created successfully", "document": created})
}

// Update handles PUT /api/documents/:id (admin, multipart).  Only supplied
// fields and files overwrite; replacement files are written before the row
// updates and old files removed after.
func (h *DocumentsHandler) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Documents.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	if v := strings.TrimSpace(c.FormValue("title")); v != "" {
		d.Title = v
	}
	if v := strings.TrimSpace(c.FormValue("description")); v != "" {
		d.Description = v
	}
	if v := strings.TrimSpace(c.FormValue("category")); v != "" {
		d.Category = v
	}
	if v := strings.TrimSpace(c.FormValue("preview_text")); v != "" {
		d.PreviewText = &v
	}

	var oldDoc, oldThumb *string
	if fh, err := c.FormFile("document"); err == nil {
		path, err := h.Files.Save(fh, upload.DocumentFile)
		if err != nil {
			return uploadError(c, err)
		}
		old := d.DocumentPath
		oldDoc = &old
		d.DocumentPath = path
	}
	if fh, err := c.FormFile("thumbnail"); err == nil {
		path, err := h.Files.Save(fh, upload.Thumbnail)
		if err != nil {
			if oldDoc != nil {
				h.Files.Remove(d.DocumentPath)
			}
			return uploadError(c, err)
		}
		oldThumb = d.ThumbnailPath
		d.ThumbnailPath = &path
	}

	updated, err := h.Documents.Update(ctx, d)
	if err != nil {
		if oldDoc != nil {
			h.Files.Remove(d.DocumentPath)
		}
		if oldThumb != nil && d.ThumbnailPath != nil {
			h.Files.Remove(*d.ThumbnailPath)
		}
		lg := logger.Get()
		lg.Error().Err(err).Msg("documents: update failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	if oldDoc != nil {
		h.Files.Remove(*oldDoc)
	}
	if oldThumb != nil {
		h.Files.Remove(*oldThumb)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "document updated successfully", "document": updated})
}

// Delete handles DELETE /api/documents/:id (admin): the row goes first,
// then both stored files best-effort.
func (h *DocumentsHandler) Delete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Documents.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	if err := h.Documents.Delete(ctx, id); err != nil {
		lg := logger.Get()
		lg.Error().Err(err).Msg("documents: delete failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	h.Files.Remove(d.DocumentPath)
	if d.ThumbnailPath != nil {
		h.Files.Remove(*d.ThumbnailPath)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "document deleted successfully"})
}
