package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/davidokumbo/cyberdocs/internal/mailer"
	"github.com/davidokumbo/cyberdocs/pkg/logger"
)

// ContactHandler forwards contact-form submissions to the support inbox
// through the mail queue.
type ContactHandler struct {
	SupportAddr string
	Mail        MailDispatcher
}

func NewContactHandler(supportAddr string, mail MailDispatcher) *ContactHandler {
	return &ContactHandler{SupportAddr: supportAddr, Mail: mail}
}

type contactReq struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// Send handles POST /api/contact/send.
func (h *ContactHandler) Send(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	msg := mailer.BuildContactForm(h.SupportAddr, req.Name, req.Email, req.Subject, req.Message)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Mail.Publish(ctx, msg); err != nil {
		lg := logger.Get()
		lg.Error().Err(err).Msg("contact: enqueue failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send message"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "message sent successfully"})
}
