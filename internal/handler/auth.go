package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/davidokumbo/cyberdocs/internal/config"
	"github.com/davidokumbo/cyberdocs/internal/mailer"
	"github.com/davidokumbo/cyberdocs/internal/middleware"
	"github.com/davidokumbo/cyberdocs/internal/model"
	"github.com/davidokumbo/cyberdocs/internal/repository"
	"github.com/davidokumbo/cyberdocs/internal/utils"
	"github.com/davidokumbo/cyberdocs/pkg/logger"
)

// resetTokenTTL bounds how long a password-reset link stays redeemable.
const resetTokenTTL = time.Hour

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens ResetTokenStore
	Mail   MailDispatcher
}

func NewAuthHandler(cfg config.Config, users UserStore, tokens ResetTokenStore, mail MailDispatcher) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens, Mail: mail}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required,min=6"`
}
type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
type requestResetReq struct {
	Email string `json:"email" validate:"required,email"`
}
type resetPasswordReq struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type authResp struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    model.User `json:"user"`
}

// Register creates a user account and returns a bearer token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var phone *string
	if p := strings.TrimSpace(req.Phone); p != "" {
		phone = &p
	}
	u, err := h.Users.Create(ctx, req.Email, phone, hash, model.RoleUser)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "user already exists"})
		}
		lg := logger.Get()
		lg.Error().Err(err).Msg("register: create user failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	tok, err := utils.NewBearerToken(h.Cfg.JWTSecret,
		utils.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}, h.Cfg.TokenTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	return c.JSON(http.StatusCreated, authResp{
		Message: "user registered successfully",
		Token:   tok.Token,
		User:    u,
	})
}

// Login verifies credentials and issues a bearer token.  Unknown email and
// wrong password are indistinguishable in the response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		lg := logger.Get()
		lg.Error().Err(err).Msg("login: query failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	tok, err := utils.NewBearerToken(h.Cfg.JWTSecret,
		utils.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}, h.Cfg.TokenTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	return c.JSON(http.StatusOK, authResp{
		Message: "login successful",
		Token:   tok.Token,
		User:    u,
	})
}

// RequestPasswordReset issues a single-use reset token and mails the link.
// Unlike login, an unknown email is reported as 404.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req requestResetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		lg := logger.Get()
		lg.Error().Err(err).Msg("request-reset: query failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	tok, err := utils.NewResetToken(resetTokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	// Replace drops any earlier token for this user, so only the newest
	// link ever redeems.
	if err := h.Tokens.Replace(ctx, u.ID, utils.HashResetRaw(tok.Raw), tok.Exp); err != nil {
		lg := logger.Get()
		lg.Error().Err(err).Msg("request-reset: store token failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	resetURL := strings.TrimRight(h.Cfg.FrontendURL, "/") + "/reset-password?token=" + tok.Raw
	mailed := true
	if err := h.Mail.Publish(ctx, mailer.BuildPasswordReset(u.Email, resetURL)); err != nil {
		// The token is already stored; the visitor can retry the email
		// path or, in development, use the token from the response.
		lg := logger.Get()
		lg.Error().Err(err).Msg("request-reset: enqueue email failed")
		mailed = false
	}

	resp := echo.Map{"message": "reset link sent to email"}
	if !mailed {
		resp["message"] = "reset link generated but email dispatch failed"
	}
	if h.Cfg.Development() {
		resp["token"] = tok.Raw
		resp["reset_url"] = resetURL
	}
	return c.JSON(http.StatusOK, resp)
}

// ResetPassword redeems a reset token and stores the new password.  The
// token row is deleted on success so it cannot be replayed.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.FindValid(ctx, utils.HashResetRaw(strings.TrimSpace(req.Token)))
	if errors.Is(err, repository.ErrTokenInvalid) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired reset token"})
	}
	if err != nil {
		lg := logger.Get()
		lg.Error().Err(err).Msg("reset-password: token lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	if err := h.Users.UpdatePassword(ctx, userID, hash); err != nil {
		lg := logger.Get()
		lg.Error().Err(err).Msg("reset-password: update failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	if err := h.Tokens.DeleteForUser(ctx, userID); err != nil {
		// The password did change; a lingering token row only shortens to
		// its natural expiry.
		lg := logger.Get()
		lg.Warn().Err(err).Msg("reset-password: token cleanup failed")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password reset successful"})
}

// Profile returns the authenticated user's record.
func (h *AuthHandler) Profile(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserID).(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}
