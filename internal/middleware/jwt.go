package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/davidokumbo/cyberdocs/internal/model"
	"github.com/davidokumbo/cyberdocs/internal/repository"
	"github.com/davidokumbo/cyberdocs/internal/utils"
)

// Context keys populated by Authenticate for downstream handlers.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
)

// UserFinder resolves a token subject to a live user row.  Deleted accounts
// keep their signed tokens until natural expiry, so the lookup is what
// actually revokes access.
type UserFinder interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Authenticate validates a Bearer token, confirms the subject still exists,
// and injects user_id/email/role into the request context.  Any failure is a
// uniform 401; the role stored on the row wins over the role claim so a
// demotion takes effect without reissuing tokens.
func Authenticate(secret string, users UserFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			id, err := utils.ParseBearerToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			u, err := users.GetByID(ctx, id.UserID)
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
			}

			c.Set(CtxUserID, u.ID)
			c.Set(CtxEmail, u.Email)
			c.Set(CtxRole, u.Role)
			return next(c)
		}
	}
}

// RequireAdmin aborts with 403 unless Authenticate stored the admin role.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if role != model.RoleAdmin {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
			}
			return next(c)
		}
	}
}
