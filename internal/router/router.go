package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/davidokumbo/cyberdocs/internal/config"
	"github.com/davidokumbo/cyberdocs/internal/handler"
	"github.com/davidokumbo/cyberdocs/internal/middleware"
)

// Deps carries everything the route table needs.  Handlers are constructed
// by the caller so tests can register a subset with stub stores.
type Deps struct {
	Cfg       config.Config
	DB        *sql.DB
	Redis     *redis.Client
	Auth      *handler.AuthHandler
	Users     *handler.UsersHandler
	Services  *handler.ServicesHandler
	Documents *handler.DocumentsHandler
	Contact   *handler.ContactHandler
	UserStore middleware.UserFinder
}

// Register wires the full route table onto e.  Public catalog reads sit
// behind the response cache and rate limiter; admin mutations require a
// valid token with the admin role.
func Register(e *echo.Echo, d Deps) {
	api := e.Group("/api")

	health := &handler.HealthHandler{DB: d.DB}
	api.GET("/health", health.Check)

	// Public catalog.  Cache and rate-limit guests; both middlewares fall
	// through untouched when Redis is absent.
	pub := api.Group("",
		middleware.ResponseCache(config.LoadCacheConfig(), d.Redis),
		middleware.TokenBucket(config.LoadRateLimitConfig(), d.Redis),
	)
	pub.GET("/services", d.Services.List)
	pub.GET("/services/:id", d.Services.Get)
	pub.GET("/documents", d.Documents.List)
	pub.GET("/documents/:id", d.Documents.Get)
	pub.GET("/documents/:id/preview", d.Documents.Preview)
	pub.GET("/documents/:id/download", d.Documents.Download)

	api.POST("/contact/send", d.Contact.Send)

	// Auth lifecycle.
	users := api.Group("/users")
	users.POST("/register", d.Auth.Register)
	users.POST("/login", d.Auth.Login)
	users.POST("/request-reset", d.Auth.RequestPasswordReset)
	users.POST("/reset-password", d.Auth.ResetPassword)

	authed := api.Group("", middleware.Authenticate(d.Cfg.JWTSecret, d.UserStore))
	authed.GET("/users/profile", d.Auth.Profile)

	// Admin-only management.
	admin := api.Group("", middleware.Authenticate(d.Cfg.JWTSecret, d.UserStore), middleware.RequireAdmin())
	admin.GET("/users", d.Users.List)
	admin.GET("/users/:id", d.Users.Get)
	admin.POST("/users", d.Users.Create)
	admin.PUT("/users/:id", d.Users.Update)
	admin.DELETE("/users/:id", d.Users.Delete)

	admin.POST("/services", d.Services.Create)
	admin.PUT("/services/:id", d.Services.Update)
	admin.DELETE("/services/:id", d.Services.Delete)

	admin.POST("/documents", d.Documents.Create)
	admin.PUT("/documents/:id", d.Documents.Update)
	admin.DELETE("/documents/:id", d.Documents.Delete)

	// Stored uploads are served straight from disk under their public paths.
	e.Static("/uploads", d.Cfg.UploadsDir)
}
