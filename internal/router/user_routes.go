package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/shop-control/internal/config"
	"github.com/iliyamo/shop-control/internal/handler"
	"github.com/iliyamo/shop-control/internal/middleware"
)

// RegisterUserRoutes wires the user service surface: the public auth
// endpoints under /api/auths and the admin-only account management
// endpoints under /api/users. The rate limiter applies service-wide so
// that login and password-reset cannot be hammered.
func RegisterUserRoutes(e *echo.Echo, cfg config.Config, a *handler.AuthHandler, u *handler.UserHandler, rdb *redis.Client) {
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	// Public: no session required.
	auths := e.Group("/api/auths")
	auths.POST("/register", a.Register)
	auths.POST("/login", a.Login)
	auths.GET("/confirm-email", a.ConfirmEmail)
	auths.POST("/request-password-reset", a.RequestPasswordReset)
	auths.POST("/reset-password", a.ResetPassword)

	// Admin only: every account management endpoint, including the
	// lifecycle transitions that propagate to the product service.
	users := e.Group("/api/users")
	users.Use(middleware.JWTAuth(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience))
	users.Use(middleware.RequireRole("Admin"))
	users.GET("", u.List)
	users.GET("/:id", u.Get)
	users.PUT("/:id", u.Update)
	users.DELETE("/:id", u.Delete)
	users.PUT("/activate/:id", u.Activate)
	users.PUT("/deactivate/:id", u.Deactivate)
}
