package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/shop-control/internal/config"
	"github.com/iliyamo/shop-control/internal/handler"
	"github.com/iliyamo/shop-control/internal/middleware"
)

// RegisterProductRoutes wires the product service surface. Every route
// requires a verified bearer token; the owner CRUD endpoints accept both
// roles, while the two internal bulk endpoints — the propagation targets —
// are gated on the Admin role alone and are the only paths that can see or
// touch soft-deleted rows.
func RegisterProductRoutes(e *echo.Echo, cfg config.Config, p *handler.ProductHandler, rdb *redis.Client) {
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	cacheCfg := config.LoadCacheConfig()

	products := e.Group("/api/products")
	products.Use(middleware.JWTAuth(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience))
	// Every successful write — owner create/update/delete and the two bulk
	// endpoints — flushes the cached reads, so a toggled or deleted product
	// disappears from listings immediately, not after TTL.
	products.Use(middleware.NewCacheInvalidator(cacheCfg, rdb))

	owner := products.Group("")
	owner.Use(middleware.RequireRole("User", "Admin"))
	// The response cache keys on route+query+subject; only GETs are cached.
	owner.Use(middleware.NewRedisCache(cacheCfg, rdb))
	owner.POST("", p.Create)
	owner.GET("", p.List)
	owner.GET("/:id", p.Get)
	owner.PUT("/:id", p.Update)
	owner.DELETE("/:id", p.Delete)

	internal := products.Group("")
	internal.Use(middleware.RequireRole("Admin"))
	internal.PUT("/toggle-user-products/:userId", p.ToggleUserProducts)
	internal.DELETE("/user/:userId", p.DeleteUserProducts)
}
