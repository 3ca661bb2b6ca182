package router // package router defines how HTTP routes are registered for both services

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/shop-control/internal/handler"
)

// RegisterRoutes registers the routes common to both services. Currently
// that is only the health check used by load balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}
