package router // package router registers the BFF's HTTP routes

import (
	"github.com/labstack/echo/v4"

	"github.com/glazia/storefront/internal/config"
	"github.com/glazia/storefront/internal/handler"
)

// RegisterRoutes registers the unauthenticated service routes: the health
// check and the public client settings.
func RegisterRoutes(e *echo.Echo, pub config.PublicConfig) {
	e.GET("/healthz", handler.Health)
	e.GET("/api/env", handler.Env(pub))
}
