package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/glazia/storefront/internal/config"
	"github.com/glazia/storefront/internal/handler"
	"github.com/glazia/storefront/internal/middleware"
)

// RegisterAdmin registers the admin panel routes. Login is rate limited per
// client IP; everything else needs a valid admin token.
// cacheAdmin may be nil.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, cacheAdmin *handler.CacheAdminHandler, jwtSecret string, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/api/admin")
	g.POST("/login", a.Login, middleware.NewTokenBucket(rl, rdb))

	authed := g.Group("",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("admin"),
	)
	authed.GET("/me", a.Me)
	if cacheAdmin != nil {
		authed.DELETE("/cache", cacheAdmin.Invalidate)
	}
}
