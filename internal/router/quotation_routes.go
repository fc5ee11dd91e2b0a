package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/glazia/storefront/internal/config"
	"github.com/glazia/storefront/internal/handler"
	"github.com/glazia/storefront/internal/middleware"
	"github.com/glazia/storefront/internal/quotation"
)

// RegisterQuotations registers the catalog reads under /api/quotations with
// the Redis response cache in front of them, plus the config passthrough.
// The cache is skipped when rdb is nil.
func RegisterQuotations(e *echo.Echo, q *handler.QuotationHandler, cfgH *handler.ConfigHandler, cache config.CacheConfig, rdb *redis.Client) {
	g := e.Group("/api/quotations")

	cached := middleware.NewRedisCache(cache, rdb)
	g.GET("/systems", q.Systems, cached(middleware.CatalogRoute{Op: quotation.OpSystems}))
	g.GET("/systems/:systemType/series", q.Series, cached(middleware.CatalogRoute{
		Op:         quotation.OpSeries,
		PathParams: []string{"systemType"},
	}))
	g.GET("/systems/:systemType/series/:series/descriptions", q.Descriptions, cached(middleware.CatalogRoute{
		Op:         quotation.OpDescriptions,
		PathParams: []string{"systemType", "series"},
	}))
	g.GET("/options", q.Options, cached(middleware.CatalogRoute{
		Op:          quotation.OpOptions,
		QueryParams: []string{"systemType"},
	}))

	// per-user; never cached
	g.GET("/config", cfgH.Get)
	g.POST("/config", cfgH.Save)
}
