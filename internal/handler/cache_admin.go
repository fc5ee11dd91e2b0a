package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/glazia/storefront/internal/logx"
	"github.com/glazia/storefront/internal/middleware"
	"github.com/glazia/storefront/internal/query"
	"github.com/glazia/storefront/internal/quotation"
)

// CacheAdminHandler drops cached catalog reads after the catalog changes
// upstream.
type CacheAdminHandler struct {
	Queries *quotation.Queries
	Redis   *redis.Client // optional
	Prefix  string        // response cache key prefix
}

var catalogOps = []string{quotation.OpSystems, quotation.OpSeries, quotation.OpDescriptions, quotation.OpOptions}

// Invalidate: DELETE /api/admin/cache[?op=series&systemType=...]
// The in-process query cache and the shared response cache are dropped
// together. With systemType only that system's entries of op go.
func (h *CacheAdminHandler) Invalidate(c echo.Context) error {
	op := c.QueryParam("op")
	systemType := c.QueryParam("systemType")
	if op != "" && !knownOp(op) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown op"})
	}

	cache := h.Queries.Cache()
	switch {
	case op == "":
		for _, o := range catalogOps {
			cache.InvalidateOp(o)
		}
	case systemType != "" && (op == quotation.OpSeries || op == quotation.OpOptions):
		cache.Invalidate(query.NewKey(op, systemType))
	default:
		cache.InvalidateOp(op)
	}

	flushed, err := h.flushResponses(c, responsePatterns(h.Prefix, op, systemType))
	if err != nil {
		logx.Warn().Err(err).Msg("flush response cache")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "response cache flush failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"invalidated": orAll(op), "responsesFlushed": flushed})
}

// responsePatterns lists the SCAN patterns covering the cached responses of
// op. Keys are escaped, so the only glob is the trailing star added here.
func responsePatterns(prefix, op, systemType string) []string {
	switch {
	case op == "":
		return []string{prefix + ":*"}
	case systemType == "":
		base := middleware.CatalogCacheKey(prefix, op)
		return []string{base, base + "/*"}
	case op == quotation.OpDescriptions:
		return []string{middleware.CatalogCacheKey(prefix, op, systemType) + "/*"}
	case op == quotation.OpSystems:
		return []string{middleware.CatalogCacheKey(prefix, op)}
	default:
		return []string{middleware.CatalogCacheKey(prefix, op, systemType)}
	}
}

func (h *CacheAdminHandler) flushResponses(c echo.Context, patterns []string) (int, error) {
	if h.Redis == nil || h.Prefix == "" {
		return 0, nil
	}
	ctx := c.Request().Context()
	n := 0
	for _, p := range patterns {
		iter := h.Redis.Scan(ctx, 0, p, 200).Iterator()
		for iter.Next(ctx) {
			if err := h.Redis.Del(ctx, iter.Val()).Err(); err != nil {
				return n, err
			}
			n++
		}
		if err := iter.Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func knownOp(op string) bool {
	for _, o := range catalogOps {
		if o == op {
			return true
		}
	}
	return false
}

func orAll(op string) string {
	if op == "" {
		return "all"
	}
	return op
}
