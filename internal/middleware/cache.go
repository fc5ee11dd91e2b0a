package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/glazia/storefront/internal/config"
	"github.com/glazia/storefront/internal/logx"
	"github.com/glazia/storefront/internal/query"
)

// CatalogRoute names the catalog read a cached route serves and where its
// parameters come from, in key order.
type CatalogRoute struct {
	Op          string
	PathParams  []string
	QueryParams []string
}

func (r CatalogRoute) values(c echo.Context) []string {
	vals := make([]string, 0, len(r.PathParams)+len(r.QueryParams))
	for _, p := range r.PathParams {
		vals = append(vals, PathParam(c, p))
	}
	for _, q := range r.QueryParams {
		vals = append(vals, c.QueryParam(q))
	}
	return vals
}

// CatalogCacheKey is the Redis key holding the cached response of op with
// the given decoded parameters. Parts are escaped the way query keys are,
// so the key never contains SCAN glob characters.
func CatalogCacheKey(prefix, op string, vals ...string) string {
	return prefix + ":" + query.NewKey(op, vals...).String()
}

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body"`
}

// bodyRecorder tees the response body while it is written. Once the body
// passes limit it stops recording and marks the response uncacheable.
type bodyRecorder struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (w *bodyRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

// NewRedisCache shares successful catalog responses between BFF replicas.
// The returned function binds the cache to one catalog route. Requests
// carrying an Authorization header always bypass it, and bodies over
// cfg.MaxBodyBytes are served but not stored.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) func(CatalogRoute) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		pass := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
		return func(CatalogRoute) echo.MiddlewareFunc { return pass }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	return func(route CatalogRoute) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				req := c.Request()
				if !cfg.Methods[strings.ToUpper(req.Method)] || req.Header.Get(echo.HeaderAuthorization) != "" {
					return next(c)
				}
				key := CatalogCacheKey(cfg.Prefix, route.Op, route.values(c)...)

				if raw, err := rdb.Get(req.Context(), key).Bytes(); err == nil {
					var hit cachedResponse
					if json.Unmarshal(raw, &hit) == nil && hit.Status != 0 {
						c.Response().Header().Set("X-Cache", "HIT")
						return c.Blob(hit.Status, hit.ContentType, hit.Body)
					}
					logx.Debug().Str("key", key).Msg("cache: unreadable entry")
				} else if !errors.Is(err, redis.Nil) {
					logx.Debug().Err(err).Str("key", key).Msg("cache: lookup failed")
				}

				rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
				c.Response().Writer = rec
				c.Response().Header().Set("X-Cache", "MISS")
				if err := next(c); err != nil {
					return err
				}
				if rec.status != http.StatusOK || rec.overflow {
					return nil
				}

				payload, err := json.Marshal(cachedResponse{
					Status:      rec.status,
					ContentType: c.Response().Header().Get(echo.HeaderContentType),
					Body:        rec.buf.Bytes(),
				})
				if err != nil {
					return nil
				}
				// stored even if the client has gone
				if err := rdb.Set(context.WithoutCancel(req.Context()), key, payload, ttl).Err(); err != nil {
					logx.Debug().Err(err).Str("key", key).Msg("cache: store failed")
				}
				return nil
			}
		}
	}
}
