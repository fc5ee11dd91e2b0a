// Package quotation binds the quotation catalog reads to the query cache.
// A read whose required parameters are blank is never executed: series wait
// for a system type, descriptions wait for both a system type and a series.
package quotation

import (
	"context"
	"strings"

	"github.com/glazia/storefront/internal/model"
	"github.com/glazia/storefront/internal/query"
)

// Operation names used in cache keys.
const (
	OpSystems      = "systems"
	OpSeries       = "series"
	OpDescriptions = "descriptions"
	OpOptions      = "options"
)

// Catalog is the backend surface the queries read from. *api.Client
// satisfies it.
type Catalog interface {
	ListSystems(ctx context.Context) ([]string, error)
	ListSeries(ctx context.Context, systemType string) ([]string, error)
	ListDescriptions(ctx context.Context, systemType, series string) ([]model.Description, error)
	ListOptions(ctx context.Context, systemType string) (model.PricingOptions, error)
}

// Queries reads the catalog through a shared cache.
type Queries struct {
	catalog Catalog
	cache   *query.Cache
}

// NewQueries creates Queries.
func NewQueries(catalog Catalog, cache *query.Cache) *Queries {
	return &Queries{catalog: catalog, cache: cache}
}

// Cache exposes the underlying cache for inspection and invalidation.
func (q *Queries) Cache() *query.Cache { return q.cache }

func present(s string) bool { return strings.TrimSpace(s) != "" }

// Systems lists all system types.
func (q *Queries) Systems(ctx context.Context) query.State[[]string] {
	return query.Fetch(ctx, q.cache, query.Query[[]string]{
		Key:     query.NewKey(OpSystems),
		Enabled: true,
		Fn: func(ctx context.Context) ([]string, error) {
			s, err := q.catalog.ListSystems(ctx)
			return orEmpty(s), err
		},
	})
}

// Series lists the series of systemType.
func (q *Queries) Series(ctx context.Context, systemType string) query.State[[]string] {
	return query.Fetch(ctx, q.cache, query.Query[[]string]{
		Key:     query.NewKey(OpSeries, systemType),
		Enabled: present(systemType),
		Fn: func(ctx context.Context) ([]string, error) {
			s, err := q.catalog.ListSeries(ctx, systemType)
			return orEmpty(s), err
		},
	})
}

// Descriptions lists the descriptions of (systemType, series).
func (q *Queries) Descriptions(ctx context.Context, systemType, series string) query.State[[]model.Description] {
	return query.Fetch(ctx, q.cache, query.Query[[]model.Description]{
		Key:     query.NewKey(OpDescriptions, systemType, series),
		Enabled: present(systemType) && present(series),
		Fn: func(ctx context.Context) ([]model.Description, error) {
			d, err := q.catalog.ListDescriptions(ctx, systemType, series)
			if err == nil && d == nil {
				d = []model.Description{}
			}
			return d, err
		},
	})
}

// Options returns the pricing option catalogs of systemType.
func (q *Queries) Options(ctx context.Context, systemType string) query.State[model.PricingOptions] {
	return query.Fetch(ctx, q.cache, query.Query[model.PricingOptions]{
		Key:     query.NewKey(OpOptions, systemType),
		Enabled: present(systemType),
		Fn: func(ctx context.Context) (model.PricingOptions, error) {
			o, err := q.catalog.ListOptions(ctx, systemType)
			if err == nil {
				o.Normalize()
			}
			return o, err
		},
	})
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
