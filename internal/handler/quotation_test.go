package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/glazia/storefront/internal/api"
	"github.com/glazia/storefront/internal/model"
	"github.com/glazia/storefront/internal/query"
	"github.com/glazia/storefront/internal/quotation"
)

type fakeCatalog struct {
	mu     sync.Mutex
	calls  map[string]int
	series map[string][]string
	err    error
}

func (f *fakeCatalog) hit(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[op]++
}

func (f *fakeCatalog) ListSystems(context.Context) ([]string, error) {
	f.hit("systems")
	return []string{"Sliding", "Casement"}, f.err
}

func (f *fakeCatalog) ListSeries(_ context.Context, systemType string) ([]string, error) {
	f.hit("series:" + systemType)
	if f.err != nil {
		return nil, f.err
	}
	return f.series[systemType], nil
}

func (f *fakeCatalog) ListDescriptions(_ context.Context, systemType, series string) ([]model.Description, error) {
	f.hit("descriptions:" + systemType + "|" + series)
	return []model.Description{{Name: "2 Track", Rates: []float64{1, 2}}}, f.err
}

func (f *fakeCatalog) ListOptions(_ context.Context, systemType string) (model.PricingOptions, error) {
	f.hit("options:" + systemType)
	return model.PricingOptions{ColorFinishes: []model.RateOption{{Name: "Anodized", Rate: 30}}}, f.err
}

func newQuotationServer(cat *fakeCatalog) *echo.Echo {
	h := NewQuotationHandler(quotation.NewQueries(cat, query.New(query.Options{Retry: query.NoRetry{}})))
	e := echo.New()
	g := e.Group("/api/quotations")
	g.GET("/systems", h.Systems)
	g.GET("/systems/:systemType/series", h.Series)
	g.GET("/systems/:systemType/series/:series/descriptions", h.Descriptions)
	g.GET("/options", h.Options)
	return e
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSeriesUnescapesSystemType(t *testing.T) {
	cat := &fakeCatalog{series: map[string][]string{"Sliding/Casement Door": {"S-1"}}}
	rec := get(newQuotationServer(cat), "/api/quotations/systems/Sliding%2FCasement%20Door/series")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"S-1"`) {
		t.Errorf("body = %s", rec.Body)
	}
	if cat.calls["series:Sliding/Casement Door"] != 1 {
		t.Errorf("calls = %v", cat.calls)
	}
}

func TestSeriesKeepsLiteralPercent(t *testing.T) {
	cat := &fakeCatalog{series: map[string][]string{"x%41": {"RIGHT"}, "xA": {"WRONG"}}}
	rec := get(newQuotationServer(cat), "/api/quotations/systems/x%2541/series")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"RIGHT"`) {
		t.Errorf("got %d %s", rec.Code, rec.Body)
	}
	if cat.calls["series:x%41"] != 1 || cat.calls["series:xA"] != 0 {
		t.Errorf("calls = %v", cat.calls)
	}
}

func TestDescriptionsDecodesBothSegments(t *testing.T) {
	cat := &fakeCatalog{}
	rec := get(newQuotationServer(cat), "/api/quotations/systems/A%2FB/series/50%25%20Off/descriptions")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	if cat.calls["descriptions:A/B|50% Off"] != 1 {
		t.Errorf("calls = %v", cat.calls)
	}
}

func TestSeriesEmptyList(t *testing.T) {
	rec := get(newQuotationServer(&fakeCatalog{}), "/api/quotations/systems/Empty/series")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"series":[]}` {
		t.Errorf("got %d %s", rec.Code, rec.Body)
	}
}

func TestDescriptionsBlankSeriesIsBadRequest(t *testing.T) {
	cat := &fakeCatalog{}
	rec := get(newQuotationServer(cat), "/api/quotations/systems/Sliding/series/%20/descriptions")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
	if len(cat.calls) != 0 {
		t.Errorf("backend called: %v", cat.calls)
	}
}

func TestOptionsRequiresSystemType(t *testing.T) {
	cat := &fakeCatalog{}
	e := newQuotationServer(cat)
	if rec := get(e, "/api/quotations/options"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
	rec := get(e, "/api/quotations/options?systemType=Sliding")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"meshTypes":[]`) {
		t.Errorf("got %d %s", rec.Code, rec.Body)
	}
}

func TestUpstreamErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&api.StatusError{StatusCode: http.StatusNotFound}, http.StatusNotFound},
		{&api.StatusError{StatusCode: http.StatusUnauthorized}, http.StatusUnauthorized},
		{&api.StatusError{StatusCode: http.StatusInternalServerError}, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusBadGateway},
	}
	for _, tc := range cases {
		rec := get(newQuotationServer(&fakeCatalog{err: tc.err}), "/api/quotations/systems")
		if rec.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestSystemsServedFromCache(t *testing.T) {
	cat := &fakeCatalog{}
	h := NewQuotationHandler(quotation.NewQueries(cat, query.New(query.Options{StaleTime: time.Hour})))
	e := echo.New()
	e.GET("/api/quotations/systems", h.Systems)
	get(e, "/api/quotations/systems")
	get(e, "/api/quotations/systems")
	if cat.calls["systems"] != 1 {
		t.Errorf("systems calls = %d", cat.calls["systems"])
	}
}
