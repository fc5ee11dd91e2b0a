package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/glazia/storefront/internal/errx"
	"github.com/glazia/storefront/internal/middleware"
	"github.com/glazia/storefront/internal/query"
	"github.com/glazia/storefront/internal/quotation"
)

// QuotationHandler serves the quotation catalog through the query cache.
type QuotationHandler struct {
	Queries *quotation.Queries
}

func NewQuotationHandler(q *quotation.Queries) *QuotationHandler {
	return &QuotationHandler{Queries: q}
}

// Systems: GET /api/quotations/systems
func (h *QuotationHandler) Systems(c echo.Context) error {
	st := h.Queries.Systems(c.Request().Context())
	if st.Status == query.Error {
		return writeError(c, upstream(st.Err))
	}
	return c.JSON(http.StatusOK, echo.Map{"systems": st.Data})
}

// Series: GET /api/quotations/systems/:systemType/series
func (h *QuotationHandler) Series(c echo.Context) error {
	st := h.Queries.Series(c.Request().Context(), middleware.PathParam(c, "systemType"))
	switch st.Status {
	case query.Idle:
		return writeError(c, errx.BadRequest("systemType is required"))
	case query.Error:
		return writeError(c, upstream(st.Err))
	}
	return c.JSON(http.StatusOK, echo.Map{"series": st.Data})
}

// Descriptions: GET /api/quotations/systems/:systemType/series/:series/descriptions
func (h *QuotationHandler) Descriptions(c echo.Context) error {
	st := h.Queries.Descriptions(c.Request().Context(), middleware.PathParam(c, "systemType"), middleware.PathParam(c, "series"))
	switch st.Status {
	case query.Idle:
		return writeError(c, errx.BadRequest("systemType and series are required"))
	case query.Error:
		return writeError(c, upstream(st.Err))
	}
	return c.JSON(http.StatusOK, echo.Map{"descriptions": st.Data})
}

// Options: GET /api/quotations/options?systemType=
func (h *QuotationHandler) Options(c echo.Context) error {
	st := h.Queries.Options(c.Request().Context(), c.QueryParam("systemType"))
	switch st.Status {
	case query.Idle:
		return writeError(c, errx.BadRequest("systemType is required"))
	case query.Error:
		return writeError(c, upstream(st.Err))
	}
	return c.JSON(http.StatusOK, st.Data)
}
