package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/glazia/storefront/internal/api"
	"github.com/glazia/storefront/internal/errx"
	"github.com/glazia/storefront/internal/logx"
)

// upstream translates a backend failure: 404 and 401 pass through, anything
// else (including network errors) becomes a 502.
func upstream(err error) *errx.AppError {
	switch api.StatusCodeOf(err) {
	case http.StatusNotFound:
		return errx.New(err, http.StatusNotFound, "not found")
	case http.StatusUnauthorized:
		return errx.New(err, http.StatusUnauthorized, "unauthorized")
	default:
		return errx.New(err, http.StatusBadGateway, errx.UpstreamErrorMessage)
	}
}

func writeError(c echo.Context, err error) error {
	status, msg := errx.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logx.Warn().Err(err).Str("path", c.Request().URL.EscapedPath()).Int("status", status).Msg("request failed")
	}
	return c.JSON(status, echo.Map{"error": msg})
}
