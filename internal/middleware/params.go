package middleware

import (
	"net/url"

	"github.com/labstack/echo/v4"
)

// PathParam returns the decoded route parameter name. echo routes on
// RawPath when the request has one, and only then are params still escaped;
// otherwise the value is already decoded and a literal %XX must be kept.
func PathParam(c echo.Context, name string) string {
	v := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}
