package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/glazia/storefront/internal/config"
)

// Env exposes the public client settings (object storage and analytics ids).
func Env(pub config.PublicConfig) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, pub)
	}
}
