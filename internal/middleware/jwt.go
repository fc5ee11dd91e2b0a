// Package middleware holds the echo middleware shared by the BFF routes.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/glazia/storefront/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxAdminID = "admin_id"
	CtxRole    = "role"
	CtxClaims  = "admin_claims"
)

// BearerToken returns the token of an "Authorization: Bearer" header, or "".
func BearerToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// JWTAuth validates an admin bearer token signed with secret and stores its
// subject, role and claims in the echo context.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := BearerToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAdminToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(CtxAdminID, claims.Subject)
			c.Set(CtxRole, claims.Role)
			c.Set(CtxClaims, claims)
			return next(c)
		}
	}
}
