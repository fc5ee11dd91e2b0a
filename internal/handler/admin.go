package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/glazia/storefront/internal/auth"
	"github.com/glazia/storefront/internal/logx"
	"github.com/glazia/storefront/internal/middleware"
	"github.com/glazia/storefront/internal/model"
	"github.com/glazia/storefront/internal/queue"
	"github.com/glazia/storefront/internal/utils"
)

// LoginNotifier receives one event per login attempt.
type LoginNotifier interface {
	PublishAdminLogin(ctx context.Context, ev queue.AdminLoginEvent) error
}

// AdminHandler bundles dependencies for the admin panel endpoints.
type AdminHandler struct {
	Auth   *auth.Authenticator
	Tokens auth.Issuer
	Events LoginNotifier // optional
}

func NewAdminHandler(a *auth.Authenticator, tokens auth.Issuer, events LoginNotifier) *AdminHandler {
	return &AdminHandler{Auth: a, Tokens: tokens, Events: events}
}

type adminLoginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type adminLoginResp struct {
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    model.AdminUser `json:"user"`
}

// Login: POST /api/admin/login
func (h *AdminHandler) Login(c echo.Context) error {
	var req adminLoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Username and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acct, err := h.Auth.Verify(ctx, req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.notify(c, model.AdminAccount{Username: req.Username}, false)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
	}
	if err != nil {
		logx.Error().Err(err).Str("username", req.Username).Msg("admin lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	tok, err := h.Tokens.Issue(acct)
	if err != nil {
		logx.Error().Err(err).Msg("issue admin token failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	h.notify(c, acct, true)

	return c.JSON(http.StatusOK, adminLoginResp{
		Message: "Login successful",
		Token:   tok.Token,
		User:    acct.Public(),
	})
}

// Me: GET /api/admin/me, behind JWTAuth.
func (h *AdminHandler) Me(c echo.Context) error {
	claims, ok := c.Get(middleware.CtxClaims).(*utils.AdminClaims)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	perms := claims.Permissions
	if perms == nil {
		perms = []string{}
	}
	resp := echo.Map{
		"user": model.AdminUser{ID: claims.Subject, Username: claims.Username, Role: claims.Role, Permissions: perms},
	}
	if claims.ExpiresAt != nil {
		resp["expiresAt"] = claims.ExpiresAt.Time
	}
	return c.JSON(http.StatusOK, resp)
}

// notify publishes in the background; the response never waits on the broker.
func (h *AdminHandler) notify(c echo.Context, acct model.AdminAccount, success bool) {
	if h.Events == nil {
		return
	}
	ev := queue.AdminLoginEvent{
		Username:  acct.Username,
		AdminID:   acct.ID,
		Role:      acct.Role,
		Success:   success,
		RemoteIP:  c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		At:        time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Events.PublishAdminLogin(ctx, ev); err != nil {
			logx.Debug().Err(err).Msg("admin login event not published")
		}
	}()
}
