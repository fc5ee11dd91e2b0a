package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/glazia/storefront/internal/configstore"
	"github.com/glazia/storefront/internal/errx"
	"github.com/glazia/storefront/internal/middleware"
)

const maxConfigBody = 1 << 20

// ConfigHandler passes the caller's bearer token through to the backend
// config endpoint. Requests without a token get 204 and reach no backend.
type ConfigHandler struct {
	Backend configstore.Backend
}

func NewConfigHandler(b configstore.Backend) *ConfigHandler {
	return &ConfigHandler{Backend: b}
}

func (h *ConfigHandler) store(c echo.Context) *configstore.Store {
	return configstore.New(h.Backend, configstore.StaticToken(middleware.BearerToken(c)))
}

// Get: GET /api/quotations/config
func (h *ConfigHandler) Get(c echo.Context) error {
	blob, ok, err := h.store(c).Load(c.Request().Context())
	if err != nil {
		return writeError(c, upstream(err))
	}
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSONBlob(http.StatusOK, orNull(blob))
}

// Save: POST /api/quotations/config. The body is stored verbatim.
func (h *ConfigHandler) Save(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxConfigBody+1))
	if err != nil {
		return writeError(c, errx.BadRequest("invalid body"))
	}
	if len(body) > maxConfigBody {
		return writeError(c, errx.New(nil, http.StatusRequestEntityTooLarge, "config too large"))
	}
	if !json.Valid(body) {
		return writeError(c, errx.BadRequest("config must be valid JSON"))
	}
	reply, ok, err := h.store(c).Save(c.Request().Context(), body)
	if err != nil {
		return writeError(c, upstream(err))
	}
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSONBlob(http.StatusOK, orNull(reply))
}

func orNull(b json.RawMessage) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("null")
	}
	return b
}
