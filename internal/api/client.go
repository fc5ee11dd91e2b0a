// Package api is a thin HTTP client for the external Glazia backend: the
// quotation catalog, the per-user configuration blob and the user profile.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/glazia/storefront/internal/model"
)

const (
	quotationsPrefix = "/api/quotations"
	maxErrorBody     = 4 << 10
)

// StatusError is returned for any non-2xx backend response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// StatusCodeOf returns the backend status carried by err, or 0.
func StatusCodeOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool { return StatusCodeOf(err) == http.StatusUnauthorized }

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool { return StatusCodeOf(err) == http.StatusNotFound }

// Options configure a Client.
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	UserPath string
	HTTP     *http.Client
}

// Client talks to the backend. It performs a single request per call; retry
// belongs to the query layer.
type Client struct {
	base     *url.URL
	http     *http.Client
	userPath string
}

// New creates a Client. The base URL may carry a path prefix.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", opts.BaseURL)
	}
	hc := opts.HTTP
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	userPath := opts.UserPath
	if userPath == "" {
		userPath = "/api/user/profile"
	}
	return &Client{base: base, http: hc, userPath: userPath}, nil
}

// ListSystems returns every system type.
func (c *Client) ListSystems(ctx context.Context) ([]string, error) {
	var out struct {
		Systems []string `json:"systems"`
	}
	if err := c.getJSON(ctx, c.endpoint(nil, "systems"), "", &out); err != nil {
		return nil, err
	}
	return nonNil(out.Systems), nil
}

// ListSeries returns the series of a system type.
func (c *Client) ListSeries(ctx context.Context, systemType string) ([]string, error) {
	var out struct {
		Series []string `json:"series"`
	}
	if err := c.getJSON(ctx, c.endpoint(nil, "systems", systemType, "series"), "", &out); err != nil {
		return nil, err
	}
	return nonNil(out.Series), nil
}

// ListDescriptions returns the descriptions of a (system type, series) pair.
func (c *Client) ListDescriptions(ctx context.Context, systemType, series string) ([]model.Description, error) {
	var out struct {
		Descriptions []model.Description `json:"descriptions"`
	}
	u := c.endpoint(nil, "systems", systemType, "series", series, "descriptions")
	if err := c.getJSON(ctx, u, "", &out); err != nil {
		return nil, err
	}
	if out.Descriptions == nil {
		out.Descriptions = []model.Description{}
	}
	return out.Descriptions, nil
}

// ListOptions returns the pricing option catalogs for a system type.
func (c *Client) ListOptions(ctx context.Context, systemType string) (model.PricingOptions, error) {
	var out model.PricingOptions
	q := url.Values{"systemType": {systemType}}
	if err := c.getJSON(ctx, c.endpoint(q, "options"), "", &out); err != nil {
		return model.PricingOptions{}, err
	}
	out.Normalize()
	return out, nil
}

// FetchUser returns the raw profile document for the bearer token. Field
// normalization is the caller's concern since the backend is inconsistent
// about naming.
func (c *Client) FetchUser(ctx context.Context, token string) (json.RawMessage, error) {
	u := *c.base
	u.Path = c.base.Path + c.userPath
	u.RawPath = ""
	var out json.RawMessage
	if err := c.getJSON(ctx, &u, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadConfig fetches the user's global configuration blob.
func (c *Client) LoadConfig(ctx context.Context, token string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.getJSON(ctx, c.endpoint(nil, "config"), token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveConfig stores the user's global configuration blob verbatim.
func (c *Client) SaveConfig(ctx context.Context, token string, blob json.RawMessage) (json.RawMessage, error) {
	if !json.Valid(blob) {
		return nil, errors.New("config blob is not valid json")
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint(nil, "config"), token, bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var out json.RawMessage
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// endpoint builds base + /api/quotations + escaped segments. RawPath keeps
// the escaped form so a "/" inside a segment stays %2F on the wire.
func (c *Client) endpoint(q url.Values, segments ...string) *url.URL {
	raw := make([]string, len(segments))
	for i, s := range segments {
		raw[i] = url.PathEscape(s)
	}
	u := *c.base
	u.Path = c.base.Path + quotationsPrefix + "/" + strings.Join(segments, "/")
	u.RawPath = c.base.EscapedPath() + quotationsPrefix + "/" + strings.Join(raw, "/")
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return &u
}

func (c *Client) getJSON(ctx context.Context, u *url.URL, token string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, u, token, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method string, u *url.URL, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.EscapedPath(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     req.Method,
			Path:       req.URL.EscapedPath(),
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}
	if out == nil {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		if raw, ok := out.(*json.RawMessage); ok {
			*raw = json.RawMessage("null")
		}
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.EscapedPath(), err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
