package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/glazia/storefront/internal/auth"
	"github.com/glazia/storefront/internal/middleware"
	"github.com/glazia/storefront/internal/queue"
)

const testSecret = "test-secret"

var jwtShape = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`)

type recordingNotifier struct {
	mu     sync.Mutex
	events []queue.AdminLoginEvent
}

func (r *recordingNotifier) PublishAdminLogin(_ context.Context, ev queue.AdminLoginEvent) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func newAdminHandler(t *testing.T, events LoginNotifier) *AdminHandler {
	t.Helper()
	store, err := auth.NewStaticStore(auth.DefaultAccounts(), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return NewAdminHandler(auth.NewAuthenticator(store), auth.Issuer{Secret: testSecret, TTL: time.Hour}, events)
}

func postLogin(t *testing.T, h *AdminHandler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.Login(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Login: %v", err)
	}
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestAdminLoginSuccess(t *testing.T) {
	events := &recordingNotifier{}
	h := newAdminHandler(t, events)
	rec, out := postLogin(t, h, `{"username":"admin","password":"admin123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	if out["message"] != "Login successful" {
		t.Errorf("message = %v", out["message"])
	}
	tok, _ := out["token"].(string)
	if !jwtShape.MatchString(tok) {
		t.Errorf("token %q is not three base64url segments", tok)
	}
	user, _ := out["user"].(map[string]any)
	if user["role"] != "admin" || user["username"] != "admin" {
		t.Errorf("user = %v", user)
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Error("password hash in response")
	}
	claims, err := h.Tokens.Parse(tok)
	if err != nil || claims.Role != "admin" {
		t.Errorf("claims = %+v err = %v", claims, err)
	}
	deadline := time.Now().Add(time.Second)
	for events.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if events.count() != 1 || !events.events[0].Success {
		t.Errorf("events = %+v", events.events)
	}
}

func TestAdminLoginWrongPassword(t *testing.T) {
	rec, out := postLogin(t, newAdminHandler(t, nil), `{"username":"admin","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok := out["token"]; ok {
		t.Error("token issued on failed login")
	}
	if out["error"] != "Invalid credentials" {
		t.Errorf("error = %v", out["error"])
	}
}

func TestAdminLoginValidation(t *testing.T) {
	h := newAdminHandler(t, nil)
	for _, body := range []string{
		`{"username":"admin"}`,
		`{"password":"admin123"}`,
		`{"username":"   ","password":"x"}`,
		`{}`,
	} {
		rec, out := postLogin(t, h, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", body, rec.Code)
		}
		if out["error"] != "Username and password are required" {
			t.Errorf("%s: error = %v", body, out["error"])
		}
	}
	if rec, _ := postLogin(t, h, `{not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d", rec.Code)
	}
}

func TestAdminMeBehindJWT(t *testing.T) {
	h := newAdminHandler(t, nil)
	_, out := postLogin(t, h, `{"username":"admin","password":"admin123"}`)
	tok := out["token"].(string)

	e := echo.New()
	e.GET("/api/admin/me", h.Me, middleware.JWTAuth(testSecret), middleware.RequireRole("admin"))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"role":"admin"`) {
		t.Errorf("me = %d %s", rec.Code, rec.Body)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok+"x")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("tampered token: status = %d", rec.Code)
	}
}
