package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/glazia/storefront/internal/api"
	"github.com/glazia/storefront/internal/model"
	"github.com/glazia/storefront/internal/storage"
)

type fakeFetcher struct {
	mu     sync.Mutex
	raw    string
	err    error
	tokens []string
}

func (f *fakeFetcher) FetchUser(_ context.Context, token string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.raw), nil
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

const cachedUser = `{"id":"u1","name":"Cached","email":"c@x.in","phone":"","address":{},"orders":2,"totalSpent":0,"loyaltyPoints":0,"dynamicPricing":{}}`

func seeded(t *testing.T) (*storage.Memory, *Store) {
	t.Helper()
	mem := storage.NewMemory()
	ctx := context.Background()
	_ = mem.Set(ctx, storage.KeyAuthToken, "tok")
	_ = mem.Set(ctx, storage.KeyUser, cachedUser)
	st := NewStore(mem)
	if err := st.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if st.User() == nil || st.User().Name != "Cached" {
		t.Fatalf("bootstrap user = %+v", st.User())
	}
	return mem, st
}

func get(t *testing.T, s storage.Storage, key string) (string, bool) {
	t.Helper()
	v, ok, err := s.Get(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	return v, ok
}

func TestInitialSkipsWithoutToken(t *testing.T) {
	f := &fakeFetcher{raw: `{"name":"x"}`}
	st := NewStore(storage.NewMemory())
	r := NewSyncer(st, f).Initial(context.Background())
	if !r.Skipped || r.Success || f.calls() != 0 {
		t.Errorf("result = %+v calls = %d", r, f.calls())
	}
}

func TestRefreshSuccessWritesThrough(t *testing.T) {
	mem, st := seeded(t)
	f := &fakeFetcher{raw: `{"user":{"userName":"Ravi","phoneNumber":"98450","orders":4}}`}

	r := NewSyncer(st, f).RouteChanged(context.Background(), "/products")
	if !r.Success || r.User == nil || r.User.Name != "Ravi" {
		t.Fatalf("result = %+v", r)
	}
	if f.tokens[0] != "tok" {
		t.Errorf("token = %q", f.tokens[0])
	}
	raw, _ := get(t, mem, storage.KeyUser)
	var cached model.UserProfile
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		t.Fatal(err)
	}
	if cached.Name != "Ravi" || cached.Phone != "98450" || cached.Orders != 4 {
		t.Errorf("cached = %+v", cached)
	}
	if st.User().Name != "Ravi" {
		t.Errorf("store user = %+v", st.User())
	}
}

func TestUnauthorizedPurges(t *testing.T) {
	mem, st := seeded(t)
	f := &fakeFetcher{err: &api.StatusError{StatusCode: http.StatusUnauthorized}}

	r := NewSyncer(st, f).Refresh(context.Background())
	if r.Success || r.Error != MsgSessionExpired {
		t.Errorf("result = %+v", r)
	}
	if _, ok := get(t, mem, storage.KeyAuthToken); ok {
		t.Error("authToken not removed")
	}
	if _, ok := get(t, mem, storage.KeyUser); ok {
		t.Error("glazia-user not removed")
	}
	if st.User() != nil || st.Authenticated() {
		t.Error("in-memory user not reset")
	}
}

func TestNotFoundLeavesCache(t *testing.T) {
	mem, st := seeded(t)
	before := st.User()
	f := &fakeFetcher{err: &api.StatusError{StatusCode: http.StatusNotFound}}

	r := NewSyncer(st, f).Refresh(context.Background())
	if r.Success || r.Error != MsgUnavailable {
		t.Errorf("result = %+v", r)
	}
	if v, _ := get(t, mem, storage.KeyAuthToken); v != "tok" {
		t.Errorf("token = %q", v)
	}
	if v, _ := get(t, mem, storage.KeyUser); v != cachedUser {
		t.Errorf("cached user changed: %s", v)
	}
	if after := st.User(); after == nil || after.Name != before.Name || after.Orders != before.Orders {
		t.Errorf("store user changed: %+v", after)
	}
}

func TestOtherFailureLeavesCache(t *testing.T) {
	mem, st := seeded(t)
	f := &fakeFetcher{err: errors.New("dial tcp: connection refused")}

	r := NewSyncer(st, f).Refresh(context.Background())
	if r.Success || r.Error == "" {
		t.Errorf("result = %+v", r)
	}
	if v, _ := get(t, mem, storage.KeyUser); v != cachedUser {
		t.Errorf("cached user changed: %s", v)
	}
	if st.User() == nil {
		t.Error("store user cleared")
	}
}

func TestMalformedPayloadLeavesCache(t *testing.T) {
	mem, st := seeded(t)
	r := NewSyncer(st, &fakeFetcher{raw: `[]`}).Refresh(context.Background())
	if r.Success {
		t.Error("malformed payload accepted")
	}
	if v, _ := get(t, mem, storage.KeyUser); v != cachedUser {
		t.Errorf("cached user changed: %s", v)
	}
}

func TestTokenRemovedElsewhereClearsWithoutNetwork(t *testing.T) {
	mem, st := seeded(t)
	f := &fakeFetcher{raw: `{"name":"x"}`}
	s := NewSyncer(st, f)

	r := s.HandleEvent(context.Background(), storage.Event{Key: storage.KeyAuthToken, Removed: true})
	if !r.Success {
		t.Errorf("result = %+v", r)
	}
	if f.calls() != 0 {
		t.Errorf("network calls = %d", f.calls())
	}
	if st.User() != nil {
		t.Error("user not cleared")
	}
	if _, ok := get(t, mem, storage.KeyUser); ok {
		t.Error("cached profile not cleared")
	}
}

func TestTokenAddedElsewhereRefetches(t *testing.T) {
	st := NewStore(storage.NewMemory())
	f := &fakeFetcher{raw: `{"name":"New"}`}
	r := NewSyncer(st, f).HandleEvent(context.Background(), storage.Event{Key: storage.KeyAuthToken, NewValue: "fresh"})
	if !r.Success || f.calls() != 1 || f.tokens[0] != "fresh" {
		t.Errorf("result = %+v tokens = %v", r, f.tokens)
	}
}

func TestRunFollowsSiblingEvents(t *testing.T) {
	mem := storage.NewMemory()
	other := mem.Sibling()
	st := NewStore(mem)
	f := &fakeFetcher{raw: `{"name":"Tab2"}`}
	s := NewSyncer(st, f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// either Initial or the storage event picks up the new token
	_ = other.Set(context.Background(), storage.KeyAuthToken, "t2")
	if !waitFor(func() bool { return f.calls() > 0 }) {
		t.Fatal("sibling login never triggered a fetch")
	}
	if !waitFor(func() bool { return st.User() != nil && st.User().Name == "Tab2" }) {
		t.Fatalf("store user = %+v", st.User())
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run: %v", err)
	}
}

func TestLogout(t *testing.T) {
	mem, st := seeded(t)
	if err := st.Logout(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := get(t, mem, storage.KeyAuthToken); ok {
		t.Error("token kept")
	}
	if st.Authenticated() {
		t.Error("still authenticated")
	}
}
