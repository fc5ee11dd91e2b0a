// Package session keeps the storefront's view of the signed-in user: an
// in-memory Store mirrored into persistent storage, and a Syncer that
// refreshes it from the backend on start-up, on navigation and on storage
// changes made by other processes.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/glazia/storefront/internal/logx"
	"github.com/glazia/storefront/internal/model"
	"github.com/glazia/storefront/internal/storage"
)

// Store is the in-memory authentication state. It is changed only by
// Bootstrap, the Syncer and Logout.
type Store struct {
	storage storage.Storage

	mu   sync.RWMutex
	user *model.UserProfile
}

// NewStore creates an unauthenticated Store over s.
func NewStore(s storage.Storage) *Store {
	return &Store{storage: s}
}

// Bootstrap hydrates the in-memory user from the cached profile when a
// token is present. A corrupt cached profile is dropped.
func (s *Store) Bootstrap(ctx context.Context) error {
	token, ok, err := s.storage.Get(ctx, storage.KeyAuthToken)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if !ok || token == "" {
		s.reset()
		return nil
	}
	raw, ok, err := s.storage.Get(ctx, storage.KeyUser)
	if err != nil {
		return fmt.Errorf("read cached user: %w", err)
	}
	if !ok {
		return nil
	}
	var u model.UserProfile
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		if rerr := s.storage.Remove(ctx, storage.KeyUser); rerr != nil {
			logx.Warn().Err(rerr).Str("key", storage.KeyUser).Msg("drop corrupt cached user")
		}
		return nil
	}
	s.set(&u)
	return nil
}

// User returns a copy of the current user, or nil.
func (s *Store) User() *model.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	cp := *s.user
	if s.user.DynamicPricing != nil {
		cp.DynamicPricing = make(map[string]float64, len(s.user.DynamicPricing))
		for k, v := range s.user.DynamicPricing {
			cp.DynamicPricing[k] = v
		}
	}
	return &cp
}

// Authenticated reports whether a user is held in memory.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Token reads the bearer token from persistent storage.
func (s *Store) Token(ctx context.Context) (string, bool, error) {
	v, ok, err := s.storage.Get(ctx, storage.KeyAuthToken)
	if err != nil || !ok || v == "" {
		return "", false, err
	}
	return v, true, nil
}

// Login stores a token issued by the backend. The profile arrives with the
// next refresh.
func (s *Store) Login(ctx context.Context, token string) error {
	return s.storage.Set(ctx, storage.KeyAuthToken, token)
}

// Logout purges the token and cached profile and resets in-memory state.
func (s *Store) Logout(ctx context.Context) error {
	s.reset()
	return s.purge(ctx)
}

func (s *Store) purge(ctx context.Context) error {
	errTok := s.storage.Remove(ctx, storage.KeyAuthToken)
	errUser := s.storage.Remove(ctx, storage.KeyUser)
	if errTok != nil {
		return errTok
	}
	return errUser
}

func (s *Store) set(u *model.UserProfile) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

func (s *Store) reset() { s.set(nil) }
