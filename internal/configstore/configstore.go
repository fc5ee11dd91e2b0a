// Package configstore loads and saves the authenticated user's global
// configuration blob. Without a bearer token both operations are silent
// no-ops.
package configstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/glazia/storefront/internal/storage"
)

// TokenSource yields the bearer token, if any.
type TokenSource interface {
	Token(ctx context.Context) (string, bool, error)
}

// StorageToken reads authToken from persistent storage.
type StorageToken struct {
	Storage storage.Storage
}

func (s StorageToken) Token(ctx context.Context) (string, bool, error) {
	v, ok, err := s.Storage.Get(ctx, storage.KeyAuthToken)
	if err != nil || !ok || v == "" {
		return "", false, err
	}
	return v, true, nil
}

// StaticToken is a token already in hand, e.g. from a request header.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, bool, error) {
	return string(s), s != "", nil
}

// Backend is the config endpoint pair. *api.Client satisfies it.
type Backend interface {
	LoadConfig(ctx context.Context, token string) (json.RawMessage, error)
	SaveConfig(ctx context.Context, token string, blob json.RawMessage) (json.RawMessage, error)
}

// Store fronts the backend config endpoint.
type Store struct {
	backend Backend
	tokens  TokenSource
}

// New creates a Store.
func New(backend Backend, tokens TokenSource) *Store {
	return &Store{backend: backend, tokens: tokens}
}

// Load returns the blob. ok is false, with a nil error, when there is no
// token and nothing was requested.
func (s *Store) Load(ctx context.Context) (blob json.RawMessage, ok bool, err error) {
	token, ok, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("read token: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	blob, err = s.backend.LoadConfig(ctx, token)
	if err != nil {
		return nil, true, fmt.Errorf("load config: %w", err)
	}
	return blob, true, nil
}

// Save stores blob verbatim and returns the backend's reply. ok is false
// when there is no token.
func (s *Store) Save(ctx context.Context, blob json.RawMessage) (reply json.RawMessage, ok bool, err error) {
	token, ok, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("read token: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	reply, err = s.backend.SaveConfig(ctx, token, blob)
	if err != nil {
		return nil, true, fmt.Errorf("save config: %w", err)
	}
	return reply, true, nil
}
