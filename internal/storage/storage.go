// Package storage is the client-side persistent key/value store shared by
// every storefront process of a user, the Go counterpart of browser
// localStorage. Writers publish change events; each subscriber only sees
// changes made by other handles, the way a storage event only fires in the
// other tabs.
package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

// Keys produced and consumed by the storefront.
const (
	KeyAuthToken = "authToken"
	KeyUser      = "glazia-user"
)

// Event describes a change made through another handle.
type Event struct {
	Key      string `json:"key"`
	NewValue string `json:"newValue,omitempty"`
	Removed  bool   `json:"removed,omitempty"`
	Origin   string `json:"origin"`
}

// Storage is a string key/value store with change notification.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	// Subscribe delivers events from other handles until ctx is done, then
	// closes the channel.
	Subscribe(ctx context.Context) (<-chan Event, error)
}

func newOrigin() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "origin"
	}
	return hex.EncodeToString(b)
}
