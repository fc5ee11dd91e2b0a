package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/glazia/storefront/internal/storage"
)

// stuckStorage refuses removals.
type stuckStorage struct {
	*storage.Memory
}

func (stuckStorage) Remove(context.Context, string) error { return errors.New("read-only") }

func TestBootstrapDropsCorruptProfile(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	_ = mem.Set(ctx, storage.KeyAuthToken, "tok")
	_ = mem.Set(ctx, storage.KeyUser, "{not json")

	st := NewStore(mem)
	if err := st.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}
	if st.User() != nil {
		t.Error("corrupt profile hydrated")
	}
	if _, ok, _ := mem.Get(ctx, storage.KeyUser); ok {
		t.Error("corrupt profile kept")
	}
}

func TestBootstrapLogsFailedCleanup(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	ctx := context.Background()
	mem := storage.NewMemory()
	_ = mem.Set(ctx, storage.KeyAuthToken, "tok")
	_ = mem.Set(ctx, storage.KeyUser, "{not json")

	st := NewStore(stuckStorage{mem})
	if err := st.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}
	if st.User() != nil {
		t.Error("corrupt profile hydrated")
	}
	if out := buf.String(); !strings.Contains(out, "drop corrupt cached user") || !strings.Contains(out, "read-only") {
		t.Errorf("log = %q", out)
	}
}
