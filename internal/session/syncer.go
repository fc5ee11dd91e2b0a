package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/glazia/storefront/internal/api"
	"github.com/glazia/storefront/internal/logx"
	"github.com/glazia/storefront/internal/model"
	"github.com/glazia/storefront/internal/storage"
)

// Refresh failure descriptions.
const (
	MsgNoToken        = "no auth token"
	MsgSessionExpired = "session expired, please sign in again"
	MsgUnavailable    = "user data endpoint not available"
)

// ProfileFetcher returns the raw profile for a bearer token. *api.Client
// satisfies it.
type ProfileFetcher interface {
	FetchUser(ctx context.Context, token string) (json.RawMessage, error)
}

// Result is the outcome of a synchronization step. Steps never return
// errors; Error describes what went wrong for the caller to show or not.
type Result struct {
	Success bool
	Skipped bool
	User    *model.UserProfile
	Error   string
}

// Syncer refreshes the Store from the backend. Concurrent refreshes are
// not ordered; the last one to finish wins.
type Syncer struct {
	store   *Store
	storage storage.Storage
	fetcher ProfileFetcher
	log     zerolog.Logger
}

// NewSyncer creates a Syncer writing through store.
func NewSyncer(store *Store, fetcher ProfileFetcher) *Syncer {
	return &Syncer{
		store:   store,
		storage: store.storage,
		fetcher: fetcher,
		log:     logx.With("session"),
	}
}

// Initial runs the page-load fetch when a token exists.
func (s *Syncer) Initial(ctx context.Context) Result {
	return s.refreshIfToken(ctx)
}

// RouteChanged repeats the fetch after navigation while authenticated.
func (s *Syncer) RouteChanged(ctx context.Context, route string) Result {
	s.log.Debug().Str("route", route).Msg("route changed")
	return s.refreshIfToken(ctx)
}

// Refresh is the manual refresh. Unlike the background steps it reports a
// missing token as an error.
func (s *Syncer) Refresh(ctx context.Context) Result {
	token, ok, err := s.store.Token(ctx)
	if err != nil {
		return Result{Error: fmt.Sprintf("read token: %v", err)}
	}
	if !ok {
		return Result{Error: MsgNoToken}
	}
	return s.fetch(ctx, token)
}

// HandleEvent reacts to a change made by another process.
func (s *Syncer) HandleEvent(ctx context.Context, ev storage.Event) Result {
	switch ev.Key {
	case storage.KeyAuthToken:
		if ev.Removed || ev.NewValue == "" {
			s.store.reset()
			if err := s.storage.Remove(ctx, storage.KeyUser); err != nil {
				return Result{Error: fmt.Sprintf("clear cached user: %v", err)}
			}
			return Result{Success: true}
		}
		return s.fetch(ctx, ev.NewValue)
	case storage.KeyUser:
		if ev.Removed {
			s.store.reset()
			return Result{Success: true}
		}
		var u model.UserProfile
		if err := json.Unmarshal([]byte(ev.NewValue), &u); err != nil {
			return Result{Error: fmt.Sprintf("decode cached user: %v", err)}
		}
		s.store.set(&u)
		return Result{Success: true, User: s.store.User()}
	}
	return Result{Skipped: true}
}

// Run performs the initial fetch and then follows storage events until ctx
// is cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	events, err := s.storage.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to storage: %w", err)
	}
	s.logResult("initial", s.Initial(ctx))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.logResult("storage:"+ev.Key, s.HandleEvent(ctx, ev))
		}
	}
}

func (s *Syncer) refreshIfToken(ctx context.Context) Result {
	token, ok, err := s.store.Token(ctx)
	if err != nil {
		return Result{Error: fmt.Sprintf("read token: %v", err)}
	}
	if !ok {
		return Result{Skipped: true}
	}
	return s.fetch(ctx, token)
}

func (s *Syncer) fetch(ctx context.Context, token string) Result {
	raw, err := s.fetcher.FetchUser(ctx, token)
	if err != nil {
		return s.failed(ctx, err)
	}
	u, err := Normalize(raw)
	if err != nil {
		return Result{Error: err.Error()}
	}
	body, err := json.Marshal(u)
	if err != nil {
		return Result{Error: fmt.Sprintf("encode user: %v", err)}
	}
	if err := s.storage.Set(ctx, storage.KeyUser, string(body)); err != nil {
		return Result{Error: fmt.Sprintf("cache user: %v", err)}
	}
	s.store.set(u)
	return Result{Success: true, User: s.store.User()}
}

func (s *Syncer) failed(ctx context.Context, err error) Result {
	switch {
	case api.IsUnauthorized(err):
		s.store.reset()
		if perr := s.store.purge(ctx); perr != nil {
			s.log.Warn().Err(perr).Msg("purge expired session")
		}
		return Result{Error: MsgSessionExpired}
	case api.IsNotFound(err):
		return Result{Error: MsgUnavailable}
	default:
		s.log.Warn().Err(err).Msg("refresh user data failed")
		return Result{Error: fmt.Sprintf("refresh user data: %v", err)}
	}
}

func (s *Syncer) logResult(trigger string, r Result) {
	ev := s.log.Debug()
	if r.Error != "" {
		ev = s.log.Info().Str("error", r.Error)
	}
	ev.Str("trigger", trigger).Bool("success", r.Success).Bool("skipped", r.Skipped).Msg("user sync")
}
