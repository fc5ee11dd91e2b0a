package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/glazia/storefront/internal/logx"
)

// Redis is a Storage shared across processes. Values live under
// prefix:key and changes are announced on the prefix:events channel.
type Redis struct {
	rdb    *redis.Client
	prefix string
	origin string
}

// NewRedis creates a handle with its own origin. prefix namespaces one
// user's storage, e.g. "glazia:storage:<device>".
func NewRedis(rdb *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "glazia:storage"
	}
	return &Redis{rdb: rdb, prefix: prefix, origin: newOrigin()}
}

func (r *Redis) key(k string) string { return r.prefix + ":" + k }

func (r *Redis) channel() string { return r.prefix + ":events" }

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage get %s: %w", key, err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("storage set %s: %w", key, err)
	}
	r.publish(ctx, Event{Key: key, NewValue: value, Origin: r.origin})
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	n, err := r.rdb.Del(ctx, r.key(key)).Result()
	if err != nil {
		return fmt.Errorf("storage remove %s: %w", key, err)
	}
	if n > 0 {
		r.publish(ctx, Event{Key: key, Removed: true, Origin: r.origin})
	}
	return nil
}

// publish is best effort: the value is already written and other handles
// resynchronize on their next read.
func (r *Redis) publish(ctx context.Context, ev Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := r.rdb.Publish(ctx, r.channel(), body).Err(); err != nil {
		logx.Warn().Err(err).Str("key", ev.Key).Msg("storage: publish change event failed")
	}
}

func (r *Redis) Subscribe(ctx context.Context) (<-chan Event, error) {
	ps := r.rdb.Subscribe(ctx, r.channel())
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("storage subscribe: %w", err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					logx.Warn().Err(err).Msg("storage: bad change event")
					continue
				}
				if ev.Origin == r.origin {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
