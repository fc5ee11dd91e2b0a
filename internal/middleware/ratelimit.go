package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/glazia/storefront/internal/config"
	"github.com/glazia/storefront/internal/logx"
)

// loginBuckets takes one token from every bucket in KEYS, or none when any
// of them is empty. Replies {allowed, lowest remaining, retry_after_ms}.
var loginBuckets = redis.NewScript(`
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local tokens, stamps = {}, {}
local allowed, wait = 1, 0
for i, key in ipairs(KEYS) do
  local s = redis.call('HMGET', key, 'tokens', 'ts')
  local t = tonumber(s[1]) or capacity
  local ts = tonumber(s[2]) or now
  if interval > 0 then
    local n = math.floor(math.max(0, now - ts) / interval)
    if n > 0 then
      t = math.min(capacity, t + n * refill)
      ts = ts + n * interval
    end
  end
  if t < 1 then
    allowed = 0
    wait = math.max(wait, interval - (now - ts))
  end
  tokens[i], stamps[i] = t, ts
end

local remaining = capacity
for i, key in ipairs(KEYS) do
  if allowed == 1 then tokens[i] = tokens[i] - 1 end
  remaining = math.min(remaining, tokens[i])
  redis.call('HSET', key, 'tokens', tokens[i], 'ts', stamps[i])
  redis.call('EXPIRE', key, ttl)
end
return {allowed, remaining, math.max(0, wait)}
`)

// NewTokenBucket limits admin login attempts with token buckets kept in
// Redis: one per client IP and, with cfg.PerAccount, one per submitted
// username. An attempt spends a token from each and is refused when any is
// empty. Redis errors let the request through. With no client the
// middleware is a pass-through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			keys := loginBucketKeys(cfg, c)
			ctx := c.Request().Context()
			vals, err := loginBuckets.Run(ctx, rdb, keys,
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Result()
			if err != nil {
				logx.Warn().Err(err).Strs("keys", keys).Msg("ratelimit: redis error")
				return next(c)
			}
			allowed, remaining, retryMs, ok := bucketResult(vals)
			if !ok {
				logx.Warn().Strs("keys", keys).Interface("result", vals).Msg("ratelimit: unexpected script result")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", strings.Join(keys, ","))
			}
			if allowed {
				return next(c)
			}

			secs := int(math.Ceil(float64(retryMs) / 1000))
			h.Set("Retry-After", strconv.Itoa(secs))
			logx.Info().Strs("keys", keys).Int64("retry_ms", retryMs).Msg("ratelimit: login blocked")
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "too many login attempts, try again later",
				"retry_after": secs,
			})
		}
	}
}

func loginBucketKeys(cfg config.RateLimitConfig, c echo.Context) []string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	keys := []string{cfg.Prefix + ":ip:" + ip}
	if cfg.PerAccount {
		if u := loginUsername(c.Request()); u != "" {
			keys = append(keys, cfg.Prefix+":account:"+u)
		}
	}
	return keys
}

// maxLoginPeek bounds how much of the login body is read to find the
// username.
const maxLoginPeek = 16 << 10

// loginUsername reads the username from a JSON login body and restores the
// body for the handler. Names are lower-cased so case variants share a
// bucket.
func loginUsername(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	head, err := io.ReadAll(io.LimitReader(r.Body, maxLoginPeek))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
	if err != nil {
		return ""
	}
	var body struct {
		Username string `json:"username"`
	}
	if json.Unmarshal(head, &body) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Username))
}

// bucketResult decodes the script reply {allowed, remaining, retry_after_ms}.
func bucketResult(vals any) (allowed bool, remaining, retryMs int64, ok bool) {
	arr, isArr := vals.([]any)
	if !isArr || len(arr) != 3 {
		return false, 0, 0, false
	}
	nums := make([]int64, 3)
	for i, v := range arr {
		switch t := v.(type) {
		case int64:
			nums[i] = t
		case string:
			n, err := strconv.ParseInt(t, 10, 64)
			if err != nil {
				return false, 0, 0, false
			}
			nums[i] = n
		default:
			return false, 0, 0, false
		}
	}
	return nums[0] == 1, nums[1], nums[2], true
}
