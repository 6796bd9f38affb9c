package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// minRetryDelay bounds how fast Wait polls after a denial
const minRetryDelay = 10 * time.Millisecond

// RateLimitConfig is a request budget per window for one upstream
type RateLimitConfig struct {
	Key    string        // 호출 대상 (예: "eastmoney", "quotepage")
	Limit  int           // requests per window
	Window time.Duration // window length
}

// Upstream budgets
var (
	// Eastmoney push2 API: 초당 5회 (보수적)
	EastmoneyRateLimit = RateLimitConfig{Key: "eastmoney", Limit: 5, Window: time.Second}

	// HTML quote page: 초당 2회
	QuotePageRateLimit = RateLimitConfig{Key: "quotepage", Limit: 2, Window: time.Second}
)

// RateLimiter is a sliding-window limiter shared by every picker process
// (CLI runs, API server and scheduler hit the same upstream quota).
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
	seq    atomic.Uint64
}

// NewRateLimiter creates a limiter whose keys live under prefix
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{client: client, prefix: prefix}
}

// KEYS[1] window set, ARGV: now_ms, window_ms, limit, member
// returns {allowed, remaining, retry_after_ms}
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window)
	return {1, limit - count - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local retry = window
if oldest[2] then
	retry = tonumber(oldest[2]) + window - now
end
return {0, 0, retry}
`)

// Allow records one request if the budget permits.
// Returns (allowed, remaining); a disabled client allows everything.
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	allowed, remaining, _, err := r.take(ctx, cfg)
	return allowed, remaining, err
}

// Wait blocks until a request is allowed or ctx is done
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		allowed, _, retryAfter, err := r.take(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}
		if retryAfter < minRetryDelay {
			retryAfter = minRetryDelay
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryAfter):
		}
	}
}

func (r *RateLimiter) take(ctx context.Context, cfg RateLimitConfig) (bool, int, time.Duration, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, 0, nil
	}

	now := time.Now().UnixMilli()
	// 같은 ms 내 여러 요청도 서로 다른 member 로 기록
	member := strconv.FormatInt(now, 10) + "-" + strconv.FormatUint(r.seq.Add(1), 10)

	res, err := slidingWindow.Run(ctx, r.client.Redis(), []string{r.key(cfg)},
		now, cfg.Window.Milliseconds(), cfg.Limit, member,
	).Int64Slice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("rate limit %s: %w", cfg.Key, err)
	}
	if len(res) != 3 {
		return false, 0, 0, fmt.Errorf("rate limit %s: unexpected reply %v", cfg.Key, res)
	}

	return res[0] == 1, int(res[1]), time.Duration(res[2]) * time.Millisecond, nil
}

func (r *RateLimiter) key(cfg RateLimitConfig) string {
	return r.prefix + ":" + cfg.Key
}
