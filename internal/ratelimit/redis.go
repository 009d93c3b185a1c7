package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	hermesredis "github.com/hermes-bot/hermes/internal/redis"
)

var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

local count = redis.call('ZCARD', key)
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local resetAt = now + window
if #oldest >= 2 then
    resetAt = tonumber(oldest[2]) + window
end

if count >= limit then
    return {0, resetAt}
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('PEXPIRE', key, window + 10000)

return {1, resetAt}
`)

// RedisLimiter shares the window across bot replicas. When Redis cannot be
// reached the command is allowed.
type RedisLimiter struct {
	client redis.Scripter
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client redis.Scripter, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, window: window, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int) (bool, time.Time) {
	now := l.now()
	nowMs := now.UnixMilli()

	result, err := slidingWindowScript.Run(
		ctx, l.client,
		[]string{hermesredis.CommandRateKey(key)},
		nowMs, l.window.Milliseconds(), limit,
	).Int64Slice()
	if err != nil {
		log.Warn().Err(err).Str("chatUserId", key).Msg("redis rate limit check failed, allowing command")
		return true, now.Add(l.window)
	}
	if len(result) != 2 {
		log.Warn().Str("chatUserId", key).Msg("unexpected redis rate limit result")
		return true, now.Add(l.window)
	}

	return result[0] == 1, time.UnixMilli(result[1])
}
