package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript increments the window counter and arms its expiry on first
// touch, atomically, so concurrent instances never observe a partial update.
// Returns {count, remaining window in ms}.
var consumeScript = redis.NewScript(`
local count = redis.call('INCRBY', KEYS[1], ARGV[1])
if count == tonumber(ARGV[1]) then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
local ttl = redis.call('PTTL', KEYS[1])
return {count, ttl}
`)

// RedisLimiter is the shared fixed-window backend, correct across multiple
// instances because each consume is a single atomic script call.
type RedisLimiter struct {
	client *redis.Client
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

func (r *RedisLimiter) Name() string {
	return "redis"
}

func (r *RedisLimiter) Consume(ctx context.Context, cfg TierConfig, identity string, cost int) (*Decision, error) {
	if cost <= 0 {
		cost = 1
	}

	now := time.Now()
	key := counterKey(cfg.Tier, identity)
	blockKey := blockKey(cfg.Tier, identity)

	// An explicit block short-circuits the counter entirely.
	blockTTL, err := r.client.PTTL(ctx, blockKey).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit block lookup: %w", err)
	}
	if blockTTL > 0 {
		blockedUntil := now.Add(blockTTL)
		return &Decision{
			Allowed:      false,
			Limit:        cfg.Points,
			Remaining:    0,
			ResetAt:      blockedUntil,
			BlockedUntil: &blockedUntil,
			Backend:      r.Name(),
		}, nil
	}

	res, err := consumeScript.Run(ctx, r.client, []string{key}, cost, cfg.Window.Milliseconds()).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit consume: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return nil, fmt.Errorf("rate limit consume: unexpected script reply %v", res)
	}

	count := int(vals[0].(int64))
	windowMs := vals[1].(int64)
	resetAt := now.Add(time.Duration(windowMs) * time.Millisecond)

	if count > cfg.Points {
		decision := &Decision{
			Allowed:   false,
			Limit:     cfg.Points,
			Remaining: 0,
			ResetAt:   resetAt,
			Backend:   r.Name(),
		}

		if cfg.BlockDuration > 0 {
			if err := r.client.Set(ctx, blockKey, 1, cfg.BlockDuration).Err(); err != nil {
				return nil, fmt.Errorf("rate limit block set: %w", err)
			}
			blockedUntil := now.Add(cfg.BlockDuration)
			decision.ResetAt = blockedUntil
			decision.BlockedUntil = &blockedUntil
		}

		return decision, nil
	}

	return &Decision{
		Allowed:   true,
		Limit:     cfg.Points,
		Remaining: cfg.Points - count,
		ResetAt:   resetAt,
		Backend:   r.Name(),
	}, nil
}

func (r *RedisLimiter) Reset(ctx context.Context, tier, identity string) error {
	return r.client.Del(ctx, counterKey(tier, identity), blockKey(tier, identity)).Err()
}

func (r *RedisLimiter) Close() error {
	// The client belongs to RedisService.
	return nil
}

func counterKey(tier, identity string) string {
	return "rl:" + tier + ":" + identity
}

func blockKey(tier, identity string) string {
	return "rl:block:" + tier + ":" + identity
}
