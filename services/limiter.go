package services

import (
	"context"
	"time"
)

// TierConfig is the admission policy for one rate limit tier.
type TierConfig struct {
	Tier          string
	Points        int
	Window        time.Duration
	BlockDuration time.Duration // 0 means exhaustion only lasts until the window resets
	Description   string
}

// Decision is the result of one consumption attempt. Over-quota is a normal
// outcome, not an error; errors are reserved for backend faults.
type Decision struct {
	Allowed      bool
	Limit        int
	Remaining    int
	ResetAt      time.Time
	BlockedUntil *time.Time
	Backend      string
}

// RetryAfterSeconds returns the seconds a well-behaved client should wait,
// rounded up, never below 1 for a rejected decision.
func (d *Decision) RetryAfterSeconds() int {
	until := d.ResetAt
	if d.BlockedUntil != nil && d.BlockedUntil.After(until) {
		until = *d.BlockedUntil
	}

	secs := int(time.Until(until).Seconds()) + 1
	if secs < 1 {
		secs = 1
	}
	return secs
}

// LimiterBackend is the pluggable counter store behind the rate limiter.
// Implementations must tolerate concurrent consume calls for the same key
// without losing updates.
type LimiterBackend interface {
	Name() string
	Consume(ctx context.Context, cfg TierConfig, identity string, cost int) (*Decision, error)
	Reset(ctx context.Context, tier, identity string) error
	Close() error
}
