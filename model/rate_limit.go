package model

import "time"

// RateLimitRecord is the in-memory fixed-window counter state for one
// (tier, identity) pair. Created lazily on first consumption, swept after
// inactivity.
type RateLimitRecord struct {
	Identity     string
	Tier         string
	Count        int
	WindowStart  time.Time
	BlockedUntil *time.Time
	LastSeen     time.Time
}
