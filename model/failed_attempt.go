package model

import "time"

// FailedAttemptRecord tracks failed credential verifications from one IP.
// Once Count reaches the configured threshold inside the window, Blocked
// stays true until BlockedUntil passes, after which the record resets to a
// clean state instead of being deleted.
type FailedAttemptRecord struct {
	IP           string
	Count        int
	FirstAttempt time.Time
	LastAttempt  time.Time
	Blocked      bool
	BlockedUntil time.Time
}
