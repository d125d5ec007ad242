package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestFailedAttemptService() *FailedAttemptService {
	svc := &FailedAttemptService{}
	svc.applyDefaults()
	return svc
}

func TestFailedAttemptThreshold(t *testing.T) {
	svc := newTestFailedAttemptService()

	for i := 0; i < 4; i++ {
		require.False(t, svc.RecordFailure("1.2.3.4"))
		blocked, _ := svc.IsBlocked("1.2.3.4")
		require.False(t, blocked)
	}

	require.True(t, svc.RecordFailure("1.2.3.4"))

	blocked, until := svc.IsBlocked("1.2.3.4")
	require.True(t, blocked)
	require.True(t, until.After(time.Now()))
}

func TestFailedAttemptWindowReset(t *testing.T) {
	svc := newTestFailedAttemptService()
	svc.window = 50 * time.Millisecond

	for i := 0; i < 4; i++ {
		svc.RecordFailure("1.2.3.4")
	}

	time.Sleep(100 * time.Millisecond)

	// A stale window restarts counting instead of tipping into a block.
	require.False(t, svc.RecordFailure("1.2.3.4"))
	require.Equal(t, 1, svc.records["1.2.3.4"].Count)
}

func TestFailedAttemptClearOnSuccess(t *testing.T) {
	svc := newTestFailedAttemptService()

	for i := 0; i < 4; i++ {
		svc.RecordFailure("1.2.3.4")
	}
	svc.ClearOnSuccess("1.2.3.4")

	require.False(t, svc.RecordFailure("1.2.3.4"))
	require.Equal(t, 1, svc.records["1.2.3.4"].Count)
}

func TestFailedAttemptBlockExpiry(t *testing.T) {
	svc := newTestFailedAttemptService()
	svc.blockDuration = 50 * time.Millisecond

	for i := 0; i < 5; i++ {
		svc.RecordFailure("1.2.3.4")
	}

	blocked, _ := svc.IsBlocked("1.2.3.4")
	require.True(t, blocked)

	time.Sleep(100 * time.Millisecond)

	blocked, _ = svc.IsBlocked("1.2.3.4")
	require.False(t, blocked)
	require.Equal(t, 0, svc.records["1.2.3.4"].Count)
}

func TestFailedAttemptIPsIsolated(t *testing.T) {
	svc := newTestFailedAttemptService()

	for i := 0; i < 5; i++ {
		svc.RecordFailure("1.2.3.4")
	}

	blocked, _ := svc.IsBlocked("1.2.3.4")
	require.True(t, blocked)

	blocked, _ = svc.IsBlocked("5.6.7.8")
	require.False(t, blocked)
}

func TestFailedAttemptSweep(t *testing.T) {
	svc := newTestFailedAttemptService()
	svc.idleTTL = 10 * time.Millisecond

	svc.RecordFailure("1.2.3.4")
	time.Sleep(20 * time.Millisecond)
	svc.sweep(time.Now())

	require.Empty(t, svc.records)
}
