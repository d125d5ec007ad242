package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestDDoSGuard() *DDoSGuardService {
	svc := &DDoSGuardService{}
	svc.applyDefaults()
	return svc
}

func TestRecordArrivalNormalPacing(t *testing.T) {
	svc := newTestDDoSGuard()

	now := time.Now()
	for i := 0; i < 50; i++ {
		blocked, _ := svc.recordArrival("1.2.3.4", now)
		require.False(t, blocked)
		now = now.Add(time.Second)
	}
}

func TestRecordArrivalRapidFire(t *testing.T) {
	svc := newTestDDoSGuard()

	now := time.Now()
	var blocked bool
	var until time.Time

	// Gaps well under minInterval eventually trip the detector.
	for i := 0; i < 20; i++ {
		blocked, until = svc.recordArrival("1.2.3.4", now)
		if blocked {
			break
		}
		now = now.Add(time.Millisecond)
	}

	require.True(t, blocked)
	require.True(t, until.After(now))

	// And the block holds for subsequent arrivals.
	blocked, _ = svc.recordArrival("1.2.3.4", now.Add(time.Second))
	require.True(t, blocked)
}

func TestRecordArrivalSlowdownResetsBurst(t *testing.T) {
	svc := newTestDDoSGuard()

	now := time.Now()
	// A few rapid arrivals, below the threshold.
	for i := 0; i < 5; i++ {
		svc.recordArrival("1.2.3.4", now)
		now = now.Add(time.Millisecond)
	}

	// Backing off clears the streak, so more rapid arrivals start from zero.
	now = now.Add(time.Second)
	for i := 0; i < 8; i++ {
		blocked, _ := svc.recordArrival("1.2.3.4", now)
		require.False(t, blocked)
		now = now.Add(time.Millisecond)
	}
}

func TestRecordArrivalBlockExpiry(t *testing.T) {
	svc := newTestDDoSGuard()
	svc.blockDuration = 50 * time.Millisecond

	now := time.Now()
	for i := 0; i < 20; i++ {
		svc.recordArrival("1.2.3.4", now)
		now = now.Add(time.Millisecond)
	}

	blocked, _ := svc.recordArrival("1.2.3.4", now)
	require.True(t, blocked)

	blocked, _ = svc.recordArrival("1.2.3.4", now.Add(time.Second))
	require.False(t, blocked)
}

func TestDDoSGuardSweep(t *testing.T) {
	svc := newTestDDoSGuard()
	svc.idleTTL = 10 * time.Millisecond

	svc.recordArrival("1.2.3.4", time.Now())
	time.Sleep(20 * time.Millisecond)
	svc.sweep(time.Now())

	require.Empty(t, svc.arrivals)
}
