package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterConsume(t *testing.T) {
	m := NewMemoryLimiter()
	defer m.Close()

	cfg := TierConfig{Tier: "general", Points: 3, Window: time.Minute}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := m.Consume(ctx, cfg, "1.2.3.4", 1)
		require.NoError(t, err)
		require.True(t, d.Allowed)
		require.Equal(t, 3, d.Limit)
		require.Equal(t, 2-i, d.Remaining)
	}

	d, err := m.Consume(ctx, cfg, "1.2.3.4", 1)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, 0, d.Remaining)
	require.Nil(t, d.BlockedUntil)
	require.GreaterOrEqual(t, d.RetryAfterSeconds(), 1)
}

func TestMemoryLimiterIdentitiesIsolated(t *testing.T) {
	m := NewMemoryLimiter()
	defer m.Close()

	cfg := TierConfig{Tier: "general", Points: 1, Window: time.Minute}
	ctx := context.Background()

	d, _ := m.Consume(ctx, cfg, "1.1.1.1", 1)
	require.True(t, d.Allowed)
	d, _ = m.Consume(ctx, cfg, "1.1.1.1", 1)
	require.False(t, d.Allowed)

	d, _ = m.Consume(ctx, cfg, "2.2.2.2", 1)
	require.True(t, d.Allowed)
}

func TestMemoryLimiterWindowRollover(t *testing.T) {
	m := NewMemoryLimiter()
	defer m.Close()

	cfg := TierConfig{Tier: "general", Points: 2, Window: 100 * time.Millisecond}
	ctx := context.Background()

	m.Consume(ctx, cfg, "1.2.3.4", 1)
	m.Consume(ctx, cfg, "1.2.3.4", 1)
	d, _ := m.Consume(ctx, cfg, "1.2.3.4", 1)
	require.False(t, d.Allowed)

	time.Sleep(150 * time.Millisecond)

	d, _ = m.Consume(ctx, cfg, "1.2.3.4", 1)
	require.True(t, d.Allowed)
	require.Equal(t, 1, d.Remaining)
}

func TestMemoryLimiterBlockOutlivesWindow(t *testing.T) {
	m := NewMemoryLimiter()
	defer m.Close()

	cfg := TierConfig{Tier: "ip", Points: 1, Window: 50 * time.Millisecond, BlockDuration: time.Hour}
	ctx := context.Background()

	d, _ := m.Consume(ctx, cfg, "1.2.3.4", 1)
	require.True(t, d.Allowed)

	d, _ = m.Consume(ctx, cfg, "1.2.3.4", 1)
	require.False(t, d.Allowed)
	require.NotNil(t, d.BlockedUntil)

	// The window has rolled over but the block has not.
	time.Sleep(100 * time.Millisecond)

	d, _ = m.Consume(ctx, cfg, "1.2.3.4", 1)
	require.False(t, d.Allowed)
	require.NotNil(t, d.BlockedUntil)
}

func TestMemoryLimiterExpiredBlockResets(t *testing.T) {
	m := NewMemoryLimiter()
	defer m.Close()

	cfg := TierConfig{Tier: "ip", Points: 1, Window: 50 * time.Millisecond, BlockDuration: 100 * time.Millisecond}
	ctx := context.Background()

	m.Consume(ctx, cfg, "1.2.3.4", 1)
	d, _ := m.Consume(ctx, cfg, "1.2.3.4", 1)
	require.False(t, d.Allowed)

	time.Sleep(150 * time.Millisecond)

	d, _ = m.Consume(ctx, cfg, "1.2.3.4", 1)
	require.True(t, d.Allowed)
}

func TestMemoryLimiterReset(t *testing.T) {
	m := NewMemoryLimiter()
	defer m.Close()

	cfg := TierConfig{Tier: "ip", Points: 1, Window: time.Hour, BlockDuration: time.Hour}
	ctx := context.Background()

	m.Consume(ctx, cfg, "1.2.3.4", 1)
	d, _ := m.Consume(ctx, cfg, "1.2.3.4", 1)
	require.False(t, d.Allowed)

	require.NoError(t, m.Reset(ctx, "ip", "1.2.3.4"))

	d, _ = m.Consume(ctx, cfg, "1.2.3.4", 1)
	require.True(t, d.Allowed)
}

func TestMemoryLimiterSweep(t *testing.T) {
	m := NewMemoryLimiter()
	defer m.Close()
	m.idleTTL = 10 * time.Millisecond

	cfg := TierConfig{Tier: "general", Points: 5, Window: time.Minute}
	ctx := context.Background()

	m.Consume(ctx, cfg, "1.2.3.4", 1)
	require.Len(t, m.records, 1)

	time.Sleep(20 * time.Millisecond)
	m.sweep(time.Now())

	require.Empty(t, m.records)
}

func TestMemoryLimiterSweepKeepsBlocked(t *testing.T) {
	m := NewMemoryLimiter()
	defer m.Close()
	m.idleTTL = 10 * time.Millisecond

	cfg := TierConfig{Tier: "ip", Points: 1, Window: time.Minute, BlockDuration: time.Hour}
	ctx := context.Background()

	m.Consume(ctx, cfg, "1.2.3.4", 1)
	m.Consume(ctx, cfg, "1.2.3.4", 1) // triggers the block

	time.Sleep(20 * time.Millisecond)
	m.sweep(time.Now())

	require.Len(t, m.records, 1)
}
