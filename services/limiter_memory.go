package services

import (
	"context"
	"sync"
	"time"

	"github.com/promptforge-labs/forge_api/model"
)

// MemoryLimiter is the process-local fixed-window backend. Correctness
// degrades to per-process limiting under horizontal scaling, which is the
// accepted trade-off when the shared store is unavailable.
type MemoryLimiter struct {
	mutex   sync.Mutex
	records map[string]*model.RateLimitRecord

	idleTTL time.Duration
	stop    chan struct{}
	once    sync.Once
}

func NewMemoryLimiter() *MemoryLimiter {
	m := &MemoryLimiter{
		records: make(map[string]*model.RateLimitRecord),
		idleTTL: time.Hour,
		stop:    make(chan struct{}),
	}

	go m.sweepLoop()
	return m
}

func (m *MemoryLimiter) Name() string {
	return "memory"
}

func (m *MemoryLimiter) Consume(_ context.Context, cfg TierConfig, identity string, cost int) (*Decision, error) {
	if cost <= 0 {
		cost = 1
	}

	now := time.Now()
	key := cfg.Tier + ":" + identity

	m.mutex.Lock()
	defer m.mutex.Unlock()

	rec, exists := m.records[key]

	// Explicit block outlives the normal window.
	if exists && rec.BlockedUntil != nil {
		if now.Before(*rec.BlockedUntil) {
			rec.LastSeen = now
			return &Decision{
				Allowed:      false,
				Limit:        cfg.Points,
				Remaining:    0,
				ResetAt:      *rec.BlockedUntil,
				BlockedUntil: rec.BlockedUntil,
				Backend:      m.Name(),
			}, nil
		}
		rec.BlockedUntil = nil
		rec.Count = 0
		rec.WindowStart = now
	}

	// First consumption for this identity, or window rolled over.
	if !exists || now.Sub(rec.WindowStart) >= cfg.Window {
		rec = &model.RateLimitRecord{
			Identity:    identity,
			Tier:        cfg.Tier,
			Count:       cost,
			WindowStart: now,
			LastSeen:    now,
		}
		m.records[key] = rec

		return &Decision{
			Allowed:   true,
			Limit:     cfg.Points,
			Remaining: cfg.Points - rec.Count,
			ResetAt:   rec.WindowStart.Add(cfg.Window),
			Backend:   m.Name(),
		}, nil
	}

	rec.LastSeen = now
	resetAt := rec.WindowStart.Add(cfg.Window)

	if rec.Count+cost > cfg.Points {
		decision := &Decision{
			Allowed:   false,
			Limit:     cfg.Points,
			Remaining: 0,
			ResetAt:   resetAt,
			Backend:   m.Name(),
		}

		if cfg.BlockDuration > 0 {
			blockedUntil := now.Add(cfg.BlockDuration)
			rec.BlockedUntil = &blockedUntil
			decision.ResetAt = blockedUntil
			decision.BlockedUntil = &blockedUntil
		}

		return decision, nil
	}

	rec.Count += cost
	return &Decision{
		Allowed:   true,
		Limit:     cfg.Points,
		Remaining: cfg.Points - rec.Count,
		ResetAt:   resetAt,
		Backend:   m.Name(),
	}, nil
}

func (m *MemoryLimiter) Reset(_ context.Context, tier, identity string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.records, tier+":"+identity)
	return nil
}

func (m *MemoryLimiter) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

func (m *MemoryLimiter) sweepLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

// sweep evicts records with no activity beyond the idle TTL that are not
// currently blocked.
func (m *MemoryLimiter) sweep(now time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for key, rec := range m.records {
		if rec.BlockedUntil != nil && now.Before(*rec.BlockedUntil) {
			continue
		}
		if now.Sub(rec.LastSeen) > m.idleTTL {
			delete(m.records, key)
		}
	}
}
