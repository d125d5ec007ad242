package services

import (
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/promptforge-labs/forge_api/model"
)

// FailedAttemptService slows down credential guessing per client IP without
// permanently banning anyone. Mutated only by the authentication gate.
type FailedAttemptService struct {
	appContext.DefaultService

	maxFailures   int
	window        time.Duration
	blockDuration time.Duration
	idleTTL       time.Duration
	sweepInterval time.Duration

	mutex   sync.Mutex
	records map[string]*model.FailedAttemptRecord

	stop chan struct{}
	once sync.Once
}

const FAILED_ATTEMPT_SVC = "failed_attempt_svc"

func (svc FailedAttemptService) Id() string {
	return FAILED_ATTEMPT_SVC
}

func (svc *FailedAttemptService) Configure(ctx *appContext.Context) error {
	svc.applyDefaults()
	return svc.DefaultService.Configure(ctx)
}

func (svc *FailedAttemptService) applyDefaults() {
	if svc.maxFailures == 0 {
		svc.maxFailures = 5
	}
	if svc.window == 0 {
		svc.window = 5 * time.Minute
	}
	if svc.blockDuration == 0 {
		svc.blockDuration = 10 * time.Minute
	}
	if svc.idleTTL == 0 {
		svc.idleTTL = time.Hour
	}
	if svc.sweepInterval == 0 {
		svc.sweepInterval = 10 * time.Minute
	}
	if svc.records == nil {
		svc.records = make(map[string]*model.FailedAttemptRecord)
	}
	if svc.stop == nil {
		svc.stop = make(chan struct{})
	}
}

func (svc *FailedAttemptService) Start() error {
	go svc.sweepLoop()
	return nil
}

func (svc *FailedAttemptService) Shutdown() {
	svc.once.Do(func() { close(svc.stop) })
}

// RecordFailure counts one failed verification from ip and returns whether
// the IP is now blocked. A failure arriving after the window has passed
// restarts the window instead of accumulating forever.
func (svc *FailedAttemptService) RecordFailure(ip string) bool {
	now := time.Now()

	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	rec, exists := svc.records[ip]
	if !exists || now.Sub(rec.FirstAttempt) > svc.window {
		svc.records[ip] = &model.FailedAttemptRecord{
			IP:           ip,
			Count:        1,
			FirstAttempt: now,
			LastAttempt:  now,
		}
		return false
	}

	rec.Count++
	rec.LastAttempt = now

	if rec.Count >= svc.maxFailures && !rec.Blocked {
		rec.Blocked = true
		rec.BlockedUntil = now.Add(svc.blockDuration)
		log.WithFields(log.Fields{
			"ip":            ip,
			"count":         rec.Count,
			"blocked_until": rec.BlockedUntil,
		}).Warn("IP blocked after repeated failed credential attempts")
	}

	return rec.Blocked
}

// IsBlocked reports whether ip is inside an active block. An expired block
// resets the record to a clean state on the way out.
func (svc *FailedAttemptService) IsBlocked(ip string) (bool, time.Time) {
	now := time.Now()

	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	rec, exists := svc.records[ip]
	if !exists || !rec.Blocked {
		return false, time.Time{}
	}

	if now.Before(rec.BlockedUntil) {
		return true, rec.BlockedUntil
	}

	rec.Blocked = false
	rec.BlockedUntil = time.Time{}
	rec.Count = 0
	rec.FirstAttempt = now
	return false, time.Time{}
}

// ClearOnSuccess removes the record entirely after any successful
// authentication from ip.
func (svc *FailedAttemptService) ClearOnSuccess(ip string) {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	delete(svc.records, ip)
}

func (svc *FailedAttemptService) sweepLoop() {
	ticker := time.NewTicker(svc.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-svc.stop:
			return
		case <-ticker.C:
			svc.sweep(time.Now())
		}
	}
}

// sweep evicts idle unblocked entries and resets entries whose block has
// expired, keeping the map bounded while preserving recent history.
func (svc *FailedAttemptService) sweep(now time.Time) {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	for ip, rec := range svc.records {
		if rec.Blocked {
			if now.After(rec.BlockedUntil) {
				rec.Blocked = false
				rec.BlockedUntil = time.Time{}
				rec.Count = 0
				rec.FirstAttempt = now
			}
			continue
		}

		if now.Sub(rec.LastAttempt) > svc.idleTTL {
			delete(svc.records, ip)
		}
	}
}
