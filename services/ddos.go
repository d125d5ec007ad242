package services

import (
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/promptforge-labs/forge_api/shared"
)

// DDoSGuardService is the rate/DDoS gate: a rapid-fire inter-arrival
// detector plus the per-IP bucket, followed by the quota check against
// whichever tier matches the authenticated identity. The heuristic runs
// first so abusive traffic is never credited against a quota bucket.
type DDoSGuardService struct {
	appContext.DefaultService

	minInterval    time.Duration // gaps under this count as rapid fire
	burstThreshold int           // consecutive rapid gaps before blocking
	blockDuration  time.Duration
	idleTTL        time.Duration
	sweepInterval  time.Duration

	mutex    sync.Mutex
	arrivals map[string]*arrivalRecord

	rateSvc *RateLimitService
	authSvc *AuthService

	stop chan struct{}
	once sync.Once
}

type arrivalRecord struct {
	lastArrival  time.Time
	rapidCount   int
	blockedUntil time.Time
}

const DDOS_GUARD_SVC = "ddos_guard_svc"

func (svc DDoSGuardService) Id() string {
	return DDOS_GUARD_SVC
}

func (svc *DDoSGuardService) Configure(ctx *appContext.Context) error {
	svc.rateSvc = ctx.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.authSvc = ctx.Service(AUTH_SVC).(*AuthService)
	svc.applyDefaults()
	return svc.DefaultService.Configure(ctx)
}

func (svc *DDoSGuardService) applyDefaults() {
	if svc.minInterval == 0 {
		svc.minInterval = 50 * time.Millisecond
	}
	if svc.burstThreshold == 0 {
		svc.burstThreshold = 10
	}
	if svc.blockDuration == 0 {
		svc.blockDuration = 5 * time.Minute
	}
	if svc.idleTTL == 0 {
		svc.idleTTL = 30 * time.Minute
	}
	if svc.sweepInterval == 0 {
		svc.sweepInterval = 10 * time.Minute
	}
	if svc.arrivals == nil {
		svc.arrivals = make(map[string]*arrivalRecord)
	}
	if svc.stop == nil {
		svc.stop = make(chan struct{})
	}
}

func (svc *DDoSGuardService) Start() error {
	go svc.sweepLoop()
	return nil
}

func (svc *DDoSGuardService) Shutdown() {
	svc.once.Do(func() { close(svc.stop) })
}

// recordArrival updates the inter-arrival state for ip and reports whether
// the IP is inside a rapid-fire block.
func (svc *DDoSGuardService) recordArrival(ip string, now time.Time) (bool, time.Time) {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	rec, exists := svc.arrivals[ip]
	if !exists {
		svc.arrivals[ip] = &arrivalRecord{lastArrival: now}
		return false, time.Time{}
	}

	if !rec.blockedUntil.IsZero() {
		if now.Before(rec.blockedUntil) {
			return true, rec.blockedUntil
		}
		rec.blockedUntil = time.Time{}
		rec.rapidCount = 0
	}

	if now.Sub(rec.lastArrival) < svc.minInterval {
		rec.rapidCount++
	} else {
		rec.rapidCount = 0
	}
	rec.lastArrival = now

	if rec.rapidCount > svc.burstThreshold {
		rec.blockedUntil = now.Add(svc.blockDuration)
		rec.rapidCount = 0
		RecordDDoSBlock()
		log.WithFields(log.Fields{
			"ip":            ip,
			"blocked_until": rec.blockedUntil,
		}).Warn("Rapid-fire request pattern detected, IP temporarily blocked")
		return true, rec.blockedUntil
	}

	return false, time.Time{}
}

// Protect is the DDoS heuristic: allow-listed IPs skip it entirely, anyone
// else pays the inter-arrival check and the per-IP bucket.
func (svc *DDoSGuardService) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := shared.ClientIP(c)
		if svc.authSvc.AllowList().Contains(ip) {
			return c.Next()
		}

		if blocked, until := svc.recordArrival(ip, time.Now()); blocked {
			retryAfter := int(time.Until(until).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			return shared.NewTooManyRequestsError(shared.CodeRateLimitExceeded,
				"Automated traffic detected. Access temporarily blocked.", retryAfter)
		}

		decision := svc.rateSvc.Consume(c.Context(), shared.TierIP, ip, 1)
		c.Locals(shared.RateLimitDecision, decision)
		if !decision.Allowed {
			AddRateLimitHeaders(c, decision)
			return shared.NewTooManyRequestsError(shared.CodeRateLimitExceeded,
				"Too many requests from this IP address.", decision.RetryAfterSeconds())
		}

		return c.Next()
	}
}

// Quota charges the bucket matching the authenticated identity: the
// credential tier when the gate attached a client id, the general tier
// keyed by IP otherwise.
func (svc *DDoSGuardService) Quota() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := shared.ClientIP(c)
		if svc.authSvc.AllowList().Contains(ip) {
			return c.Next()
		}

		tier := shared.TierGeneral
		identity := ip
		if clientID, ok := c.Locals(shared.ClientID).(string); ok && clientID != "" {
			tier = shared.TierCredential
			identity = clientID
		}

		decision := svc.rateSvc.Consume(c.Context(), tier, identity, 1)
		c.Locals(shared.RateLimitDecision, decision)
		AddRateLimitHeaders(c, decision)

		if !decision.Allowed {
			return shared.NewTooManyRequestsError(shared.CodeRateLimitExceeded,
				"Rate limit exceeded. Please slow down.", decision.RetryAfterSeconds())
		}

		return c.Next()
	}
}

func (svc *DDoSGuardService) sweepLoop() {
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

func (svc *DDoSGuardService) sweep(now time.Time) {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	for ip, rec := range svc.arrivals {
		if !rec.blockedUntil.IsZero() && now.Before(rec.blockedUntil) {
			continue
		}
		if now.Sub(rec.lastArrival) > svc.idleTTL {
			delete(svc.arrivals, ip)
		}
	}
}
