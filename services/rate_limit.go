package services

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/promptforge-labs/forge_api/dto"
	"github.com/promptforge-labs/forge_api/shared"
)

// RateLimitService owns the tier configuration and the limiter backend.
// The backend is resolved once at startup: Redis when reachable, local
// memory otherwise.
type RateLimitService struct {
	appContext.DefaultService

	configs map[string]*TierConfig
	mutex   sync.RWMutex

	backend  LimiterBackend
	redisSvc *RedisService
}

const RATE_LIMIT_SVC = "rate_limit_svc"

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	svc.redisSvc = ctx.Service(REDIS_SVC).(*RedisService)
	svc.initDefaultConfigs()
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	if svc.redisSvc.Available() {
		svc.backend = NewRedisLimiter(svc.redisSvc.Client())
	} else {
		svc.backend = NewMemoryLimiter()
	}

	log.WithField("backend", svc.backend.Name()).Info("Rate limiter backend selected")
	return nil
}

func (svc *RateLimitService) Shutdown() {
	if svc.backend != nil {
		_ = svc.backend.Close()
	}
}

// ==================== CONFIGURATION MANAGEMENT ====================

func (svc *RateLimitService) initDefaultConfigs() {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	svc.configs = map[string]*TierConfig{
		shared.TierGeneral: {
			Tier:        shared.TierGeneral,
			Points:      envInt("RATE_LIMIT_GENERAL_POINTS", 100),
			Window:      envDuration("RATE_LIMIT_GENERAL_WINDOW", time.Minute),
			Description: "General quota for unauthenticated identities",
		},
		shared.TierIP: {
			Tier:          shared.TierIP,
			Points:        envInt("RATE_LIMIT_IP_POINTS", 30),
			Window:        envDuration("RATE_LIMIT_IP_WINDOW", time.Minute),
			BlockDuration: envDuration("RATE_LIMIT_IP_BLOCK", 5*time.Minute),
			Description:   "Per-IP DDoS bucket, blocks on exhaustion",
		},
		shared.TierCredential: {
			Tier:        shared.TierCredential,
			Points:      envInt("RATE_LIMIT_CREDENTIAL_POINTS", 100),
			Window:      envDuration("RATE_LIMIT_CREDENTIAL_WINDOW", time.Minute),
			Description: "Per-credential quota, throttles without blocking",
		},
		shared.TierAuth: {
			Tier:          shared.TierAuth,
			Points:        envInt("RATE_LIMIT_AUTH_POINTS", 10),
			Window:        envDuration("RATE_LIMIT_AUTH_WINDOW", 15*time.Minute),
			BlockDuration: envDuration("RATE_LIMIT_AUTH_BLOCK", 30*time.Minute),
			Description:   "Token issuance attempts per IP",
		},
	}
}

func (svc *RateLimitService) tierConfig(tier string) (TierConfig, bool) {
	svc.mutex.RLock()
	defer svc.mutex.RUnlock()

	cfg, ok := svc.configs[tier]
	if !ok {
		return TierConfig{}, false
	}
	return *cfg, true
}

// ==================== CORE LIMITING ====================

// Consume charges cost points against (tier, identity). Backend faults fail
// open with a logged error so the service stays available; over-quota is a
// normal rejected decision.
func (svc *RateLimitService) Consume(ctx context.Context, tier, identity string, cost int) *Decision {
	cfg, ok := svc.tierConfig(tier)
	if !ok {
		return &Decision{Allowed: true, Limit: -1, Remaining: -1}
	}

	decision, err := svc.backend.Consume(ctx, cfg, identity, cost)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"tier":     tier,
			"identity": identity,
		}).Error("Rate limit backend fault, failing open")

		return &Decision{
			Allowed:   true,
			Limit:     cfg.Points,
			Remaining: -1,
			ResetAt:   time.Now().Add(cfg.Window),
			Backend:   svc.backend.Name(),
		}
	}

	RecordRateLimitDecision(tier, decision.Backend, decision.Allowed)
	return decision
}

func (svc *RateLimitService) ResetBucket(ctx context.Context, tier, identity string) error {
	return svc.backend.Reset(ctx, tier, identity)
}

func (svc *RateLimitService) BackendName() string {
	if svc.backend == nil {
		return ""
	}
	return svc.backend.Name()
}

// ==================== MIDDLEWARE ====================

// TierLimit applies one tier keyed by client IP. Used on the token
// issuance endpoint, which runs before any identity exists.
func (svc *RateLimitService) TierLimit(tier string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision := svc.Consume(c.Context(), tier, shared.ClientIP(c), 1)
		c.Locals(shared.RateLimitDecision, decision)
		AddRateLimitHeaders(c, decision)

		if !decision.Allowed {
			return shared.NewTooManyRequestsError(shared.CodeRateLimitExceeded,
				"Too many requests. Please try again later.", decision.RetryAfterSeconds())
		}

		return c.Next()
	}
}

// AddRateLimitHeaders stamps the standard rate limit headers from a
// decision. Later middleware in the chain overwrites earlier values, so the
// headers a client sees always describe the last bucket consulted.
func AddRateLimitHeaders(c *fiber.Ctx, d *Decision) {
	if d == nil || d.Limit < 0 {
		return
	}

	c.Set(shared.HeaderRateLimitLimit, strconv.Itoa(d.Limit))
	if d.Remaining >= 0 {
		c.Set(shared.HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))
	}
	if !d.ResetAt.IsZero() {
		c.Set(shared.HeaderRateLimitReset, strconv.FormatInt(d.ResetAt.Unix(), 10))
	}
}

// StampHeaders wraps the whole chain so every response carries the rate
// limit headers, including ones that never reach a quota check: auth
// rejections, unknown routes, the health endpoint and allow-listed traffic.
// The headers are written before the error handler sends the body. When no
// bucket was consulted the general tier config is advertised uncharged.
func (svc *RateLimitService) StampHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if d, ok := c.Locals(shared.RateLimitDecision).(*Decision); ok && d.Limit >= 0 {
			AddRateLimitHeaders(c, d)
			return err
		}

		if cfg, ok := svc.tierConfig(shared.TierGeneral); ok {
			c.Set(shared.HeaderRateLimitLimit, strconv.Itoa(cfg.Points))
			c.Set(shared.HeaderRateLimitRemaining, strconv.Itoa(cfg.Points))
			c.Set(shared.HeaderRateLimitReset, strconv.FormatInt(time.Now().Add(cfg.Window).Unix(), 10))
		}
		return err
	}
}

// ==================== ADMIN HANDLERS ====================

// @Summary Rate limit statistics
// @Description Returns tier configurations and the active backend
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{}
// @Router /v1/admin/ratelimits [get]
func (svc *RateLimitService) GetRateLimitStats() fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.mutex.RLock()
		configs := make(map[string]TierConfig, len(svc.configs))
		for tier, cfg := range svc.configs {
			configs[tier] = *cfg
		}
		svc.mutex.RUnlock()

		return shared.ResponseJSON(c, http.StatusOK, map[string]interface{}{
			"backend":   svc.BackendName(),
			"tiers":     configs,
			"timestamp": time.Now(),
		})
	}
}

// @Summary Reset a rate limit bucket
// @Description Clears the counter and any block for one (tier, identity) pair
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param tier path string true "Tier name"
// @Param identity path string true "IP or client id"
// @Success 200 {object} map[string]string
// @Router /v1/admin/ratelimits/{tier}/{identity} [delete]
func (svc *RateLimitService) RemoveRateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tier := c.Params("tier")
		identity := c.Params("identity")

		if _, ok := svc.tierConfig(tier); !ok {
			return shared.NewNotFoundError("Unknown rate limit tier")
		}

		if err := svc.ResetBucket(c.Context(), tier, identity); err != nil {
			return shared.NewInternalError(err)
		}

		return shared.ResponseJSON(c, http.StatusOK, map[string]string{
			"tier":     tier,
			"identity": identity,
			"status":   "reset",
		})
	}
}

// @Summary Update a rate limit tier
// @Description Tunes points, window and block duration of a tier at runtime
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param tier path string true "Tier name"
// @Param request body dto.UpdateTierRequest true "New tier settings"
// @Success 200 {object} services.TierConfig
// @Router /v1/admin/ratelimits/{tier} [put]
func (svc *RateLimitService) UpdateConfig() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tier := c.Params("tier")

		var req dto.UpdateTierRequest
		if err := c.BodyParser(&req); err != nil {
			return shared.NewBadRequestError(shared.CodeValidationFailed, "Invalid request body")
		}
		if err := req.Validate(); err != nil {
			return shared.NewBadRequestError(shared.CodeValidationFailed, "Validation failed").
				WithDetails(dto.FormatValidationErrors(err))
		}

		svc.mutex.Lock()
		cfg, exists := svc.configs[tier]
		if !exists {
			svc.mutex.Unlock()
			return shared.NewNotFoundError("Unknown rate limit tier")
		}

		if req.Points > 0 {
			cfg.Points = req.Points
		}
		if req.Window != "" {
			if dur, err := time.ParseDuration(req.Window); err == nil && dur > 0 {
				cfg.Window = dur
			}
		}
		if req.BlockDuration != "" {
			if dur, err := time.ParseDuration(req.BlockDuration); err == nil && dur >= 0 {
				cfg.BlockDuration = dur
			}
		}
		updated := *cfg
		svc.mutex.Unlock()

		return shared.ResponseJSON(c, http.StatusOK, updated)
	}
}

// ==================== UTILITY FUNCTIONS ====================

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return fallback
}
