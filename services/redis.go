package services

import (
	"context"
	"os"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RedisService owns the shared-store client used by the distributed rate
// limiter backend. An unreachable Redis never fails startup; the limiter
// falls back to local memory instead.
type RedisService struct {
	appContext.DefaultService

	redis     *redis.Client
	available bool
}

const REDIS_SVC = "redis_svc"

const connectTimeout = 3 * time.Second

func (svc RedisService) Id() string {
	return REDIS_SVC
}

func (svc *RedisService) Configure(ctx *appContext.Context) error {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return svc.DefaultService.Configure(ctx)
	}

	db := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsed, err := strconv.Atoi(dbStr); err == nil {
			db = parsed
		}
	}

	svc.redis = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	return svc.DefaultService.Configure(ctx)
}

func (svc *RedisService) Start() error {
	if svc.redis == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if _, err := svc.redis.Ping(ctx).Result(); err != nil {
		log.WithError(err).Warn("Redis unreachable, rate limiting degrades to per-process counters")
		return nil
	}

	svc.available = true
	log.WithField("addr", svc.redis.Options().Addr).Info("Redis connected")
	return nil
}

func (svc *RedisService) Shutdown() {
	if svc.redis != nil {
		_ = svc.redis.Close()
	}
}

// Available reports whether the ping at startup succeeded.
func (svc *RedisService) Available() bool {
	return svc.redis != nil && svc.available
}

func (svc *RedisService) Client() *redis.Client {
	return svc.redis
}
