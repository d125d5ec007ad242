package services

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	MONITORING_SVC          = "monitoring_svc"
	SERVICE_NAME            = "forge_api"
	DEFAULT_PROMETHEUS_PORT = 2112
)

// Gate metrics
var (
	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total authentication attempts by outcome",
		},
		[]string{"result"},
	)

	rateLimitDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_decisions_total",
			Help: "Total rate limit decisions by tier, backend and outcome",
		},
		[]string{"tier", "backend", "outcome"},
	)

	ddosBlocksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ddos_blocks_total",
			Help: "Total IPs blocked by the rapid-fire detector",
		},
	)
)

// Prompt metrics
var (
	promptsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prompts_created_total",
			Help: "Total prompts created",
		},
	)

	enhancementDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "enhancement_duration_seconds",
			Help:    "Prompt enhancement duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 35},
		},
		[]string{"provider", "outcome"},
	)
)

// System Metrics
var (
	heapAllocBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "heap_alloc_bytes",
			Help: "Heap memory allocated in bytes",
		},
	)

	heapSysBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "heap_sys_bytes",
			Help: "Heap memory obtained from system in bytes",
		},
	)

	gcTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gc_total",
			Help: "Total number of garbage collections",
		},
	)
)

// RecordAuthAttempt counts an authentication attempt. result is one of
// "success", "invalid", "locked_out".
func RecordAuthAttempt(result string) {
	authAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordRateLimitDecision counts a bucket consumption by outcome.
func RecordRateLimitDecision(tier, backend string, allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "rejected"
	}
	rateLimitDecisionsTotal.WithLabelValues(tier, backend, outcome).Inc()
}

// RecordDDoSBlock counts an IP block issued by the rapid-fire detector.
func RecordDDoSBlock() {
	ddosBlocksTotal.Inc()
}

// RecordPromptCreated counts a stored prompt.
func RecordPromptCreated() {
	promptsCreatedTotal.Inc()
}

// ObserveEnhancementDuration records how long an enhancement call took.
func ObserveEnhancementDuration(provider string, seconds float64, success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	enhancementDurationSeconds.WithLabelValues(provider, outcome).Observe(seconds)
}

type MonitoringService struct {
	appContext.DefaultService

	port     int
	register *prometheus.Registry

	closed      chan struct{}
	server      *fiber.App
	lastGCCount uint32
}

func (svc MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Start() error {
	svc.closed = make(chan struct{}, 1)

	portStr := os.Getenv("PROMETHEUS_PORT")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = DEFAULT_PROMETHEUS_PORT
	}
	svc.port = port

	reg := prometheus.NewRegistry()

	// Default collectors (includes Go runtime metrics like memory)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	reg.MustRegister(
		authAttemptsTotal,
		rateLimitDecisionsTotal,
		ddosBlocksTotal,
		promptsCreatedTotal,
		enhancementDurationSeconds,
		heapAllocBytes,
		heapSysBytes,
		gcTotal,
	)

	svc.register = reg

	go svc.updateMemoryMetrics()

	config := fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		},
	}

	svc.server = fiber.New(config)
	svc.server.Use(recover.New())

	svc.server.Get("/metrics", svc.metricsHandler)
	svc.server.Get("/health", svc.healthHandler)

	log.Info().Int("port", svc.port).Msg("Prometheus metrics server started")

	// The API server owns the foreground; metrics listen in the background.
	go func() {
		if err := svc.server.Listen(fmt.Sprintf(":%v", svc.port)); err != nil {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
	return nil
}

func (svc *MonitoringService) Shutdown() {
	svc.closed <- struct{}{}
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *MonitoringService) metricsHandler(c *fiber.Ctx) error {
	handler := promhttp.HandlerFor(svc.register, promhttp.HandlerOpts{})
	return adaptor.HTTPHandler(handler)(c)
}

func (svc *MonitoringService) healthHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "healthy",
		"service":   SERVICE_NAME,
		"timestamp": time.Now().Unix(),
	})
}

// updateMemoryMetrics updates memory-related metrics every 15 seconds
func (svc *MonitoringService) updateMemoryMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			heapAllocBytes.Set(float64(m.Alloc))
			heapSysBytes.Set(float64(m.Sys))

			if m.NumGC > svc.lastGCCount {
				gcTotal.Add(float64(m.NumGC - svc.lastGCCount))
				svc.lastGCCount = m.NumGC
			}

		case <-svc.closed:
			return
		}
	}
}
