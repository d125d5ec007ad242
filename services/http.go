package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/gofiber/swagger"
	log "github.com/sirupsen/logrus"

	_ "github.com/promptforge-labs/forge_api/docs"
	"github.com/promptforge-labs/forge_api/services/handlers"
	"github.com/promptforge-labs/forge_api/shared"
)

type HttpService struct {
	context.DefaultService

	credSvc   *CredentialService
	authSvc   *AuthService
	ddosSvc   *DDoSGuardService
	rateSvc   *RateLimitService
	promptSvc *PromptService

	port      int
	bodyLimit int
	app       *fiber.App
}

const HTTP_SVC = "http_svc"

const defaultBodyLimit = 64 * 1024

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	svc.bodyLimit = defaultBodyLimit
	if v, err := strconv.Atoi(os.Getenv("HTTP_BODY_LIMIT")); err == nil && v > 0 {
		svc.bodyLimit = v
	}

	svc.credSvc = ctx.Service(CREDENTIAL_SVC).(*CredentialService)
	svc.authSvc = ctx.Service(AUTH_SVC).(*AuthService)
	svc.ddosSvc = ctx.Service(DDOS_GUARD_SVC).(*DDoSGuardService)
	svc.rateSvc = ctx.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.promptSvc = ctx.Service(PROMPT_SVC).(*PromptService)

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.app = svc.buildApp()

	log.WithField("port", svc.port).Info("API server starting")
	return svc.app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.Shutdown()
	}
}

// buildApp assembles the router and middleware chain. The gate order is
// fixed: authentication first, then the DDoS heuristics, then quotas, so a
// request is never charged against a bucket before its identity is known.
func (svc *HttpService) buildApp() *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             svc.bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          svc.handleError,
	})

	app.Use(recover.New())
	app.Use(svc.rateSvc.StampHeaders())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Key",
	}))

	app.Get("/health", svc.health)
	app.Get("/swagger/*", fiberSwagger.HandlerDefault)

	authHandler := handlers.NewAuthHandler(svc.authSvc)
	promptHandler := handlers.NewPromptHandler(svc.promptSvc)

	v1 := app.Group("/v1")
	v1.Use(svc.authSvc.RequiredAuth())
	v1.Use(svc.ddosSvc.Protect())
	v1.Use(svc.ddosSvc.Quota())

	auth := v1.Group("/auth")
	auth.Post("/token", svc.rateSvc.TierLimit(shared.TierAuth), authHandler.IssueToken)
	auth.Get("/introspect", authHandler.Introspect)

	prompts := v1.Group("/prompts")
	prompts.Post("/", promptHandler.Create)
	prompts.Get("/", promptHandler.List)
	prompts.Get("/:id", promptHandler.Get)
	prompts.Put("/:id", promptHandler.Update)
	prompts.Delete("/:id", promptHandler.Delete)

	admin := v1.Group("/admin", svc.authSvc.RequireAPIKey())
	admin.Get("/ratelimits", svc.rateSvc.GetRateLimitStats())
	admin.Put("/ratelimits/:tier", svc.rateSvc.UpdateConfig())
	admin.Delete("/ratelimits/:tier/:identity", svc.rateSvc.RemoveRateLimit())

	app.Use(func(c *fiber.Ctx) error {
		return shared.NewNotFoundError("The requested resource does not exist")
	})

	return app
}

// @Summary Health check
// @Description Liveness probe, requires no authentication
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (svc *HttpService) health(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-cache")
	return shared.ResponseJSON(c, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": SERVICE_NAME,
	})
}

// handleError normalizes every failure into the error envelope. In
// production, internal detail never leaves the process: details are dropped
// and 5xx messages are replaced with generic text.
func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	appErr, ok := shared.GetAppError(err)
	if !ok {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			switch fiberErr.Code {
			case fiber.StatusRequestEntityTooLarge:
				appErr = shared.NewPayloadTooLargeError("Request body exceeds the maximum allowed size")
			case fiber.StatusNotFound:
				appErr = shared.NewNotFoundError("The requested resource does not exist")
			case fiber.StatusMethodNotAllowed:
				appErr = shared.NewAppError(fiber.StatusMethodNotAllowed, shared.CodeMethodNotAllowed, "Method not allowed")
			default:
				appErr = shared.NewInternalError(err)
			}
		} else {
			appErr = shared.NewInternalError(err)
		}
	}

	message := appErr.Message
	details := appErr.Details
	if svc.credSvc.Production() {
		details = nil
		if appErr.StatusCode >= http.StatusInternalServerError {
			message = shared.GenericMessage(appErr.StatusCode)
		}
	}

	if appErr.RetryAfter > 0 {
		c.Set(shared.HeaderRetryAfter, strconv.Itoa(appErr.RetryAfter))
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		log.WithError(appErr.Err).WithFields(log.Fields{
			"status": appErr.StatusCode,
			"code":   appErr.Code,
			"path":   c.Path(),
		}).Error("Request failed")
	}

	return shared.ResponseError(c, appErr.StatusCode, appErr.Code, message, details)
}
