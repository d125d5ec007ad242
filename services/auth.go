package services

import (
	"os"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/promptforge-labs/forge_api/dto"
	"github.com/promptforge-labs/forge_api/shared"
)

// AuthService is the authentication gate: Bearer token first, API key
// fallback, with failed-attempt lockout for key guessing. Allow-listed IPs
// skip failure recording but never authentication itself.
type AuthService struct {
	appContext.DefaultService

	credSvc    *CredentialService
	jwtSvc     *JWTService
	attemptSvc *FailedAttemptService

	allowList   *shared.AllowList
	publicPaths []string
}

const AUTH_SVC = "auth_svc"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *appContext.Context) error {
	svc.credSvc = ctx.Service(CREDENTIAL_SVC).(*CredentialService)
	svc.jwtSvc = ctx.Service(JWT_SVC).(*JWTService)
	svc.attemptSvc = ctx.Service(FAILED_ATTEMPT_SVC).(*FailedAttemptService)

	svc.allowList = shared.ParseAllowList(os.Getenv("ALLOWED_IPS"))
	svc.applyDefaults()

	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) applyDefaults() {
	if svc.publicPaths == nil {
		svc.publicPaths = []string{"/health", "/swagger", "/v1/auth/token"}
	}
}

func (svc *AuthService) Start() error {
	return nil
}

func (svc *AuthService) AllowList() *shared.AllowList {
	return svc.allowList
}

func (svc *AuthService) isPublicPath(path string) bool {
	for _, prefix := range svc.publicPaths {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// ==================== TOKEN ISSUANCE ====================

// IssueToken exchanges the client secret for a short-lived bearer token.
// The secret must equal the configured API key. Failed exchanges count
// toward the caller IP's lockout unless the IP is allow-listed.
func (svc *AuthService) IssueToken(req dto.TokenRequest, clientIP string) (*dto.TokenResponse, error) {
	if req.ClientSecret == "" {
		return nil, shared.NewBadRequestError(shared.CodeMissingRequiredField, "clientSecret is required")
	}

	if blocked, until := svc.attemptSvc.IsBlocked(clientIP); blocked {
		RecordAuthAttempt("locked_out")
		return nil, lockoutError(until)
	}

	if !svc.credSvc.VerifyAPIKey(req.ClientSecret) {
		if !svc.allowList.Contains(clientIP) {
			svc.attemptSvc.RecordFailure(clientIP)
		}
		RecordAuthAttempt("invalid_client")
		return nil, shared.NewUnauthorizedError(shared.CodeInvalidClient, "Invalid client credentials")
	}

	svc.attemptSvc.ClearOnSuccess(clientIP)

	clientID := req.ClientID
	if clientID == "" {
		clientID = "default"
	}

	token, expiresIn, err := svc.jwtSvc.Mint(clientID)
	if err != nil {
		return nil, shared.NewInternalError(err)
	}

	RecordAuthAttempt("token_issued")
	return &dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		Scope:       shared.ScopeAPIAccess,
	}, nil
}

// ==================== MIDDLEWARE ====================

// RequiredAuth validates every protected request. Public paths bypass the
// gate entirely. Rejections carry stable machine codes and never leak the
// stored secret or partial-match information.
func (svc *AuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if svc.isPublicPath(c.Path()) {
			return c.Next()
		}

		if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
			return svc.verifyBearer(c, authHeader)
		}

		return svc.verifyAPIKey(c)
	}
}

func (svc *AuthService) verifyBearer(c *fiber.Ctx, authHeader string) error {
	token, err := svc.jwtSvc.ExtractTokenFromHeader(authHeader)
	if err != nil {
		RecordAuthAttempt("invalid_token")
		return shared.NewUnauthorizedError(shared.CodeInvalidToken, "Invalid authorization header")
	}
	if strings.TrimSpace(token) == "" {
		RecordAuthAttempt("missing_token")
		return shared.NewUnauthorizedError(shared.CodeMissingToken, "Bearer token is empty")
	}

	claims, err := svc.jwtSvc.Verify(token)
	if err != nil {
		RecordAuthAttempt("invalid_token")
		return shared.NewUnauthorizedError(shared.CodeInvalidToken, "Invalid or expired token")
	}

	svc.attemptSvc.ClearOnSuccess(shared.ClientIP(c))
	svc.attach(c, claims.ClientID, shared.AuthMethodBearer, claims.Scope)
	RecordAuthAttempt("success")
	return c.Next()
}

func (svc *AuthService) verifyAPIKey(c *fiber.Ctx) error {
	apiKey := c.Get(shared.HeaderAPIKey)
	if apiKey == "" {
		RecordAuthAttempt("missing_credential")
		return shared.NewUnauthorizedError(shared.CodeMissingAPIKey, "Missing API key or bearer token")
	}

	ip := shared.ClientIP(c)

	// The lockout wins even over a correct key.
	if blocked, until := svc.attemptSvc.IsBlocked(ip); blocked {
		RecordAuthAttempt("locked_out")
		return lockoutError(until)
	}

	if !svc.credSvc.VerifyAPIKey(apiKey) {
		if svc.allowList.Contains(ip) {
			log.WithField("ip", ip).Debug("Invalid API key from allow-listed IP, failure not recorded")
		} else {
			svc.attemptSvc.RecordFailure(ip)
		}
		RecordAuthAttempt("invalid_api_key")
		return shared.NewUnauthorizedError(shared.CodeInvalidAPIKey, "Invalid API key")
	}

	svc.attemptSvc.ClearOnSuccess(ip)
	svc.attach(c, "api-key", shared.AuthMethodAPIKey, shared.ScopeAPIAccess)
	RecordAuthAttempt("success")
	return c.Next()
}

// RequireAPIKey guards the admin surface: only the long-lived API key is
// accepted, a bearer token is not enough.
func (svc *AuthService) RequireAPIKey() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals(shared.AuthMethod) != shared.AuthMethodAPIKey {
			return shared.NewUnauthorizedError(shared.CodeInvalidAPIKey, "Admin endpoints require the API key")
		}
		return c.Next()
	}
}

func (svc *AuthService) attach(c *fiber.Ctx, clientID, method, scope string) {
	c.Locals(shared.ClientID, clientID)
	c.Locals(shared.AuthMethod, method)
	c.Locals(shared.AuthScope, scope)
	c.Locals(shared.AuthTime, time.Now().Unix())
}

func lockoutError(until time.Time) *shared.AppError {
	retryAfter := int(time.Until(until).Seconds()) + 1
	if retryAfter < 1 {
		retryAfter = 1
	}
	return shared.NewTooManyRequestsError(shared.CodeTooManyFailedAttempts,
		"Too many failed authentication attempts. Please try again later.", retryAfter)
}
