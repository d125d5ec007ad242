package services

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/alphabatem/common/context"
	"github.com/promptforge-labs/forge_api/shared"
)

// JWTService mints and verifies the bearer tokens issued by the token
// exchange. There is no revocation list; a token stays valid until its
// expiry, which is why the default TTL is short.
type JWTService struct {
	context.DefaultService

	AccessTokenDuration time.Duration

	credSvc *CredentialService
}

type CustomClaims struct {
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
	jwt.RegisteredClaims
}

const JWT_SVC = "jwt_svc"

func (svc JWTService) Id() string {
	return JWT_SVC
}

func (svc *JWTService) Configure(ctx *context.Context) error {
	svc.AccessTokenDuration = time.Hour
	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		if dur, err := time.ParseDuration(ttl); err == nil && dur > 0 {
			svc.AccessTokenDuration = dur
		}
	}

	svc.credSvc = ctx.Service(CREDENTIAL_SVC).(*CredentialService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *JWTService) Start() error {
	return nil
}

// Mint returns a signed access token for clientID with the standard API
// scope and the configured TTL.
func (svc *JWTService) Mint(clientID string) (string, int64, error) {
	now := time.Now()
	claims := &CustomClaims{
		ClientID: clientID,
		Scope:    shared.ScopeAPIAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(svc.AccessTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "forge_api",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(svc.credSvc.JWTSecret())
	if err != nil {
		// Signing can only fail on a broken secret; the process should
		// not have started in that state.
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, int64(svc.AccessTokenDuration.Seconds()), nil
}

// Verify parses and validates a token, returning its claims. Malformed and
// expired tokens both produce an error, never a panic.
func (svc *JWTService) Verify(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, svc.signingKey)
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || claims == nil {
		return nil, errors.New("unsupported JWT format")
	}

	expTime, err := claims.GetExpirationTime()
	if err != nil || expTime == nil {
		return nil, errors.New("token has no expiry")
	}
	if expTime.Before(time.Now()) {
		return nil, errors.New("token has expired")
	}

	return claims, nil
}

func (svc *JWTService) signingKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}

	return svc.credSvc.JWTSecret(), nil
}

// ExtractTokenFromHeader pulls the raw token out of an Authorization header.
func (svc *JWTService) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return "", errors.New("invalid authorization header format")
	}

	return authHeader[7:], nil
}
