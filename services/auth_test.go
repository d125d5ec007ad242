package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/promptforge-labs/forge_api/dto"
	"github.com/promptforge-labs/forge_api/shared"
)

func newTestAuthService() *AuthService {
	credSvc := newTestCredentialService(testAPIKey, testJWTSecret)
	svc := &AuthService{
		credSvc:    credSvc,
		jwtSvc:     &JWTService{AccessTokenDuration: time.Hour, credSvc: credSvc},
		attemptSvc: newTestFailedAttemptService(),
		allowList:  shared.ParseAllowList(""),
	}
	svc.applyDefaults()
	return svc
}

func TestIssueTokenSuccess(t *testing.T) {
	svc := newTestAuthService()

	resp, err := svc.IssueToken(dto.TokenRequest{ClientID: "acme", ClientSecret: testAPIKey}, "1.2.3.4")
	require.NoError(t, err)
	require.Equal(t, "Bearer", resp.TokenType)
	require.Equal(t, shared.ScopeAPIAccess, resp.Scope)

	claims, err := svc.jwtSvc.Verify(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "acme", claims.ClientID)
}

func TestIssueTokenDefaultClientID(t *testing.T) {
	svc := newTestAuthService()

	resp, err := svc.IssueToken(dto.TokenRequest{ClientSecret: testAPIKey}, "1.2.3.4")
	require.NoError(t, err)

	claims, err := svc.jwtSvc.Verify(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "default", claims.ClientID)
}

func TestIssueTokenInvalidSecret(t *testing.T) {
	svc := newTestAuthService()

	_, err := svc.IssueToken(dto.TokenRequest{ClientSecret: "wrong"}, "1.2.3.4")
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	require.Equal(t, shared.CodeInvalidClient, appErr.Code)

	// Failures were recorded against the IP.
	require.Equal(t, 1, svc.attemptSvc.records["1.2.3.4"].Count)
}

func TestIssueTokenLockout(t *testing.T) {
	svc := newTestAuthService()

	for i := 0; i < 5; i++ {
		_, err := svc.IssueToken(dto.TokenRequest{ClientSecret: "wrong"}, "1.2.3.4")
		require.Error(t, err)
	}

	// Correct credentials are refused while the lockout holds.
	_, err := svc.IssueToken(dto.TokenRequest{ClientSecret: testAPIKey}, "1.2.3.4")
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	require.Equal(t, shared.CodeTooManyFailedAttempts, appErr.Code)
	require.Greater(t, appErr.RetryAfter, 0)
}

func TestIssueTokenAllowListedFailuresNotRecorded(t *testing.T) {
	svc := newTestAuthService()
	svc.allowList = shared.ParseAllowList("1.2.3.4")

	for i := 0; i < 10; i++ {
		_, err := svc.IssueToken(dto.TokenRequest{ClientSecret: "wrong"}, "1.2.3.4")
		appErr, ok := shared.GetAppError(err)
		require.True(t, ok)
		require.Equal(t, shared.CodeInvalidClient, appErr.Code)
	}

	_, err := svc.IssueToken(dto.TokenRequest{ClientSecret: testAPIKey}, "1.2.3.4")
	require.NoError(t, err)
}

func TestIsPublicPath(t *testing.T) {
	svc := newTestAuthService()

	require.True(t, svc.isPublicPath("/health"))
	require.True(t, svc.isPublicPath("/swagger/index.html"))
	require.True(t, svc.isPublicPath("/v1/auth/token"))

	require.False(t, svc.isPublicPath("/v1/prompts"))
	require.False(t, svc.isPublicPath("/v1/auth/introspect"))
	require.False(t, svc.isPublicPath("/healthcheck"))
}
