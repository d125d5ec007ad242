package services

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestCredentialService(apiKey, jwtSecret string) *CredentialService {
	return &CredentialService{
		apiKeyDigest: sha256.Sum256([]byte(apiKey)),
		jwtSecret:    []byte(jwtSecret),
	}
}

func TestVerifyAPIKey(t *testing.T) {
	svc := newTestCredentialService("correct-horse-battery-staple", "secret")

	require.True(t, svc.VerifyAPIKey("correct-horse-battery-staple"))
	require.False(t, svc.VerifyAPIKey("correct-horse-battery"))
	require.False(t, svc.VerifyAPIKey("correct-horse-battery-staple-and-more"))
	require.False(t, svc.VerifyAPIKey("completely-wrong"))
}

func TestVerifyAPIKeyEmptyCandidate(t *testing.T) {
	svc := newTestCredentialService("some-key", "secret")

	require.False(t, svc.VerifyAPIKey(""))
}

func TestRandomSecret(t *testing.T) {
	a := randomSecret()
	b := randomSecret()

	require.Len(t, a, 64) // 32 bytes hex encoded
	require.NotEqual(t, a, b)
}
