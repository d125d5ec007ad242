package services

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
)

// CredentialService is the single source of truth for the process-wide API
// key and JWT signing secret. Exactly one of each is active per process
// lifetime; rotation requires a restart.
type CredentialService struct {
	context.DefaultService

	production bool

	apiKeyDigest [sha256.Size]byte
	jwtSecret    []byte
}

const CREDENTIAL_SVC = "credential_svc"

func (svc CredentialService) Id() string {
	return CREDENTIAL_SVC
}

func (svc *CredentialService) Configure(ctx *context.Context) error {
	svc.production = os.Getenv("ENV") == "production"

	apiKey := os.Getenv("API_KEY")
	if apiKey == "" {
		if svc.production {
			return fmt.Errorf("API_KEY is not configured")
		}
		apiKey = randomSecret()
		log.WithField("api_key", apiKey).
			Warn("API_KEY not set, generated a development key; clients must use it and it will not survive a restart")
	}
	svc.apiKeyDigest = sha256.Sum256([]byte(apiKey))

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if svc.production {
			return fmt.Errorf("JWT_SECRET is not configured")
		}
		secret = randomSecret()
		log.Warn("JWT_SECRET not set, generated a development secret; issued tokens will not survive a restart")
	}
	svc.jwtSecret = []byte(secret)

	return svc.DefaultService.Configure(ctx)
}

func (svc *CredentialService) Start() error {
	return nil
}

// VerifyAPIKey compares candidate against the configured key in constant
// time. Both sides are hashed to equal length first so neither the mismatch
// position nor the candidate length shows up as a timing difference.
func (svc *CredentialService) VerifyAPIKey(candidate string) bool {
	if candidate == "" {
		return false
	}

	digest := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(digest[:], svc.apiKeyDigest[:]) == 1
}

func (svc *CredentialService) JWTSecret() []byte {
	return svc.jwtSecret
}

func (svc *CredentialService) Production() bool {
	return svc.production
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; nothing
		// sensible to fall back to.
		panic(err)
	}
	return hex.EncodeToString(buf)
}
