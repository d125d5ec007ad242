package main

import (
	"github.com/promptforge-labs/forge_api/services"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	ctx, err := context.NewCtx(
		&services.CredentialService{},
		&services.JWTService{},
		&services.RedisService{},
		&services.RateLimitService{},
		&services.FailedAttemptService{},
		&services.AuthService{},
		&services.DDoSGuardService{},
		&services.SqliteService{},
		&services.EnhancerService{},
		&services.PromptService{},
		&services.MonitoringService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err)
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err)
		return
	}
}
