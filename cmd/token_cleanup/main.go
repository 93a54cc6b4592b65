// Command token_cleanup deletes expired or revoked refresh tokens and
// expired or used password reset tokens.
package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/petcare-booking/internal/config"
	"github.com/iliyamo/petcare-booking/internal/database"
	"github.com/iliyamo/petcare-booking/internal/logger"
	"github.com/iliyamo/petcare-booking/internal/repository"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(database.OptionsFrom(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	now := time.Now().UTC()

	refresh, err := repository.NewTokenRepo(db).DeleteExpired(ctx, now)
	if err != nil {
		log.Fatal().Err(err).Msg("refresh token cleanup failed")
	}
	resets, err := repository.NewResetTokenRepo(db).DeleteExpired(ctx, now)
	if err != nil {
		log.Fatal().Err(err).Msg("reset token cleanup failed")
	}
	log.Info().Int64("refresh_tokens", refresh).Int64("reset_tokens", resets).Msg("token cleanup done")
}
