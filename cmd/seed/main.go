// Command seed creates the first admin and the default service catalog.
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
	"github.com/iliyamo/petcare-booking/internal/seed"
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
	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}

	now := time.Now().UTC()
	admin := seed.AdminInput{
		Name:       config.Env("SEED_ADMIN_NAME", "Super Admin"),
		Email:      config.Env("SEED_ADMIN_EMAIL", "admin@petcare.local"),
		Password:   config.Env("SEED_ADMIN_PASSWORD", ""),
		BcryptCost: cfg.BcryptCost,
	}
	if admin.Password == "" {
		log.Fatal().Msg("SEED_ADMIN_PASSWORD is required")
	}
	if _, err := seed.Admin(ctx, repository.NewUserRepo(db), admin, now); err != nil {
		log.Fatal().Err(err).Msg("seeding admin failed")
	}
	if err := seed.Services(ctx, repository.NewServiceRepo(db), seed.DefaultServices, now); err != nil {
		log.Fatal().Err(err).Msg("seeding services failed")
	}
	log.Info().Msg("seed complete")
}
