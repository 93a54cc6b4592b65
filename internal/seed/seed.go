// Package seed creates the data a fresh install needs: the first admin
// account and the default service catalog.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/petcare-booking/internal/model"
	"github.com/iliyamo/petcare-booking/internal/repository"
	"github.com/iliyamo/petcare-booking/internal/utils"
)

// AdminInput describes the admin created when none exists.
type AdminInput struct {
	Name       string
	Email      string
	Password   string
	BcryptCost int
}

// DefaultServices is the catalog every install starts with.
var DefaultServices = []model.Service{
	{Name: "Grooming", Description: "Bath, haircut, nail trimming", Price: 1200, DurationMin: 60, Type: model.ServiceOperational},
	{Name: "Swimming", Description: "Supervised swimming session", Price: 800, DurationMin: 30, Type: model.ServiceOperational},
	{Name: "Training", Description: "Basic obedience training", Price: 1500, DurationMin: 60, Type: model.ServiceOperational},
	{Name: "Vet Consultation", Description: "Doctor consultation", Price: 1000, DurationMin: 20, Type: model.ServiceMedical},
	{Name: "Vaccination", Description: "Routine dog vaccinations", Price: 700, DurationMin: 15, Type: model.ServiceMedical},
}

// Admin creates the admin account unless an ADMIN already exists.  It
// reports whether a user was created.
func Admin(ctx context.Context, users *repository.UserRepo, in AdminInput, now time.Time) (bool, error) {
	n, err := users.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		return false, err
	}
	if n > 0 {
		log.Info().Msg("seed: admin already exists")
		return false, nil
	}
	hash, err := utils.HashPassword(in.Password, in.BcryptCost)
	if err != nil {
		return false, err
	}
	u := model.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Status:       model.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, &u); err != nil {
		return false, err
	}
	log.Info().Str("email", u.Email).Msg("seed: admin created")
	return true, nil
}

// Services upserts the catalog by name.  Existing entries get the seeded
// price and duration and are set ACTIVE; their description is kept.
func Services(ctx context.Context, repo *repository.ServiceRepo, catalog []model.Service, now time.Time) error {
	for _, s := range catalog {
		cur, err := repo.GetByName(ctx, s.Name)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.ID = uuid.NewString()
			s.Status = model.ServiceActive
			s.CreatedAt, s.UpdatedAt = now, now
			if err := repo.Create(ctx, &s); err != nil {
				return err
			}
			log.Info().Str("service", s.Name).Msg("seed: service created")
		case err != nil:
			return err
		default:
			cur.Price = s.Price
			cur.DurationMin = s.DurationMin
			cur.Status = model.ServiceActive
			cur.UpdatedAt = now
			if err := repo.Update(ctx, cur); err != nil {
				return err
			}
		}
	}
	return nil
}
