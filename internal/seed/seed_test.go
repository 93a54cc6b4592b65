package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/petcare-booking/internal/database/dbtest"
	"github.com/iliyamo/petcare-booking/internal/model"
	"github.com/iliyamo/petcare-booking/internal/repository"
	"github.com/iliyamo/petcare-booking/internal/utils"
)

func TestAdmin_CreatesOnce(t *testing.T) {
	db := dbtest.New(t)
	users := repository.NewUserRepo(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in := AdminInput{Name: "Root", Email: "Admin@PetCare.local", Password: "s3cret-pass", BcryptCost: bcrypt.MinCost}

	created, err := Admin(ctx, users, in, now)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = Admin(ctx, users, in, now)
	require.NoError(t, err)
	assert.False(t, created)

	u, err := users.GetByEmail(ctx, "admin@petcare.local")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "s3cret-pass"))
}

func TestServices_Upsert(t *testing.T) {
	db := dbtest.New(t)
	repo := repository.NewServiceRepo(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, Services(ctx, repo, DefaultServices, now))

	vacc, err := repo.GetByName(ctx, "Vaccination")
	require.NoError(t, err)
	vacc.Price = 1
	vacc.Status = model.ServiceInactive
	vacc.Description = "edited"
	vacc.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, repo.Update(ctx, vacc))

	require.NoError(t, Services(ctx, repo, DefaultServices, now.Add(time.Hour)))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(DefaultServices))

	vacc, err = repo.GetByName(ctx, "Vaccination")
	require.NoError(t, err)
	assert.Equal(t, 700, vacc.Price)
	assert.Equal(t, model.ServiceActive, vacc.Status)
	assert.Equal(t, "edited", vacc.Description)
	assert.Equal(t, model.ServiceMedical, vacc.Type)
}
