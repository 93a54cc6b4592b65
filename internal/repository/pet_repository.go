package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/petcare-booking/internal/model"
)

type PetRepo struct{ DB *sql.DB }

func NewPetRepo(db *sql.DB) *PetRepo { return &PetRepo{DB: db} }

const petColumns = "id,owner_id,name,species,breed,gender,age,weight_kg,notes,status,created_at,updated_at"

func scanPet(s rowScanner) (model.Pet, error) {
	var p model.Pet
	err := s.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Species, &p.Breed, &p.Gender, &p.Age, &p.WeightKg, &p.Notes, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListActiveByOwner returns the owner's ACTIVE pets, newest first.
func (r *PetRepo) ListActiveByOwner(ctx context.Context, ownerID string) ([]model.Pet, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+petColumns+" FROM pets WHERE owner_id=? AND status=? ORDER BY created_at DESC",
		ownerID, model.PetActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Pet{}
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserts p.
func (r *PetRepo) Create(ctx context.Context, p *model.Pet) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO pets ("+petColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?)",
		p.ID, p.OwnerID, p.Name, p.Species, p.Breed, p.Gender, p.Age, p.WeightKg, p.Notes, p.Status,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	return err
}

// GetActiveOwned returns pet id if it is ACTIVE and owned by ownerID.
func (r *PetRepo) GetActiveOwned(ctx context.Context, id, ownerID string) (model.Pet, error) {
	p, err := scanPet(r.DB.QueryRowContext(ctx,
		"SELECT "+petColumns+" FROM pets WHERE id=? AND owner_id=? AND status=? LIMIT 1",
		id, ownerID, model.PetActive))
	return p, notFound(err)
}

// Update writes the mutable fields of p.
func (r *PetRepo) Update(ctx context.Context, p model.Pet) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE pets SET name=?, species=?, breed=?, gender=?, age=?, weight_kg=?, notes=?, updated_at=? WHERE id=? AND owner_id=? AND status=?",
		p.Name, p.Species, p.Breed, p.Gender, p.Age, p.WeightKg, p.Notes, p.UpdatedAt.UTC(), p.ID, p.OwnerID, model.PetActive)
	return affectedOne(res, err)
}

// Deactivate soft deletes a pet.
func (r *PetRepo) Deactivate(ctx context.Context, id, ownerID string, now time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE pets SET status=?, updated_at=? WHERE id=? AND owner_id=? AND status=?",
		model.PetInactive, now.UTC(), id, ownerID, model.PetActive)
	return affectedOne(res, err)
}
