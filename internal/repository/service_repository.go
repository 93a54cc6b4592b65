package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/petcare-booking/internal/model"
)

// ServiceRepo reads and writes the service catalog.
type ServiceRepo struct{ DB *sql.DB }

func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{DB: db} }

const serviceColumns = "id,name,description,price,duration_min,type,status,created_at,updated_at"

func scanService(s rowScanner) (model.Service, error) {
	var v model.Service
	err := s.Scan(&v.ID, &v.Name, &v.Description, &v.Price, &v.DurationMin, &v.Type, &v.Status, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func (r *ServiceRepo) list(ctx context.Context, q string, args ...any) ([]model.Service, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Service{}
	for rows.Next() {
		v, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListActive returns ACTIVE services ordered by name.
func (r *ServiceRepo) ListActive(ctx context.Context) ([]model.Service, error) {
	return r.list(ctx, "SELECT "+serviceColumns+" FROM services WHERE status=? ORDER BY name ASC", model.ServiceActive)
}

// ListAll returns the whole catalog ordered by name.
func (r *ServiceRepo) ListAll(ctx context.Context) ([]model.Service, error) {
	return r.list(ctx, "SELECT "+serviceColumns+" FROM services ORDER BY name ASC")
}

// GetByID fetches one service regardless of status.
func (r *ServiceRepo) GetByID(ctx context.Context, id string) (model.Service, error) {
	v, err := scanService(r.DB.QueryRowContext(ctx,
		"SELECT "+serviceColumns+" FROM services WHERE id=? LIMIT 1", id))
	return v, notFound(err)
}

// GetByName fetches one service by its unique name.
func (r *ServiceRepo) GetByName(ctx context.Context, name string) (model.Service, error) {
	v, err := scanService(r.DB.QueryRowContext(ctx,
		"SELECT "+serviceColumns+" FROM services WHERE name=? LIMIT 1", name))
	return v, notFound(err)
}

// Create inserts v; a duplicate name yields a *ConflictError.
func (r *ServiceRepo) Create(ctx context.Context, v *model.Service) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO services ("+serviceColumns+") VALUES (?,?,?,?,?,?,?,?,?)",
		v.ID, v.Name, v.Description, v.Price, v.DurationMin, v.Type, v.Status, v.CreatedAt.UTC(), v.UpdatedAt.UTC())
	return uniqueViolation(err, "name")
}

// Update writes the admin-editable fields of v.
func (r *ServiceRepo) Update(ctx context.Context, v model.Service) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE services SET description=?, price=?, duration_min=?, status=?, updated_at=? WHERE id=?",
		v.Description, v.Price, v.DurationMin, v.Status, v.UpdatedAt.UTC(), v.ID)
	return affectedOne(res, err)
}
