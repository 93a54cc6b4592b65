package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/petcare-booking/internal/model"
)

type SlotRepo struct{ DB *sql.DB }

func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{DB: db} }

const slotColumns = "id,service_id,staff_id,start_time,end_time,capacity,status,created_at"

func scanSlot(s rowScanner) (model.Slot, error) {
	var (
		v     model.Slot
		staff sql.NullString
	)
	if err := s.Scan(&v.ID, &v.ServiceID, &staff, &v.StartTime, &v.EndTime, &v.Capacity, &v.Status, &v.CreatedAt); err != nil {
		return model.Slot{}, err
	}
	if staff.Valid {
		id := staff.String
		v.StaffID = &id
	}
	return v, nil
}

// Create inserts v.
func (r *SlotRepo) Create(ctx context.Context, v *model.Slot) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO slots ("+slotColumns+") VALUES (?,?,?,?,?,?,?,?)",
		v.ID, v.ServiceID, v.StaffID, v.StartTime.UTC(), v.EndTime.UTC(), v.Capacity, v.Status, v.CreatedAt.UTC())
	return err
}

// GetByID fetches one slot.
func (r *SlotRepo) GetByID(ctx context.Context, id string) (model.Slot, error) {
	v, err := scanSlot(r.DB.QueryRowContext(ctx, "SELECT "+slotColumns+" FROM slots WHERE id=? LIMIT 1", id))
	return v, notFound(err)
}

// ListByStaff returns the slots assigned to staffID in start order.
func (r *SlotRepo) ListByStaff(ctx context.Context, staffID string) ([]model.Slot, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+slotColumns+" FROM slots WHERE staff_id=? ORDER BY start_time ASC", staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Slot{}
	for rows.Next() {
		v, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
