package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/petcare-booking/internal/model"
)

// AddressRepo stores customer addresses.  Every lookup and mutation is
// scoped by user id so a non-owned address behaves as missing.
type AddressRepo struct{ DB *sql.DB }

func NewAddressRepo(db *sql.DB) *AddressRepo { return &AddressRepo{DB: db} }

const addressColumns = "id,user_id,label,address_line,city,state,postal_code,country,is_default,created_at"

func scanAddress(s rowScanner) (model.Address, error) {
	var a model.Address
	err := s.Scan(&a.ID, &a.UserID, &a.Label, &a.AddressLine, &a.City, &a.State, &a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt)
	return a, err
}

// ListByUser returns the user's addresses, default first.
func (r *AddressRepo) ListByUser(ctx context.Context, userID string) ([]model.Address, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE user_id=? ORDER BY is_default DESC, created_at ASC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create inserts a. When a.IsDefault is set the user's other addresses lose
// the flag in the same transaction.
func (r *AddressRepo) Create(ctx context.Context, a *model.Address) error {
	return txFunc(ctx, r.DB, func(tx *sql.Tx) error {
		if a.IsDefault {
			if _, err := tx.ExecContext(ctx,
				"UPDATE addresses SET is_default=? WHERE user_id=?", false, a.UserID); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO addresses ("+addressColumns+") VALUES (?,?,?,?,?,?,?,?,?,?)",
			a.ID, a.UserID, a.Label, a.AddressLine, a.City, a.State, a.PostalCode, a.Country, a.IsDefault, a.CreatedAt.UTC())
		return err
	})
}

// GetOwned returns address id when it belongs to userID.
func (r *AddressRepo) GetOwned(ctx context.Context, id, userID string) (model.Address, error) {
	a, err := scanAddress(r.DB.QueryRowContext(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE id=? AND user_id=? LIMIT 1", id, userID))
	return a, notFound(err)
}

// Update writes the editable fields of a.  The default flag is changed only
// through SetDefault.
func (r *AddressRepo) Update(ctx context.Context, a model.Address) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE addresses SET label=?, address_line=?, city=?, state=?, postal_code=?, country=? WHERE id=? AND user_id=?",
		a.Label, a.AddressLine, a.City, a.State, a.PostalCode, a.Country, a.ID, a.UserID)
	return err
}

// DeleteOwned removes address id of userID.
func (r *AddressRepo) DeleteOwned(ctx context.Context, id, userID string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM addresses WHERE id=? AND user_id=?", id, userID)
	return affectedOne(res, err)
}

// SetDefault clears every default of the user and then flags id, in one
// transaction.  ErrNotFound when id is not one of the user's addresses.
func (r *AddressRepo) SetDefault(ctx context.Context, id, userID string) error {
	return txFunc(ctx, r.DB, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM addresses WHERE id=? AND user_id=?", id, userID).Scan(&exists)
		if err != nil {
			return notFound(err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE addresses SET is_default=? WHERE user_id=?", false, userID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE addresses SET is_default=? WHERE id=? AND user_id=?", true, id, userID)
		return err
	})
}
