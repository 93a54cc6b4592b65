package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/petcare-booking/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,name,email,phone,password_hash,role,status,created_at,updated_at"

func scanUser(s rowScanner) (model.User, error) {
	var (
		u     model.User
		phone sql.NullString
	)
	err := s.Scan(&u.ID, &u.Name, &u.Email, &phone, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if phone.Valid {
		p := phone.String
		u.Phone = &p
	}
	return u, nil
}

// NormalizeEmail lower-cases and trims an address the way it is stored.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts u.  Email is normalized; ID, CreatedAt and UpdatedAt must
// already be set.  Duplicate email or phone yields a *ConflictError.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?,?,?,?,?,?,?,?,?)",
		u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, u.Role, u.Status, u.CreatedAt.UTC(), u.UpdatedAt.UTC())
	return uniqueViolation(err, "email", "phone")
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email)))
	return u, notFound(err)
}

// GetByPhone fetches a user by phone number.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE phone=? LIMIT 1", strings.TrimSpace(phone)))
	return u, notFound(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	return u, notFound(err)
}

// UpdatePasswordHash replaces the stored hash of user id.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id, hash string, now time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=? WHERE id=?", hash, now.UTC(), id)
	return affectedOne(res, err)
}

// UpdateProfile sets name and phone.  A phone already used by someone else
// yields a *ConflictError.
func (r *UserRepo) UpdateProfile(ctx context.Context, id, name string, phone *string, now time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, phone=?, updated_at=? WHERE id=?", name, phone, now.UTC(), id)
	if err != nil {
		return uniqueViolation(err, "phone")
	}
	return affectedOne(res, nil)
}

// ListByRole returns users of role whose status is one of statuses, newest first.
func (r *UserRepo) ListByRole(ctx context.Context, role model.Role, statuses ...model.AccountStatus) ([]model.User, error) {
	q := "SELECT " + userColumns + " FROM users WHERE role=?"
	args := []any{role}
	if len(statuses) > 0 {
		q += " AND status IN (?" + strings.Repeat(",?", len(statuses)-1) + ")"
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetActiveStaff returns an ACTIVE doctor or receptionist.
func (r *UserRepo) GetActiveStaff(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? AND role IN (?,?) AND status=? LIMIT 1",
		id, model.RoleDoctor, model.RoleReceptionist, model.StatusActive))
	return u, notFound(err)
}

// SuspendStaff flips an ACTIVE staff member to SUSPENDED and revokes all of
// their refresh tokens in the same transaction.  ErrNotFound when no ACTIVE
// staff member has that id.
func (r *UserRepo) SuspendStaff(ctx context.Context, id string, now time.Time) error {
	return txFunc(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE users SET status=?, updated_at=? WHERE id=? AND role IN (?,?) AND status=?",
			model.StatusSuspended, now.UTC(), id, model.RoleDoctor, model.RoleReceptionist, model.StatusActive)
		if err := affectedOne(res, err); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE refresh_tokens SET revoked=? WHERE user_id=? AND revoked=?", true, id, false)
		return err
	})
}

// ChangeStaffRole moves a staff member between DOCTOR and RECEPTIONIST.
func (r *UserRepo) ChangeStaffRole(ctx context.Context, id string, role model.Role, now time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=?, updated_at=? WHERE id=? AND role IN (?,?)",
		role, now.UTC(), id, model.RoleDoctor, model.RoleReceptionist)
	return affectedOne(res, err)
}

// CountByRole counts users holding role, used by the seeder.
func (r *UserRepo) CountByRole(ctx context.Context, role model.Role) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role=?", role).Scan(&n)
	return n, err
}

// affectedOne converts a zero-row update into ErrNotFound.  Callers always
// change updated_at so MySQL reports the row as affected.
func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
