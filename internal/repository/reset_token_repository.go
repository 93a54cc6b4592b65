package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/petcare-booking/internal/model"
)

// ResetTokenRepo persists password reset tokens by hash.
type ResetTokenRepo struct{ DB *sql.DB }

func NewResetTokenRepo(db *sql.DB) *ResetTokenRepo { return &ResetTokenRepo{DB: db} }

// Create stores a new reset token.
func (r *ResetTokenRepo) Create(ctx context.Context, t model.PasswordResetToken) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (token_hash, user_id, expires_at, used, created_at) VALUES (?,?,?,?,?)",
		t.TokenHash, t.UserID, t.ExpiresAt.UTC(), t.Used, t.CreatedAt.UTC())
	return uniqueViolation(err, "token_hash")
}

// GetByHash returns the token row, used or not.
func (r *ResetTokenRepo) GetByHash(ctx context.Context, tokenHash string) (model.PasswordResetToken, error) {
	var t model.PasswordResetToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT token_hash, user_id, expires_at, used, created_at FROM password_reset_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.TokenHash, &t.UserID, &t.ExpiresAt, &t.Used, &t.CreatedAt)
	return t, notFound(err)
}

// Consume marks the token used, stores the new password hash and revokes
// every refresh token of the user, all in one transaction.  The used flag
// is flipped with a conditional update that also requires expires_at > now,
// so two concurrent consumers cannot both succeed and a token that expired
// after it was looked up is refused.  Both cases get ErrNotFound.
func (r *ResetTokenRepo) Consume(ctx context.Context, tokenHash, userID, passwordHash string, now time.Time) error {
	return txFunc(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE password_reset_tokens SET used=? WHERE token_hash=? AND user_id=? AND used=? AND expires_at > ?",
			true, tokenHash, userID, false, now.UTC())
		if err := affectedOne(res, err); err != nil {
			return err
		}
		res, err = tx.ExecContext(ctx,
			"UPDATE users SET password_hash=?, updated_at=? WHERE id=?", passwordHash, now.UTC(), userID)
		if err := affectedOne(res, err); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE refresh_tokens SET revoked=? WHERE user_id=? AND revoked=?", true, userID, false)
		return err
	})
}

// DeleteExpired removes used or expired reset tokens.
func (r *ResetTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return deleteStale(ctx, r.DB, "password_reset_tokens", "used", now)
}
