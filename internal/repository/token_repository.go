package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/petcare-booking/internal/model"
)

// TokenRepo persists refresh tokens.  Only the SHA-256 of the signed token
// is stored; it doubles as the primary key.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a refresh token row.
func (r *TokenRepo) Store(ctx context.Context, t model.RefreshToken) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (token_hash, user_id, expires_at, revoked, created_at) VALUES (?,?,?,?,?)",
		t.TokenHash, t.UserID, t.ExpiresAt.UTC(), t.Revoked, t.CreatedAt.UTC())
	return uniqueViolation(err, "token_hash")
}

// GetByHash returns the row for tokenHash.  Revoked and expired rows are
// returned too; the caller decides which failure applies.
func (r *TokenRepo) GetByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT token_hash, user_id, expires_at, revoked, created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.TokenHash, &t.UserID, &t.ExpiresAt, &t.Revoked, &t.CreatedAt)
	return t, notFound(err)
}

// RevokeByHash marks a token as revoked and reports how many rows changed.
// Zero is not an error.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=? WHERE token_hash=? AND revoked=?",
		true, tokenHash, false)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RevokeAllForUser revokes all user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=? WHERE user_id=? AND revoked=?",
		true, userID, false)
	return err
}

// Rotate revokes oldHash and stores next atomically.  ErrNotFound when
// oldHash was already revoked by a concurrent call.
func (r *TokenRepo) Rotate(ctx context.Context, oldHash string, next model.RefreshToken) error {
	return txFunc(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE refresh_tokens SET revoked=? WHERE token_hash=? AND revoked=?", true, oldHash, false)
		if err := affectedOne(res, err); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO refresh_tokens (token_hash, user_id, expires_at, revoked, created_at) VALUES (?,?,?,?,?)",
			next.TokenHash, next.UserID, next.ExpiresAt.UTC(), false, next.CreatedAt.UTC())
		return err
	})
}

// DeleteExpired removes refresh tokens that expired before now or were
// revoked, returning the number deleted.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return deleteStale(ctx, r.DB, "refresh_tokens", "revoked", now)
}

// deleteStale deletes rows of table whose flag column is set or whose
// expiry is at or before now.
func deleteStale(ctx context.Context, db *sql.DB, table, flag string, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE "+flag+"=? OR expires_at <= ?", true, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
