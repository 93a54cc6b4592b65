package service

import (
	"context"
	"time"

	"github.com/iliyamo/petcare-booking/internal/model"
)

// UserStore is the part of the user repository the auth flows need.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByPhone(ctx context.Context, phone string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string, now time.Time) error
}

// RefreshTokenStore persists refresh tokens by hash.
type RefreshTokenStore interface {
	Store(ctx context.Context, t model.RefreshToken) error
	GetByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	RevokeByHash(ctx context.Context, tokenHash string) (int64, error)
	RevokeAllForUser(ctx context.Context, userID string) error
	Rotate(ctx context.Context, oldHash string, next model.RefreshToken) error
}

// ResetTokenStore persists password reset tokens by hash.
type ResetTokenStore interface {
	Create(ctx context.Context, t model.PasswordResetToken) error
	GetByHash(ctx context.Context, tokenHash string) (model.PasswordResetToken, error)
	Consume(ctx context.Context, tokenHash, userID, passwordHash string, now time.Time) error
}

// EventPublisher delivers out-of-band events such as reset links.
type EventPublisher interface {
	Publish(ctx context.Context, queueName string, event any) error
}
