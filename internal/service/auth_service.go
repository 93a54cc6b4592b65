// Package service holds the access control flows: registration, login,
// refresh, logout, password change and password reset.  Storage and
// delivery are reached through the interfaces in interfaces.go.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/petcare-booking/internal/config"
	"github.com/iliyamo/petcare-booking/internal/metrics"
	"github.com/iliyamo/petcare-booking/internal/model"
	"github.com/iliyamo/petcare-booking/internal/queue"
	"github.com/iliyamo/petcare-booking/internal/repository"
	"github.com/iliyamo/petcare-booking/internal/utils"
)

// AuthOptions are the knobs of AuthService taken from config.Config.
type AuthOptions struct {
	BcryptCost      int
	RefreshRotation string
	ResetTTL        time.Duration
	BaseURL         string
}

// OptionsFromConfig extracts AuthOptions from the loaded configuration.
func OptionsFromConfig(cfg config.Config) AuthOptions {
	return AuthOptions{
		BcryptCost:      cfg.BcryptCost,
		RefreshRotation: cfg.RefreshRotation,
		ResetTTL:        cfg.ResetTTL(),
		BaseURL:         cfg.BaseURL,
	}
}

type AuthService struct {
	users   UserStore
	refresh RefreshTokenStore
	resets  ResetTokenStore
	events  EventPublisher
	codec   *utils.TokenCodec
	opts    AuthOptions
	now     func() time.Time
	dummy   string
}

// NewAuthService wires the flows.  events may be nil, in which case reset
// links are only logged as requested.
func NewAuthService(users UserStore, refresh RefreshTokenStore, resets ResetTokenStore,
	events EventPublisher, codec *utils.TokenCodec, opts AuthOptions) *AuthService {
	return &AuthService{
		users:   users,
		refresh: refresh,
		resets:  resets,
		events:  events,
		codec:   codec,
		opts:    opts,
		now:     time.Now,
		dummy:   utils.DummyHash(opts.BcryptCost),
	}
}

// WithClock makes the service and its codec read time from now.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	cp := *s
	cp.now = now
	cp.codec = s.codec.WithClock(now)
	return &cp
}

// Codec exposes the token codec for the request guard.
func (s *AuthService) Codec() *utils.TokenCodec { return s.codec }

// RegisterInput is a validated registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Register creates an ACTIVE customer.  A taken email or phone yields a
// *repository.ConflictError naming the field.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	email := repository.NormalizeEmail(in.Email)
	phone := strings.TrimSpace(in.Phone)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return model.User{}, &repository.ConflictError{Field: "email"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, err
	}
	if phone != "" {
		if _, err := s.users.GetByPhone(ctx, phone); err == nil {
			return model.User{}, &repository.ConflictError{Field: "phone"}
		} else if !errors.Is(err, repository.ErrNotFound) {
			return model.User{}, err
		}
	}

	hash, err := utils.HashPassword(in.Password, s.opts.BcryptCost)
	if err != nil {
		return model.User{}, err
	}
	now := s.now().UTC()
	u := model.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleCustomer,
		Status:       model.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if phone != "" {
		u.Phone = &phone
	}
	// the unique constraints still catch a concurrent registration
	if err := s.users.Create(ctx, &u); err != nil {
		return model.User{}, err
	}
	metrics.AuthEvent("register", "ok")
	log.Info().Str("user_id", u.ID).Msg("user registered")
	return u, nil
}

// Session is the result of a login or refresh.  Refresh is the zero value
// when the refresh flow did not rotate.
type Session struct {
	User    model.User
	Access  utils.SignedToken
	Refresh utils.SignedToken
}

// Rotated reports whether the session carries a new refresh token.
func (s Session) Rotated() bool { return s.Refresh.Value != "" }

// Login verifies credentials and issues an access/refresh pair.  Unknown
// email, inactive account and wrong password are all ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// keep the timing of unknown emails close to known ones
			utils.VerifyPassword(s.dummy, password)
			metrics.AuthEvent("login", "failed")
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) || !u.IsActive() {
		metrics.AuthEvent("login", "failed")
		log.Warn().Str("user_id", u.ID).Msg("login rejected")
		return Session{}, ErrInvalidCredentials
	}

	access, err := s.codec.SignAccessToken(u.ID, string(u.Role))
	if err != nil {
		return Session{}, err
	}
	refresh, err := s.issueRefresh(ctx, u.ID)
	if err != nil {
		return Session{}, err
	}
	metrics.AuthEvent("login", "ok")
	log.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("login ok")
	return Session{User: u, Access: access, Refresh: refresh}, nil
}

func (s *AuthService) issueRefresh(ctx context.Context, userID string) (utils.SignedToken, error) {
	t, err := s.codec.SignRefreshToken(userID)
	if err != nil {
		return utils.SignedToken{}, err
	}
	err = s.refresh.Store(ctx, model.RefreshToken{
		TokenHash: utils.HashToken(t.Value),
		UserID:    userID,
		ExpiresAt: t.ExpiresAt,
		CreatedAt: t.IssuedAt,
	})
	if err != nil {
		return utils.SignedToken{}, err
	}
	return t, nil
}

// Refresh mints a new access token from a refresh token.  The checks run in
// a fixed order and each has its own error: missing, bad signature or
// expired JWT, unknown or revoked record, expired record, inactive user.
// Under the rotate policy the presented token is replaced and reuse of a
// revoked token revokes every session of its owner.
func (s *AuthService) Refresh(ctx context.Context, token string) (Session, error) {
	sess, err := s.refreshFlow(ctx, token)
	if err != nil {
		metrics.AuthEvent("refresh", "rejected")
		return Session{}, err
	}
	metrics.AuthEvent("refresh", "ok")
	return sess, nil
}

func (s *AuthService) refreshFlow(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrRefreshMissing
	}
	claims, err := s.codec.VerifyRefreshToken(token)
	if err != nil {
		return Session{}, ErrRefreshInvalid
	}

	hash := utils.HashToken(token)
	rec, err := s.refresh.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrRefreshRevoked
		}
		return Session{}, err
	}
	if rec.UserID != claims.Subject {
		return Session{}, ErrRefreshInvalid
	}
	if rec.Revoked {
		if s.opts.RefreshRotation == config.RefreshRotate {
			if err := s.refresh.RevokeAllForUser(ctx, rec.UserID); err != nil {
				return Session{}, err
			}
			log.Warn().Str("user_id", rec.UserID).Msg("revoked refresh token reused; all sessions revoked")
		}
		return Session{}, ErrRefreshRevoked
	}
	now := s.now()
	if !now.Before(rec.ExpiresAt) {
		return Session{}, ErrRefreshExpired
	}

	u, err := s.users.GetByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrUserInactive
		}
		return Session{}, err
	}
	if !u.IsActive() {
		return Session{}, ErrUserInactive
	}

	access, err := s.codec.SignAccessToken(u.ID, string(u.Role))
	if err != nil {
		return Session{}, err
	}
	sess := Session{User: u, Access: access}
	if s.opts.RefreshRotation != config.RefreshRotate {
		return sess, nil
	}

	next, err := s.codec.SignRefreshToken(u.ID)
	if err != nil {
		return Session{}, err
	}
	err = s.refresh.Rotate(ctx, hash, model.RefreshToken{
		TokenHash: utils.HashToken(next.Value),
		UserID:    u.ID,
		ExpiresAt: next.ExpiresAt,
		CreatedAt: next.IssuedAt,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// lost a race against another refresh or a logout
			return Session{}, ErrRefreshRevoked
		}
		return Session{}, err
	}
	sess.Refresh = next
	return sess, nil
}

// Logout revokes the refresh token if it is known.  It never fails; store
// errors are logged.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		metrics.AuthEvent("logout", "no_cookie")
		return
	}
	n, err := s.refresh.RevokeByHash(ctx, utils.HashToken(token))
	if err != nil {
		log.Error().Err(err).Msg("logout: revoke failed")
		metrics.AuthEvent("logout", "error")
		return
	}
	if n == 0 {
		metrics.AuthEvent("logout", "unknown_token")
		return
	}
	metrics.AuthEvent("logout", "ok")
}

// ChangePassword replaces the password of userID after checking the old one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, oldPassword) {
		return ErrWrongPassword
	}
	hash, err := utils.HashPassword(newPassword, s.opts.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, u.ID, hash, s.now()); err != nil {
		return err
	}
	metrics.AuthEvent("change_password", "ok")
	log.Info().Str("user_id", u.ID).Msg("password changed")
	return nil
}

// RequestPasswordReset issues a reset token when email belongs to an active
// account and publishes its link.  The caller answers with the same message
// whatever happens here; only a failed account lookup is returned.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.AuthEvent("reset_request", "unknown")
			return nil
		}
		return err
	}
	if !u.IsActive() {
		metrics.AuthEvent("reset_request", "inactive")
		return nil
	}

	raw, err := utils.RandomHex(32)
	if err != nil {
		log.Error().Err(err).Msg("reset: token generation failed")
		return nil
	}
	now := s.now().UTC()
	exp := now.Add(s.opts.ResetTTL)
	if err := s.resets.Create(ctx, model.PasswordResetToken{
		TokenHash: utils.HashToken(raw),
		UserID:    u.ID,
		ExpiresAt: exp,
		CreatedAt: now,
	}); err != nil {
		log.Error().Err(err).Str("user_id", u.ID).Msg("reset: store token failed")
		return nil
	}

	s.publish(queue.PasswordResetQueue, queue.PasswordResetRequestedEvent{
		UserID:      u.ID,
		Email:       u.Email,
		Name:        u.Name,
		ResetURL:    s.opts.BaseURL + "/reset-password?token=" + raw,
		ExpiresAt:   exp.Format(time.RFC3339),
		RequestedAt: now.Format(time.RFC3339),
	})
	metrics.AuthEvent("reset_request", "issued")
	log.Info().Str("user_id", u.ID).Msg("password reset requested")
	return nil
}

// ResetPassword consumes a reset token and sets a new password.  Missing,
// used and expired tokens are all ErrInvalidOrExpiredResetToken.  The
// owner's refresh tokens are revoked along with the password change.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidOrExpiredResetToken
	}
	hash := utils.HashToken(token)
	rec, err := s.resets.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.AuthEvent("reset_consume", "rejected")
			return ErrInvalidOrExpiredResetToken
		}
		return err
	}
	if !rec.Valid(s.now()) {
		metrics.AuthEvent("reset_consume", "rejected")
		return ErrInvalidOrExpiredResetToken
	}

	pw, err := utils.HashPassword(newPassword, s.opts.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.resets.Consume(ctx, hash, rec.UserID, pw, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.AuthEvent("reset_consume", "rejected")
			return ErrInvalidOrExpiredResetToken
		}
		return err
	}
	metrics.AuthEvent("reset_consume", "ok")
	log.Info().Str("user_id", rec.UserID).Msg("password reset completed")
	return nil
}

// publish hands event to the broker off the request path so the response
// time of forgot-password does not depend on broker latency.
func (s *AuthService) publish(queueName string, event any) {
	Publish(s.events, queueName, event)
}

// Publish sends event in the background with its own timeout.  A nil
// publisher drops the event.
func Publish(p EventPublisher, queueName string, event any) {
	if p == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.Publish(ctx, queueName, event); err != nil {
			log.Warn().Err(err).Str("queue", queueName).Msg("event not delivered")
		}
	}()
}
