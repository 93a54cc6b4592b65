package service

import (
	"context"
	"database/sql"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/petcare-booking/internal/config"
	"github.com/iliyamo/petcare-booking/internal/database/dbtest"
	"github.com/iliyamo/petcare-booking/internal/model"
	"github.com/iliyamo/petcare-booking/internal/queue"
	"github.com/iliyamo/petcare-booking/internal/repository"
	"github.com/iliyamo/petcare-booking/internal/utils"
)

// recordingPublisher keeps every published event for inspection.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.PasswordResetRequestedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, queueName string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := event.(queue.PasswordResetRequestedEvent); ok && queueName == queue.PasswordResetQueue {
		p.events = append(p.events, ev)
	}
	return nil
}

func (p *recordingPublisher) snapshot() []queue.PasswordResetRequestedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.PasswordResetRequestedEvent(nil), p.events...)
}

type authFixture struct {
	db     *sql.DB
	svc    *AuthService
	users  *repository.UserRepo
	tokens *repository.TokenRepo
	events *recordingPublisher
	now    time.Time
}

// advance moves the fixture clock; the service reads it on every call.
func (f *authFixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func newAuthFixture(t *testing.T, rotation string) *authFixture {
	t.Helper()
	db := dbtest.New(t)
	f := &authFixture{
		db:     db,
		users:  repository.NewUserRepo(db),
		tokens: repository.NewTokenRepo(db),
		events: &recordingPublisher{},
		now:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	codec := utils.NewTokenCodec(utils.CodecConfig{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		Issuer:        "petcare-api",
		Audience:      "petcare-client",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
	f.svc = NewAuthService(f.users, f.tokens, repository.NewResetTokenRepo(db), f.events, codec, AuthOptions{
		BcryptCost:      bcrypt.MinCost,
		RefreshRotation: rotation,
		ResetTTL:        15 * time.Minute,
		BaseURL:         "https://petcare.test",
	}).WithClock(func() time.Time { return f.now })
	return f
}

func (f *authFixture) register(t *testing.T, email, password string) model.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterInput{Name: "Ann", Email: email, Password: password})
	require.NoError(t, err)
	return u
}

func (f *authFixture) setStatus(t *testing.T, userID string, status model.AccountStatus) {
	t.Helper()
	_, err := f.db.Exec("UPDATE users SET status=? WHERE id=?", status, userID)
	require.NoError(t, err)
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t, config.RefreshStatic)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, RegisterInput{Name: " Ann ", Email: "Ann@Example.com ", Password: "password1", Phone: "0123456789"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, model.RoleCustomer, u.Role)
	assert.Equal(t, model.StatusActive, u.Status)
	assert.NotEqual(t, "password1", u.PasswordHash)

	_, err = f.svc.Register(ctx, RegisterInput{Name: "B", Email: "ANN@example.com", Password: "password1"})
	var ce *repository.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "email", ce.Field)

	_, err = f.svc.Register(ctx, RegisterInput{Name: "B", Email: "b@example.com", Password: "password1", Phone: "0123456789"})
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "phone", ce.Field)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t, config.RefreshStatic)
	ctx := context.Background()
	u := f.register(t, "ann@example.com", "password1")

	sess, err := f.svc.Login(ctx, "ANN@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.User.ID)
	assert.Equal(t, f.now.Add(15*time.Minute), sess.Access.ExpiresAt)
	assert.NotEmpty(t, sess.Refresh.Value)

	claims, err := f.svc.Codec().VerifyAccessToken(sess.Access.Value)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, "CUSTOMER", claims.Role)

	rec, err := f.tokens.GetByHash(ctx, utils.HashToken(sess.Refresh.Value))
	require.NoError(t, err)
	assert.Equal(t, u.ID, rec.UserID)
	assert.False(t, rec.Revoked)

	_, err = f.svc.Login(ctx, "ann@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	f.setStatus(t, u.ID, model.StatusSuspended)
	_, err = f.svc.Login(ctx, "ann@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh_Static(t *testing.T) {
	f := newAuthFixture(t, config.RefreshStatic)
	ctx := context.Background()
	f.register(t, "ann@example.com", "password1")
	sess, err := f.svc.Login(ctx, "ann@example.com", "password1")
	require.NoError(t, err)

	f.advance(time.Hour)
	got, err := f.svc.Refresh(ctx, sess.Refresh.Value)
	require.NoError(t, err)
	assert.False(t, got.Rotated())
	assert.Equal(t, f.now.Add(15*time.Minute), got.Access.ExpiresAt)

	// the same refresh token keeps working under the static policy
	_, err = f.svc.Refresh(ctx, sess.Refresh.Value)
	assert.NoError(t, err)
}

func TestRefresh_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing", func(t *testing.T) {
		f := newAuthFixture(t, config.RefreshStatic)
		_, err := f.svc.Refresh(ctx, "")
		assert.ErrorIs(t, err, ErrRefreshMissing)
	})

	t.Run("bad signature", func(t *testing.T) {
		f := newAuthFixture(t, config.RefreshStatic)
		f.register(t, "ann@example.com", "password1")
		sess, err := f.svc.Login(ctx, "ann@example.com", "password1")
		require.NoError(t, err)
		_, err = f.svc.Refresh(ctx, sess.Access.Value)
		assert.ErrorIs(t, err, ErrRefreshInvalid)
		_, err = f.svc.Refresh(ctx, "garbage")
		assert.ErrorIs(t, err, ErrRefreshInvalid)
	})

	t.Run("jwt expiry boundary", func(t *testing.T) {
		f := newAuthFixture(t, config.RefreshStatic)
		f.register(t, "ann@example.com", "password1")
		sess, err := f.svc.Login(ctx, "ann@example.com", "password1")
		require.NoError(t, err)

		f.advance(24*time.Hour - time.Second)
		_, err = f.svc.Refresh(ctx, sess.Refresh.Value)
		assert.NoError(t, err)

		f.advance(2 * time.Second)
		_, err = f.svc.Refresh(ctx, sess.Refresh.Value)
		assert.ErrorIs(t, err, ErrRefreshInvalid)
	})

	t.Run("unknown record", func(t *testing.T) {
		f := newAuthFixture(t, config.RefreshStatic)
		u := f.register(t, "ann@example.com", "password1")
		tok, err := f.svc.Codec().SignRefreshToken(u.ID)
		require.NoError(t, err)
		_, err = f.svc.Refresh(ctx, tok.Value)
		assert.ErrorIs(t, err, ErrRefreshRevoked)
	})

	t.Run("record of another user", func(t *testing.T) {
		f := newAuthFixture(t, config.RefreshStatic)
		ann := f.register(t, "ann@example.com", "password1")
		bob := f.register(t, "bob@example.com", "password1")
		tok, err := f.svc.Codec().SignRefreshToken(ann.ID)
		require.NoError(t, err)
		require.NoError(t, f.tokens.Store(ctx, model.RefreshToken{
			TokenHash: utils.HashToken(tok.Value),
			UserID:    bob.ID,
			ExpiresAt: tok.ExpiresAt,
			CreatedAt: tok.IssuedAt,
		}))
		_, err = f.svc.Refresh(ctx, tok.Value)
		assert.ErrorIs(t, err, ErrRefreshInvalid)
	})

	t.Run("revoked record", func(t *testing.T) {
		f := newAuthFixture(t, config.RefreshStatic)
		f.register(t, "ann@example.com", "password1")
		sess, err := f.svc.Login(ctx, "ann@example.com", "password1")
		require.NoError(t, err)
		f.svc.Logout(ctx, sess.Refresh.Value)
		_, err = f.svc.Refresh(ctx, sess.Refresh.Value)
		assert.ErrorIs(t, err, ErrRefreshRevoked)
	})

	t.Run("stored expiry", func(t *testing.T) {
		f := newAuthFixture(t, config.RefreshStatic)
		u := f.register(t, "ann@example.com", "password1")
		tok, err := f.svc.Codec().SignRefreshToken(u.ID)
		require.NoError(t, err)
		require.NoError(t, f.tokens.Store(ctx, model.RefreshToken{
			TokenHash: utils.HashToken(tok.Value),
			UserID:    u.ID,
			ExpiresAt: f.now.Add(time.Hour),
			CreatedAt: tok.IssuedAt,
		}))

		f.advance(time.Hour - time.Second)
		_, err = f.svc.Refresh(ctx, tok.Value)
		assert.NoError(t, err)

		f.advance(time.Second)
		_, err = f.svc.Refresh(ctx, tok.Value)
		assert.ErrorIs(t, err, ErrRefreshExpired)
	})

	t.Run("inactive user", func(t *testing.T) {
		f := newAuthFixture(t, config.RefreshStatic)
		u := f.register(t, "ann@example.com", "password1")
		sess, err := f.svc.Login(ctx, "ann@example.com", "password1")
		require.NoError(t, err)
		f.setStatus(t, u.ID, model.StatusDeleted)
		_, err = f.svc.Refresh(ctx, sess.Refresh.Value)
		assert.ErrorIs(t, err, ErrUserInactive)
	})
}

func TestRefresh_RotateAndReuse(t *testing.T) {
	f := newAuthFixture(t, config.RefreshRotate)
	ctx := context.Background()
	f.register(t, "ann@example.com", "password1")
	sess, err := f.svc.Login(ctx, "ann@example.com", "password1")
	require.NoError(t, err)

	f.advance(time.Minute)
	next, err := f.svc.Refresh(ctx, sess.Refresh.Value)
	require.NoError(t, err)
	require.True(t, next.Rotated())
	assert.NotEqual(t, sess.Refresh.Value, next.Refresh.Value)

	old, err := f.tokens.GetByHash(ctx, utils.HashToken(sess.Refresh.Value))
	require.NoError(t, err)
	assert.True(t, old.Revoked)

	// presenting the replaced token again burns every session of the user
	_, err = f.svc.Refresh(ctx, sess.Refresh.Value)
	assert.ErrorIs(t, err, ErrRefreshRevoked)
	_, err = f.svc.Refresh(ctx, next.Refresh.Value)
	assert.ErrorIs(t, err, ErrRefreshRevoked)
}

func TestLogout_Idempotent(t *testing.T) {
	f := newAuthFixture(t, config.RefreshStatic)
	ctx := context.Background()
	f.register(t, "ann@example.com", "password1")
	sess, err := f.svc.Login(ctx, "ann@example.com", "password1")
	require.NoError(t, err)

	f.svc.Logout(ctx, sess.Refresh.Value)
	f.svc.Logout(ctx, sess.Refresh.Value)
	f.svc.Logout(ctx, "")
	f.svc.Logout(ctx, "never-issued")

	rec, err := f.tokens.GetByHash(ctx, utils.HashToken(sess.Refresh.Value))
	require.NoError(t, err)
	assert.True(t, rec.Revoked)
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t, config.RefreshStatic)
	ctx := context.Background()
	u := f.register(t, "ann@example.com", "password1")

	assert.ErrorIs(t, f.svc.ChangePassword(ctx, u.ID, "wrong", "password2"), ErrWrongPassword)
	assert.ErrorIs(t, f.svc.ChangePassword(ctx, "missing-id", "password1", "password2"), ErrUserNotFound)
	require.NoError(t, f.svc.ChangePassword(ctx, u.ID, "password1", "password2"))

	_, err := f.svc.Login(ctx, "ann@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "ann@example.com", "password2")
	assert.NoError(t, err)
}

// resetTokenFrom extracts the raw token from a published reset link.
func resetTokenFrom(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestPasswordReset(t *testing.T) {
	f := newAuthFixture(t, config.RefreshStatic)
	ctx := context.Background()
	u := f.register(t, "ann@example.com", "password1")
	sess, err := f.svc.Login(ctx, "ann@example.com", "password1")
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "nobody@example.com"))
	require.NoError(t, f.svc.RequestPasswordReset(ctx, "ANN@example.com"))

	require.Eventually(t, func() bool { return len(f.events.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	ev := f.events.snapshot()[0]
	assert.Equal(t, u.ID, ev.UserID)
	assert.Equal(t, "ann@example.com", ev.Email)
	assert.True(t, strings.HasPrefix(ev.ResetURL, "https://petcare.test/reset-password?token="))
	raw := resetTokenFrom(t, ev.ResetURL)
	require.Len(t, raw, 64)

	require.NoError(t, f.svc.ResetPassword(ctx, raw, "password2"))
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, raw, "password3"), ErrInvalidOrExpiredResetToken)

	_, err = f.svc.Login(ctx, "ann@example.com", "password2")
	assert.NoError(t, err)
	_, err = f.svc.Refresh(ctx, sess.Refresh.Value)
	assert.ErrorIs(t, err, ErrRefreshRevoked)
}

func TestPasswordReset_Expired(t *testing.T) {
	f := newAuthFixture(t, config.RefreshStatic)
	ctx := context.Background()
	f.register(t, "ann@example.com", "password1")

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "ann@example.com"))
	require.Eventually(t, func() bool { return len(f.events.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	raw := resetTokenFrom(t, f.events.snapshot()[0].ResetURL)

	f.advance(15 * time.Minute)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, raw, "password2"), ErrInvalidOrExpiredResetToken)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "", "password2"), ErrInvalidOrExpiredResetToken)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "unknown", "password2"), ErrInvalidOrExpiredResetToken)
}

func TestRequestPasswordReset_InactiveAccount(t *testing.T) {
	f := newAuthFixture(t, config.RefreshStatic)
	ctx := context.Background()
	u := f.register(t, "ann@example.com", "password1")
	f.setStatus(t, u.ID, model.StatusSuspended)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "ann@example.com"))
	var n int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM password_reset_tokens").Scan(&n))
	assert.Zero(t, n)
}
