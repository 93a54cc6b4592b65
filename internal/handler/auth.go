package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/petcare-booking/internal/model"
	"github.com/iliyamo/petcare-booking/internal/repository"
	"github.com/iliyamo/petcare-booking/internal/service"
)

// RefreshCookie is the name of the cookie carrying the refresh token.
const RefreshCookie = "refreshToken"

// ForgotPasswordMessage is returned for every forgot-password request that
// gets past validation, whether or not the account exists.
const ForgotPasswordMessage = "If an account exists for that email, a reset link has been sent."

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Svc          *service.AuthService
	SecureCookie bool
	RefreshTTL   time.Duration
}

func NewAuthHandler(svc *service.AuthService, secureCookie bool, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{Svc: svc, SecureCookie: secureCookie, RefreshTTL: refreshTTL}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,password"`
	Phone    string `json:"phone" validate:"required,min=10,max=20"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type changePasswordReq struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,password"`
}

type forgotPasswordReq struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordReq struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,password"`
}

type userView struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Email     string              `json:"email"`
	Phone     *string             `json:"phone"`
	Role      model.Role          `json:"role"`
	Status    model.AccountStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
}

func viewUser(u model.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role, Status: u.Status, CreatedAt: u.CreatedAt}
}

func viewUsers(us []model.User) []userView {
	out := make([]userView, 0, len(us))
	for _, u := range us {
		out = append(out, viewUser(u))
	}
	return out
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, value string, maxAge int) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func refreshCookieValue(c echo.Context) string {
	ck, err := c.Cookie(RefreshCookie)
	if err != nil {
		return ""
	}
	return ck.Value
}

// Register creates a customer account.  Duplicates answer 400 naming the
// taken field.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindValid(c, &req); err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Svc.Register(ctx, service.RegisterInput{
		Name: req.Name, Email: req.Email, Password: req.Password, Phone: req.Phone,
	})
	if err != nil {
		var conflict *repository.ConflictError
		if errors.As(err, &conflict) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": conflict.Field + " already registered", "field": conflict.Field})
		}
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": viewUser(u)})
}

// Login returns the access token in the body and the refresh token as an
// HttpOnly cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindValid(c, &req); err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return httpError(c, err)
	}
	h.setRefreshCookie(c, sess.Refresh.Value, int(h.RefreshTTL/time.Second))
	return c.JSON(http.StatusOK, echo.Map{
		"accessToken":          sess.Access.Value,
		"accessTokenExpiresAt": sess.Access.ExpiresAt,
		"user":                 viewUser(sess.User),
	})
}

// Refresh mints a new access token from the refresh cookie.  When the
// refresh token was rotated the cookie is replaced.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess, err := h.Svc.Refresh(ctx, refreshCookieValue(c))
	if err != nil {
		return httpError(c, err)
	}
	if sess.Rotated() {
		h.setRefreshCookie(c, sess.Refresh.Value, int(h.RefreshTTL/time.Second))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"accessToken":          sess.Access.Value,
		"accessTokenExpiresAt": sess.Access.ExpiresAt,
	})
}

// Logout revokes the refresh token if there is one and always clears the
// cookie.  It never fails.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	h.Svc.Logout(ctx, refreshCookieValue(c))
	h.setRefreshCookie(c, "", -1)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// ChangePassword requires a bearer token for any role.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return httpError(c, err)
	}
	var req changePasswordReq
	if err := bindValid(c, &req); err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.ChangePassword(ctx, id.UserID, req.OldPassword, req.NewPassword); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// ForgotPassword always answers with ForgotPasswordMessage unless the
// account lookup itself failed.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := bindValid(c, &req); err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.RequestPasswordReset(ctx, req.Email); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": ForgotPasswordMessage})
}

// ResetPassword consumes a reset token.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := bindValid(c, &req); err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password has been reset"})
}
