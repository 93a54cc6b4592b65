package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/petcare-booking/internal/model"
	"github.com/iliyamo/petcare-booking/internal/repository"
	"github.com/iliyamo/petcare-booking/internal/utils"
)

// AdminHandler manages staff and customer accounts.
type AdminHandler struct {
	Users      *repository.UserRepo
	BcryptCost int
}

func NewAdminHandler(users *repository.UserRepo, bcryptCost int) *AdminHandler {
	return &AdminHandler{Users: users, BcryptCost: bcryptCost}
}

type createStaffReq struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,password"`
	Phone    string `json:"phone" validate:"omitempty,min=10,max=20"`
	Role     string `json:"role" validate:"required,oneof=DOCTOR RECEPTIONIST"`
}

type changeRoleReq struct {
	Role string `json:"role" validate:"required,oneof=DOCTOR RECEPTIONIST"`
}

// CreateStaff creates an ACTIVE doctor or receptionist.  A taken email or
// phone answers 409.
func (h *AdminHandler) CreateStaff(c echo.Context) error {
	var req createStaffReq
	if err := bindValid(c, &req); err != nil {
		return httpError(c, err)
	}
	hash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	u := model.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.Role(req.Role),
		Status:       model.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if p := strings.TrimSpace(req.Phone); p != "" {
		u.Phone = &p
	}
	if err := h.Users.Create(ctx, &u); err != nil {
		return httpError(c, err)
	}
	log.Info().Str("user_id", u.ID).Str("role", req.Role).Msg("staff created")
	return c.JSON(http.StatusCreated, viewUser(u))
}

// ListStaff lists ACTIVE staff, both roles unless ?role= narrows it.
func (h *AdminHandler) ListStaff(c echo.Context) error {
	roles := []model.Role{model.RoleDoctor, model.RoleReceptionist}
	if r := strings.ToUpper(c.QueryParam("role")); r != "" {
		if !model.Role(r).IsStaff() {
			return httpError(c, badRequest("role must be DOCTOR or RECEPTIONIST"))
		}
		roles = []model.Role{model.Role(r)}
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out := []model.User{}
	for _, r := range roles {
		us, err := h.Users.ListByRole(ctx, r, model.StatusActive)
		if err != nil {
			return httpError(c, err)
		}
		out = append(out, us...)
	}
	return c.JSON(http.StatusOK, viewUsers(out))
}

// GetStaff returns one ACTIVE staff member.
func (h *AdminHandler) GetStaff(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetActiveStaff(ctx, c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, viewUser(u))
}

// DisableStaff suspends an ACTIVE staff member and revokes their sessions.
func (h *AdminHandler) DisableStaff(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.SuspendStaff(ctx, c.Param("id"), time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "staff not found or already disabled"})
		}
		return httpError(c, err)
	}
	log.Info().Str("user_id", c.Param("id")).Msg("staff disabled")
	return c.JSON(http.StatusOK, echo.Map{"message": "staff disabled"})
}

// ChangeStaffRole switches a staff member between DOCTOR and RECEPTIONIST.
func (h *AdminHandler) ChangeStaffRole(c echo.Context) error {
	var req changeRoleReq
	if err := bindValid(c, &req); err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.ChangeStaffRole(ctx, c.Param("id"), model.Role(req.Role), time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "staff not found"})
		}
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "role updated", "role": req.Role})
}

// ListCustomers lists ACTIVE customers.
func (h *AdminHandler) ListCustomers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	us, err := h.Users.ListByRole(ctx, model.RoleCustomer, model.StatusActive)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, viewUsers(us))
}
