package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/petcare-booking/internal/model"
	"github.com/iliyamo/petcare-booking/internal/repository"
)

// ProfileHandler serves /api/profile for customers and admins.
type ProfileHandler struct {
	Users     *repository.UserRepo
	Addresses *repository.AddressRepo
}

func NewProfileHandler(users *repository.UserRepo, addresses *repository.AddressRepo) *ProfileHandler {
	return &ProfileHandler{Users: users, Addresses: addresses}
}

type updateProfileReq struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=120"`
	Phone *string `json:"phone" validate:"omitempty,min=10,max=20"`
}

type addressReq struct {
	Label       string `json:"label" validate:"required,max=60"`
	AddressLine string `json:"addressLine" validate:"required,max=255"`
	City        string `json:"city" validate:"required,max=100"`
	State       string `json:"state" validate:"required,max=100"`
	PostalCode  string `json:"postalCode" validate:"required,max=20"`
	Country     string `json:"country" validate:"required,max=60"`
	IsDefault   bool   `json:"isDefault"`
}

// GetProfile returns the caller's account.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.UserID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, viewUser(u))
}

// UpdateProfile changes name and/or phone.  An empty body is rejected.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return httpError(c, err)
	}
	var req updateProfileReq
	if err := bindValid(c, &req); err != nil {
		return httpError(c, err)
	}
	if req.Name == nil && req.Phone == nil {
		return httpError(c, badRequest("nothing to update"))
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.UserID)
	if err != nil {
		return httpError(c, err)
	}
	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		p := strings.TrimSpace(*req.Phone)
		u.Phone = &p
	}
	now := time.Now().UTC()
	if err := h.Users.UpdateProfile(ctx, u.ID, u.Name, u.Phone, now); err != nil {
		return httpError(c, err)
	}
	u.UpdatedAt = now
	return c.JSON(http.StatusOK, viewUser(u))
}

// ListAddresses returns the caller's addresses.
func (h *ProfileHandler) ListAddresses(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Addresses.ListByUser(ctx, id.UserID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// CreateAddress adds an address; isDefault moves the default flag to it.
func (h *ProfileHandler) CreateAddress(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return httpError(c, err)
	}
	var req addressReq
	if err := bindValid(c, &req); err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a := model.Address{
		ID:          uuid.NewString(),
		UserID:      id.UserID,
		Label:       req.Label,
		AddressLine: req.AddressLine,
		City:        req.City,
		State:       req.State,
		PostalCode:  req.PostalCode,
		Country:     req.Country,
		IsDefault:   req.IsDefault,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Addresses.Create(ctx, &a); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

// UpdateAddress replaces the fields of an owned address.
func (h *ProfileHandler) UpdateAddress(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return httpError(c, err)
	}
	var req addressReq
	if err := bindValid(c, &req); err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Addresses.GetOwned(ctx, c.Param("id"), id.UserID)
	if err != nil {
		return httpError(c, err)
	}
	a.Label, a.AddressLine, a.City = req.Label, req.AddressLine, req.City
	a.State, a.PostalCode, a.Country = req.State, req.PostalCode, req.Country
	if err := h.Addresses.Update(ctx, a); err != nil {
		return httpError(c, err)
	}
	if req.IsDefault && !a.IsDefault {
		if err := h.Addresses.SetDefault(ctx, a.ID, id.UserID); err != nil {
			return httpError(c, err)
		}
		a.IsDefault = true
	}
	return c.JSON(http.StatusOK, a)
}

// DeleteAddress removes an owned address.
func (h *ProfileHandler) DeleteAddress(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Addresses.DeleteOwned(ctx, c.Param("id"), id.UserID); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetDefaultAddress makes an owned address the only default one.
func (h *ProfileHandler) SetDefaultAddress(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Addresses.SetDefault(ctx, c.Param("id"), id.UserID); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "default address updated"})
}
