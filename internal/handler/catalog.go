package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/petcare-booking/internal/middleware"
	"github.com/iliyamo/petcare-booking/internal/model"
	"github.com/iliyamo/petcare-booking/internal/repository"
)

// CatalogHandler serves the service catalog and its slots.
type CatalogHandler struct {
	Services    *repository.ServiceRepo
	Slots       *repository.SlotRepo
	Users       *repository.UserRepo
	Cache       *redis.Client // optional; cleared after admin writes
	CachePrefix string
}

func NewCatalogHandler(services *repository.ServiceRepo, slots *repository.SlotRepo, users *repository.UserRepo,
	cache *redis.Client, cachePrefix string) *CatalogHandler {
	return &CatalogHandler{Services: services, Slots: slots, Users: users, Cache: cache, CachePrefix: cachePrefix}
}

type updateServiceReq struct {
	Price       *int    `json:"price" validate:"omitempty,min=0"`
	DurationMin *int    `json:"durationMin" validate:"omitempty,min=1,max=1440"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Status      *string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

type createSlotReq struct {
	ServiceID string    `json:"serviceId" validate:"required"`
	StaffID   *string   `json:"staffId" validate:"omitempty"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Capacity  int       `json:"capacity" validate:"required,min=1,max=100"`
}

// ListPublic returns ACTIVE services sorted by name.  No token needed.
func (h *CatalogHandler) ListPublic(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Services.ListActive(ctx)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// AdminList returns every service.
func (h *CatalogHandler) AdminList(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Services.ListAll(ctx)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// AdminUpdate patches price, duration, description or status.
func (h *CatalogHandler) AdminUpdate(c echo.Context) error {
	var req updateServiceReq
	if err := bindValid(c, &req); err != nil {
		return httpError(c, err)
	}
	if req.Price == nil && req.DurationMin == nil && req.Description == nil && req.Status == nil {
		return httpError(c, badRequest("nothing to update"))
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Services.GetByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	if req.Price != nil {
		s.Price = *req.Price
	}
	if req.DurationMin != nil {
		s.DurationMin = *req.DurationMin
	}
	if req.Description != nil {
		s.Description = *req.Description
	}
	if req.Status != nil {
		s.Status = *req.Status
	}
	s.UpdatedAt = time.Now().UTC()
	if err := h.Services.Update(ctx, s); err != nil {
		return httpError(c, err)
	}
	middleware.Invalidate(ctx, h.Cache, h.CachePrefix)
	return c.JSON(http.StatusOK, s)
}

// CreateSlot opens a slot for a service.  Medical services need a staff
// member, and any staff member given must be an active doctor or
// receptionist.
func (h *CatalogHandler) CreateSlot(c echo.Context) error {
	var req createSlotReq
	if err := bindValid(c, &req); err != nil {
		return httpError(c, err)
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return httpError(c, badRequest("startTime and endTime are required"))
	}
	if !req.StartTime.Before(req.EndTime) {
		return httpError(c, badRequest("startTime must be before endTime"))
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	svc, err := h.Services.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return httpError(c, err)
	}
	if svc.Status != model.ServiceActive {
		return httpError(c, badRequest("service is not active"))
	}
	if req.StaffID != nil && *req.StaffID == "" {
		req.StaffID = nil
	}
	if svc.Type == model.ServiceMedical && req.StaffID == nil {
		return httpError(c, badRequest("medical services require staffId"))
	}
	if req.StaffID != nil {
		if _, err := h.Users.GetActiveStaff(ctx, *req.StaffID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return httpError(c, badRequest("staffId must be an active doctor or receptionist"))
			}
			return httpError(c, err)
		}
	}

	slot := model.Slot{
		ID:        uuid.NewString(),
		ServiceID: svc.ID,
		StaffID:   req.StaffID,
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
		Capacity:  req.Capacity,
		Status:    model.SlotOpen,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Slots.Create(ctx, &slot); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, slot)
}

// DoctorSlots lists the slots assigned to the calling doctor.
func (h *CatalogHandler) DoctorSlots(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	slots, err := h.Slots.ListByStaff(ctx, id.UserID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, slots)
}
