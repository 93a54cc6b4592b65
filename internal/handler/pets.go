package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/petcare-booking/internal/model"
	"github.com/iliyamo/petcare-booking/internal/repository"
)

// PetHandler serves /api/pets.  Every operation is scoped to the caller's
// own pets; other ids answer 404.
type PetHandler struct {
	Pets *repository.PetRepo
}

func NewPetHandler(pets *repository.PetRepo) *PetHandler { return &PetHandler{Pets: pets} }

type createPetReq struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Species  string  `json:"species" validate:"required,max=50"`
	Breed    string  `json:"breed" validate:"max=100"`
	Gender   string  `json:"gender" validate:"omitempty,oneof=MALE FEMALE UNKNOWN"`
	Age      int     `json:"age" validate:"min=0,max=60"`
	WeightKg float64 `json:"weightKg" validate:"min=0,max=500"`
	Notes    string  `json:"notes" validate:"max=500"`
}

type updatePetReq struct {
	Name     *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Species  *string  `json:"species" validate:"omitempty,min=1,max=50"`
	Breed    *string  `json:"breed" validate:"omitempty,max=100"`
	Gender   *string  `json:"gender" validate:"omitempty,oneof=MALE FEMALE UNKNOWN"`
	Age      *int     `json:"age" validate:"omitempty,min=0,max=60"`
	WeightKg *float64 `json:"weightKg" validate:"omitempty,min=0,max=500"`
	Notes    *string  `json:"notes" validate:"omitempty,max=500"`
}

func (r updatePetReq) empty() bool {
	return r.Name == nil && r.Species == nil && r.Breed == nil && r.Gender == nil &&
		r.Age == nil && r.WeightKg == nil && r.Notes == nil
}

// List returns the caller's active pets.
func (h *PetHandler) List(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pets, err := h.Pets.ListActiveByOwner(ctx, id.UserID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, pets)
}

// Create registers a pet for the caller.
func (h *PetHandler) Create(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return httpError(c, err)
	}
	var req createPetReq
	if err := bindValid(c, &req); err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	gender := req.Gender
	if gender == "" {
		gender = "UNKNOWN"
	}
	p := model.Pet{
		ID:        uuid.NewString(),
		OwnerID:   id.UserID,
		Name:      req.Name,
		Species:   req.Species,
		Breed:     req.Breed,
		Gender:    gender,
		Age:       req.Age,
		WeightKg:  req.WeightKg,
		Notes:     req.Notes,
		Status:    model.PetActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Pets.Create(ctx, &p); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// Get returns one owned pet.
func (h *PetHandler) Get(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Pets.GetActiveOwned(ctx, c.Param("id"), id.UserID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Update changes the provided fields; at least one is required.
func (h *PetHandler) Update(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return httpError(c, err)
	}
	var req updatePetReq
	if err := bindValid(c, &req); err != nil {
		return httpError(c, err)
	}
	if req.empty() {
		return httpError(c, badRequest("at least one field is required"))
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Pets.GetActiveOwned(ctx, c.Param("id"), id.UserID)
	if err != nil {
		return httpError(c, err)
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Species != nil {
		p.Species = *req.Species
	}
	if req.Breed != nil {
		p.Breed = *req.Breed
	}
	if req.Gender != nil {
		p.Gender = *req.Gender
	}
	if req.Age != nil {
		p.Age = *req.Age
	}
	if req.WeightKg != nil {
		p.WeightKg = *req.WeightKg
	}
	if req.Notes != nil {
		p.Notes = *req.Notes
	}
	p.UpdatedAt = time.Now().UTC()
	if err := h.Pets.Update(ctx, p); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Delete soft deletes an owned pet.
func (h *PetHandler) Delete(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Pets.Deactivate(ctx, c.Param("id"), id.UserID, time.Now().UTC()); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "pet removed"})
}
