package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/petcare-booking/internal/model"
	"github.com/iliyamo/petcare-booking/internal/queue"
	"github.com/iliyamo/petcare-booking/internal/repository"
	"github.com/iliyamo/petcare-booking/internal/service"
)

// BookingHandler serves /api/booking for customers and the reception list.
type BookingHandler struct {
	Bookings *repository.BookingRepo
	Pets     *repository.PetRepo
	Services *repository.ServiceRepo
	Slots    *repository.SlotRepo
	Events   service.EventPublisher
}

func NewBookingHandler(bookings *repository.BookingRepo, pets *repository.PetRepo, services *repository.ServiceRepo,
	slots *repository.SlotRepo, events service.EventPublisher) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Pets: pets, Services: services, Slots: slots, Events: events}
}

// bookingDetailsReq is the union of the three detail shapes.  Which one is
// stored depends on the booked service.
type bookingDetailsReq struct {
	GroomingStyle   *string `json:"groomingStyle" validate:"omitempty,max=255"`
	CoatCondition   *string `json:"coatCondition" validate:"omitempty,max=255"`
	SpecialRequests *string `json:"specialRequests" validate:"omitempty,max=500"`
	TrainingLevel   *string `json:"trainingLevel" validate:"omitempty,max=255"`
	BehaviorNotes   *string `json:"behaviorNotes" validate:"omitempty,max=500"`
	Goals           *string `json:"goals" validate:"omitempty,max=500"`
	Symptoms        *string `json:"symptoms" validate:"omitempty,max=500"`
	PreviousIssues  *string `json:"previousIssues" validate:"omitempty,max=500"`
	Medications     *string `json:"medications" validate:"omitempty,max=500"`
}

type createBookingReq struct {
	PetID           string             `json:"petId" validate:"required"`
	ServiceID       string             `json:"serviceId" validate:"required"`
	SlotID          *string            `json:"slotId"`
	BookingDate     string             `json:"bookingDate" validate:"required,date"`
	BookingTime     string             `json:"bookingTime" validate:"required,hhmm"`
	TransportOption string             `json:"transportOption" validate:"omitempty,oneof=NONE PICKUP DROP BOTH"`
	Notes           string             `json:"notes" validate:"max=500"`
	Details         *bookingDetailsReq `json:"details"`
}

// detailsFor picks the detail record matching svc.  Grooming and Training
// are recognised by name, every MEDICAL service gets a vet record.
func detailsFor(svc model.Service, d *bookingDetailsReq) *model.BookingDetails {
	if d == nil {
		return nil
	}
	switch {
	case strings.EqualFold(svc.Name, "Grooming") && (d.GroomingStyle != nil || d.CoatCondition != nil || d.SpecialRequests != nil):
		return &model.BookingDetails{Grooming: &model.GroomingDetails{
			GroomingStyle: d.GroomingStyle, CoatCondition: d.CoatCondition, SpecialRequests: d.SpecialRequests,
		}}
	case strings.EqualFold(svc.Name, "Training") && (d.TrainingLevel != nil || d.BehaviorNotes != nil || d.Goals != nil):
		return &model.BookingDetails{Training: &model.TrainingDetails{
			TrainingLevel: d.TrainingLevel, BehaviorNotes: d.BehaviorNotes, Goals: d.Goals,
		}}
	case svc.Type == model.ServiceMedical && (d.Symptoms != nil || d.PreviousIssues != nil || d.Medications != nil):
		return &model.BookingDetails{Vet: &model.VetDetails{
			Symptoms: d.Symptoms, PreviousIssues: d.PreviousIssues, Medications: d.Medications,
		}}
	}
	return nil
}

// Create books a service for one of the caller's pets.  The booking and its
// detail row are written in one transaction; total is the service price.
func (h *BookingHandler) Create(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return httpError(c, err)
	}
	var req createBookingReq
	if err := bindValid(c, &req); err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Pets.GetActiveOwned(ctx, req.PetID, id.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpError(c, forbidden("invalid pet"))
		}
		return httpError(c, err)
	}
	svc, err := h.Services.GetByID(ctx, req.ServiceID)
	if err != nil || svc.Status != model.ServiceActive {
		if err == nil || errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid service"})
		}
		return httpError(c, err)
	}

	if req.SlotID != nil && *req.SlotID == "" {
		req.SlotID = nil
	}
	if req.SlotID != nil {
		slot, err := h.Slots.GetByID(ctx, *req.SlotID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return httpError(c, err)
		}
		if err != nil || slot.ServiceID != svc.ID {
			return httpError(c, badRequest("slot does not belong to the service"))
		}
	}

	transport := req.TransportOption
	if transport == "" {
		transport = "NONE"
	}
	b := model.Booking{
		ID:              uuid.NewString(),
		UserID:          id.UserID,
		PetID:           req.PetID,
		ServiceID:       svc.ID,
		SlotID:          req.SlotID,
		BookingDate:     req.BookingDate,
		BookingTime:     req.BookingTime,
		TransportOption: transport,
		Status:          model.BookingPending,
		TotalAmount:     svc.Price,
		Notes:           req.Notes,
		CreatedAt:       time.Now().UTC(),
		Details:         detailsFor(svc, req.Details),
	}
	if err := h.Bookings.Create(ctx, &b); err != nil {
		return httpError(c, err)
	}

	service.Publish(h.Events, queue.BookingCreatedQueue, queue.BookingCreatedEvent{
		BookingID:       b.ID,
		UserID:          b.UserID,
		PetID:           b.PetID,
		ServiceID:       svc.ID,
		ServiceName:     svc.Name,
		BookingDate:     b.BookingDate,
		BookingTime:     b.BookingTime,
		TransportOption: b.TransportOption,
		TotalAmount:     b.TotalAmount,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
	})
	return c.JSON(http.StatusCreated, b)
}

// ListMine returns the caller's bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Bookings.ListByUser(ctx, id.UserID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Get returns one owned booking with its details.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Bookings.GetOwned(ctx, c.Param("id"), id.UserID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel cancels an owned booking.  Cancelling twice answers 400.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return httpError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Bookings.GetOwned(ctx, c.Param("id"), id.UserID)
	if err != nil {
		return httpError(c, err)
	}
	if b.Status == model.BookingCancelled {
		return httpError(c, badRequest("booking already cancelled"))
	}
	if err := h.Bookings.Cancel(ctx, b.ID, id.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpError(c, badRequest("booking already cancelled"))
		}
		return httpError(c, err)
	}
	b.Status = model.BookingCancelled
	return c.JSON(http.StatusOK, b)
}

// ReceptionList lists every booking, optionally for one date (?date=YYYY-MM-DD).
func (h *BookingHandler) ReceptionList(c echo.Context) error {
	date := c.QueryParam("date")
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return httpError(c, badRequest("date must be YYYY-MM-DD"))
		}
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Bookings.ListByDate(ctx, date)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
