package model

import "time"

// Booking status values.
const (
	BookingPending   = "PENDING"
	BookingCancelled = "CANCELLED"
)

// Transport options a customer can request.
var TransportOptions = []string{"NONE", "PICKUP", "DROP", "BOTH"}

// Booking records a customer's request for a service for one of their pets.
type Booking struct {
	ID              string    `json:"id"`
	UserID          string    `json:"-"`
	PetID           string    `json:"petId"`
	ServiceID       string    `json:"serviceId"`
	SlotID          *string   `json:"slotId,omitempty"`
	BookingDate     string    `json:"bookingDate"`
	BookingTime     string    `json:"bookingTime"`
	TransportOption string    `json:"transportOption"`
	Status          string    `json:"status"`
	TotalAmount     int       `json:"totalAmount"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"createdAt"`

	Details *BookingDetails `json:"details"`
}

// BookingDetails holds the type-specific record; exactly one of the
// pointers is set, chosen by the booked service.
type BookingDetails struct {
	Grooming *GroomingDetails `json:"grooming,omitempty"`
	Training *TrainingDetails `json:"training,omitempty"`
	Vet      *VetDetails      `json:"vet,omitempty"`
}

type GroomingDetails struct {
	GroomingStyle   *string `json:"groomingStyle"`
	CoatCondition   *string `json:"coatCondition"`
	SpecialRequests *string `json:"specialRequests"`
}

type TrainingDetails struct {
	TrainingLevel *string `json:"trainingLevel"`
	BehaviorNotes *string `json:"behaviorNotes"`
	Goals         *string `json:"goals"`
}

type VetDetails struct {
	Symptoms       *string `json:"symptoms"`
	PreviousIssues *string `json:"previousIssues"`
	Medications    *string `json:"medications"`
}
