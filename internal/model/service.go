package model

import "time"

// ServiceType separates medical services (which need a doctor) from
// operational ones.
type ServiceType string

const (
	ServiceOperational ServiceType = "OPERATIONAL"
	ServiceMedical     ServiceType = "MEDICAL"
)

// Service status values.
const (
	ServiceActive   = "ACTIVE"
	ServiceInactive = "INACTIVE"
)

// Service is an entry of the catalog.  Price is in the smallest currency unit.
type Service struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       int         `json:"price"`
	DurationMin int         `json:"durationMin"`
	Type        ServiceType `json:"type"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Slot is a bookable window for a service, optionally assigned to staff.
type Slot struct {
	ID        string    `json:"id"`
	ServiceID string    `json:"serviceId"`
	StaffID   *string   `json:"staffId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Capacity  int       `json:"capacity"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// SlotOpen is the status of a freshly created slot.
const SlotOpen = "OPEN"
