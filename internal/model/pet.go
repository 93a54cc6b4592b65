package model

import "time"

// PetStatus values; deleting a pet only flips it to INACTIVE.
const (
	PetActive   = "ACTIVE"
	PetInactive = "INACTIVE"
)

// Pet belongs to exactly one customer (OwnerID).
type Pet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	Name      string    `json:"name"`
	Species   string    `json:"species"`
	Breed     string    `json:"breed"`
	Gender    string    `json:"gender"`
	Age       int       `json:"age"`
	WeightKg  float64   `json:"weightKg"`
	Notes     string    `json:"notes"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
