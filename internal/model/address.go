package model

import "time"

// Address is a customer's postal address.  At most one address per user
// has IsDefault set.
type Address struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	Label       string    `json:"label"`
	AddressLine string    `json:"addressLine"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	PostalCode  string    `json:"postalCode"`
	Country     string    `json:"country"`
	IsDefault   bool      `json:"isDefault"`
	CreatedAt   time.Time `json:"createdAt"`
}
