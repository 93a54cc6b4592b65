package model

import "time"

// Role is the RBAC role carried in access tokens.
type Role string

const (
	RoleCustomer     Role = "CUSTOMER"
	RoleDoctor       Role = "DOCTOR"
	RoleReceptionist Role = "RECEPTIONIST"
	RoleAdmin        Role = "ADMIN"
)

// AllRoles lists every role, for routes open to any authenticated user.
var AllRoles = []Role{RoleCustomer, RoleDoctor, RoleReceptionist, RoleAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleDoctor, RoleReceptionist, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether r is a staff role an admin may create or manage.
func (r Role) IsStaff() bool { return r == RoleDoctor || r == RoleReceptionist }

// AccountStatus is the lifecycle state of a user.  Only ACTIVE accounts may
// authenticate.
type AccountStatus string

const (
	StatusActive    AccountStatus = "ACTIVE"
	StatusSuspended AccountStatus = "SUSPENDED"
	StatusDeleted   AccountStatus = "DELETED"
)

// User represents a row of the `users` table.
//
// Fields:
//  ID           – uuid primary key, also the access token subject.
//  Email        – unique, stored lower-cased.
//  Phone        – unique when present.
//  PasswordHash – bcrypt hash.
//  Role         – CUSTOMER, DOCTOR, RECEPTIONIST or ADMIN.
//  Status       – ACTIVE, SUSPENDED or DELETED.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        *string
	PasswordHash string
	Role         Role
	Status       AccountStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive reports whether the user may authenticate.
func (u User) IsActive() bool { return u.Status == StatusActive }

// RefreshToken models an entry in the `refresh_tokens` table.  The token
// value is never stored; TokenHash is the SHA-256 of the signed token and
// serves as the primary key.
type RefreshToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// Usable reports whether the stored record still allows minting access
// tokens at the given instant.  The signature check is separate.
func (t RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// PasswordResetToken models an entry in `password_reset_tokens`.  It can
// be consumed exactly once before ExpiresAt.
type PasswordResetToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Valid reports whether the token may still be consumed at now.
func (t PasswordResetToken) Valid(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
