// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names.  Both are durable; the routing key equals the queue name on
// the default exchange.
const (
	PasswordResetQueue  = "password.reset_requested"
	BookingCreatedQueue = "booking.created"
)

// PasswordResetRequestedEvent carries everything a mailer needs to deliver a
// reset link.  The token is embedded in ResetURL only; it is never logged.
type PasswordResetRequestedEvent struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	ResetURL    string `json:"reset_url"`
	ExpiresAt   string `json:"expires_at"`
	RequestedAt string `json:"requested_at"`
}

// BookingCreatedEvent is published after a booking and its detail row are
// committed.
type BookingCreatedEvent struct {
	BookingID       string `json:"booking_id"`
	UserID          string `json:"user_id"`
	PetID           string `json:"pet_id"`
	ServiceID       string `json:"service_id"`
	ServiceName     string `json:"service_name"`
	BookingDate     string `json:"booking_date"`
	BookingTime     string `json:"booking_time"`
	TransportOption string `json:"transport_option"`
	TotalAmount     int    `json:"total_amount"`
	CreatedAt       string `json:"created_at"`
}
