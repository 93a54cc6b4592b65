package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/petcare-booking/internal/model"
)

// BookingRepo stores bookings and their type-specific detail rows.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

const bookingColumns = "id,user_id,pet_id,service_id,slot_id,booking_date,booking_time,transport_option,status,total_amount,notes,created_at"

func scanBooking(s rowScanner) (model.Booking, error) {
	var (
		b    model.Booking
		slot sql.NullString
	)
	err := s.Scan(&b.ID, &b.UserID, &b.PetID, &b.ServiceID, &slot, &b.BookingDate, &b.BookingTime,
		&b.TransportOption, &b.Status, &b.TotalAmount, &b.Notes, &b.CreatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	if slot.Valid {
		id := slot.String
		b.SlotID = &id
	}
	return b, nil
}

// Create inserts the booking and, when b.Details carries one, its detail
// row in a single transaction.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	return txFunc(ctx, r.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO bookings ("+bookingColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?)",
			b.ID, b.UserID, b.PetID, b.ServiceID, b.SlotID, b.BookingDate, b.BookingTime,
			b.TransportOption, b.Status, b.TotalAmount, b.Notes, b.CreatedAt.UTC())
		if err != nil {
			return err
		}
		d := b.Details
		switch {
		case d == nil:
			return nil
		case d.Grooming != nil:
			_, err = tx.ExecContext(ctx,
				"INSERT INTO grooming_booking_details (booking_id, grooming_style, coat_condition, special_requests) VALUES (?,?,?,?)",
				b.ID, d.Grooming.GroomingStyle, d.Grooming.CoatCondition, d.Grooming.SpecialRequests)
		case d.Training != nil:
			_, err = tx.ExecContext(ctx,
				"INSERT INTO training_booking_details (booking_id, training_level, behavior_notes, goals) VALUES (?,?,?,?)",
				b.ID, d.Training.TrainingLevel, d.Training.BehaviorNotes, d.Training.Goals)
		case d.Vet != nil:
			_, err = tx.ExecContext(ctx,
				"INSERT INTO vet_booking_details (booking_id, symptoms, previous_issues, medications) VALUES (?,?,?,?)",
				b.ID, d.Vet.Symptoms, d.Vet.PreviousIssues, d.Vet.Medications)
		}
		return err
	})
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// details are loaded after the cursor is closed; sqlite runs on a
	// single connection
	for i := range out {
		d, err := r.details(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Details = d
	}
	return out, nil
}

// ListByUser returns the user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	return r.list(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE user_id=? ORDER BY created_at DESC", userID)
}

// ListByDate returns every booking on date (YYYY-MM-DD) ordered by time.
// An empty date lists all bookings.
func (r *BookingRepo) ListByDate(ctx context.Context, date string) ([]model.Booking, error) {
	if date == "" {
		return r.list(ctx, "SELECT "+bookingColumns+" FROM bookings ORDER BY booking_date ASC, booking_time ASC")
	}
	return r.list(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE booking_date=? ORDER BY booking_time ASC", date)
}

// GetOwned returns booking id when it belongs to userID.
func (r *BookingRepo) GetOwned(ctx context.Context, id, userID string) (model.Booking, error) {
	b, err := scanBooking(r.DB.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=? AND user_id=? LIMIT 1", id, userID))
	if err != nil {
		return model.Booking{}, notFound(err)
	}
	b.Details, err = r.details(ctx, b.ID)
	return b, err
}

// Cancel flips an owned booking to CANCELLED.  The caller checks the
// current status first.
func (r *BookingRepo) Cancel(ctx context.Context, id, userID string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE bookings SET status=? WHERE id=? AND user_id=? AND status<>?",
		model.BookingCancelled, id, userID, model.BookingCancelled)
	return affectedOne(res, err)
}

func (r *BookingRepo) details(ctx context.Context, bookingID string) (*model.BookingDetails, error) {
	var g model.GroomingDetails
	err := r.DB.QueryRowContext(ctx,
		"SELECT grooming_style, coat_condition, special_requests FROM grooming_booking_details WHERE booking_id=?",
		bookingID).Scan(&g.GroomingStyle, &g.CoatCondition, &g.SpecialRequests)
	if err == nil {
		return &model.BookingDetails{Grooming: &g}, nil
	} else if err != sql.ErrNoRows {
		return nil, err
	}
	var t model.TrainingDetails
	err = r.DB.QueryRowContext(ctx,
		"SELECT training_level, behavior_notes, goals FROM training_booking_details WHERE booking_id=?",
		bookingID).Scan(&t.TrainingLevel, &t.BehaviorNotes, &t.Goals)
	if err == nil {
		return &model.BookingDetails{Training: &t}, nil
	} else if err != sql.ErrNoRows {
		return nil, err
	}
	var v model.VetDetails
	err = r.DB.QueryRowContext(ctx,
		"SELECT symptoms, previous_issues, medications FROM vet_booking_details WHERE booking_id=?",
		bookingID).Scan(&v.Symptoms, &v.PreviousIssues, &v.Medications)
	if err == nil {
		return &model.BookingDetails{Vet: &v}, nil
	} else if err != sql.ErrNoRows {
		return nil, err
	}
	return nil, nil
}
