package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tourdesk/booking-backend/internal/models"
)

const bookingColumns = `
	b.id, b.booking_reference, b.customer_id, b.agent_id, b.tour_id, b.status,
	COALESCE(b.deposit, 0) AS deposit,
	COALESCE(b.remaining_balance, 0) AS remaining_balance,
	COALESCE(b.total_payment, 0) AS total_payment,
	COALESCE(b.commission, 0) AS commission,
	b.total_net,
	COALESCE(b.adults, 0) AS adults,
	COALESCE(b.children, 0) AS children,
	COALESCE(b.total_pax, 0) AS total_pax,
	b.tour_date, b.payment_id, b.notes, b.created_at, b.updated_at`

const bookingDetailSelect = `
	SELECT ` + bookingColumns + `,
		c.name AS customer_name, c.email AS customer_email, c.phone AS customer_phone,
		a.name AS agent_name, t.name AS tour_name, s.name AS ship_name, l.name AS location_name
	FROM bookings b
	LEFT JOIN customers c ON c.id = b.customer_id
	LEFT JOIN agents a ON a.id = b.agent_id
	LEFT JOIN tours t ON t.id = b.tour_id
	LEFT JOIN ships s ON s.id = t.ship_id
	LEFT JOIN locations l ON l.id = t.location_id`

// BookingRepository handles database operations for bookings and their line items
type BookingRepository struct {
	db   DB
	exec *Executor
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB, exec *Executor) *BookingRepository {
	return &BookingRepository{db: db, exec: exec}
}

// GetByID retrieves a booking row by id
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := r.exec.Run(ctx, r.exec.Defaults(), "booking.get_by_id", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &booking, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = $1`, id)
	})
	if err != nil {
		return nil, notFound(err, "failed to get booking")
	}
	return &booking, nil
}

// GetByReference retrieves a booking by reference, ignoring case and surrounding whitespace
func (r *BookingRepository) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	var booking models.Booking
	err := r.exec.Run(ctx, r.exec.Defaults(), "booking.get_by_reference", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &booking, `
			SELECT `+bookingColumns+`
			FROM bookings b
			WHERE UPPER(TRIM(b.booking_reference)) = $1
			ORDER BY b.id
			LIMIT 1`, models.NormalizeReference(reference))
	})
	if err != nil {
		return nil, notFound(err, "failed to get booking by reference")
	}
	return &booking, nil
}

// GetDetailByID retrieves a booking joined with its customer, agent, tour, ship and location
func (r *BookingRepository) GetDetailByID(ctx context.Context, id int64) (*models.BookingDetail, error) {
	var detail models.BookingDetail
	err := r.exec.Run(ctx, r.exec.Defaults(), "booking.get_detail_by_id", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &detail, bookingDetailSelect+` WHERE b.id = $1`, id)
	})
	if err != nil {
		return nil, notFound(err, "failed to get booking detail")
	}
	return &detail, nil
}

// GetDetailByReference is GetDetailByID keyed by normalized reference
func (r *BookingRepository) GetDetailByReference(ctx context.Context, reference string) (*models.BookingDetail, error) {
	var detail models.BookingDetail
	err := r.exec.Run(ctx, r.exec.Defaults(), "booking.get_detail_by_reference", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &detail,
			bookingDetailSelect+` WHERE UPPER(TRIM(b.booking_reference)) = $1 ORDER BY b.id LIMIT 1`,
			models.NormalizeReference(reference))
	})
	if err != nil {
		return nil, notFound(err, "failed to get booking detail by reference")
	}
	return &detail, nil
}

// ListRecent returns bookings newest first
func (r *BookingRepository) ListRecent(ctx context.Context, limit, offset int) ([]models.BookingDetail, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	bookings := []models.BookingDetail{}
	err := r.exec.Run(ctx, r.exec.Defaults(), "booking.list_recent", func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &bookings,
			bookingDetailSelect+` ORDER BY b.created_at DESC, b.id DESC LIMIT $1 OFFSET $2`, limit, offset)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// CreateWithTours inserts a booking and its line items in one transaction.
// On success booking.ID and each tour's ID and BookingID are filled in.
func (r *BookingRepository) CreateWithTours(ctx context.Context, booking *models.Booking, tours []models.BookingTour) error {
	return r.exec.Run(ctx, r.exec.Defaults().NoRetry(), "booking.create_with_tours", func(ctx context.Context) error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer rollback(tx)

		err = tx.QueryRowxContext(ctx, `
			INSERT INTO bookings (
				booking_reference, customer_id, agent_id, tour_id, status,
				deposit, remaining_balance, total_payment, commission, total_net,
				adults, children, total_pax, tour_date, notes,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
			RETURNING id, created_at, updated_at`,
			booking.BookingReference, booking.CustomerID, booking.AgentID, booking.TourID, booking.Status,
			booking.Deposit, booking.RemainingBalance, booking.TotalPayment, booking.Commission, booking.TotalNet,
			booking.Adults, booking.Children, booking.TotalPax, booking.TourDate, booking.Notes,
		).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert booking: %w", err)
		}

		for i := range tours {
			tours[i].BookingID = booking.ID
			err = tx.QueryRowxContext(ctx, `
				INSERT INTO booking_tours (
					booking_id, tour_id, tour_date, adults, children, total_pax,
					price, booking_agent_id, tour_guide, notes
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				RETURNING id`,
				tours[i].BookingID, tours[i].TourID, tours[i].TourDate, tours[i].Adults, tours[i].Children,
				tours[i].TotalPax, tours[i].Price, tours[i].BookingAgentID, tours[i].TourGuide, tours[i].Notes,
			).Scan(&tours[i].ID)
			if err != nil {
				return fmt.Errorf("failed to insert booking tour %d: %w", i+1, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit booking: %w", err)
		}
		return nil
	})
}

// ApplyStatus sets the booking status. Moving to paid settles the balance
// (remaining_balance = 0, deposit = total_payment). A nil paymentID keeps the stored one.
func (r *BookingRepository) ApplyStatus(ctx context.Context, id int64, status models.BookingStatus, paymentID *string) (*models.Booking, error) {
	var booking models.Booking
	err := r.exec.Run(ctx, r.exec.Defaults(), "booking.apply_status", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &booking, `
			UPDATE bookings b SET
				status = $2,
				remaining_balance = CASE WHEN $2 = 'paid' THEN 0 ELSE b.remaining_balance END,
				deposit = CASE WHEN $2 = 'paid' THEN COALESCE(b.total_payment, 0) ELSE b.deposit END,
				payment_id = COALESCE($3, b.payment_id),
				updated_at = NOW()
			WHERE b.id = $1
			RETURNING `+bookingColumns,
			id, string(status), paymentID)
	})
	if err != nil {
		return nil, notFound(err, "failed to update booking status")
	}
	return &booking, nil
}

// SetPaymentID stores the provider payment id on a booking
func (r *BookingRepository) SetPaymentID(ctx context.Context, id int64, paymentID string) error {
	return r.exec.Run(ctx, r.exec.Defaults(), "booking.set_payment_id", func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx,
			`UPDATE bookings SET payment_id = $2, updated_at = NOW() WHERE id = $1`, id, paymentID)
		if err != nil {
			return fmt.Errorf("failed to set payment id: %w", err)
		}
		return expectAffected(result, models.ErrBookingNotFound)
	})
}

// FindByPaymentAndEmail finds a booking created since `since` whose payment_id
// equals paymentID (or whose notes mention it) and whose customer email matches.
func (r *BookingRepository) FindByPaymentAndEmail(ctx context.Context, paymentID, email string, since time.Time) (*models.BookingDetail, error) {
	var detail models.BookingDetail
	err := r.exec.Run(ctx, r.exec.Defaults(), "booking.find_by_payment_and_email", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &detail, bookingDetailSelect+`
			WHERE b.created_at >= $3
			  AND (b.payment_id = $1 OR b.notes LIKE '%' || $4 || '%' ESCAPE '\')
			  AND LOWER(TRIM(c.email)) = LOWER(TRIM($2))
			ORDER BY b.created_at DESC
			LIMIT 1`, paymentID, email, since, escapeLike(paymentID))
	})
	if err != nil {
		return nil, notFound(err, "failed to find booking by payment")
	}
	return &detail, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern using ESCAPE '\'
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Delete removes a booking and its line items
func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	return r.exec.Run(ctx, r.exec.Defaults(), "booking.delete", func(ctx context.Context) error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer rollback(tx)

		if _, err := tx.ExecContext(ctx, `DELETE FROM booking_tours WHERE booking_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete booking tours: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete booking: %w", err)
		}
		if err := expectAffected(result, models.ErrBookingNotFound); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// notFound maps sql.ErrNoRows to ErrBookingNotFound and wraps anything else
func notFound(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrBookingNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func expectAffected(result sql.Result, missing error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}
