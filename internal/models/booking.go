package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPaid      BookingStatus = "paid"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ParseBookingStatus maps free text onto the closed status set.
// Matching ignores case and surrounding whitespace.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// IsValid reports whether s is one of the known statuses
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusPaid, BookingStatusCancelled:
		return true
	}
	return false
}

// IsSettled reports whether the booking has already been paid for
func (s BookingStatus) IsSettled() bool {
	return s == BookingStatusPaid || s == BookingStatusConfirmed
}

// Scan normalizes legacy rows ("Paid", " CONFIRMED") so comparisons stay enum equality.
func (s *BookingStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = BookingStatusPending
	case []byte:
		*s = BookingStatus(strings.ToLower(strings.TrimSpace(string(v))))
	case string:
		*s = BookingStatus(strings.ToLower(strings.TrimSpace(v)))
	default:
		return fmt.Errorf("cannot scan %T into BookingStatus", value)
	}
	return nil
}

// Value implements driver.Valuer
func (s BookingStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// NormalizeReference trims and upper-cases a booking reference for lookups.
func NormalizeReference(ref string) string {
	return strings.ToUpper(strings.TrimSpace(ref))
}

// Booking is a row of the bookings table
type Booking struct {
	ID               int64               `json:"id" db:"id"`
	BookingReference string              `json:"booking_reference" db:"booking_reference"`
	CustomerID       *int64              `json:"customer_id,omitempty" db:"customer_id"`
	AgentID          *int64              `json:"agent_id,omitempty" db:"agent_id"`
	TourID           *int64              `json:"tour_id,omitempty" db:"tour_id"`
	Status           BookingStatus       `json:"status" db:"status"`
	Deposit          decimal.Decimal     `json:"deposit" db:"deposit"`
	RemainingBalance decimal.Decimal     `json:"remaining_balance" db:"remaining_balance"`
	TotalPayment     decimal.Decimal     `json:"total_payment" db:"total_payment"`
	Commission       decimal.Decimal     `json:"commission" db:"commission"`
	TotalNet         decimal.NullDecimal `json:"total_net" db:"total_net"`
	Adults           int                 `json:"adults" db:"adults"`
	Children         int                 `json:"children" db:"children"`
	TotalPax         int                 `json:"total_pax" db:"total_pax"`
	TourDate         *time.Time          `json:"tour_date,omitempty" db:"tour_date"`
	PaymentID        *string             `json:"payment_id,omitempty" db:"payment_id"`
	Notes            *string             `json:"notes,omitempty" db:"notes"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" db:"updated_at"`
}

// Net returns the stored total_net, or total_payment minus commission when none was stored.
func (b *Booking) Net() decimal.Decimal {
	if b.TotalNet.Valid {
		return b.TotalNet.Decimal
	}
	return b.TotalPayment.Sub(b.Commission)
}

// BookingDetail is a booking joined with its customer, agent, tour, ship and location names
type BookingDetail struct {
	Booking
	CustomerName  *string `json:"customer_name,omitempty" db:"customer_name"`
	CustomerEmail *string `json:"customer_email,omitempty" db:"customer_email"`
	CustomerPhone *string `json:"customer_phone,omitempty" db:"customer_phone"`
	AgentName     *string `json:"agent_name,omitempty" db:"agent_name"`
	TourName      *string `json:"tour_name,omitempty" db:"tour_name"`
	ShipName      *string `json:"ship_name,omitempty" db:"ship_name"`
	LocationName  *string `json:"location_name,omitempty" db:"location_name"`
}

// BookingTour is one tour leg of a booking
type BookingTour struct {
	ID             int64           `json:"id" db:"id"`
	BookingID      int64           `json:"booking_id" db:"booking_id"`
	TourID         *int64          `json:"tour_id,omitempty" db:"tour_id"`
	TourDate       *time.Time      `json:"tour_date,omitempty" db:"tour_date"`
	Adults         int             `json:"adults" db:"adults"`
	Children       int             `json:"children" db:"children"`
	TotalPax       int             `json:"total_pax" db:"total_pax"`
	Price          decimal.Decimal `json:"price" db:"price"`
	BookingAgentID *int64          `json:"booking_agent_id,omitempty" db:"booking_agent_id"`
	TourGuide      *string         `json:"tour_guide,omitempty" db:"tour_guide"`
	Notes          *string         `json:"notes,omitempty" db:"notes"`
}

// BookingTourDetail is a line item joined with tour, ship, location and booking agent names
type BookingTourDetail struct {
	BookingTour
	TourName         *string `json:"tour_name,omitempty" db:"tour_name"`
	ShipName         *string `json:"ship_name,omitempty" db:"ship_name"`
	LocationName     *string `json:"location_name,omitempty" db:"location_name"`
	BookingAgentName *string `json:"booking_agent_name,omitempty" db:"booking_agent_name"`
}

// CreateBookingRequest is the payload for creating a booking with its tour legs
type CreateBookingRequest struct {
	CustomerName  string                     `json:"customer_name" binding:"required"`
	CustomerEmail string                     `json:"customer_email" binding:"required,email"`
	CustomerPhone string                     `json:"customer_phone"`
	AgentID       *int64                     `json:"agent_id,omitempty"`
	Commission    decimal.Decimal            `json:"commission"`
	Deposit       decimal.Decimal            `json:"deposit"`
	TotalPayment  decimal.Decimal            `json:"total_payment"`
	Notes         *string                    `json:"notes,omitempty"`
	Tours         []CreateBookingTourRequest `json:"tours" binding:"required,min=1,dive"`
}

// CreateBookingTourRequest is one requested tour leg
type CreateBookingTourRequest struct {
	TourID         int64           `json:"tour_id" binding:"required"`
	TourDate       string          `json:"tour_date" binding:"required"`
	Adults         int             `json:"adults" binding:"min=0"`
	Children       int             `json:"children" binding:"min=0"`
	Price          decimal.Decimal `json:"price"`
	BookingAgentID *int64          `json:"booking_agent_id,omitempty"`
	TourGuide      *string         `json:"tour_guide,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
}

// UpdateBookingStatusRequest is the body of the booking status update endpoint
type UpdateBookingStatusRequest struct {
	BookingReference string                 `json:"booking_reference" binding:"required"`
	Status           string                 `json:"status" binding:"required,booking_status"`
	PaymentID        *string                `json:"payment_id,omitempty"`
	PaymentDetails   map[string]interface{} `json:"payment_details,omitempty"`
}

// VerifyBookingRequest is the body of the booking verification endpoint
type VerifyBookingRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
}
