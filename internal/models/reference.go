package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferenceKind identifies one of the name-only lookup tables
type ReferenceKind string

const (
	ReferenceShip         ReferenceKind = "ship"
	ReferenceLocation     ReferenceKind = "location"
	ReferenceAgent        ReferenceKind = "agent"
	ReferenceBookingAgent ReferenceKind = "booking_agent"
)

// ReferenceItem is a ship, location, agent or booking agent row
type ReferenceItem struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ReferenceItemRequest is the create/rename payload for reference rows
type ReferenceItemRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

// TourStatus describes whether a tour can currently be booked
type TourStatus string

const (
	TourStatusActive   TourStatus = "active"
	TourStatusInactive TourStatus = "inactive"
)

// Tour is a bookable sightseeing tour
type Tour struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	ShipID      *int64          `json:"ship_id,omitempty" db:"ship_id"`
	LocationID  *int64          `json:"location_id,omitempty" db:"location_id"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Capacity    int             `json:"capacity" db:"capacity"`
	Status      TourStatus      `json:"status" db:"status"`
	Description *string         `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}
