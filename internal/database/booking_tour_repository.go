package database

import (
	"context"
	"fmt"

	"github.com/tourdesk/booking-backend/internal/models"
)

// BookingTourRepository reads booking line items
type BookingTourRepository struct {
	db   DB
	exec *Executor
}

// NewBookingTourRepository creates a new BookingTourRepository
func NewBookingTourRepository(db DB, exec *Executor) *BookingTourRepository {
	return &BookingTourRepository{db: db, exec: exec}
}

// ListByBookingID returns the line items of a booking joined to tour, ship, location and booking agent
func (r *BookingTourRepository) ListByBookingID(ctx context.Context, bookingID int64) ([]models.BookingTourDetail, error) {
	tours := []models.BookingTourDetail{}
	err := r.exec.Run(ctx, r.exec.Defaults(), "booking_tour.list_by_booking", func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &tours, `
			SELECT bt.id, bt.booking_id, bt.tour_id, bt.tour_date,
				COALESCE(bt.adults, 0) AS adults,
				COALESCE(bt.children, 0) AS children,
				COALESCE(bt.total_pax, 0) AS total_pax,
				COALESCE(bt.price, 0) AS price,
				bt.booking_agent_id, bt.tour_guide, bt.notes,
				t.name AS tour_name, s.name AS ship_name, l.name AS location_name,
				ba.name AS booking_agent_name
			FROM booking_tours bt
			LEFT JOIN tours t ON t.id = bt.tour_id
			LEFT JOIN ships s ON s.id = t.ship_id
			LEFT JOIN locations l ON l.id = t.location_id
			LEFT JOIN booking_agents ba ON ba.id = bt.booking_agent_id
			WHERE bt.booking_id = $1
			ORDER BY bt.tour_date NULLS LAST, bt.id`, bookingID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list booking tours: %w", err)
	}
	return tours, nil
}
