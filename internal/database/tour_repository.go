package database

import (
	"context"
	"fmt"

	"github.com/tourdesk/booking-backend/internal/models"
)

const tourColumns = `id, name, ship_id, location_id, COALESCE(price, 0) AS price,
	COALESCE(capacity, 0) AS capacity, status, description, created_at, updated_at`

// TourRepository reads tours
type TourRepository struct {
	db   DB
	exec *Executor
}

// NewTourRepository creates a new TourRepository
func NewTourRepository(db DB, exec *Executor) *TourRepository {
	return &TourRepository{db: db, exec: exec}
}

// GetByID retrieves a tour by id
func (r *TourRepository) GetByID(ctx context.Context, id int64) (*models.Tour, error) {
	var tour models.Tour
	err := r.exec.Run(ctx, r.exec.Defaults(), "tour.get_by_id", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &tour, `SELECT `+tourColumns+` FROM tours WHERE id = $1`, id)
	})
	if err != nil {
		return nil, entityNotFound(err, "failed to get tour")
	}
	return &tour, nil
}

// List returns all tours ordered by name
func (r *TourRepository) List(ctx context.Context) ([]models.Tour, error) {
	tours := []models.Tour{}
	err := r.exec.Run(ctx, r.exec.Defaults(), "tour.list", func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &tours, `SELECT `+tourColumns+` FROM tours ORDER BY name`)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}
	return tours, nil
}
