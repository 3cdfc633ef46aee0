package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tourdesk/booking-backend/internal/models"
)

const customerColumns = `id, name, email, phone, created_at, updated_at`

// CustomerRepository handles database operations for customers
type CustomerRepository struct {
	db   DB
	exec *Executor
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db DB, exec *Executor) *CustomerRepository {
	return &CustomerRepository{db: db, exec: exec}
}

// GetByID retrieves a customer by id
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	err := r.exec.Run(ctx, r.exec.Defaults(), "customer.get_by_id", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &customer, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	})
	if err != nil {
		return nil, entityNotFound(err, "failed to get customer")
	}
	return &customer, nil
}

// GetByEmail retrieves a customer by email, case-insensitively
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := r.exec.Run(ctx, r.exec.Defaults(), "customer.get_by_email", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &customer, `
			SELECT `+customerColumns+` FROM customers
			WHERE LOWER(email) = $1
			ORDER BY id
			LIMIT 1`, strings.ToLower(strings.TrimSpace(email)))
	})
	if err != nil {
		return nil, entityNotFound(err, "failed to get customer by email")
	}
	return &customer, nil
}

// Create inserts a customer and fills in its id and timestamps
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	return r.exec.Run(ctx, r.exec.Defaults().NoRetry(), "customer.create", func(ctx context.Context) error {
		err := r.db.QueryRowxContext(ctx, `
			INSERT INTO customers (name, email, phone, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			RETURNING id, created_at, updated_at`,
			customer.Name, customer.Email, customer.Phone,
		).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create customer: %w", err)
		}
		return nil
	})
}

// entityNotFound maps sql.ErrNoRows to ErrEntityNotFound and wraps anything else
func entityNotFound(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrEntityNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
