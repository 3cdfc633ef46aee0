package models

import "time"

// Customer is the person a booking is made for
type Customer struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     *string   `json:"email,omitempty" db:"email"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasEmail reports whether a confirmation can be mailed to the customer
func (c *Customer) HasEmail() bool {
	return c != nil && c.Email != nil && *c.Email != ""
}
