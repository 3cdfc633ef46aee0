package models

import (
	"time"

	"github.com/google/uuid"
)

// OutboxStatus is the delivery state of a queued email
type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxProcessing OutboxStatus = "processing"
	OutboxSent       OutboxStatus = "sent"
	OutboxFailed     OutboxStatus = "failed"
)

// EmailKindBookingConfirmation is the only email kind queued today
const EmailKindBookingConfirmation = "booking_confirmation"

// EmailOutbox is one queued transactional email.
// (BookingID, TargetStatus) is unique, so a booking gets at most one email per status it reaches.
type EmailOutbox struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	BookingID    int64         `json:"booking_id" db:"booking_id"`
	TargetStatus BookingStatus `json:"target_status" db:"target_status"`
	Kind         string        `json:"kind" db:"kind"`
	Recipient    string        `json:"recipient" db:"recipient"`
	Status       OutboxStatus  `json:"status" db:"status"`
	Attempts     int           `json:"attempts" db:"attempts"`
	LastError    *string       `json:"last_error,omitempty" db:"last_error"`
	MessageID    *string       `json:"message_id,omitempty" db:"message_id"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	SentAt       *time.Time    `json:"sent_at,omitempty" db:"sent_at"`
}

// NewBookingConfirmation builds the outbox row for a booking reaching target
func NewBookingConfirmation(bookingID int64, target BookingStatus, recipient string) *EmailOutbox {
	return &EmailOutbox{
		ID:           uuid.New(),
		BookingID:    bookingID,
		TargetStatus: target,
		Kind:         EmailKindBookingConfirmation,
		Recipient:    recipient,
		Status:       OutboxPending,
		CreatedAt:    time.Now(),
	}
}
