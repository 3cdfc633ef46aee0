package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/models"
)

// PaymentAuditRepository handles payment audit operations
type PaymentAuditRepository struct {
	db     DB
	exec   *Executor
	logger *logrus.Logger
}

// NewPaymentAuditRepository creates a new payment audit repository
func NewPaymentAuditRepository(db DB, exec *Executor, logger *logrus.Logger) *PaymentAuditRepository {
	return &PaymentAuditRepository{
		db:     db,
		exec:   exec,
		logger: logger,
	}
}

// Log appends an audit entry
func (r *PaymentAuditRepository) Log(ctx context.Context, audit *models.PaymentAudit) error {
	if audit == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}
	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}

	err := r.exec.Run(ctx, r.exec.Defaults(), "payment_audit.log", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO payment_audits (
				id, booking_reference, payment_id, event_type, event_source,
				amount_minor, currency, payment_status,
				request_payload, response_payload, http_status_code,
				error_message, processing_time_ms, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (id) DO NOTHING`,
			audit.ID, audit.BookingReference, audit.PaymentID, audit.EventType, audit.EventSource,
			audit.AmountMinor, audit.Currency, audit.PaymentStatus,
			audit.RequestPayload, audit.ResponsePayload, audit.HTTPStatusCode,
			audit.ErrorMessage, audit.ProcessingTimeMs, audit.CreatedAt,
		)
		return err
	})
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"event_type": audit.EventType,
			"payment_id": audit.PaymentID,
		}).Error("Failed to log payment audit")
		return fmt.Errorf("failed to log payment audit: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"audit_id":   audit.ID,
		"event_type": audit.EventType,
	}).Debug("Payment audit logged")
	return nil
}

// ListByPaymentID returns the audit trail of one provider payment, oldest first
func (r *PaymentAuditRepository) ListByPaymentID(ctx context.Context, paymentID string) ([]models.PaymentAudit, error) {
	audits := []models.PaymentAudit{}
	err := r.exec.Run(ctx, r.exec.Defaults(), "payment_audit.list", func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &audits, `
			SELECT id, booking_reference, payment_id, event_type, event_source,
				amount_minor, currency, payment_status,
				request_payload, response_payload, http_status_code,
				error_message, processing_time_ms, created_at
			FROM payment_audits
			WHERE payment_id = $1
			ORDER BY created_at ASC`, paymentID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get audits by payment id: %w", err)
	}
	return audits, nil
}
