package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEventType represents the type of payment event
type PaymentEventType string

const (
	PaymentEventCreateRequest  PaymentEventType = "create_request"
	PaymentEventCreateResponse PaymentEventType = "create_response"
	PaymentEventStatusCheck    PaymentEventType = "status_check"
	PaymentEventWebhook        PaymentEventType = "webhook_received"
	PaymentEventReconciled     PaymentEventType = "booking_reconciled"
	PaymentEventError          PaymentEventType = "error"
)

// PaymentEventSource identifies where the event originated
type PaymentEventSource string

const (
	PaymentSourceBackend  PaymentEventSource = "backend"
	PaymentSourceProvider PaymentEventSource = "provider_api"
	PaymentSourceWebhook  PaymentEventSource = "provider_webhook"
)

// PaymentAudit is an append-only log entry for one exchange with the payment provider
type PaymentAudit struct {
	ID               uuid.UUID          `json:"id" db:"id"`
	BookingReference *string            `json:"booking_reference,omitempty" db:"booking_reference"`
	PaymentID        *string            `json:"payment_id,omitempty" db:"payment_id"`
	EventType        PaymentEventType   `json:"event_type" db:"event_type"`
	EventSource      PaymentEventSource `json:"event_source" db:"event_source"`
	AmountMinor      *int64             `json:"amount_minor,omitempty" db:"amount_minor"`
	Currency         *string            `json:"currency,omitempty" db:"currency"`
	PaymentStatus    *string            `json:"payment_status,omitempty" db:"payment_status"`
	RequestPayload   JSONB              `json:"request_payload,omitempty" db:"request_payload"`
	ResponsePayload  JSONB              `json:"response_payload,omitempty" db:"response_payload"`
	HTTPStatusCode   *int               `json:"http_status_code,omitempty" db:"http_status_code"`
	ErrorMessage     *string            `json:"error_message,omitempty" db:"error_message"`
	ProcessingTimeMs *int               `json:"processing_time_ms,omitempty" db:"processing_time_ms"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
}

// NewPaymentAudit creates a new payment audit entry with required fields
func NewPaymentAudit(eventType PaymentEventType, source PaymentEventSource) *PaymentAudit {
	return &PaymentAudit{
		ID:          uuid.New(),
		EventType:   eventType,
		EventSource: source,
		CreatedAt:   time.Now(),
	}
}

// SetBookingReference sets the booking the exchange belongs to
func (pa *PaymentAudit) SetBookingReference(ref string) *PaymentAudit {
	if ref != "" {
		pa.BookingReference = &ref
	}
	return pa
}

// SetPaymentID sets the provider payment id
func (pa *PaymentAudit) SetPaymentID(id string) *PaymentAudit {
	if id != "" {
		pa.PaymentID = &id
	}
	return pa
}

// SetAmount sets the charged amount in minor units
func (pa *PaymentAudit) SetAmount(minor int64, currency string) *PaymentAudit {
	pa.AmountMinor = &minor
	pa.Currency = &currency
	return pa
}

// SetPaymentStatus sets the payment status reported by the provider
func (pa *PaymentAudit) SetPaymentStatus(status string) *PaymentAudit {
	if status != "" {
		pa.PaymentStatus = &status
	}
	return pa
}

// SetError sets error information
func (pa *PaymentAudit) SetError(err error) *PaymentAudit {
	if err != nil {
		msg := err.Error()
		pa.ErrorMessage = &msg
	}
	return pa
}

// SetHTTPStatus sets the provider response code
func (pa *PaymentAudit) SetHTTPStatus(statusCode int) *PaymentAudit {
	pa.HTTPStatusCode = &statusCode
	return pa
}

// SetRequestPayload sets the request payload sent
func (pa *PaymentAudit) SetRequestPayload(payload map[string]interface{}) *PaymentAudit {
	pa.RequestPayload = JSONB(payload)
	return pa
}

// SetResponsePayload sets the response payload received
func (pa *PaymentAudit) SetResponsePayload(payload map[string]interface{}) *PaymentAudit {
	pa.ResponsePayload = JSONB(payload)
	return pa
}

// SetProcessingTime calculates and sets processing time
func (pa *PaymentAudit) SetProcessingTime(startTime time.Time) *PaymentAudit {
	durationMs := int(time.Since(startTime).Milliseconds())
	pa.ProcessingTimeMs = &durationMs
	return pa
}
