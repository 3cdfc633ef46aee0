package models

import "github.com/shopspring/decimal"

// Provider payment states the backend acts on. Anything else is treated as still open.
const (
	PaymentStatusPaid                   = "paid"
	PaymentStatusRequiresAuthentication = "requires_authentication"
	PaymentStatusPending                = "pending"
	PaymentStatusFailed                 = "failed"
)

// CreatePaymentRequest is the public request to pay for a booking
type CreatePaymentRequest struct {
	BookingReference string          `json:"booking_reference" binding:"required"`
	Amount           decimal.Decimal `json:"amount"` // EUR
	CustomerName     string          `json:"customer_name"`
	CustomerEmail    string          `json:"customer_email" binding:"required,email"`
	ReturnURL        string          `json:"return_url,omitempty"`
	CardToken        string          `json:"card_token,omitempty"` // tokenized card for direct charges
}

// CreatePaymentResponse is the normalized outcome of a payment creation
type CreatePaymentResponse struct {
	PaymentID              string `json:"payment_id"`
	CheckoutURL            string `json:"checkout_url,omitempty"`
	Paid                   bool   `json:"paid"`
	RequiresAuthentication bool   `json:"requires_authentication"`
	RedirectURL            string `json:"redirect_url,omitempty"`
	Status                 string `json:"status"`
	AmountMinor            int64  `json:"amount_minor"`
	Currency               string `json:"currency"`
	EmailSent              bool   `json:"email_sent"`
}

// PaymentWebhookPayload is what the provider posts to the webhook endpoint.
// Only the id is trusted; the status is re-read from the provider.
type PaymentWebhookPayload struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	EventType string `json:"event_type"`
	Status    string `json:"status"`
}

// PaymentRef returns whichever id field the provider filled in
func (p PaymentWebhookPayload) PaymentRef() string {
	if p.PaymentID != "" {
		return p.PaymentID
	}
	return p.ID
}
