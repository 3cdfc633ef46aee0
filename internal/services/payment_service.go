package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/models"
)

// ErrPaymentsDisabled is returned when the payment_gateway_mode setting is "disabled"
var ErrPaymentsDisabled = errors.New("online payments are currently disabled")

type paymentBookingStore interface {
	GetDetailByReference(ctx context.Context, reference string) (*models.BookingDetail, error)
	SetPaymentID(ctx context.Context, id int64, paymentID string) error
}

type paymentGateway interface {
	Currency() string
	ConvertAmount(eur decimal.Decimal) (decimal.Decimal, int64)
	CreatePayment(ctx context.Context, req *GatewayPaymentRequest) (*GatewayPayment, error)
	GetPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)
}

type paymentAuditor interface {
	Log(ctx context.Context, audit *models.PaymentAudit) error
}

type statusReconciler interface {
	UpdateStatus(ctx context.Context, reference, status string, paymentID *string) (*ReconcileResult, error)
}

type settingReader interface {
	GetValue(ctx context.Context, key, defaultValue string) string
}

// PaymentVerification is the outcome of checking a payment after return or webhook
type PaymentVerification struct {
	PaymentID        string `json:"payment_id"`
	BookingReference string `json:"booking_reference,omitempty"`
	Status           string `json:"status"`
	Paid             bool   `json:"paid"`
	EmailSent        bool   `json:"email_sent"`
}

// PaymentService creates payments for bookings and settles them
type PaymentService struct {
	bookings   paymentBookingStore
	gateway    paymentGateway
	reconciler statusReconciler
	audits     paymentAuditor
	settings   settingReader
	logger     *logrus.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	bookings paymentBookingStore,
	gateway paymentGateway,
	reconciler statusReconciler,
	audits paymentAuditor,
	settings settingReader,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		bookings:   bookings,
		gateway:    gateway,
		reconciler: reconciler,
		audits:     audits,
		settings:   settings,
		logger:     logger,
	}
}

// CreateBookingPayment creates a provider payment for a booking.
// A gateway error leaves the booking untouched.
func (s *PaymentService) CreateBookingPayment(ctx context.Context, req *models.CreatePaymentRequest) (*models.CreatePaymentResponse, error) {
	if err := validatePaymentRequest(req); err != nil {
		return nil, err
	}

	if s.settings != nil && s.settings.GetValue(ctx, models.SettingPaymentGatewayMode, "live") == "disabled" {
		return nil, ErrPaymentsDisabled
	}

	booking, err := s.bookings.GetDetailByReference(ctx, req.BookingReference)
	if err != nil {
		return nil, err
	}

	amountQAR, amountMinor := s.gateway.ConvertAmount(req.Amount)
	customerName := strings.TrimSpace(req.CustomerName)
	if customerName == "" && booking.CustomerName != nil {
		customerName = *booking.CustomerName
	}

	gatewayReq := &GatewayPaymentRequest{
		Amount:      amountMinor,
		Currency:    s.gateway.Currency(),
		Description: fmt.Sprintf("Tour booking %s", booking.BookingReference),
		Metadata: map[string]interface{}{
			"booking_reference": booking.BookingReference,
			"booking_id":        booking.ID,
			"customer_name":     customerName,
			"customer_email":    strings.TrimSpace(req.CustomerEmail),
			"amount_eur":        req.Amount.StringFixed(2),
			"amount_qar":        amountQAR.StringFixed(2),
		},
		RedirectURL: req.ReturnURL,
	}
	if req.CardToken != "" {
		gatewayReq.Source = &GatewayPaymentSource{Type: "token", Token: req.CardToken}
	}

	log := s.logger.WithFields(logrus.Fields{
		"booking_reference": booking.BookingReference,
		"booking_id":        booking.ID,
		"amount_minor":      amountMinor,
	})

	start := time.Now()
	audit := models.NewPaymentAudit(models.PaymentEventCreateResponse, models.PaymentSourceProvider).
		SetBookingReference(booking.BookingReference).
		SetAmount(amountMinor, gatewayReq.Currency).
		SetRequestPayload(gatewayReq.Metadata)

	payment, err := s.gateway.CreatePayment(ctx, gatewayReq)
	audit.SetProcessingTime(start)
	if err != nil {
		var gerr *GatewayError
		if errors.As(err, &gerr) {
			audit.SetHTTPStatus(gerr.StatusCode)
		}
		audit.EventType = models.PaymentEventError
		s.audit(ctx, audit.SetError(err))
		log.WithError(err).Error("Payment creation failed")
		return nil, err
	}
	s.audit(ctx, audit.SetPaymentID(payment.ID).SetPaymentStatus(payment.Status).SetResponsePayload(payment.Raw))

	if err := s.bookings.SetPaymentID(ctx, booking.ID, payment.ID); err != nil {
		log.WithError(err).WithField("payment_id", payment.ID).Warn("Failed to store payment id on booking")
	}

	resp := &models.CreatePaymentResponse{
		PaymentID:   payment.ID,
		Status:      payment.Status,
		AmountMinor: amountMinor,
		Currency:    gatewayReq.Currency,
	}

	switch {
	case payment.Status == models.PaymentStatusRequiresAuthentication:
		resp.RequiresAuthentication = true
		resp.RedirectURL = payment.RedirectURL
		if resp.RedirectURL == "" {
			resp.RedirectURL = payment.CheckoutURL
		}
	case payment.Status == models.PaymentStatusPaid:
		result, err := s.reconciler.UpdateStatus(ctx, booking.BookingReference, string(models.BookingStatusPaid), &payment.ID)
		if err != nil {
			log.WithError(err).Error("Payment captured but booking update failed")
			return nil, fmt.Errorf("payment %s captured but booking update failed: %w", payment.ID, err)
		}
		resp.Paid = true
		resp.EmailSent = result.EmailSent
	case payment.CheckoutURL != "":
		resp.CheckoutURL = payment.CheckoutURL
	}

	log.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"status":     payment.Status,
	}).Info("Payment created")

	return resp, nil
}

// VerifyReturn re-reads a payment after the customer comes back from the provider
// and settles the booking if it was paid.
func (s *PaymentService) VerifyReturn(ctx context.Context, paymentID string) (*PaymentVerification, error) {
	paymentID = strings.TrimSpace(paymentID)
	if err := validatePaymentID("payment_id", paymentID); err != nil {
		return nil, err
	}
	return s.settle(ctx, paymentID, models.PaymentEventStatusCheck, models.PaymentSourceProvider)
}

// HandleWebhook settles the payment named in a webhook. The body status is not
// trusted; the payment is fetched from the provider.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload *models.PaymentWebhookPayload) (*PaymentVerification, error) {
	paymentID := strings.TrimSpace(payload.PaymentRef())
	if err := validatePaymentID("id", paymentID); err != nil {
		return nil, err
	}

	s.audit(ctx, models.NewPaymentAudit(models.PaymentEventWebhook, models.PaymentSourceWebhook).
		SetPaymentID(paymentID).
		SetPaymentStatus(payload.Status).
		SetRequestPayload(map[string]interface{}{"event_type": payload.EventType, "status": payload.Status}))

	return s.settle(ctx, paymentID, models.PaymentEventStatusCheck, models.PaymentSourceWebhook)
}

func (s *PaymentService) settle(ctx context.Context, paymentID string, event models.PaymentEventType, source models.PaymentEventSource) (*PaymentVerification, error) {
	start := time.Now()
	payment, err := s.gateway.GetPayment(ctx, paymentID)
	audit := models.NewPaymentAudit(event, source).SetPaymentID(paymentID).SetProcessingTime(start)
	if err != nil {
		s.audit(ctx, audit.SetError(err))
		return nil, err
	}

	ref := payment.BookingReference()
	s.audit(ctx, audit.SetBookingReference(ref).SetPaymentStatus(payment.Status).SetResponsePayload(payment.Raw))

	verification := &PaymentVerification{
		PaymentID:        payment.ID,
		BookingReference: ref,
		Status:           payment.Status,
	}
	if payment.Status != models.PaymentStatusPaid {
		return verification, nil
	}
	if ref == "" {
		return nil, fmt.Errorf("payment %s has no booking reference in metadata", paymentID)
	}
	s.checkSettledAmount(ctx, ref, payment)

	result, err := s.reconciler.UpdateStatus(ctx, ref, string(models.BookingStatusPaid), &payment.ID)
	if err != nil {
		return nil, err
	}
	verification.Paid = true
	verification.EmailSent = result.EmailSent

	s.audit(ctx, models.NewPaymentAudit(models.PaymentEventReconciled, models.PaymentSourceBackend).
		SetPaymentID(payment.ID).
		SetBookingReference(ref).
		SetPaymentStatus(payment.Status))

	return verification, nil
}

// checkSettledAmount warns when a paid amount differs from the booking total.
// The booking is still marked paid; reports false on a mismatch.
func (s *PaymentService) checkSettledAmount(ctx context.Context, reference string, payment *GatewayPayment) bool {
	booking, err := s.bookings.GetDetailByReference(ctx, reference)
	if err != nil {
		s.logger.WithError(err).WithField("booking_reference", reference).Debug("Skipping amount check")
		return true
	}

	_, expected := s.gateway.ConvertAmount(booking.TotalPayment)
	if payment.Amount == expected && (payment.Currency == "" || strings.EqualFold(payment.Currency, s.gateway.Currency())) {
		return true
	}

	s.logger.WithFields(logrus.Fields{
		"booking_reference": booking.BookingReference,
		"payment_id":        payment.ID,
		"paid_minor":        payment.Amount,
		"paid_currency":     payment.Currency,
		"expected_minor":    expected,
	}).Warn("Paid amount does not match booking total")
	return false
}

// audit logs best effort; a failed insert is already logged by the repository
func (s *PaymentService) audit(ctx context.Context, audit *models.PaymentAudit) {
	if s.audits == nil {
		return
	}
	_ = s.audits.Log(ctx, audit)
}

// validatePaymentID only accepts provider ids made of letters, digits, dashes and underscores
func validatePaymentID(field, id string) error {
	if id == "" {
		return models.NewValidationError(field, "is required")
	}
	if !IsValidPaymentID(id) {
		return models.NewValidationError(field, "has an invalid format")
	}
	return nil
}

func validatePaymentRequest(req *models.CreatePaymentRequest) error {
	if req == nil {
		return models.NewValidationError("body", "is required")
	}
	if !req.Amount.IsPositive() {
		return models.NewValidationError("amount", "must be greater than zero")
	}
	if strings.TrimSpace(req.BookingReference) == "" {
		return models.NewValidationError("booking_reference", "is required")
	}
	if strings.TrimSpace(req.CustomerEmail) == "" {
		return models.NewValidationError("customer_email", "is required")
	}
	return nil
}
