package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/database"
	"github.com/tourdesk/booking-backend/internal/models"
)

// Receipt verification failure reasons
const (
	ReceiptReasonConnection = "connection"
	ReceiptReasonNotFound   = "not_found"
	ReceiptReasonError      = "error"
)

const verificationWindowDays = 30

type paymentLookup interface {
	FindByPaymentAndEmail(ctx context.Context, paymentID, email string, since time.Time) (*models.BookingDetail, error)
}

type bookingByReference interface {
	AssembleByReference(ctx context.Context, reference string) (*AssembledBooking, error)
}

// BookingVerification is the answer to "did my payment create a booking?"
type BookingVerification struct {
	Found            bool                 `json:"found"`
	BookingReference string               `json:"booking_reference,omitempty"`
	Status           models.BookingStatus `json:"status,omitempty"`
}

// ReceiptVerification is the answer to a receipt lookup
type ReceiptVerification struct {
	Valid   bool              `json:"valid"`
	Booking *AssembledBooking `json:"booking,omitempty"`
	Reason  string            `json:"reason,omitempty"`
	Message string            `json:"message,omitempty"`
}

// VerificationService answers customer-facing booking and receipt checks
type VerificationService struct {
	bookings  paymentLookup
	assembler bookingByReference
	logger    *logrus.Logger
	clock     func() time.Time
}

// NewVerificationService creates a new VerificationService
func NewVerificationService(bookings paymentLookup, assembler bookingByReference, logger *logrus.Logger) *VerificationService {
	return &VerificationService{
		bookings:  bookings,
		assembler: assembler,
		logger:    logger,
		clock:     time.Now,
	}
}

// VerifyBookingPayment looks for a recent booking carrying paymentID for the given email
func (s *VerificationService) VerifyBookingPayment(ctx context.Context, paymentID, email string) (*BookingVerification, error) {
	paymentID = strings.TrimSpace(paymentID)
	email = strings.TrimSpace(email)
	if err := validatePaymentID("payment_id", paymentID); err != nil {
		return nil, err
	}
	if email == "" {
		return nil, models.NewValidationError("email", "is required")
	}

	since := now.With(s.clock()).BeginningOfDay().AddDate(0, 0, -verificationWindowDays)

	booking, err := s.bookings.FindByPaymentAndEmail(ctx, paymentID, email, since)
	if errors.Is(err, models.ErrBookingNotFound) {
		return &BookingVerification{Found: false}, nil
	}
	if err != nil {
		return nil, err
	}

	return &BookingVerification{
		Found:            true,
		BookingReference: booking.BookingReference,
		Status:           booking.Status,
	}, nil
}

// VerifyReceipt checks a receipt reference. Lookup failures are reported in the
// result rather than as an error so the page can explain them.
func (s *VerificationService) VerifyReceipt(ctx context.Context, reference string) *ReceiptVerification {
	ref := models.NormalizeReference(reference)
	if ref == "" {
		return &ReceiptVerification{Reason: ReceiptReasonNotFound, Message: "receipt reference is required"}
	}

	booking, err := s.assembler.AssembleByReference(ctx, ref)
	switch {
	case err == nil:
		return &ReceiptVerification{Valid: true, Booking: booking}
	case errors.Is(err, models.ErrBookingNotFound):
		return &ReceiptVerification{Reason: ReceiptReasonNotFound, Message: "no booking found for this receipt"}
	case database.IsConnectionError(err):
		s.logger.WithError(err).WithField("booking_reference", ref).Warn("Receipt lookup could not reach database")
		return &ReceiptVerification{
			Reason:  ReceiptReasonConnection,
			Message: "could not reach the booking database, please try again",
		}
	default:
		s.logger.WithError(err).WithField("booking_reference", ref).Error("Receipt lookup failed")
		return &ReceiptVerification{Reason: ReceiptReasonError, Message: "receipt could not be verified"}
	}
}
