package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/locks"
	"github.com/tourdesk/booking-backend/internal/models"
)

const reconcileLockTimeout = 10 * time.Second

// ReconcileResult is the outcome of a status update
type ReconcileResult struct {
	Booking        *models.BookingDetail `json:"booking"`
	EmailSent      bool                  `json:"email_sent"` // a confirmation was queued by this call
	WasAlreadyPaid bool                  `json:"was_already_paid"`
}

type reconcileBookingStore interface {
	GetDetailByReference(ctx context.Context, reference string) (*models.BookingDetail, error)
	ApplyStatus(ctx context.Context, id int64, status models.BookingStatus, paymentID *string) (*models.Booking, error)
}

type outboxWriter interface {
	Enqueue(ctx context.Context, msg *models.EmailOutbox) (bool, error)
}

type notificationWriter interface {
	Create(ctx context.Context, n *models.Notification) error
}

// Nudger wakes the email dispatcher
type Nudger interface {
	Nudge()
}

// ReconciliationService is the single place that moves a booking to a new status
type ReconciliationService struct {
	bookings      reconcileBookingStore
	outbox        outboxWriter
	notifications notificationWriter
	locker        locks.Locker
	dispatcher    Nudger
	adminUserID   int64
	logger        *logrus.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	bookings reconcileBookingStore,
	outbox outboxWriter,
	notifications notificationWriter,
	locker locks.Locker,
	dispatcher Nudger,
	adminUserID int64,
	logger *logrus.Logger,
) *ReconciliationService {
	if locker == nil {
		locker = locks.NewLocalLocker()
	}
	return &ReconciliationService{
		bookings:      bookings,
		outbox:        outbox,
		notifications: notifications,
		locker:        locker,
		dispatcher:    dispatcher,
		adminUserID:   adminUserID,
		logger:        logger,
	}
}

// UpdateStatus moves the booking to status. Reaching paid settles the balance and,
// if the booking was not already paid or confirmed, queues one confirmation email.
// Email and notification failures are logged and never undo the status change.
func (s *ReconciliationService) UpdateStatus(ctx context.Context, reference, rawStatus string, paymentID *string) (*ReconcileResult, error) {
	status, err := models.ParseBookingStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	ref := models.NormalizeReference(reference)
	if ref == "" {
		return nil, models.NewValidationError("booking_reference", "is required")
	}
	if paymentID != nil && strings.TrimSpace(*paymentID) == "" {
		paymentID = nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, reconcileLockTimeout)
	release, err := s.locker.Acquire(lockCtx, ref)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to lock booking %s: %w", ref, err)
	}
	defer release()

	current, err := s.bookings.GetDetailByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	wasAlreadyPaid := current.Status.IsSettled()

	updated, err := s.bookings.ApplyStatus(ctx, current.ID, status, paymentID)
	if err != nil {
		return nil, err
	}
	reconciliationsTotal.WithLabelValues(string(status)).Inc()

	detail := *current
	detail.Booking = *updated

	log := s.logger.WithFields(logrus.Fields{
		"booking_reference": ref,
		"booking_id":        detail.ID,
		"previous_status":   current.Status,
		"status":            status,
	})
	if paymentID != nil {
		log = log.WithField("payment_id", *paymentID)
	}
	log.Info("Booking status updated")

	result := &ReconcileResult{Booking: &detail, WasAlreadyPaid: wasAlreadyPaid}

	if status == models.BookingStatusPaid && !wasAlreadyPaid {
		result.EmailSent = s.queueConfirmation(ctx, &detail, log)
	}

	if current.Status != status {
		s.notifyAdmin(ctx, &detail, status, log)
	}

	return result, nil
}

func (s *ReconciliationService) queueConfirmation(ctx context.Context, detail *models.BookingDetail, log *logrus.Entry) bool {
	if detail.CustomerEmail == nil || strings.TrimSpace(*detail.CustomerEmail) == "" {
		log.Info("Customer has no email, skipping confirmation")
		return false
	}

	msg := models.NewBookingConfirmation(detail.ID, models.BookingStatusPaid, strings.TrimSpace(*detail.CustomerEmail))
	inserted, err := s.outbox.Enqueue(ctx, msg)
	if err != nil {
		log.WithError(err).Error("Failed to queue confirmation email")
		return false
	}
	if !inserted {
		log.Info("Confirmation email already queued")
		return false
	}

	if s.dispatcher != nil {
		s.dispatcher.Nudge()
	}
	return true
}

func (s *ReconciliationService) notifyAdmin(ctx context.Context, detail *models.BookingDetail, status models.BookingStatus, log *logrus.Entry) {
	if s.notifications == nil || s.adminUserID == 0 {
		return
	}

	customer := "a customer"
	if detail.CustomerName != nil && *detail.CustomerName != "" {
		customer = *detail.CustomerName
	}
	notificationType := models.NotificationTypeBooking
	if status == models.BookingStatusPaid {
		notificationType = models.NotificationTypePayment
	}
	link := fmt.Sprintf("/bookings/%d", detail.ID)

	err := s.notifications.Create(ctx, &models.Notification{
		UserID:  s.adminUserID,
		Title:   fmt.Sprintf("Booking %s is %s", detail.BookingReference, status),
		Message: fmt.Sprintf("Booking %s for %s changed to %s.", detail.BookingReference, customer, status),
		Link:    &link,
		Type:    notificationType,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to create dashboard notification")
	}
}
