package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/models"
	"github.com/tourdesk/booking-backend/pkg/email"
)

type outboxQueue interface {
	FetchBatch(ctx context.Context, limit int) ([]models.EmailOutbox, error)
	MarkSent(ctx context.Context, id uuid.UUID, messageID string) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause string, maxAttempts int) error
	ReleaseStale(ctx context.Context, olderThan time.Time) (int64, error)
	DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type bookingByID interface {
	AssembleByID(ctx context.Context, id int64) (*AssembledBooking, error)
}

// EmailDispatcherConfig holds dispatcher settings
type EmailDispatcherConfig struct {
	BatchSize    int
	MaxAttempts  int
	BusinessName string
}

// EmailDispatcher drains the email outbox
type EmailDispatcher struct {
	queue     outboxQueue
	bookings  bookingByID
	sender    email.Sender
	config    EmailDispatcherConfig
	logger    *logrus.Logger
	nudges    chan struct{}
	dispatchM sync.Mutex
}

// NewEmailDispatcher creates a new EmailDispatcher
func NewEmailDispatcher(queue outboxQueue, bookings bookingByID, sender email.Sender, config EmailDispatcherConfig, logger *logrus.Logger) *EmailDispatcher {
	if config.BatchSize <= 0 {
		config.BatchSize = 20
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	return &EmailDispatcher{
		queue:    queue,
		bookings: bookings,
		sender:   sender,
		config:   config,
		logger:   logger,
		nudges:   make(chan struct{}, 1),
	}
}

// Nudge asks Run to dispatch soon. It never blocks.
func (d *EmailDispatcher) Nudge() {
	select {
	case d.nudges <- struct{}{}:
	default:
	}
}

// Run dispatches whenever nudged until ctx is done
func (d *EmailDispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.nudges:
			if _, _, err := d.DispatchPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
				d.logger.WithError(err).Error("Email dispatch failed")
			}
		}
	}
}

// DispatchPending claims one batch and sends it. Concurrent calls in this
// process are serialized; other processes are kept apart by row locks.
func (d *EmailDispatcher) DispatchPending(ctx context.Context) (sent, failed int, err error) {
	d.dispatchM.Lock()
	defer d.dispatchM.Unlock()

	batch, err := d.queue.FetchBatch(ctx, d.config.BatchSize)
	if err != nil {
		return 0, 0, err
	}

	for i := range batch {
		if err := d.deliver(ctx, &batch[i]); err != nil {
			failed++
			outboxFailedTotal.Inc()
			d.logger.WithError(err).WithFields(logrus.Fields{
				"outbox_id":  batch[i].ID,
				"booking_id": batch[i].BookingID,
				"attempt":    batch[i].Attempts + 1,
			}).Warn("Confirmation email failed")

			if markErr := d.queue.MarkFailed(ctx, batch[i].ID, err.Error(), d.config.MaxAttempts); markErr != nil {
				d.logger.WithError(markErr).WithField("outbox_id", batch[i].ID).Error("Failed to record email failure")
			}
			continue
		}
		sent++
	}

	if len(batch) > 0 {
		d.logger.WithFields(logrus.Fields{
			"claimed": len(batch),
			"sent":    sent,
			"failed":  failed,
		}).Info("Email outbox batch processed")
	}
	return sent, failed, nil
}

func (d *EmailDispatcher) deliver(ctx context.Context, msg *models.EmailOutbox) error {
	if msg.Kind != models.EmailKindBookingConfirmation {
		return fmt.Errorf("unknown email kind %q", msg.Kind)
	}

	booking, err := d.bookings.AssembleByID(ctx, msg.BookingID)
	if err != nil {
		return fmt.Errorf("failed to load booking: %w", err)
	}

	subject, html, text, err := renderConfirmation(booking, d.config.BusinessName)
	if err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	messageID, err := d.sender.Send(ctx, email.Message{
		To:      []string{msg.Recipient},
		Subject: subject,
		HTML:    html,
		Text:    text,
	})
	if err != nil {
		return err
	}

	outboxSentTotal.Inc()
	if err := d.queue.MarkSent(ctx, msg.ID, messageID); err != nil {
		// the email went out; a retry would send it twice
		d.logger.WithError(err).WithFields(logrus.Fields{
			"outbox_id":  msg.ID,
			"message_id": messageID,
		}).Error("Email sent but outbox row not updated")
	}

	d.logger.WithFields(logrus.Fields{
		"booking_reference": booking.BookingReference,
		"message_id":        messageID,
	}).Info("Confirmation email sent")
	return nil
}

// ReleaseStuck puts rows claimed longer than stuckAfter ago back to pending
func (d *EmailDispatcher) ReleaseStuck(ctx context.Context, stuckAfter time.Duration) (int64, error) {
	released, err := d.queue.ReleaseStale(ctx, time.Now().Add(-stuckAfter))
	if err != nil {
		return 0, err
	}
	if released > 0 {
		d.logger.WithField("released", released).Warn("Released stuck outbox rows")
		d.Nudge()
	}
	return released, nil
}

// Cleanup releases rows stuck in processing and purges old sent rows
func (d *EmailDispatcher) Cleanup(ctx context.Context, stuckAfter, retention time.Duration) error {
	now := time.Now()

	released, err := d.queue.ReleaseStale(ctx, now.Add(-stuckAfter))
	if err != nil {
		return err
	}
	purged, err := d.queue.DeleteSentBefore(ctx, now.Add(-retention))
	if err != nil {
		return err
	}

	d.logger.WithFields(logrus.Fields{
		"released": released,
		"purged":   purged,
	}).Info("Email outbox cleanup finished")
	return nil
}
