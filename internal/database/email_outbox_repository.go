package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tourdesk/booking-backend/internal/models"
)

// EmailOutboxRepository stores queued confirmation emails
type EmailOutboxRepository struct {
	db   DB
	exec *Executor
}

// NewEmailOutboxRepository creates a new EmailOutboxRepository
func NewEmailOutboxRepository(db DB, exec *Executor) *EmailOutboxRepository {
	return &EmailOutboxRepository{db: db, exec: exec}
}

// Enqueue inserts the row unless one already exists for (booking_id, target_status).
// It reports whether this call inserted it.
func (r *EmailOutboxRepository) Enqueue(ctx context.Context, msg *models.EmailOutbox) (bool, error) {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	var inserted bool
	err := r.exec.Run(ctx, r.exec.Defaults(), "outbox.enqueue", func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx, `
			INSERT INTO email_outbox (id, booking_id, target_status, kind, recipient, status, attempts, created_at)
			VALUES ($1, $2, $3, $4, $5, 'pending', 0, NOW())
			ON CONFLICT (booking_id, target_status) DO NOTHING`,
			msg.ID, msg.BookingID, msg.TargetStatus, msg.Kind, msg.Recipient)
		if err != nil {
			return fmt.Errorf("failed to enqueue email: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		inserted = n == 1
		return nil
	})
	return inserted, err
}

// FetchBatch claims up to limit pending rows for this worker and marks them processing.
// Rows locked by another worker are skipped.
func (r *EmailOutboxRepository) FetchBatch(ctx context.Context, limit int) ([]models.EmailOutbox, error) {
	rows := []models.EmailOutbox{}
	err := r.exec.Run(ctx, r.exec.Defaults().NoRetry(), "outbox.fetch_batch", func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &rows, `
			WITH claimed AS (
				SELECT id FROM email_outbox
				WHERE status = 'pending'
				ORDER BY created_at
				LIMIT $1
				FOR UPDATE SKIP LOCKED
			)
			UPDATE email_outbox o
			SET status = 'processing', claimed_at = NOW()
			FROM claimed
			WHERE o.id = claimed.id
			RETURNING o.id, o.booking_id, o.target_status, o.kind, o.recipient, o.status, o.attempts,
				o.last_error, o.message_id, o.created_at, o.sent_at`, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch email batch: %w", err)
	}
	return rows, nil
}

// MarkSent records a successful delivery
func (r *EmailOutboxRepository) MarkSent(ctx context.Context, id uuid.UUID, messageID string) error {
	return r.exec.Run(ctx, r.exec.Defaults(), "outbox.mark_sent", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, `
			UPDATE email_outbox
			SET status = 'sent', message_id = $2, attempts = attempts + 1, last_error = NULL, sent_at = NOW()
			WHERE id = $1`, id, messageID)
		if err != nil {
			return fmt.Errorf("failed to mark email sent: %w", err)
		}
		return nil
	})
}

// MarkFailed records a failed attempt. The row goes back to pending until
// maxAttempts is reached, then stays failed.
func (r *EmailOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, cause string, maxAttempts int) error {
	return r.exec.Run(ctx, r.exec.Defaults(), "outbox.mark_failed", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, `
			UPDATE email_outbox
			SET attempts = attempts + 1,
				last_error = $2,
				status = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END
			WHERE id = $1`, id, cause, maxAttempts)
		if err != nil {
			return fmt.Errorf("failed to mark email failed: %w", err)
		}
		return nil
	})
}

// ReleaseStale puts rows stuck in processing (a worker died mid-send) back to pending
func (r *EmailOutboxRepository) ReleaseStale(ctx context.Context, olderThan time.Time) (int64, error) {
	var n int64
	err := r.exec.Run(ctx, r.exec.Defaults(), "outbox.release_stale", func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx, `
			UPDATE email_outbox SET status = 'pending'
			WHERE status = 'processing' AND claimed_at < $1`, olderThan)
		if err != nil {
			return fmt.Errorf("failed to release stale emails: %w", err)
		}
		n, err = result.RowsAffected()
		return err
	})
	return n, err
}

// DeleteSentBefore purges delivered rows older than cutoff
func (r *EmailOutboxRepository) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := r.exec.Run(ctx, r.exec.Defaults(), "outbox.delete_sent", func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx,
			`DELETE FROM email_outbox WHERE status = 'sent' AND sent_at < $1`, cutoff)
		if err != nil {
			return fmt.Errorf("failed to purge sent emails: %w", err)
		}
		n, err = result.RowsAffected()
		return err
	})
	return n, err
}

// RequeueFailed resets rows that exhausted their attempts so the dispatcher tries them again
func (r *EmailOutboxRepository) RequeueFailed(ctx context.Context) (int64, error) {
	var n int64
	err := r.exec.Run(ctx, r.exec.Defaults(), "outbox.requeue_failed", func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx, `
			UPDATE email_outbox SET status = 'pending', attempts = 0
			WHERE status = 'failed'`)
		if err != nil {
			return fmt.Errorf("failed to requeue emails: %w", err)
		}
		n, err = result.RowsAffected()
		return err
	})
	return n, err
}
