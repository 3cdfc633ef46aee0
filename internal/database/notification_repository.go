package database

import (
	"context"
	"fmt"

	"github.com/tourdesk/booking-backend/internal/models"
)

// NotificationRepository handles dashboard notifications
type NotificationRepository struct {
	db   DB
	exec *Executor
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db DB, exec *Executor) *NotificationRepository {
	return &NotificationRepository{db: db, exec: exec}
}

// ListByUser returns a user's notifications newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	notifications := []models.Notification{}
	err := r.exec.Run(ctx, r.exec.Defaults(), "notification.list", func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &notifications, `
			SELECT id, user_id, title, message, link, type, read, created_at
			FROM notifications
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2`, userID, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread returns how many notifications the user has not read
func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.exec.Run(ctx, r.exec.Defaults(), "notification.count_unread", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`, userID)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// Create inserts a notification
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.exec.Run(ctx, r.exec.Defaults().NoRetry(), "notification.create", func(ctx context.Context) error {
		err := r.db.QueryRowxContext(ctx, `
			INSERT INTO notifications (user_id, title, message, link, type, read, created_at)
			VALUES ($1, $2, $3, $4, $5, FALSE, NOW())
			RETURNING id, created_at`,
			n.UserID, n.Title, n.Message, n.Link, n.Type,
		).Scan(&n.ID, &n.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
		return nil
	})
}

// MarkRead marks one of the user's notifications read
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id int64) error {
	return r.exec.Run(ctx, r.exec.Defaults(), "notification.mark_read", func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx,
			`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return fmt.Errorf("failed to mark notification read: %w", err)
		}
		return expectAffected(result, models.ErrEntityNotFound)
	})
}

// MarkAllRead marks every notification of the user read and returns how many changed
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	var affected int64
	err := r.exec.Run(ctx, r.exec.Defaults(), "notification.mark_all_read", func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx,
			`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`, userID)
		if err != nil {
			return fmt.Errorf("failed to mark notifications read: %w", err)
		}
		affected, err = result.RowsAffected()
		return err
	})
	return affected, err
}

// Delete removes one of the user's notifications
func (r *NotificationRepository) Delete(ctx context.Context, userID, id int64) error {
	return r.exec.Run(ctx, r.exec.Defaults(), "notification.delete", func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx,
			`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return fmt.Errorf("failed to delete notification: %w", err)
		}
		return expectAffected(result, models.ErrEntityNotFound)
	})
}
