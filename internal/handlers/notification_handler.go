package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/middleware"
	"github.com/tourdesk/booking-backend/internal/models"
)

type notificationStore interface {
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, userID, id int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, userID, id int64) error
}

// NotificationHandler serves the dashboard notification center
type NotificationHandler struct {
	notifications notificationStore
	logger        *logrus.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications notificationStore, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

func currentUser(c *gin.Context) (middleware.UserContext, bool) {
	user, ok := middleware.GetUserContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "User context not found")
	}
	return user, ok
}

// List handles GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.notifications.ListByUser(c.Request.Context(), user.UserID, queryInt(c, "limit", 50))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, gin.H{"notifications": items})
}

// UnreadCount handles GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	count, err := h.notifications.CountUnread(c.Request.Context(), user.UserID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, gin.H{"count": count})
}

// MarkRead handles PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), user.UserID, id); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, nil)
}

// MarkAllRead handles PUT /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllRead(c.Request.Context(), user.UserID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, gin.H{"updated": updated})
}

// Delete handles DELETE /api/v1/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), user.UserID, id); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, nil)
}
