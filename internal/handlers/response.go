package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/locks"
	"github.com/tourdesk/booking-backend/internal/models"
	"github.com/tourdesk/booking-backend/internal/services"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	// GatewayCode is the payment provider's error code, when it sent one
	GatewayCode string `json:"gateway_code,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: code, Message: message})
}

func respondOK(c *gin.Context, payload gin.H) {
	if payload == nil {
		payload = gin.H{}
	}
	payload["success"] = true
	c.JSON(http.StatusOK, payload)
}

func respondBindError(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "validation_error", "Invalid request body: "+err.Error())
}

// respondServiceError maps domain errors onto HTTP statuses. Unknown errors are
// logged and reported as 500 without leaking their text.
func respondServiceError(c *gin.Context, logger *logrus.Logger, err error) {
	var (
		validationErr *models.ValidationError
		referencedErr *models.ReferencedError
		gatewayErr    *services.GatewayError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: validationErr.Error(),
			Field:   validationErr.Field,
		})
	case errors.Is(err, models.ErrInvalidStatus):
		respondError(c, http.StatusBadRequest, "invalid_status", "Status must be one of pending, confirmed, paid, cancelled")
	case errors.Is(err, models.ErrBookingNotFound):
		respondError(c, http.StatusNotFound, "booking_not_found", "Booking not found")
	case errors.Is(err, models.ErrEntityNotFound):
		respondError(c, http.StatusNotFound, "not_found", "Record not found")
	case errors.As(err, &referencedErr):
		respondError(c, http.StatusConflict, "referenced", referencedErr.Error())
	case errors.Is(err, services.ErrReceiptUnavailable):
		respondError(c, http.StatusConflict, "receipt_unavailable", err.Error())
	case errors.Is(err, services.ErrPaymentsDisabled):
		respondError(c, http.StatusServiceUnavailable, "payments_disabled", err.Error())
	case errors.Is(err, locks.ErrLockTimeout):
		respondError(c, http.StatusServiceUnavailable, "booking_busy", "Booking is being updated, please retry")
	case errors.As(err, &gatewayErr):
		logger.WithError(err).WithField("path", c.Request.URL.Path).Warn("Payment gateway rejected request")
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:       "payment_gateway_error",
			Message:     gatewayErr.Message,
			GatewayCode: gatewayErr.Code,
		})
	default:
		logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		respondError(c, http.StatusInternalServerError, "internal_error", "Something went wrong, please try again")
	}
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "invalid_id", "Invalid "+name)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return v
}
