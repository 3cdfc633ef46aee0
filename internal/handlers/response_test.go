package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/tourdesk/booking-backend/internal/locks"
	"github.com/tourdesk/booking-backend/internal/models"
	"github.com/tourdesk/booking-backend/internal/services"
)

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", models.NewValidationError("deposit", "exceeds total"), http.StatusBadRequest, "validation_error"},
		{"invalid status", fmt.Errorf("%w: %q", models.ErrInvalidStatus, "shipped"), http.StatusBadRequest, "invalid_status"},
		{"booking not found", fmt.Errorf("load: %w", models.ErrBookingNotFound), http.StatusNotFound, "booking_not_found"},
		{"entity not found", models.ErrEntityNotFound, http.StatusNotFound, "not_found"},
		{"referenced", &models.ReferencedError{Kind: "ship", Usages: 2, UsedIn: "booking tours"}, http.StatusConflict, "referenced"},
		{"receipt unavailable", services.ErrReceiptUnavailable, http.StatusConflict, "receipt_unavailable"},
		{"payments disabled", services.ErrPaymentsDisabled, http.StatusServiceUnavailable, "payments_disabled"},
		{"lock timeout", fmt.Errorf("lock TB-1: %w", locks.ErrLockTimeout), http.StatusServiceUnavailable, "booking_busy"},
		{"gateway", &services.GatewayError{StatusCode: 422, Message: "card declined"}, http.StatusBadGateway, "payment_gateway_error"},
		{"unknown", errors.New("pq: relation does not exist"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/", func(c *gin.Context) { respondServiceError(c, newTestLogger(), tt.err) })

			w := doRequest(router, http.MethodGet, "/", nil, nil)

			assert.Equal(t, tt.status, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.code, body["error"])
			assert.NotContains(t, body["message"], "pq:")
		})
	}
}

func TestRespondServiceError_ValidationField(t *testing.T) {
	router := gin.New()
	router.GET("/", func(c *gin.Context) {
		respondServiceError(c, newTestLogger(), models.NewValidationError("tours[0].tour_date", "must be YYYY-MM-DD"))
	})

	body := decodeBody(t, doRequest(router, http.MethodGet, "/", nil, nil))
	assert.Equal(t, "tours[0].tour_date", body["field"])
}

func TestRespondServiceError_GatewayCode(t *testing.T) {
	router := gin.New()
	router.GET("/", func(c *gin.Context) {
		respondServiceError(c, newTestLogger(), &services.GatewayError{StatusCode: 402, Code: "card_declined", Message: "Card was declined"})
	})

	w := doRequest(router, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "card_declined", body["gateway_code"])
	assert.Equal(t, "Card was declined", body["message"])
}

func TestParseIDParam(t *testing.T) {
	router := gin.New()
	router.GET("/:id", func(c *gin.Context) {
		if id, ok := parseIDParam(c, "id"); ok {
			respondOK(c, gin.H{"id": id})
		}
	})

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/42", nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(router, http.MethodGet, "/0", nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(router, http.MethodGet, "/abc", nil, nil).Code)
}
