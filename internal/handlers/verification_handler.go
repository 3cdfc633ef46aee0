package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/models"
	"github.com/tourdesk/booking-backend/internal/services"
)

type bookingVerifier interface {
	VerifyBookingPayment(ctx context.Context, paymentID, email string) (*services.BookingVerification, error)
	VerifyReceipt(ctx context.Context, reference string) *services.ReceiptVerification
}

type receiptRenderer interface {
	RenderPDF(ctx context.Context, reference string) ([]byte, error)
}

// VerificationHandler serves the public verification and receipt endpoints
type VerificationHandler struct {
	verifier bookingVerifier
	receipts receiptRenderer
	logger   *logrus.Logger
}

// NewVerificationHandler creates a new VerificationHandler
func NewVerificationHandler(verifier bookingVerifier, receipts receiptRenderer, logger *logrus.Logger) *VerificationHandler {
	return &VerificationHandler{verifier: verifier, receipts: receipts, logger: logger}
}

// VerifyBooking handles POST /api/v1/bookings/verify
func (h *VerificationHandler) VerifyBooking(c *gin.Context) {
	var req models.VerifyBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.verifier.VerifyBookingPayment(c.Request.Context(), req.PaymentID, req.Email)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{
		"found":             result.Found,
		"booking_reference": result.BookingReference,
		"status":            result.Status,
	})
}

// VerifyReceipt handles GET /api/v1/receipts/:reference
func (h *VerificationHandler) VerifyReceipt(c *gin.Context) {
	result := h.verifier.VerifyReceipt(c.Request.Context(), c.Param("reference"))

	status := http.StatusOK
	switch result.Reason {
	case services.ReceiptReasonNotFound:
		status = http.StatusNotFound
	case services.ReceiptReasonConnection:
		status = http.StatusServiceUnavailable
	case services.ReceiptReasonError:
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{
		"success": result.Valid,
		"valid":   result.Valid,
		"booking": result.Booking,
		"reason":  result.Reason,
		"message": result.Message,
	})
}

// DownloadReceipt handles GET /api/v1/receipts/:reference/pdf
func (h *VerificationHandler) DownloadReceipt(c *gin.Context) {
	reference := c.Param("reference")
	pdf, err := h.receipts.RenderPDF(c.Request.Context(), reference)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+services.ReceiptFilename(reference)+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
