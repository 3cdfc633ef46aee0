package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/models"
	"github.com/tourdesk/booking-backend/internal/services"
)

const maxWebhookBody = 1 << 20

type paymentProcessor interface {
	CreateBookingPayment(ctx context.Context, req *models.CreatePaymentRequest) (*models.CreatePaymentResponse, error)
	VerifyReturn(ctx context.Context, paymentID string) (*services.PaymentVerification, error)
	HandleWebhook(ctx context.Context, payload *models.PaymentWebhookPayload) (*services.PaymentVerification, error)
}

type webhookVerifier interface {
	VerifyWebhookSignature(body []byte, signature string) bool
}

type auditLister interface {
	ListByPaymentID(ctx context.Context, paymentID string) ([]models.PaymentAudit, error)
}

// PaymentHandler handles payment HTTP requests
type PaymentHandler struct {
	payments paymentProcessor
	verifier webhookVerifier
	audits   auditLister
	logger   *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments paymentProcessor, verifier webhookVerifier, audits auditLister, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		verifier: verifier,
		audits:   audits,
		logger:   logger,
	}
}

// CreatePayment handles POST /api/v1/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.payments.CreateBookingPayment(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payment": resp,
	})
}

// VerifyPayment handles GET /api/v1/payments/:payment_id/verify
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	result, err := h.payments.VerifyReturn(c.Request.Context(), c.Param("payment_id"))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, gin.H{"payment": result})
}

// Webhook handles POST /api/v1/payments/webhook. Once the body is accepted the
// provider always gets 200 so it does not retry; failures are logged.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_body", "Could not read request body")
		return
	}

	if !h.verifier.VerifyWebhookSignature(body, c.GetHeader("X-Signature")) {
		h.logger.WithField("ip", c.ClientIP()).Warn("Webhook signature mismatch")
		respondError(c, http.StatusUnauthorized, "invalid_signature", "Webhook signature does not match")
		return
	}

	var payload models.PaymentWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_body", "Webhook body is not valid JSON")
		return
	}

	log := h.logger.WithFields(logrus.Fields{
		"payment_id": payload.PaymentRef(),
		"event_type": payload.EventType,
	})

	result, err := h.payments.HandleWebhook(c.Request.Context(), &payload)
	if err != nil {
		log.WithError(err).Error("Webhook processing failed")
		respondOK(c, gin.H{"received": true, "processed": false})
		return
	}

	log.WithField("paid", result.Paid).Info("Webhook processed")
	respondOK(c, gin.H{"received": true, "processed": true, "paid": result.Paid})
}

// ListAudits handles GET /api/v1/payments/:payment_id/audits
func (h *PaymentHandler) ListAudits(c *gin.Context) {
	audits, err := h.audits.ListByPaymentID(c.Request.Context(), c.Param("payment_id"))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, gin.H{"audits": audits})
}
