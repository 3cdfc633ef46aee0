package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tourdesk/booking-backend/internal/models"
)

func TestTrailReference(t *testing.T) {
	webhook := models.NewPaymentAudit(models.PaymentEventWebhook, models.PaymentSourceWebhook).SetPaymentID("pay_1")
	check := models.NewPaymentAudit(models.PaymentEventStatusCheck, models.PaymentSourceProvider).
		SetPaymentID("pay_1").
		SetBookingReference("TB-0000ABCD")

	assert.Equal(t, "TB-0000ABCD", trailReference([]models.PaymentAudit{*webhook, *check}))
	assert.Empty(t, trailReference([]models.PaymentAudit{*webhook}))
	assert.Empty(t, trailReference(nil))
}
