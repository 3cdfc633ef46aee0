package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tourdesk/booking-backend/internal/models"
)

func TestCronService_StartRegistersJobs(t *testing.T) {
	f := newDispatchFixture(3)
	service := NewCronService(f.dispatcher, newTestLogger())

	require.NoError(t, service.Start())
	defer service.Stop()

	status := service.GetJobStatus()
	assert.Equal(t, true, status["running"])
	assert.Equal(t, 3, status["job_count"])
}

func TestCronService_ReleaseStuckJobRequeuesProcessingRows(t *testing.T) {
	f := newDispatchFixture(3)
	stuck := models.NewBookingConfirmation(1, models.BookingStatusPaid, "a@example.com")
	stuck.Status = models.OutboxProcessing
	f.outbox.rows = append(f.outbox.rows, stuck)

	service := NewCronService(f.dispatcher, newTestLogger())
	service.releaseStuckJob()

	assert.Equal(t, models.OutboxPending, f.outbox.rows[0].Status)
}
