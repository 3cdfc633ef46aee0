package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tourdesk/booking-backend/internal/locks"
	"github.com/tourdesk/booking-backend/internal/models"
	"github.com/tourdesk/booking-backend/internal/services"
)

type fakeBookingManager struct {
	created   *models.CreateBookingRequest
	createErr error
	deleted   []int64
	deleteErr error
}

func (f *fakeBookingManager) Create(_ context.Context, req *models.CreateBookingRequest) (*models.Booking, []models.BookingTour, error) {
	if f.createErr != nil {
		return nil, nil, f.createErr
	}
	f.created = req
	return &models.Booking{ID: 11, BookingReference: "TB-0000ABCD", Status: models.BookingStatusPending}, nil, nil
}

func (f *fakeBookingManager) List(_ context.Context, limit, offset int) (*services.BookingList, error) {
	return &services.BookingList{Demo: limit == 1}, nil
}

func (f *fakeBookingManager) Delete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

type fakeAssembler struct {
	bookings map[string]*services.AssembledBooking
}

func (f *fakeAssembler) AssembleByID(_ context.Context, id int64) (*services.AssembledBooking, error) {
	for _, b := range f.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, models.ErrBookingNotFound
}

func (f *fakeAssembler) AssembleByReference(_ context.Context, reference string) (*services.AssembledBooking, error) {
	if b, ok := f.bookings[models.NormalizeReference(reference)]; ok {
		return b, nil
	}
	return nil, models.ErrBookingNotFound
}

type fakeStatusUpdater struct {
	reference string
	status    string
	paymentID *string
	result    *services.ReconcileResult
	err       error
}

func (f *fakeStatusUpdater) UpdateStatus(_ context.Context, reference, status string, paymentID *string) (*services.ReconcileResult, error) {
	f.reference, f.status, f.paymentID = reference, status, paymentID
	return f.result, f.err
}

func setupBookingRouter() (*gin.Engine, *fakeBookingManager, *fakeStatusUpdater) {
	bookings := &fakeBookingManager{}
	assembler := &fakeAssembler{bookings: map[string]*services.AssembledBooking{
		"TB-0000ABCD": {BookingDetail: models.BookingDetail{Booking: models.Booking{ID: 11, BookingReference: "TB-0000ABCD"}}},
	}}
	updater := &fakeStatusUpdater{}
	h := NewBookingHandler(bookings, assembler, updater, newTestLogger())

	router := gin.New()
	router.POST("/bookings", h.CreateBooking)
	router.GET("/bookings", h.ListBookings)
	router.GET("/bookings/:id", h.GetBooking)
	router.GET("/bookings/reference/:reference", h.GetBookingByReference)
	router.DELETE("/bookings/:id", h.DeleteBooking)
	router.POST("/bookings/status", h.UpdateStatus)
	return router, bookings, updater
}

func TestCreateBooking(t *testing.T) {
	router, bookings, _ := setupBookingRouter()

	w := doRequest(router, http.MethodPost, "/bookings", map[string]interface{}{
		"customer_name":  "Ana Perez",
		"customer_email": "ana@example.com",
		"total_payment":  "240.00",
		"tours": []map[string]interface{}{
			{"tour_id": 3, "tour_date": "2026-11-02", "adults": 2, "price": "240.00"},
		},
	}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	require.NotNil(t, bookings.created)
	assert.Equal(t, "ana@example.com", bookings.created.CustomerEmail)
	assert.Len(t, bookings.created.Tours, 1)
}

func TestCreateBooking_InvalidBody(t *testing.T) {
	router, bookings, _ := setupBookingRouter()

	w := doRequest(router, http.MethodPost, "/bookings", map[string]interface{}{
		"customer_name":  "Ana Perez",
		"customer_email": "not-an-email",
		"tours":          []map[string]interface{}{},
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeBody(t, w)["error"])
	assert.Nil(t, bookings.created)
}

func TestCreateBooking_ServiceValidation(t *testing.T) {
	router, bookings, _ := setupBookingRouter()
	bookings.createErr = models.NewValidationError("deposit", "deposit cannot exceed total payment")

	w := doRequest(router, http.MethodPost, "/bookings", map[string]interface{}{
		"customer_name":  "Ana Perez",
		"customer_email": "ana@example.com",
		"tours":          []map[string]interface{}{{"tour_id": 3, "tour_date": "2026-11-02", "adults": 1}},
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "deposit", decodeBody(t, w)["field"])
}

func TestGetBooking(t *testing.T) {
	router, _, _ := setupBookingRouter()

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/bookings/11", nil, nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/bookings/reference/tb-0000abcd", nil, nil).Code)

	w := doRequest(router, http.MethodGet, "/bookings/99", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "booking_not_found", decodeBody(t, w)["error"])
}

func TestListBookings_DemoFlag(t *testing.T) {
	router, _, _ := setupBookingRouter()

	body := decodeBody(t, doRequest(router, http.MethodGet, "/bookings?limit=1", nil, nil))
	assert.Equal(t, true, body["demo"])
}

func TestDeleteBooking(t *testing.T) {
	router, bookings, _ := setupBookingRouter()

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodDelete, "/bookings/11", nil, nil).Code)
	assert.Equal(t, []int64{11}, bookings.deleted)

	bookings.deleteErr = models.ErrBookingNotFound
	assert.Equal(t, http.StatusNotFound, doRequest(router, http.MethodDelete, "/bookings/12", nil, nil).Code)
}

func TestUpdateStatus(t *testing.T) {
	router, _, updater := setupBookingRouter()
	updater.result = &services.ReconcileResult{
		Booking:   &models.BookingDetail{Booking: models.Booking{BookingReference: "TB-0000ABCD", Status: models.BookingStatusPaid}},
		EmailSent: true,
	}

	w := doRequest(router, http.MethodPost, "/bookings/status", map[string]interface{}{
		"booking_reference": "TB-0000ABCD",
		"status":            "PAID",
		"payment_id":        "pay_123",
		"payment_details":   map[string]interface{}{"method": "card"},
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["email_sent"])
	assert.Equal(t, false, body["was_already_paid"])
	assert.Equal(t, "PAID", updater.status)
	require.NotNil(t, updater.paymentID)
	assert.Equal(t, "pay_123", *updater.paymentID)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	router, _, updater := setupBookingRouter()

	w := doRequest(router, http.MethodPost, "/bookings/status", map[string]interface{}{
		"booking_reference": "TB-0000ABCD",
		"status":            "shipped",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, updater.reference, "reconciler must not be called")
}

func TestUpdateStatus_Busy(t *testing.T) {
	router, _, updater := setupBookingRouter()
	updater.err = locks.ErrLockTimeout

	w := doRequest(router, http.MethodPost, "/bookings/status", map[string]interface{}{
		"booking_reference": "TB-0000ABCD",
		"status":            "paid",
	}, nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "booking_busy", decodeBody(t, w)["error"])
}
