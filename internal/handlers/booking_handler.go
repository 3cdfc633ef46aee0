package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/models"
	"github.com/tourdesk/booking-backend/internal/services"
)

type bookingManager interface {
	Create(ctx context.Context, req *models.CreateBookingRequest) (*models.Booking, []models.BookingTour, error)
	List(ctx context.Context, limit, offset int) (*services.BookingList, error)
	Delete(ctx context.Context, id int64) error
}

type bookingAssembler interface {
	AssembleByID(ctx context.Context, id int64) (*services.AssembledBooking, error)
	AssembleByReference(ctx context.Context, reference string) (*services.AssembledBooking, error)
}

type statusUpdater interface {
	UpdateStatus(ctx context.Context, reference, status string, paymentID *string) (*services.ReconcileResult, error)
}

// BookingHandler handles booking HTTP requests
type BookingHandler struct {
	bookings   bookingManager
	assembler  bookingAssembler
	reconciler statusUpdater
	logger     *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookings bookingManager, assembler bookingAssembler, reconciler statusUpdater, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		bookings:   bookings,
		assembler:  assembler,
		reconciler: reconciler,
		logger:     logger,
	}
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	booking, tours, err := h.bookings.Create(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"booking": booking,
		"tours":   tours,
	})
}

// ListBookings handles GET /api/v1/bookings?limit=&offset=
func (h *BookingHandler) ListBookings(c *gin.Context) {
	list, err := h.bookings.List(c.Request.Context(), queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, gin.H{"bookings": list.Bookings, "demo": list.Demo})
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := h.assembler.AssembleByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, gin.H{"booking": booking})
}

// GetBookingByReference handles GET /api/v1/bookings/reference/:reference
func (h *BookingHandler) GetBookingByReference(c *gin.Context) {
	booking, err := h.assembler.AssembleByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, gin.H{"booking": booking})
}

// DeleteBooking handles DELETE /api/v1/bookings/:id
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.bookings.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, gin.H{"message": "Booking deleted"})
}

// UpdateStatus handles POST /api/v1/bookings/status
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if len(req.PaymentDetails) > 0 {
		h.logger.WithFields(logrus.Fields{
			"booking_reference": models.NormalizeReference(req.BookingReference),
			"payment_details":   req.PaymentDetails,
		}).Info("Status update carries payment details")
	}

	result, err := h.reconciler.UpdateStatus(c.Request.Context(), req.BookingReference, req.Status, req.PaymentID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{
		"booking":          result.Booking,
		"email_sent":       result.EmailSent,
		"was_already_paid": result.WasAlreadyPaid,
	})
}
