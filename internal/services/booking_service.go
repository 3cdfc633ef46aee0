package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/models"
)

const tourDateLayout = "2006-01-02"

type bookingWriter interface {
	CreateWithTours(ctx context.Context, booking *models.Booking, tours []models.BookingTour) error
	ListRecent(ctx context.Context, limit, offset int) ([]models.BookingDetail, error)
	Delete(ctx context.Context, id int64) error
}

type phoneNormalizer interface {
	Validate(phone string) (string, error)
}

type customerStore interface {
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) error
}

// BookingList is a page of dashboard bookings. Demo is set when the rows are samples.
type BookingList struct {
	Bookings []models.BookingDetail `json:"bookings"`
	Demo     bool                   `json:"demo,omitempty"`
}

// BookingService creates, lists and deletes bookings
type BookingService struct {
	bookings  bookingWriter
	customers customerStore
	phones    phoneNormalizer
	demoMode  bool
	logger    *logrus.Logger
}

// NewBookingService creates a new BookingService. A nil phones keeps customer phones as typed.
func NewBookingService(bookings bookingWriter, customers customerStore, phones phoneNormalizer, demoMode bool, logger *logrus.Logger) *BookingService {
	return &BookingService{
		bookings:  bookings,
		customers: customers,
		phones:    phones,
		demoMode:  demoMode,
		logger:    logger,
	}
}

// Create validates the request and stores a pending booking with its tour legs
func (s *BookingService) Create(ctx context.Context, req *models.CreateBookingRequest) (*models.Booking, []models.BookingTour, error) {
	tours, err := buildBookingTours(req)
	if err != nil {
		return nil, nil, err
	}

	phone := strings.TrimSpace(req.CustomerPhone)
	if phone != "" && s.phones != nil {
		if phone, err = s.phones.Validate(phone); err != nil {
			return nil, nil, models.NewValidationError("customer_phone", err.Error())
		}
	}

	customer, err := s.findOrCreateCustomer(ctx, req, phone)
	if err != nil {
		return nil, nil, err
	}

	booking := &models.Booking{
		BookingReference: NewBookingReference(),
		CustomerID:       &customer.ID,
		AgentID:          req.AgentID,
		Status:           models.BookingStatusPending,
		Commission:       req.Commission,
		Deposit:          req.Deposit,
		Notes:            req.Notes,
	}

	total := req.TotalPayment
	if total.IsZero() {
		for _, t := range tours {
			total = total.Add(t.Price)
		}
	}
	if booking.Deposit.GreaterThan(total) {
		return nil, nil, models.NewValidationError("deposit", "cannot exceed the total payment")
	}
	booking.TotalPayment = total
	booking.RemainingBalance = total.Sub(booking.Deposit)
	booking.TotalNet = decimal.NewNullDecimal(total.Sub(booking.Commission))

	for _, t := range tours {
		booking.Adults += t.Adults
		booking.Children += t.Children
		booking.TotalPax += t.TotalPax
	}
	booking.TourID = tours[0].TourID
	booking.TourDate = tours[0].TourDate

	if err := s.bookings.CreateWithTours(ctx, booking, tours); err != nil {
		return nil, nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_reference": booking.BookingReference,
		"booking_id":        booking.ID,
		"tours":             len(tours),
		"total_payment":     booking.TotalPayment.StringFixed(2),
	}).Info("Booking created")

	return booking, tours, nil
}

// List returns dashboard bookings. With demo mode on, a failed query yields sample rows.
func (s *BookingService) List(ctx context.Context, limit, offset int) (*BookingList, error) {
	bookings, err := s.bookings.ListRecent(ctx, limit, offset)
	if err == nil {
		return &BookingList{Bookings: bookings}, nil
	}
	if !s.demoMode {
		return nil, err
	}

	s.logger.WithError(err).Warn("Booking list failed, serving demo rows")
	return &BookingList{Bookings: demoBookings(), Demo: true}, nil
}

// Delete removes a booking and its tour legs
func (s *BookingService) Delete(ctx context.Context, id int64) error {
	if err := s.bookings.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("booking_id", id).Info("Booking deleted")
	return nil
}

// NewBookingReference returns a reference like TB-1A2B3C4D
func NewBookingReference() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "TB-" + strings.ToUpper(id[:8])
}

func (s *BookingService) findOrCreateCustomer(ctx context.Context, req *models.CreateBookingRequest, phone string) (*models.Customer, error) {
	email := strings.ToLower(strings.TrimSpace(req.CustomerEmail))

	customer, err := s.customers.GetByEmail(ctx, email)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, models.ErrEntityNotFound) {
		return nil, err
	}

	customer = &models.Customer{Name: strings.TrimSpace(req.CustomerName), Email: &email}
	if phone != "" {
		customer.Phone = &phone
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func buildBookingTours(req *models.CreateBookingRequest) ([]models.BookingTour, error) {
	if req == nil {
		return nil, models.NewValidationError("body", "is required")
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, models.NewValidationError("customer_name", "is required")
	}
	if strings.TrimSpace(req.CustomerEmail) == "" {
		return nil, models.NewValidationError("customer_email", "is required")
	}
	if len(req.Tours) == 0 {
		return nil, models.NewValidationError("tours", "at least one tour is required")
	}
	if req.Commission.IsNegative() || req.Deposit.IsNegative() || req.TotalPayment.IsNegative() {
		return nil, models.NewValidationError("amount", "amounts cannot be negative")
	}

	tours := make([]models.BookingTour, 0, len(req.Tours))
	for i, t := range req.Tours {
		field := fmt.Sprintf("tours[%d]", i)
		if t.TourID <= 0 {
			return nil, models.NewValidationError(field+".tour_id", "is required")
		}
		date, err := time.Parse(tourDateLayout, strings.TrimSpace(t.TourDate))
		if err != nil {
			return nil, models.NewValidationError(field+".tour_date", "must be YYYY-MM-DD")
		}
		if t.Adults < 0 || t.Children < 0 || t.Adults+t.Children == 0 {
			return nil, models.NewValidationError(field, "needs at least one guest")
		}
		if t.Price.IsNegative() {
			return nil, models.NewValidationError(field+".price", "cannot be negative")
		}

		tourID := t.TourID
		tours = append(tours, models.BookingTour{
			TourID:         &tourID,
			TourDate:       &date,
			Adults:         t.Adults,
			Children:       t.Children,
			TotalPax:       t.Adults + t.Children,
			Price:          t.Price,
			BookingAgentID: t.BookingAgentID,
			TourGuide:      t.TourGuide,
			Notes:          t.Notes,
		})
	}
	return tours, nil
}

func demoBookings() []models.BookingDetail {
	name1, name2 := "Demo Customer", "Sample Guest"
	tour1, tour2 := "Old Town Walk (demo)", "Desert Safari (demo)"
	note := "demo data"
	date := time.Now().AddDate(0, 0, 7).Truncate(24 * time.Hour)

	return []models.BookingDetail{
		{
			Booking: models.Booking{
				ID:               -1,
				BookingReference: "DEMO-0001",
				Status:           models.BookingStatusPaid,
				TotalPayment:     decimal.NewFromInt(120),
				Deposit:          decimal.NewFromInt(120),
				Adults:           2,
				TotalPax:         2,
				TourDate:         &date,
				Notes:            &note,
			},
			CustomerName: &name1,
			TourName:     &tour1,
		},
		{
			Booking: models.Booking{
				ID:               -2,
				BookingReference: "DEMO-0002",
				Status:           models.BookingStatusPending,
				TotalPayment:     decimal.NewFromInt(250),
				RemainingBalance: decimal.NewFromInt(250),
				Adults:           2,
				Children:         1,
				TotalPax:         3,
				TourDate:         &date,
				Notes:            &note,
			},
			CustomerName: &name2,
			TourName:     &tour2,
		},
	}
}
