package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/models"
)

// Guide names used when a line item has no resolvable guide
const (
	GuideUnknownAgent = "Unknown Agent"
	GuideNone         = "No Guide"
)

// AssembledTour is a display-ready line item
type AssembledTour struct {
	models.BookingTourDetail
	Guide     string          `json:"guide"`
	Net       decimal.Decimal `json:"net"`
	Synthetic bool            `json:"synthetic,omitempty"`
}

// AssembledBooking is a booking with its line items and derived figures
type AssembledBooking struct {
	models.BookingDetail
	Tours []AssembledTour `json:"tours"`
	Net   decimal.Decimal `json:"net"`
}

type assemblyBookingStore interface {
	GetDetailByID(ctx context.Context, id int64) (*models.BookingDetail, error)
	GetDetailByReference(ctx context.Context, reference string) (*models.BookingDetail, error)
}

type assemblyTourStore interface {
	ListByBookingID(ctx context.Context, bookingID int64) ([]models.BookingTourDetail, error)
}

type referenceLookup interface {
	GetByID(ctx context.Context, kind models.ReferenceKind, id int64) (*models.ReferenceItem, error)
}

// BookingAssembler builds display-ready bookings
type BookingAssembler struct {
	bookings   assemblyBookingStore
	tours      assemblyTourStore
	references referenceLookup
	logger     *logrus.Logger
}

// NewBookingAssembler creates a new BookingAssembler
func NewBookingAssembler(bookings assemblyBookingStore, tours assemblyTourStore, references referenceLookup, logger *logrus.Logger) *BookingAssembler {
	return &BookingAssembler{
		bookings:   bookings,
		tours:      tours,
		references: references,
		logger:     logger,
	}
}

// AssembleByID assembles the booking with the given id
func (a *BookingAssembler) AssembleByID(ctx context.Context, id int64) (*AssembledBooking, error) {
	detail, err := a.bookings.GetDetailByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.assemble(ctx, detail)
}

// AssembleByReference assembles the booking with the given reference (any case, untrimmed)
func (a *BookingAssembler) AssembleByReference(ctx context.Context, reference string) (*AssembledBooking, error) {
	detail, err := a.bookings.GetDetailByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return a.assemble(ctx, detail)
}

// AssembleSafe is AssembleByReference for call sites that render nothing on failure.
// Errors are logged and nil is returned.
func (a *BookingAssembler) AssembleSafe(ctx context.Context, reference string) *AssembledBooking {
	booking, err := a.AssembleByReference(ctx, reference)
	if err != nil {
		entry := a.logger.WithField("booking_reference", models.NormalizeReference(reference))
		if errors.Is(err, models.ErrBookingNotFound) {
			entry.Info("Booking not found")
		} else {
			entry.WithError(err).Error("Failed to assemble booking")
		}
		return nil
	}
	return booking
}

func (a *BookingAssembler) assemble(ctx context.Context, detail *models.BookingDetail) (*AssembledBooking, error) {
	lines, err := a.tours.ListByBookingID(ctx, detail.ID)
	if err != nil {
		return nil, err
	}

	result := &AssembledBooking{
		BookingDetail: *detail,
		Tours:         make([]AssembledTour, 0, len(lines)),
		Net:           detail.Net().Round(2),
	}

	agentNames := map[int64]string{}
	for _, line := range lines {
		result.Tours = append(result.Tours, AssembledTour{
			BookingTourDetail: line,
			Guide:             a.resolveGuide(ctx, line, agentNames),
			Net:               LineNet(line.Price, detail.Commission, detail.TotalPayment),
		})
	}

	if len(result.Tours) == 0 && detail.TourID != nil {
		result.Tours = append(result.Tours, syntheticLine(detail))
	}

	return result, nil
}

// resolveGuide picks the display guide: explicit tour_guide, then the joined
// booking agent name, then the agents table, then a sentinel.
func (a *BookingAssembler) resolveGuide(ctx context.Context, line models.BookingTourDetail, cache map[int64]string) string {
	if line.TourGuide != nil && strings.TrimSpace(*line.TourGuide) != "" {
		return strings.TrimSpace(*line.TourGuide)
	}
	if line.BookingAgentName != nil && strings.TrimSpace(*line.BookingAgentName) != "" {
		return strings.TrimSpace(*line.BookingAgentName)
	}
	if line.BookingAgentID == nil {
		return GuideNone
	}

	id := *line.BookingAgentID
	if name, ok := cache[id]; ok {
		return name
	}

	name := GuideUnknownAgent
	agent, err := a.references.GetByID(ctx, models.ReferenceAgent, id)
	switch {
	case err == nil && strings.TrimSpace(agent.Name) != "":
		name = strings.TrimSpace(agent.Name)
	case err != nil && !errors.Is(err, models.ErrEntityNotFound):
		a.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id":       line.BookingID,
			"booking_agent_id": id,
		}).Warn("Failed to resolve guide")
	}
	cache[id] = name
	return name
}

// LineNet is price minus the line's share of commission:
// price - price*commission/total, with total treated as 1 when zero.
func LineNet(price, commission, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		total = decimal.NewFromInt(1)
	}
	return price.Sub(price.Mul(commission).Div(total)).Round(2)
}

// syntheticLine turns a legacy single-tour booking into one line item
func syntheticLine(detail *models.BookingDetail) AssembledTour {
	line := models.BookingTourDetail{
		BookingTour: models.BookingTour{
			BookingID: detail.ID,
			TourID:    detail.TourID,
			TourDate:  detail.TourDate,
			Adults:    detail.Adults,
			Children:  detail.Children,
			TotalPax:  detail.TotalPax,
			Price:     detail.TotalPayment,
			Notes:     detail.Notes,
		},
		TourName:     detail.TourName,
		ShipName:     detail.ShipName,
		LocationName: detail.LocationName,
	}
	return AssembledTour{
		BookingTourDetail: line,
		Guide:             GuideNone,
		Net:               LineNet(line.Price, detail.Commission, detail.TotalPayment),
		Synthetic:         true,
	}
}
