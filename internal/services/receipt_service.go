package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/models"
)

// ErrReceiptUnavailable is returned for bookings that have not been paid
var ErrReceiptUnavailable = errors.New("receipt is only available for paid bookings")

// ReceiptService renders booking vouchers as PDF
type ReceiptService struct {
	assembler    bookingByReference
	businessName string
	logger       *logrus.Logger
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(assembler bookingByReference, businessName string, logger *logrus.Logger) *ReceiptService {
	return &ReceiptService{
		assembler:    assembler,
		businessName: businessName,
		logger:       logger,
	}
}

// RenderPDF returns the voucher PDF for a paid or confirmed booking
func (s *ReceiptService) RenderPDF(ctx context.Context, reference string) ([]byte, error) {
	booking, err := s.assembler.AssembleByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !booking.Status.IsSettled() {
		return nil, ErrReceiptUnavailable
	}

	out, err := buildVoucherPDF(booking, s.businessName)
	if err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_reference": booking.BookingReference,
		"bytes":             len(out),
	}).Info("Receipt rendered")
	return out, nil
}

// ReceiptFilename is the download name for a booking's voucher.
// Only letters, digits and dashes of the reference are kept.
func ReceiptFilename(reference string) string {
	safe := strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, models.NormalizeReference(reference))
	return fmt.Sprintf("receipt-%s.pdf", safe)
}

func buildVoucherPDF(b *AssembledBooking, businessName string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking voucher "+b.BookingReference, false)
	pdf.SetAuthor(businessName, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BOOKING VOUCHER")
	pdf.Ln(10)
	if businessName != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.Cell(0, 6, businessName)
		pdf.Ln(10)
	}

	pdf.SetFont("Helvetica", "", 11)
	header := []string{
		fmt.Sprintf("Reference : %s", b.BookingReference),
		fmt.Sprintf("Customer  : %s", orDash(b.CustomerName)),
		fmt.Sprintf("Email     : %s", orDash(b.CustomerEmail)),
		fmt.Sprintf("Phone     : %s", orDash(b.CustomerPhone)),
		fmt.Sprintf("Status    : %s", strings.ToUpper(string(b.Status))),
		fmt.Sprintf("Issued    : %s", time.Now().Format("2 Jan 2006")),
	}
	for _, line := range header {
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	widths := []float64{60, 28, 42, 20, 30}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, title := range []string{"Tour", "Date", "Guide", "Pax", "Price (EUR)"} {
		align := "L"
		if i >= 3 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, title, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, t := range b.Tours {
		name := "Tour"
		if t.TourName != nil && *t.TourName != "" {
			name = *t.TourName
		}
		if t.ShipName != nil && *t.ShipName != "" {
			name += " (" + *t.ShipName + ")"
		}
		date := "TBA"
		if t.TourDate != nil {
			date = t.TourDate.Format("2006-01-02")
		}
		pdf.CellFormat(widths[0], 7, truncate(name, 34), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, date, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, truncate(t.Guide, 24), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 7, fmt.Sprintf("%d", t.TotalPax), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, t.Price.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Total paid: EUR %s", b.TotalPayment.StringFixed(2)))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Remaining balance: EUR %s", b.RemainingBalance.StringFixed(2)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Please present this voucher at check-in. The reference can be verified online.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func orDash(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "-"
	}
	return *s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "."
}
