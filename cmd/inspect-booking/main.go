package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/config"
	"github.com/tourdesk/booking-backend/internal/database"
	"github.com/tourdesk/booking-backend/internal/models"
	"github.com/tourdesk/booking-backend/internal/services"
)

// inspect-booking prints an assembled booking and the payment audit trail behind it.
func main() {
	reference := flag.String("reference", "", "booking reference, e.g. TB-1A2B3C4D")
	paymentID := flag.String("payment", "", "payment id; defaults to the booking's payment id")
	flag.Parse()

	if *reference == "" && *paymentID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	exec := database.NewExecutor(database.DefaultQueryOptions(cfg.Database), logger)

	bookingRepo := database.NewBookingRepository(db, exec)
	assembler := services.NewBookingAssembler(
		bookingRepo,
		database.NewBookingTourRepository(db, exec),
		database.NewReferenceRepository(db, exec),
		logger,
	)
	audits := database.NewPaymentAuditRepository(db, exec, logger)
	ctx := context.Background()

	pid := *paymentID
	if *reference != "" {
		booking, err := assembler.AssembleByReference(ctx, *reference)
		if err != nil {
			log.Fatalf("Failed to load booking: %v", err)
		}
		printBooking(booking)
		if pid == "" && booking.PaymentID != nil {
			pid = *booking.PaymentID
		}
	}

	if pid == "" {
		fmt.Println("\nNo payment recorded for this booking")
		return
	}

	trail, err := audits.ListByPaymentID(ctx, pid)
	if err != nil {
		log.Fatalf("Failed to load audit trail: %v", err)
	}

	fmt.Printf("\nPayment %s: %d audit entries\n", pid, len(trail))
	fmt.Println(strings.Repeat("-", 72))
	for _, a := range trail {
		status, errMsg := "-", ""
		if a.PaymentStatus != nil {
			status = *a.PaymentStatus
		}
		if a.ErrorMessage != nil {
			errMsg = " error=" + *a.ErrorMessage
		}
		fmt.Printf("%s  %-20s %-16s %s%s\n",
			a.CreatedAt.Format("2006-01-02 15:04:05"), a.EventType, a.EventSource, status, errMsg)
	}

	if *reference != "" {
		return
	}
	// looked up by payment only: show the booking the trail points at, if it still loads
	if ref := trailReference(trail); ref != "" {
		fmt.Println()
		if booking := assembler.AssembleSafe(ctx, ref); booking != nil {
			printBooking(booking)
		} else {
			fmt.Printf("Booking %s could not be loaded\n", ref)
		}
	}
}

func trailReference(trail []models.PaymentAudit) string {
	for _, a := range trail {
		if a.BookingReference != nil && *a.BookingReference != "" {
			return *a.BookingReference
		}
	}
	return ""
}

func printBooking(b *services.AssembledBooking) {
	fmt.Printf("Booking %s (id %d)\n", b.BookingReference, b.ID)
	fmt.Printf("  status:    %s\n", b.Status)
	fmt.Printf("  total:     EUR %s (deposit %s, remaining %s)\n",
		b.TotalPayment.StringFixed(2), b.Deposit.StringFixed(2), b.RemainingBalance.StringFixed(2))
	fmt.Printf("  net:       EUR %s\n", b.Net.StringFixed(2))
	for i, t := range b.Tours {
		name := "-"
		if t.TourName != nil {
			name = *t.TourName
		}
		fmt.Printf("  line %d:    %s, %d pax, EUR %s, guide %s\n", i+1, name, t.TotalPax, t.Price.StringFixed(2), t.Guide)
	}
}
