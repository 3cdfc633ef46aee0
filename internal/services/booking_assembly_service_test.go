package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tourdesk/booking-backend/internal/models"
)

func line(id int64, price int64) models.BookingTourDetail {
	return models.BookingTourDetail{
		BookingTour: models.BookingTour{ID: id, BookingID: 1, Price: decimal.NewFromInt(price), Adults: 2, TotalPax: 2},
	}
}

func TestLineNet(t *testing.T) {
	tests := []struct {
		name       string
		price      string
		commission string
		total      string
		want       string
	}{
		{"proportional share", "100", "20", "200", "90"},
		{"zero commission", "100", "0", "200", "100"},
		{"zero total treated as one", "50", "0.1", "0", "45"},
		{"rounded to cents", "33.33", "10", "100", "30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineNet(decimal.RequireFromString(tt.price), decimal.RequireFromString(tt.commission), decimal.RequireFromString(tt.total))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestAssemble_GuideFallbacks(t *testing.T) {
	store := newFakeBookingStore()
	refs := &fakeReferences{agents: map[int64]string{7: "Omar"}}
	assembler := NewBookingAssembler(store, store, refs, newTestLogger())

	explicit := line(1, 100)
	explicit.TourGuide = strPtr("  Layla ")
	joined := line(2, 100)
	joined.BookingAgentID = int64Ptr(9)
	joined.BookingAgentName = strPtr("Joined Name")
	lookedUp := line(3, 100)
	lookedUp.BookingAgentID = int64Ptr(7)
	lookedUpAgain := line(4, 100)
	lookedUpAgain.BookingAgentID = int64Ptr(7)
	missing := line(5, 100)
	missing.BookingAgentID = int64Ptr(404)
	none := line(6, 100)

	detail := pendingBooking(1, "TB-GUIDES01")
	detail.TotalPayment = decimal.NewFromInt(600)
	detail.Commission = decimal.NewFromInt(60)
	store.add(detail, explicit, joined, lookedUp, lookedUpAgain, missing, none)

	booking, err := assembler.AssembleByReference(context.Background(), "tb-guides01")
	require.NoError(t, err)
	require.Len(t, booking.Tours, 6)

	guides := make([]string, 0, 6)
	for _, tour := range booking.Tours {
		guides = append(guides, tour.Guide)
		assert.True(t, tour.Net.Equal(decimal.NewFromInt(90)), "net %s", tour.Net)
	}
	assert.Equal(t, []string{"Layla", "Joined Name", "Omar", "Omar", GuideUnknownAgent, GuideNone}, guides)
	assert.Equal(t, 2, refs.calls, "agent lookups are cached per assembly")
	assert.True(t, booking.Net.Equal(decimal.NewFromInt(540)))
}

func TestAssemble_LookupErrorFallsBackToUnknown(t *testing.T) {
	store := newFakeBookingStore()
	refs := &fakeReferences{err: errors.New("connection reset")}
	assembler := NewBookingAssembler(store, store, refs, newTestLogger())

	l := line(1, 100)
	l.BookingAgentID = int64Ptr(3)
	store.add(pendingBooking(1, "TB-ERR00001"), l)

	booking, err := assembler.AssembleByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, GuideUnknownAgent, booking.Tours[0].Guide)
}

func TestAssemble_SyntheticLineForLegacyBooking(t *testing.T) {
	store := newFakeBookingStore()
	assembler := NewBookingAssembler(store, store, &fakeReferences{}, newTestLogger())

	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	detail := pendingBooking(1, "TB-LEGACY01")
	detail.TourID = int64Ptr(12)
	detail.TourDate = &date
	detail.Adults = 3
	detail.TotalPax = 3
	detail.TourName = strPtr("Harbour Cruise")
	store.add(detail)

	booking, err := assembler.AssembleByID(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, booking.Tours, 1)

	synthetic := booking.Tours[0]
	assert.True(t, synthetic.Synthetic)
	assert.Equal(t, GuideNone, synthetic.Guide)
	assert.Equal(t, 3, synthetic.TotalPax)
	assert.Equal(t, "Harbour Cruise", *synthetic.TourName)
	assert.True(t, synthetic.Price.Equal(detail.TotalPayment))
}

func TestAssemble_NoLinesNoTour(t *testing.T) {
	store := newFakeBookingStore()
	assembler := NewBookingAssembler(store, store, &fakeReferences{}, newTestLogger())
	store.add(pendingBooking(1, "TB-EMPTY001"))

	booking, err := assembler.AssembleByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, booking.Tours)
}

func TestAssembleSafe(t *testing.T) {
	store := newFakeBookingStore()
	assembler := NewBookingAssembler(store, store, &fakeReferences{}, newTestLogger())

	assert.Nil(t, assembler.AssembleSafe(context.Background(), "TB-NOPE"))

	store.err = errors.New("connection refused")
	assert.Nil(t, assembler.AssembleSafe(context.Background(), "TB-NOPE"))
}
