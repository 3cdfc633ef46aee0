package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBookingStatus(t *testing.T) {
	tests := []struct {
		in   string
		want BookingStatus
	}{
		{"paid", BookingStatusPaid},
		{"  Paid ", BookingStatusPaid},
		{"CONFIRMED", BookingStatusConfirmed},
		{"pending", BookingStatusPending},
		{"Cancelled", BookingStatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBookingStatus(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("Unknown", func(t *testing.T) {
		_, err := ParseBookingStatus("refunded")
		assert.True(t, errors.Is(err, ErrInvalidStatus))
	})
}

func TestBookingStatusScan(t *testing.T) {
	var s BookingStatus
	require.NoError(t, s.Scan([]byte(" PAID ")))
	assert.Equal(t, BookingStatusPaid, s)
	assert.True(t, s.IsSettled())

	require.NoError(t, s.Scan(nil))
	assert.Equal(t, BookingStatusPending, s)
	assert.False(t, s.IsSettled())

	assert.Error(t, s.Scan(42))
}

func TestNormalizeReference(t *testing.T) {
	assert.Equal(t, "ABC-123", NormalizeReference("abc-123"))
	assert.Equal(t, "ABC-123", NormalizeReference(" aBc-123 \t"))
	assert.Equal(t, NormalizeReference("ABC-123 "), NormalizeReference("abc-123"))
}

func TestBookingNet(t *testing.T) {
	b := Booking{
		TotalPayment: decimal.NewFromInt(500),
		Commission:   decimal.NewFromInt(75),
	}
	assert.Equal(t, "425", b.Net().String())

	b.TotalNet = decimal.NewNullDecimal(decimal.NewFromInt(400))
	assert.Equal(t, "400", b.Net().String())
}

func TestValidationErrorUnwrap(t *testing.T) {
	err := NewValidationError("email", "is required")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "email: is required", err.Error())

	ref := &ReferencedError{Kind: "ship", Usages: 3, UsedIn: "tours"}
	assert.True(t, errors.Is(ref, ErrReferenced))
	assert.Equal(t, "cannot delete ship: used in 3 tours", ref.Error())
}
