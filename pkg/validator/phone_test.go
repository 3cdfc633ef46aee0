package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidNumbers(t *testing.T) {
	validator := NewPhoneValidator("+974")

	validNumbers := []struct {
		input    string
		expected string
		name     string
	}{
		{"+97455512345", "+97455512345", "E.164"},
		{"+974 5551 2345", "+97455512345", "With spaces"},
		{"+44 (20) 7946-0958", "+442079460958", "UK with parentheses"},
		{"0049.30.901820", "+4930901820", "00 international prefix"},
		{"055512345", "+97455512345", "Local with trunk zero"},
		{"55512345", "+97455512345", "Local without trunk zero"},
		{"+1 212 555 0100", "+12125550100", "US"},
	}

	for _, tc := range validNumbers {
		t.Run(tc.name, func(t *testing.T) {
			normalized, err := validator.Validate(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, normalized)
		})
	}
}

func TestValidate_InvalidNumbers(t *testing.T) {
	validator := NewPhoneValidator("974")

	invalidNumbers := []struct {
		input       string
		expectedErr error
		name        string
	}{
		{"", ErrEmptyPhone, "Empty string"},
		{"   ", ErrEmptyPhone, "Blank"},
		{"+12345", ErrInvalidLength, "Too short"},
		{"+1234567890123456", ErrInvalidLength, "Too long"},
		{"+974 5551 234a", ErrInvalidFormat, "Contains letters"},
		{"97+4555", ErrInvalidFormat, "Plus not leading"},
	}

	for _, tc := range invalidNumbers {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validator.Validate(tc.input)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestValidate_NoDefaultCountry(t *testing.T) {
	validator := NewPhoneValidator("")

	_, err := validator.Validate("055512345")
	assert.ErrorIs(t, err, ErrMissingCountryCode)

	normalized, err := validator.Validate("+97455512345")
	require.NoError(t, err)
	assert.Equal(t, "+97455512345", normalized)
}

func TestSanitize(t *testing.T) {
	validator := NewPhoneValidator("")
	assert.Equal(t, "4930901820", validator.Sanitize("+49 (30) 901-820"))
	assert.True(t, validator.IsValid("+49 30 901820"))
	assert.False(t, validator.IsValid("abc"))
}
