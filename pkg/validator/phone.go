package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits, spaces, dashes, dots, parentheses and a leading +")

	// ErrInvalidLength indicates the number is outside the E.164 range
	ErrInvalidLength = errors.New("phone number must have between 7 and 15 digits")

	// ErrMissingCountryCode indicates a local number was given without a default country code
	ErrMissingCountryCode = errors.New("phone number must include a country code")
)

var (
	phoneCharsRegex = regexp.MustCompile(`^\+?[\d\s\-.()]+$`)
	digitsRegex     = regexp.MustCompile(`^\d+$`)
)

// PhoneValidator normalizes customer phone numbers to E.164 (+<country><number>).
// Local numbers (leading 0) get DefaultCountryCode.
type PhoneValidator struct {
	DefaultCountryCode string // digits only, e.g. "974"
}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator(defaultCountryCode string) *PhoneValidator {
	return &PhoneValidator{DefaultCountryCode: strings.TrimPrefix(defaultCountryCode, "+")}
}

// Validate accepts formats such as "+974 5555 1234", "00974-5555-1234" or
// "(0)5555 1234" and returns the E.164 form
func (v *PhoneValidator) Validate(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", ErrEmptyPhone
	}
	if !phoneCharsRegex.MatchString(phone) {
		return "", ErrInvalidFormat
	}

	international := strings.HasPrefix(phone, "+")
	digits := v.Sanitize(phone)
	if !digitsRegex.MatchString(digits) {
		return "", ErrInvalidFormat
	}

	switch {
	case international:
	case strings.HasPrefix(digits, "00"):
		digits = digits[2:]
	case strings.HasPrefix(digits, "0"):
		if v.DefaultCountryCode == "" {
			return "", ErrMissingCountryCode
		}
		digits = v.DefaultCountryCode + strings.TrimLeft(digits, "0")
	case v.DefaultCountryCode != "" && len(digits) <= 8:
		digits = v.DefaultCountryCode + digits
	}

	if len(digits) < 7 || len(digits) > 15 {
		return "", ErrInvalidLength
	}
	return "+" + digits, nil
}

// Sanitize removes all non-digit characters from phone number
func (v *PhoneValidator) Sanitize(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '+', '.', '\t':
			return -1
		}
		return r
	}, phone)
}

// IsValid is a convenience method that returns true if phone is valid
func (v *PhoneValidator) IsValid(phone string) bool {
	_, err := v.Validate(phone)
	return err == nil
}
