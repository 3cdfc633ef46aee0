package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/config"
	"github.com/tourdesk/booking-backend/internal/models"
)

var paymentIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// IsValidPaymentID reports whether id can be used as a provider payment id
func IsValidPaymentID(id string) bool {
	return paymentIDPattern.MatchString(id)
}

// GatewayError is an error answer from the payment provider
type GatewayError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment gateway error %s (status %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("payment gateway returned status %d: %s", e.StatusCode, e.Message)
}

// GatewayPaymentSource is a tokenized card for direct charges
type GatewayPaymentSource struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// GatewayPaymentRequest is the create-payment body. Amount is in minor units (fils).
type GatewayPaymentRequest struct {
	Amount      int64                  `json:"amount"`
	Currency    string                 `json:"currency"`
	Description string                 `json:"description"`
	Metadata    map[string]interface{} `json:"metadata"`
	RedirectURL string                 `json:"redirect_url,omitempty"`
	WebhookURL  string                 `json:"webhook_url,omitempty"`
	Source      *GatewayPaymentSource  `json:"source,omitempty"`
}

// GatewayPayment is the provider's view of a payment
type GatewayPayment struct {
	ID          string                 `json:"id"`
	Status      string                 `json:"status"`
	Amount      int64                  `json:"amount"`
	Currency    string                 `json:"currency"`
	CheckoutURL string                 `json:"checkout_url,omitempty"`
	RedirectURL string                 `json:"redirect_url,omitempty"` // 3-D Secure challenge
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Raw         map[string]interface{} `json:"-"`
}

// BookingReference returns the reference stored in the payment metadata
func (p *GatewayPayment) BookingReference() string {
	if p == nil || p.Metadata == nil {
		return ""
	}
	ref, _ := p.Metadata["booking_reference"].(string)
	return ref
}

type gatewayErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// PaymentGatewayService talks to the payment provider's HTTP API
type PaymentGatewayService struct {
	config *config.PaymentConfig
	logger *logrus.Logger
	client *http.Client
}

// NewPaymentGatewayService creates a new payment gateway service
func NewPaymentGatewayService(cfg *config.PaymentConfig, logger *logrus.Logger) *PaymentGatewayService {
	return &PaymentGatewayService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Currency returns the settlement currency code
func (s *PaymentGatewayService) Currency() string {
	return s.config.Currency
}

// ConvertAmount converts EUR to the settlement currency at the configured rate.
// It returns the major-unit amount rounded to 2 places and the integer minor units sent on the wire.
func (s *PaymentGatewayService) ConvertAmount(eur decimal.Decimal) (decimal.Decimal, int64) {
	major := eur.Mul(s.config.EURRate).Round(2)
	return major, major.Shift(2).Round(0).IntPart()
}

// CreatePayment creates a payment with the provider
func (s *PaymentGatewayService) CreatePayment(ctx context.Context, req *GatewayPaymentRequest) (*GatewayPayment, error) {
	if req.RedirectURL == "" {
		req.RedirectURL = s.config.ReturnURL
	}
	if req.WebhookURL == "" {
		req.WebhookURL = s.config.WebhookURL
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"amount":            req.Amount,
		"currency":          req.Currency,
		"booking_reference": req.Metadata["booking_reference"],
		"direct_charge":     req.Source != nil,
	}).Info("Creating payment")

	return s.do(ctx, "create", http.MethodPost, s.endpoint("/payments"), body)
}

// GetPayment fetches the current state of a payment
func (s *PaymentGatewayService) GetPayment(ctx context.Context, paymentID string) (*GatewayPayment, error) {
	if !IsValidPaymentID(paymentID) {
		return nil, models.NewValidationError("payment_id", "has an invalid format")
	}
	return s.do(ctx, "get", http.MethodGet, s.endpoint("/payments/"+url.PathEscape(paymentID)), nil)
}

// VerifyWebhookSignature checks the hex HMAC-SHA256 of body.
// Without a configured secret every body is accepted; the payment is re-read from the provider anyway.
func (s *PaymentGatewayService) VerifyWebhookSignature(body []byte, signature string) bool {
	if s.config.WebhookSecret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(s.config.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

func (s *PaymentGatewayService) endpoint(path string) string {
	return strings.TrimRight(s.config.APIURL, "/") + path
}

func (s *PaymentGatewayService) do(ctx context.Context, operation, method, url string, body []byte) (*GatewayPayment, error) {
	start := time.Now()
	defer func() {
		gatewayRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.SecretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		gatewayRequestsTotal.WithLabelValues(operation, "transport_error").Inc()
		s.logger.WithError(err).WithField("operation", operation).Error("Failed to call payment gateway")
		return nil, fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"operation":   operation,
		"status_code": resp.StatusCode,
	}).Info("Payment gateway response received")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gatewayRequestsTotal.WithLabelValues(operation, "error").Inc()
		return nil, parseGatewayError(resp.StatusCode, respBody)
	}

	var payment GatewayPayment
	if err := json.Unmarshal(respBody, &payment); err != nil {
		gatewayRequestsTotal.WithLabelValues(operation, "invalid_response").Inc()
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	_ = json.Unmarshal(respBody, &payment.Raw)
	payment.Status = strings.ToLower(strings.TrimSpace(payment.Status))

	gatewayRequestsTotal.WithLabelValues(operation, "ok").Inc()
	return &payment, nil
}

func parseGatewayError(statusCode int, body []byte) error {
	gerr := &GatewayError{StatusCode: statusCode, Message: strings.TrimSpace(string(body))}

	var parsed gatewayErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Error.Message != "":
			gerr.Code = parsed.Error.Code
			gerr.Message = parsed.Error.Message
		case parsed.Message != "":
			gerr.Message = parsed.Message
		}
	}
	if gerr.Message == "" {
		gerr.Message = http.StatusText(statusCode)
	}
	return gerr
}
