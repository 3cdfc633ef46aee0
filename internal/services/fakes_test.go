package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/models"
	"github.com/tourdesk/booking-backend/pkg/email"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

// fakeBookingStore keeps bookings in memory keyed by id
type fakeBookingStore struct {
	mu         sync.Mutex
	bookings   map[int64]*models.BookingDetail
	tours      map[int64][]models.BookingTourDetail
	nextID     int64
	applyCalls int
	paymentIDs map[int64]string
	err        error // returned by every read when set
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{
		bookings:   map[int64]*models.BookingDetail{},
		tours:      map[int64][]models.BookingTourDetail{},
		paymentIDs: map[int64]string{},
		nextID:     100,
	}
}

func (f *fakeBookingStore) add(detail models.BookingDetail, lines ...models.BookingTourDetail) *models.BookingDetail {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := detail
	f.bookings[stored.ID] = &stored
	f.tours[stored.ID] = lines
	return &stored
}

func (f *fakeBookingStore) GetDetailByID(_ context.Context, id int64) (*models.BookingDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	b, ok := f.bookings[id]
	if !ok {
		return nil, models.ErrBookingNotFound
	}
	out := *b
	return &out, nil
}

func (f *fakeBookingStore) GetDetailByReference(_ context.Context, reference string) (*models.BookingDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	ref := models.NormalizeReference(reference)
	for _, b := range f.bookings {
		if models.NormalizeReference(b.BookingReference) == ref {
			out := *b
			return &out, nil
		}
	}
	return nil, models.ErrBookingNotFound
}

func (f *fakeBookingStore) ListByBookingID(_ context.Context, bookingID int64) ([]models.BookingTourDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.BookingTourDetail(nil), f.tours[bookingID]...), nil
}

func (f *fakeBookingStore) ApplyStatus(_ context.Context, id int64, status models.BookingStatus, paymentID *string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyCalls++
	b, ok := f.bookings[id]
	if !ok {
		return nil, models.ErrBookingNotFound
	}
	b.Status = status
	if status == models.BookingStatusPaid {
		b.RemainingBalance = decimal.Zero
		b.Deposit = b.TotalPayment
	}
	if paymentID != nil {
		b.PaymentID = paymentID
	}
	out := b.Booking
	return &out, nil
}

func (f *fakeBookingStore) SetPaymentID(_ context.Context, id int64, paymentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[id]; !ok {
		return models.ErrBookingNotFound
	}
	f.paymentIDs[id] = paymentID
	return nil
}

func (f *fakeBookingStore) FindByPaymentAndEmail(_ context.Context, paymentID, addr string, since time.Time) (*models.BookingDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, b := range f.bookings {
		if b.PaymentID == nil || *b.PaymentID != paymentID || b.CreatedAt.Before(since) {
			continue
		}
		if b.CustomerEmail != nil && equalFoldTrim(*b.CustomerEmail, addr) {
			out := *b
			return &out, nil
		}
	}
	return nil, models.ErrBookingNotFound
}

func (f *fakeBookingStore) CreateWithTours(_ context.Context, booking *models.Booking, tours []models.BookingTour) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	booking.ID = f.nextID
	lines := make([]models.BookingTourDetail, 0, len(tours))
	for i := range tours {
		tours[i].BookingID = booking.ID
		tours[i].ID = int64(i + 1)
		lines = append(lines, models.BookingTourDetail{BookingTour: tours[i]})
	}
	f.bookings[booking.ID] = &models.BookingDetail{Booking: *booking}
	f.tours[booking.ID] = lines
	return nil
}

func (f *fakeBookingStore) ListRecent(_ context.Context, _, _ int) ([]models.BookingDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.BookingDetail, 0, len(f.bookings))
	for _, b := range f.bookings {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeBookingStore) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[id]; !ok {
		return models.ErrBookingNotFound
	}
	delete(f.bookings, id)
	delete(f.tours, id)
	return nil
}

func equalFoldTrim(a, b string) bool {
	return models.NormalizeReference(a) == models.NormalizeReference(b)
}

// fakeReferences resolves agents from a map
type fakeReferences struct {
	agents map[int64]string
	err    error
	calls  int
}

func (f *fakeReferences) GetByID(_ context.Context, _ models.ReferenceKind, id int64) (*models.ReferenceItem, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	name, ok := f.agents[id]
	if !ok {
		return nil, models.ErrEntityNotFound
	}
	return &models.ReferenceItem{ID: id, Name: name}, nil
}

// fakeOutbox enforces the (booking_id, target_status) uniqueness of the real table
type fakeOutbox struct {
	mu       sync.Mutex
	rows     []*models.EmailOutbox
	err      error
	sent     map[uuid.UUID]string
	failures map[uuid.UUID]string
}

func newFakeOutbox() *fakeOutbox {
	return &fakeOutbox{sent: map[uuid.UUID]string{}, failures: map[uuid.UUID]string{}}
}

func (f *fakeOutbox) Enqueue(_ context.Context, msg *models.EmailOutbox) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for _, row := range f.rows {
		if row.BookingID == msg.BookingID && row.TargetStatus == msg.TargetStatus {
			return false, nil
		}
	}
	copied := *msg
	f.rows = append(f.rows, &copied)
	return true, nil
}

func (f *fakeOutbox) FetchBatch(_ context.Context, limit int) ([]models.EmailOutbox, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var batch []models.EmailOutbox
	for _, row := range f.rows {
		if len(batch) == limit {
			break
		}
		if row.Status == models.OutboxPending {
			row.Status = models.OutboxProcessing
			batch = append(batch, *row)
		}
	}
	return batch, nil
}

func (f *fakeOutbox) find(id uuid.UUID) *models.EmailOutbox {
	for _, row := range f.rows {
		if row.ID == id {
			return row
		}
	}
	return nil
}

func (f *fakeOutbox) MarkSent(_ context.Context, id uuid.UUID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.find(id)
	if row == nil {
		return errors.New("outbox row not found")
	}
	row.Status = models.OutboxSent
	row.MessageID = &messageID
	f.sent[id] = messageID
	return nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id uuid.UUID, cause string, maxAttempts int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.find(id)
	if row == nil {
		return errors.New("outbox row not found")
	}
	row.Attempts++
	row.LastError = &cause
	row.Status = models.OutboxPending
	if row.Attempts >= maxAttempts {
		row.Status = models.OutboxFailed
	}
	f.failures[id] = cause
	return nil
}

func (f *fakeOutbox) ReleaseStale(_ context.Context, _ time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, row := range f.rows {
		if row.Status == models.OutboxProcessing {
			row.Status = models.OutboxPending
			n++
		}
	}
	return n, nil
}

func (f *fakeOutbox) DeleteSentBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	var n int64
	for _, row := range f.rows {
		if row.Status == models.OutboxSent && row.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	f.rows = kept
	return n, nil
}

func (f *fakeOutbox) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeNotifications struct {
	mu      sync.Mutex
	created []models.Notification
}

func (f *fakeNotifications) Create(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, *n)
	return nil
}

type countingNudger struct {
	mu    sync.Mutex
	count int
}

func (n *countingNudger) Nudge() {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
}

type fakeSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg email.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "msg_" + uuid.NewString()[:8], nil
}

type fakeCustomers struct {
	byEmail map[string]*models.Customer
	created int
	nextID  int64
}

func (f *fakeCustomers) GetByEmail(_ context.Context, addr string) (*models.Customer, error) {
	if c, ok := f.byEmail[addr]; ok {
		return c, nil
	}
	return nil, models.ErrEntityNotFound
}

func (f *fakeCustomers) Create(_ context.Context, c *models.Customer) error {
	f.created++
	f.nextID++
	c.ID = f.nextID
	if f.byEmail == nil {
		f.byEmail = map[string]*models.Customer{}
	}
	f.byEmail[*c.Email] = c
	return nil
}

type fakeSettings map[string]string

func (f fakeSettings) GetValue(_ context.Context, key, defaultValue string) string {
	if v, ok := f[key]; ok {
		return v
	}
	return defaultValue
}

type fakeAuditor struct {
	mu     sync.Mutex
	audits []models.PaymentAudit
}

func (f *fakeAuditor) Log(_ context.Context, a *models.PaymentAudit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, *a)
	return nil
}

func (f *fakeAuditor) events() []models.PaymentEventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.PaymentEventType, 0, len(f.audits))
	for _, a := range f.audits {
		out = append(out, a.EventType)
	}
	return out
}

// fakeGateway answers with canned payments
type fakeGateway struct {
	created   *GatewayPayment
	createErr error
	payments  map[string]*GatewayPayment
	requests  []*GatewayPaymentRequest
}

func (f *fakeGateway) Currency() string { return "QAR" }

func (f *fakeGateway) ConvertAmount(eur decimal.Decimal) (decimal.Decimal, int64) {
	major := eur.Mul(decimal.RequireFromString("4.20")).Round(2)
	return major, major.Shift(2).IntPart()
}

func (f *fakeGateway) CreatePayment(_ context.Context, req *GatewayPaymentRequest) (*GatewayPayment, error) {
	f.requests = append(f.requests, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.created, nil
}

func (f *fakeGateway) GetPayment(_ context.Context, id string) (*GatewayPayment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, &GatewayError{StatusCode: 404, Message: "payment not found"}
	}
	return p, nil
}
