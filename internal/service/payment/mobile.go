package payment

import (
	"context"
	"sync"
	"time"

	"github.com/Domenick1991/frontdesk/internal/domain"
	"github.com/Domenick1991/frontdesk/internal/gateway"
	"github.com/Domenick1991/frontdesk/internal/validator"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type MobileStatus string

const (
	MobileIdle               MobileStatus = "idle"
	MobileInitiating         MobileStatus = "initiating"
	MobilePending            MobileStatus = "pending"
	MobileSuccess            MobileStatus = "success"
	MobileFailedInitiation   MobileStatus = "failed_initiation"
	MobileFailedConfirmation MobileStatus = "failed_confirmation"
	MobileTimedOut           MobileStatus = "timed_out"
)

// Terminal states end polling; only success cannot be restarted.
func (s MobileStatus) Terminal() bool {
	switch s {
	case MobileSuccess, MobileFailedInitiation, MobileFailedConfirmation, MobileTimedOut:
		return true
	}
	return false
}

type Gateway interface {
	Checkout(ctx context.Context, req gateway.CheckoutRequest) (*gateway.CheckoutResponse, error)
}

type MobileSnapshot struct {
	Status        MobileStatus            `json:"status"`
	BookingID     int64                   `json:"booking_id,omitempty"`
	Phone         string                  `json:"phone_number,omitempty"`
	Amount        string                  `json:"amount,omitempty"`
	TransactionID string                  `json:"transaction_id,omitempty"`
	Attempts      int                     `json:"attempts"`
	Booking       *domain.EnrichedBooking `json:"booking,omitempty"`
	Error         string                  `json:"error,omitempty"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// MobilePayment drives one push payment and waits for the backend to report
// it settled.
type MobilePayment struct {
	gateway     Gateway
	api         HotelAPI
	phones      *validator.PhoneValidator
	logger      *logrus.Logger
	interval    time.Duration
	maxAttempts int
	observer    func(MobileSnapshot)

	mu       sync.Mutex
	snap     MobileSnapshot
	gen      uint64
	cancel   context.CancelFunc
	done     chan struct{}
	checkNow chan struct{}
	closed   bool
}

type MobileOption func(*MobilePayment)

func WithPollInterval(d time.Duration) MobileOption {
	return func(m *MobilePayment) {
		if d > 0 {
			m.interval = d
		}
	}
}

func WithMaxAttempts(n int) MobileOption {
	return func(m *MobilePayment) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

// WithObserver is called after every state change, outside the lock.
func WithObserver(fn func(MobileSnapshot)) MobileOption {
	return func(m *MobilePayment) {
		m.observer = fn
	}
}

func NewMobilePayment(gw Gateway, api HotelAPI, logger *logrus.Logger, opts ...MobileOption) *MobilePayment {
	m := &MobilePayment{
		gateway:     gw,
		api:         api,
		phones:      validator.NewPhoneValidator(),
		logger:      logger,
		interval:    5 * time.Second,
		maxAttempts: 60,
		snap:        MobileSnapshot{Status: MobileIdle},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initiate validates the phone, sends the push request and starts waiting for
// settlement. The gateway call runs under ctx; the wait outlives it until
// Cancel, Close or a terminal state.
func (m *MobilePayment) Initiate(ctx context.Context, booking domain.DraftBooking, amount decimal.Decimal, phone string) (MobileSnapshot, error) {
	account, err := m.phones.International(phone)
	if err != nil {
		return m.Snapshot(), domain.NewValidationError("initiate mobile payment", err.Error(), map[string]string{
			"phone_number": err.Error(),
		})
	}
	if !amount.IsPositive() {
		return m.Snapshot(), domain.NewDomainStateError("initiate mobile payment", "converted total is not available yet")
	}

	switch status := m.Snapshot().Status; status {
	case MobileInitiating, MobilePending, MobileSuccess:
		return m.Snapshot(), domain.NewDomainStateError("initiate mobile payment", "mobile payment is "+string(status))
	}
	// Releases the context of a poll that already ended.
	m.stop()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return MobileSnapshot{}, domain.NewDomainStateError("initiate mobile payment", "wizard is closed")
	}
	m.gen++
	gen := m.gen
	m.snap = MobileSnapshot{
		Status:    MobileInitiating,
		BookingID: booking.ID,
		Phone:     account,
		Amount:    amount.String(),
		UpdatedAt: time.Now(),
	}
	snap := m.snap
	m.mu.Unlock()
	m.notify(snap)

	resp, err := m.gateway.Checkout(ctx, gateway.CheckoutRequest{
		AccountNumber: account,
		ReferenceID:   booking.Reference(),
		Amount:        domain.WireAmount(amount),
	})
	if err != nil {
		m.update(gen, func(s *MobileSnapshot) {
			s.Status = MobileFailedInitiation
			s.Error = err.Error()
		})
		return m.Snapshot(), err
	}

	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	checkNow := make(chan struct{}, 1)

	m.mu.Lock()
	if m.closed || gen != m.gen {
		m.mu.Unlock()
		cancel()
		return m.Snapshot(), domain.NewDomainStateError("initiate mobile payment", "mobile payment was cancelled")
	}
	m.snap.Status = MobilePending
	m.snap.TransactionID = resp.TransactionID
	m.snap.UpdatedAt = time.Now()
	m.cancel, m.done, m.checkNow = cancel, done, checkNow
	snap = m.snap
	m.mu.Unlock()
	m.notify(snap)

	m.logger.WithFields(logrus.Fields{
		"booking_id":     booking.ID,
		"transaction_id": resp.TransactionID,
	}).Info("Waiting for mobile payment confirmation")

	go m.run(pollCtx, gen, booking.ID, done, checkNow)
	return snap, nil
}

// CheckNow wakes the poll for an immediate status check. A request already in
// flight is never duplicated.
func (m *MobilePayment) CheckNow() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap.Status != MobilePending || m.checkNow == nil {
		return domain.NewDomainStateError("check mobile payment", "no mobile payment is pending")
	}
	select {
	case m.checkNow <- struct{}{}:
	default:
	}
	return nil
}

// Cancel abandons a pending payment and returns to idle so another number can
// be tried.
func (m *MobilePayment) Cancel() error {
	m.mu.Lock()
	status := m.snap.Status
	m.mu.Unlock()
	if status != MobilePending {
		return domain.NewDomainStateError("cancel mobile payment", "no mobile payment is pending")
	}

	m.stop()
	m.mu.Lock()
	m.snap = MobileSnapshot{Status: MobileIdle, UpdatedAt: time.Now()}
	snap := m.snap
	m.mu.Unlock()
	m.notify(snap)
	return nil
}

// Stop ends polling without touching the state. Used when the operator leaves
// the payment step.
func (m *MobilePayment) Stop() {
	m.stop()
	m.mu.Lock()
	if m.snap.Status == MobilePending {
		m.snap = MobileSnapshot{Status: MobileIdle, UpdatedAt: time.Now()}
	}
	m.mu.Unlock()
}

// Reset ends polling and forgets the last payment, terminal or not. Used when
// the wizard starts over for the next booking.
func (m *MobilePayment) Reset() {
	m.stop()
	m.mu.Lock()
	m.snap = MobileSnapshot{Status: MobileIdle, UpdatedAt: time.Now()}
	m.mu.Unlock()
}

func (m *MobilePayment) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.stop()
}

func (m *MobilePayment) Snapshot() MobileSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

func (m *MobilePayment) stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done, m.checkNow = nil, nil, nil
	m.gen++
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (m *MobilePayment) run(ctx context.Context, gen uint64, bookingID int64, done chan struct{}, checkNow <-chan struct{}) {
	defer close(done)

	log := m.logger.WithField("booking_id", bookingID)
	for attempt := 1; ; attempt++ {
		timer := time.NewTimer(m.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-checkNow:
			timer.Stop()
		case <-timer.C:
		}

		booking, err := m.api.GetBooking(ctx, bookingID)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.WithError(err).Warn("Mobile payment status check failed")
			m.update(gen, func(s *MobileSnapshot) {
				s.Attempts = attempt
				s.Status = MobileFailedConfirmation
				s.Error = domain.NewPollTransportError("check mobile payment", err).Error()
			})
			return
		}

		if booking.Settled() {
			m.update(gen, func(s *MobileSnapshot) {
				s.Attempts = attempt
				s.Booking = booking
				s.Status = MobileSuccess
			})
			log.WithField("attempt", attempt).Info("Mobile payment confirmed")
			return
		}

		m.update(gen, func(s *MobileSnapshot) {
			s.Attempts = attempt
			s.Booking = booking
		})
		if attempt >= m.maxAttempts {
			m.update(gen, func(s *MobileSnapshot) {
				s.Status = MobileTimedOut
				s.Error = "payment was not confirmed in time"
			})
			log.WithField("attempts", attempt).Warn("Mobile payment confirmation timed out")
			return
		}
	}
}

func (m *MobilePayment) update(gen uint64, apply func(*MobileSnapshot)) {
	m.mu.Lock()
	if m.closed || gen != m.gen {
		m.mu.Unlock()
		return
	}
	apply(&m.snap)
	m.snap.UpdatedAt = time.Now()
	snap := m.snap
	m.mu.Unlock()

	m.notify(snap)
}

func (m *MobilePayment) notify(snap MobileSnapshot) {
	if m.observer != nil {
		m.observer(snap)
	}
}
