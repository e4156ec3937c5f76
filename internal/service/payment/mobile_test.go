package payment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Domenick1991/frontdesk/internal/domain"
	"github.com/Domenick1991/frontdesk/internal/gateway"
	"github.com/Domenick1991/frontdesk/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu   sync.Mutex
	reqs []gateway.CheckoutRequest
	err  error
}

func (g *fakeGateway) Checkout(ctx context.Context, req gateway.CheckoutRequest) (*gateway.CheckoutResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.CheckoutResponse{Success: true, TransactionID: "TX-1"}, nil
}

// bookingFeed returns the queued bookings in order; the last one repeats.
type bookingFeed struct {
	mu       sync.Mutex
	bookings []*domain.EnrichedBooking
	err      error
	calls    atomic.Int32
	inFlight atomic.Int32
	overlap  atomic.Bool
}

func (f *bookingFeed) GetBooking(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error) {
	if f.inFlight.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.inFlight.Add(-1)

	n := int(f.calls.Add(1))
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if n > len(f.bookings) {
		n = len(f.bookings)
	}
	return f.bookings[n-1], nil
}

func (f *bookingFeed) UpdateBooking(ctx context.Context, bookingID int64, patch domain.BookingPatch) (*domain.EnrichedBooking, error) {
	return nil, errors.New("not used")
}

func booking(bs domain.BookingStatus, ps domain.PaymentStatus) *domain.EnrichedBooking {
	return &domain.EnrichedBooking{DraftBooking: domain.DraftBooking{ID: 3, BookingStatus: bs, PaymentStatus: ps}}
}

var draft = domain.DraftBooking{ID: 3, Code: "BK-3", PaymentReference: "PAY-3"}

func TestMobilePayment_SuccessNeedsPaidAndConfirmed(t *testing.T) {
	gw := &fakeGateway{}
	feed := &bookingFeed{bookings: []*domain.EnrichedBooking{
		booking(domain.BookingStatusProcessing, domain.PaymentStatusPending),
		booking(domain.BookingStatusProcessing, domain.PaymentStatusPaid),
		booking(domain.BookingStatusConfirmed, domain.PaymentStatusPending),
		booking(domain.BookingStatusConfirmed, domain.PaymentStatusPaid),
	}}
	m := NewMobilePayment(gw, feed, logger.Discard(), WithPollInterval(time.Millisecond))
	defer m.Close()

	snap, err := m.Initiate(context.Background(), draft, decimal.NewFromInt(520000), "0712345678")
	require.NoError(t, err)
	assert.Equal(t, MobilePending, snap.Status)
	assert.Equal(t, "TX-1", snap.TransactionID)

	assert.Eventually(t, func() bool { return m.Snapshot().Status == MobileSuccess }, time.Second, time.Millisecond)
	assert.Equal(t, 4, int(feed.calls.Load()))
	assert.Equal(t, 4, m.Snapshot().Attempts)

	require.Len(t, gw.reqs, 1)
	assert.Equal(t, "255712345678", gw.reqs[0].AccountNumber)
	assert.Equal(t, "PAY-3", gw.reqs[0].ReferenceID)
	assert.Equal(t, "520000", gw.reqs[0].Amount.String())
}

func TestMobilePayment_InvalidPhoneNeverCallsGateway(t *testing.T) {
	gw := &fakeGateway{}
	m := NewMobilePayment(gw, &bookingFeed{}, logger.Discard())
	defer m.Close()

	_, err := m.Initiate(context.Background(), draft, decimal.NewFromInt(1), "12345")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Empty(t, gw.reqs)
	assert.Equal(t, MobileIdle, m.Snapshot().Status)
}

func TestMobilePayment_GatewayRejectionAllowsRetry(t *testing.T) {
	gw := &fakeGateway{err: domain.NewRejectedError("checkout", "insufficient funds", gateway.ErrCheckoutRejected)}
	feed := &bookingFeed{bookings: []*domain.EnrichedBooking{booking(domain.BookingStatusConfirmed, domain.PaymentStatusPaid)}}
	m := NewMobilePayment(gw, feed, logger.Discard(), WithPollInterval(time.Millisecond))
	defer m.Close()

	snap, err := m.Initiate(context.Background(), draft, decimal.NewFromInt(1), "0712345678")
	assert.Error(t, err)
	assert.Equal(t, MobileFailedInitiation, snap.Status)
	assert.Zero(t, feed.calls.Load())

	gw.mu.Lock()
	gw.err = nil
	gw.mu.Unlock()

	_, err = m.Initiate(context.Background(), draft, decimal.NewFromInt(1), "0712345678")
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return m.Snapshot().Status == MobileSuccess }, time.Second, time.Millisecond)
}

func TestMobilePayment_FetchErrorStopsWithFailedConfirmation(t *testing.T) {
	feed := &bookingFeed{err: errors.New("connection refused")}
	m := NewMobilePayment(&fakeGateway{}, feed, logger.Discard(), WithPollInterval(time.Millisecond))
	defer m.Close()

	_, err := m.Initiate(context.Background(), draft, decimal.NewFromInt(1), "0712345678")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return m.Snapshot().Status == MobileFailedConfirmation }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), feed.calls.Load())
	assert.Contains(t, m.Snapshot().Error, "status check failed")
}

func TestMobilePayment_TimesOut(t *testing.T) {
	feed := &bookingFeed{bookings: []*domain.EnrichedBooking{booking(domain.BookingStatusProcessing, domain.PaymentStatusPending)}}
	m := NewMobilePayment(&fakeGateway{}, feed, logger.Discard(), WithPollInterval(time.Millisecond), WithMaxAttempts(3))
	defer m.Close()

	_, err := m.Initiate(context.Background(), draft, decimal.NewFromInt(1), "0712345678")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return m.Snapshot().Status == MobileTimedOut }, time.Second, time.Millisecond)
	assert.Equal(t, int32(3), feed.calls.Load())
}

func TestMobilePayment_CheckNowAndCancel(t *testing.T) {
	feed := &bookingFeed{bookings: []*domain.EnrichedBooking{booking(domain.BookingStatusProcessing, domain.PaymentStatusPending)}}
	m := NewMobilePayment(&fakeGateway{}, feed, logger.Discard(), WithPollInterval(time.Hour))
	defer m.Close()

	assert.Error(t, m.CheckNow())
	assert.Error(t, m.Cancel())

	_, err := m.Initiate(context.Background(), draft, decimal.NewFromInt(1), "0712345678")
	require.NoError(t, err)
	assert.Zero(t, feed.calls.Load())

	require.NoError(t, m.CheckNow())
	require.NoError(t, m.CheckNow())
	assert.Eventually(t, func() bool { return feed.calls.Load() >= 1 }, time.Second, time.Millisecond)
	assert.False(t, feed.overlap.Load())

	require.NoError(t, m.Cancel())
	assert.Equal(t, MobileIdle, m.Snapshot().Status)

	calls := feed.calls.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, calls, feed.calls.Load())
}

func TestMobilePayment_RejectsSecondInitiateWhilePending(t *testing.T) {
	feed := &bookingFeed{bookings: []*domain.EnrichedBooking{booking(domain.BookingStatusProcessing, domain.PaymentStatusPending)}}
	m := NewMobilePayment(&fakeGateway{}, feed, logger.Discard(), WithPollInterval(time.Hour))
	defer m.Close()

	_, err := m.Initiate(context.Background(), draft, decimal.NewFromInt(1), "0712345678")
	require.NoError(t, err)

	_, err = m.Initiate(context.Background(), draft, decimal.NewFromInt(1), "0712345678")
	assert.Equal(t, domain.KindDomainState, domain.KindOf(err))
}

func TestMobilePayment_ObserverSilentAfterClose(t *testing.T) {
	feed := &bookingFeed{bookings: []*domain.EnrichedBooking{booking(domain.BookingStatusProcessing, domain.PaymentStatusPending)}}
	var updates atomic.Int32
	m := NewMobilePayment(&fakeGateway{}, feed, logger.Discard(),
		WithPollInterval(2*time.Millisecond),
		WithObserver(func(MobileSnapshot) { updates.Add(1) }),
	)

	_, err := m.Initiate(context.Background(), draft, decimal.NewFromInt(1), "0712345678")
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return feed.calls.Load() >= 1 }, time.Second, time.Millisecond)

	m.Close()
	after := updates.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, updates.Load())
}
