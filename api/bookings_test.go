package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/frontdesk/internal/domain"
	"github.com/Domenick1991/frontdesk/internal/logger"
	"github.com/Domenick1991/frontdesk/internal/service/availability"
	"github.com/Domenick1991/frontdesk/internal/service/checkin"
	"github.com/Domenick1991/frontdesk/internal/service/listing"
	"github.com/Domenick1991/frontdesk/internal/wizard"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAvailabilityUseCase struct {
	mock.Mock
}

func (m *MockAvailabilityUseCase) Search(ctx context.Context, input availability.SearchInput) (*availability.SearchResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*availability.SearchResult), args.Error(1)
}

func (m *MockAvailabilityUseCase) GetRoom(ctx context.Context, roomID int64) (*domain.DetailedRoom, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DetailedRoom), args.Error(1)
}

type MockCheckInUseCase struct {
	mock.Mock
}

func (m *MockCheckInUseCase) CheckIn(ctx context.Context, booking domain.DraftBooking) (*domain.EnrichedBooking, error) {
	args := m.Called(ctx, booking)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EnrichedBooking), args.Error(1)
}

func (m *MockCheckInUseCase) CheckInByID(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EnrichedBooking), args.Error(1)
}

type MockListingUseCase struct {
	mock.Mock
}

func (m *MockListingUseCase) GetBooking(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EnrichedBooking), args.Error(1)
}

func (m *MockListingUseCase) GetConversions(ctx context.Context, bookingID int64) (*domain.ConversionsResponse, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConversionsResponse), args.Error(1)
}

func (m *MockListingUseCase) ListPayments(ctx context.Context, bookingID int64) ([]domain.PaymentAudit, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentAudit), args.Error(1)
}

type MockBookingLocker struct {
	mock.Mock
}

func (m *MockBookingLocker) AcquireBookingLock(ctx context.Context, bookingID int64, action string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, bookingID, action, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingLocker) ReleaseBookingLock(ctx context.Context, bookingID int64, action string) error {
	args := m.Called(ctx, bookingID, action)
	return args.Error(0)
}

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Invalidate(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

var (
	_ availability.AvailabilityUseCase = (*MockAvailabilityUseCase)(nil)
	_ checkin.CheckInUseCase           = (*MockCheckInUseCase)(nil)
	_ listing.ListingUseCase           = (*MockListingUseCase)(nil)
	_ wizard.Invalidator               = (*MockInvalidator)(nil)
)

func bookingRouter(h *BookingHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r.Group("/api"))
	return r
}

func TestBookingHandler_getRoom(t *testing.T) {
	rooms := &MockAvailabilityUseCase{}
	handler := NewBookingHandler(rooms, &MockCheckInUseCase{}, &MockListingUseCase{}, nil, nil, 1, logger.Discard())

	rooms.On("GetRoom", mock.Anything, int64(11)).Return(&domain.DetailedRoom{ID: 11, Code: "101"}, nil)

	w := httptest.NewRecorder()
	bookingRouter(handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms/11", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var room domain.DetailedRoom
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))
	assert.Equal(t, "101", room.Code)
	rooms.AssertExpectations(t)
}

func TestBookingHandler_getRoom_InvalidID(t *testing.T) {
	handler := NewBookingHandler(&MockAvailabilityUseCase{}, &MockCheckInUseCase{}, &MockListingUseCase{}, nil, nil, 1, logger.Discard())

	w := httptest.NewRecorder()
	bookingRouter(handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms/abc", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandler_checkIn(t *testing.T) {
	checkIns := &MockCheckInUseCase{}
	locker := &MockBookingLocker{}
	cache := &MockInvalidator{}
	handler := NewBookingHandler(&MockAvailabilityUseCase{}, checkIns, &MockListingUseCase{}, locker, cache, 1, logger.Discard())

	booking := &domain.EnrichedBooking{DraftBooking: domain.DraftBooking{ID: 100, BookingStatus: domain.BookingStatusCheckedIn}}
	locker.On("AcquireBookingLock", mock.Anything, int64(100), "check-in", checkInLockTTL).Return(true, nil)
	locker.On("ReleaseBookingLock", mock.Anything, int64(100), "check-in").Return(nil)
	checkIns.On("CheckInByID", mock.Anything, int64(100)).Return(booking, nil)
	cache.On("Invalidate", mock.Anything, wizard.ContractCheckedIn.Keys(1, 100)).Return(nil)

	w := httptest.NewRecorder()
	bookingRouter(handler).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/bookings/100/check-in", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	checkIns.AssertExpectations(t)
	locker.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestBookingHandler_checkIn_NotConfirmed(t *testing.T) {
	checkIns := &MockCheckInUseCase{}
	cache := &MockInvalidator{}
	handler := NewBookingHandler(&MockAvailabilityUseCase{}, checkIns, &MockListingUseCase{}, nil, cache, 1, logger.Discard())

	checkIns.On("CheckInByID", mock.Anything, int64(100)).
		Return(nil, domain.NewDomainStateError("check in", "payment has not been confirmed for this booking"))

	w := httptest.NewRecorder()
	bookingRouter(handler).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/bookings/100/check-in", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "payment has not been confirmed")
	assert.Equal(t, "domain_state", body["kind"])
	cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestBookingHandler_checkIn_AlreadyInProgress(t *testing.T) {
	checkIns := &MockCheckInUseCase{}
	locker := &MockBookingLocker{}
	handler := NewBookingHandler(&MockAvailabilityUseCase{}, checkIns, &MockListingUseCase{}, locker, nil, 1, logger.Discard())

	locker.On("AcquireBookingLock", mock.Anything, int64(100), "check-in", checkInLockTTL).Return(false, nil)

	w := httptest.NewRecorder()
	bookingRouter(handler).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/bookings/100/check-in", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	checkIns.AssertNotCalled(t, "CheckInByID", mock.Anything, mock.Anything)
}

func TestBookingHandler_checkIn_LockErrorDoesNotBlock(t *testing.T) {
	checkIns := &MockCheckInUseCase{}
	locker := &MockBookingLocker{}
	handler := NewBookingHandler(&MockAvailabilityUseCase{}, checkIns, &MockListingUseCase{}, locker, nil, 1, logger.Discard())

	locker.On("AcquireBookingLock", mock.Anything, int64(100), "check-in", checkInLockTTL).Return(false, errors.New("redis down"))
	checkIns.On("CheckInByID", mock.Anything, int64(100)).
		Return(nil, domain.NewTransientError("check in", errors.New("503")))

	w := httptest.NewRecorder()
	bookingRouter(handler).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/bookings/100/check-in", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	locker.AssertNotCalled(t, "ReleaseBookingLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.NewValidationError("op", "bad", nil), http.StatusBadRequest},
		{"transient", domain.NewTransientError("op", errors.New("x")), http.StatusBadGateway},
		{"rejected", domain.NewRejectedError("op", "no", nil), http.StatusUnprocessableEntity},
		{"domain state", domain.NewDomainStateError("op", "wrong step"), http.StatusConflict},
		{"poll transport", domain.NewPollTransportError("op", errors.New("x")), http.StatusBadGateway},
		{"timed out", domain.NewTimedOutError("op", "slow"), http.StatusGatewayTimeout},
		{"not found", domain.NewNotFoundError("op", "gone"), http.StatusNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestBookingHandler_getBooking(t *testing.T) {
	listings := &MockListingUseCase{}
	listings.On("GetBooking", mock.Anything, int64(5)).
		Return(&domain.EnrichedBooking{DraftBooking: domain.DraftBooking{ID: 5, Code: "BK-5"}}, nil)
	listings.On("GetBooking", mock.Anything, int64(6)).
		Return(nil, domain.NewRejectedError("get booking", "booking not found", errors.New("404")))
	handler := NewBookingHandler(&MockAvailabilityUseCase{}, &MockCheckInUseCase{}, listings, nil, nil, 1, logger.Discard())
	r := bookingRouter(handler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bookings/5", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var got domain.EnrichedBooking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "BK-5", got.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bookings/6", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestBookingHandler_conversionsAndPayments(t *testing.T) {
	listings := &MockListingUseCase{}
	listings.On("GetConversions", mock.Anything, int64(5)).
		Return(&domain.ConversionsResponse{Booking: domain.EnrichedBooking{DraftBooking: domain.DraftBooking{ID: 5}}}, nil)
	listings.On("ListPayments", mock.Anything, int64(5)).
		Return([]domain.PaymentAudit{{BookingID: 5, EventType: domain.AuditCashConfirmed}}, nil)
	listings.On("ListPayments", mock.Anything, int64(9)).
		Return(nil, domain.NewNotFoundError("list payments", "payment audit trail is not enabled"))
	handler := NewBookingHandler(&MockAvailabilityUseCase{}, &MockCheckInUseCase{}, listings, nil, nil, 1, logger.Discard())
	r := bookingRouter(handler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bookings/5/currency-conversions", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bookings/5/payments", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		BookingID int64                 `json:"booking_id"`
		Payments  []domain.PaymentAudit `json:"payments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(5), body.BookingID)
	require.Len(t, body.Payments, 1)
	assert.Equal(t, domain.AuditCashConfirmed, body.Payments[0].EventType)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bookings/9/payments", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bookings/abc/payments", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	listings.AssertExpectations(t)
}
