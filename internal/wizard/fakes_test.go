package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Domenick1991/frontdesk/config"
	"github.com/Domenick1991/frontdesk/internal/domain"
	"github.com/Domenick1991/frontdesk/internal/gateway"
	"github.com/Domenick1991/frontdesk/internal/hotelapi"
	"github.com/Domenick1991/frontdesk/internal/kafka"
	"github.com/Domenick1991/frontdesk/internal/logger"
	"github.com/Domenick1991/frontdesk/internal/service/availability"
	"github.com/Domenick1991/frontdesk/internal/service/checkin"
	"github.com/Domenick1991/frontdesk/internal/service/draft"
	"github.com/Domenick1991/frontdesk/internal/service/payment"
	"github.com/shopspring/decimal"
)

const testHotelID = 1

// fakeHotel is an in-memory hotel backend holding a single booking.
type fakeHotel struct {
	mu sync.Mutex

	rooms       []domain.AvailableRoom
	searchCalls int

	createErr   error
	createCalls int
	booking     *domain.EnrichedBooking

	// The reference conversion appears on this GetConversions call (1-based).
	conversionReadyOn int
	conversionCalls   int

	// GetBooking answers from this list in order; the last entry repeats.
	// Empty means "return the stored booking".
	bookingStates [][2]string
	bookingCalls  int

	patches    []domain.BookingPatch
	checkInErr error

	// PATCH and check-in answer with an empty body, as a 204 decodes.
	emptyResponses bool
}

func newFakeHotel() *fakeHotel {
	start := domain.NewDate(2025, time.March, 1)
	return &fakeHotel{
		rooms: []domain.AvailableRoom{
			{
				RoomID: 11, RoomCode: "101", RoomTypeID: 2, PricePerNight: decimal.NewFromInt(100),
				Availability: []domain.DayAvailability{
					{Date: start, Status: domain.DayAvailable},
					{Date: start.AddDays(1), Status: domain.DayAvailable},
				},
			},
			{
				RoomID: 12, RoomCode: "102", RoomTypeID: 2, PricePerNight: decimal.NewFromInt(100),
				Availability: []domain.DayAvailability{
					{Date: start, Status: domain.DayAvailable},
					{Date: start.AddDays(1), Status: domain.DayBooked},
				},
			},
		},
		conversionReadyOn: 2,
	}
}

func (f *fakeHotel) SearchAvailability(ctx context.Context, q hotelapi.AvailabilityQuery) (*domain.AvailabilityRangeResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	rooms := make([]domain.AvailableRoom, len(f.rooms))
	for i, r := range f.rooms {
		rooms[i] = r.Clone()
	}
	return &domain.AvailabilityRangeResponse{HotelID: q.HotelID, Rooms: rooms}, nil
}

func (f *fakeHotel) GetRoom(ctx context.Context, roomID int64) (*domain.DetailedRoom, error) {
	return &domain.DetailedRoom{ID: roomID}, nil
}

func (f *fakeHotel) CreateBooking(ctx context.Context, p domain.CreateBookingPayload) (*domain.DraftBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.booking = &domain.EnrichedBooking{
		DraftBooking: domain.DraftBooking{
			ID:               100,
			Code:             "BK-100",
			HotelID:          p.HotelID,
			RoomID:           p.RoomID,
			FullName:         p.FullName,
			Email:            p.Email,
			Phone:            p.Phone,
			Address:          p.Address,
			CheckIn:          p.CheckIn,
			CheckOut:         p.CheckOut,
			NumberOfAdults:   p.NumberOfAdults,
			AmountRequired:   decimal.RequireFromString(p.AmountRequired),
			BookingStatus:    domain.BookingStatusProcessing,
			PaymentStatus:    domain.PaymentStatusPending,
			PaymentMethod:    p.PaymentMethod,
			PaymentReference: "PAY-100",
		},
	}
	out := f.booking.DraftBooking
	return &out, nil
}

func (f *fakeHotel) GetConversions(ctx context.Context, bookingID int64) (*domain.ConversionsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conversionCalls++
	resp := &domain.ConversionsResponse{Booking: *f.booking}
	if f.conversionReadyOn > 0 && f.conversionCalls >= f.conversionReadyOn {
		resp.Conversions = []domain.CurrencyConversion{{
			ConversionType:    domain.ConversionAmountRequiredReference,
			OriginalAmount:    f.booking.AmountRequired,
			OriginalCurrency:  "USD",
			ConvertedAmount:   decimal.NewFromInt(520000),
			ConvertedCurrency: "TZS",
		}}
	}
	return resp, nil
}

func (f *fakeHotel) GetBooking(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookingCalls++
	if len(f.bookingStates) > 0 {
		i := f.bookingCalls - 1
		if i >= len(f.bookingStates) {
			i = len(f.bookingStates) - 1
		}
		f.booking.BookingStatus = domain.BookingStatus(f.bookingStates[i][0])
		f.booking.PaymentStatus = domain.PaymentStatus(f.bookingStates[i][1])
	}
	out := *f.booking
	return &out, nil
}

func (f *fakeHotel) UpdateBooking(ctx context.Context, bookingID int64, patch domain.BookingPatch) (*domain.EnrichedBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, patch)
	if patch.BookingStatus != nil {
		f.booking.BookingStatus = *patch.BookingStatus
	}
	if patch.AmountPaid != nil {
		f.booking.AmountPaid = decimal.RequireFromString(patch.AmountPaid.String())
		f.booking.PaymentStatus = domain.PaymentStatusPaid
	}
	if patch.Email != nil {
		f.booking.Email = *patch.Email
	}
	if patch.FullName != nil {
		f.booking.FullName = *patch.FullName
	}
	if f.emptyResponses {
		return &domain.EnrichedBooking{}, nil
	}
	out := *f.booking
	return &out, nil
}

func (f *fakeHotel) CheckIn(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkInErr != nil {
		return nil, f.checkInErr
	}
	f.booking.BookingStatus = domain.BookingStatusCheckedIn
	if f.emptyResponses {
		return &domain.EnrichedBooking{}, nil
	}
	out := *f.booking
	return &out, nil
}

func (f *fakeHotel) counts() (conversions, bookings int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conversionCalls, f.bookingCalls
}

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
	return &gateway.CheckoutResponse{Success: true, TransactionID: "TX-9"}, nil
}

type recordingCache struct {
	mu          sync.Mutex
	invalidated [][]string
}

func (c *recordingCache) Invalidate(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, keys)
	return nil
}

func (c *recordingCache) SetBooking(ctx context.Context, booking *domain.EnrichedBooking) error {
	return nil
}

func (c *recordingCache) SetConversions(ctx context.Context, bookingID int64, resp *domain.ConversionsResponse) error {
	return nil
}

func (c *recordingCache) calls() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]string(nil), c.invalidated...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(ctx context.Context, topic, key string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if topic == "" {
		return errors.New("empty topic")
	}
	event, ok := value.(kafka.WizardEvent)
	if !ok {
		return errors.New("unexpected event value")
	}
	p.events = append(p.events, event.Type)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type recordingAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *recordingAudit) Log(ctx context.Context, audit *domain.PaymentAudit) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, audit.EventType)
	return nil
}

func (a *recordingAudit) types() []domain.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.AuditEvent(nil), a.events...)
}

type harness struct {
	hotel   *fakeHotel
	gateway *fakeGateway
	cache   *recordingCache
	events  *recordingPublisher
	audit   *recordingAudit
	deps    Dependencies
}

func newHarness() *harness {
	h := &harness{
		hotel:   newFakeHotel(),
		gateway: &fakeGateway{},
		cache:   &recordingCache{},
		events:  &recordingPublisher{},
		audit:   &recordingAudit{},
	}
	log := logger.Discard()
	h.deps = Dependencies{
		HotelID:      testHotelID,
		Availability: availability.NewService(h.hotel, log),
		Drafts:       draft.NewService(h.hotel, log),
		Cash:         payment.NewCashService(h.hotel, "TZS", log),
		CheckIn:      checkin.NewService(h.hotel, log),
		HotelAPI:     h.hotel,
		Gateway:      h.gateway,
		Cache:        h.cache,
		Events:       h.events,
		EventsTopic:  "wizard-events",
		Audit:        h.audit,
		Config: config.WizardConfig{
			SettlementCurrency:     "TZS",
			ConversionPollMillis:   1,
			ConversionMaxAttempts:  1000,
			ConversionFetchRetries: 2,
			MobilePollMillis:       1,
			MobileMaxAttempts:      1000,
			SessionIdleMinutes:     30,
		},
		Logger: log,
	}
	return h
}

func (h *harness) wizard() *Wizard {
	return NewWizard(context.Background(), "session-1", h.deps)
}

func twoNights() domain.DateRange {
	return domain.DateRange{
		Start: domain.NewDate(2025, time.March, 1),
		End:   domain.NewDate(2025, time.March, 3),
	}
}

func guest(method string) draft.GuestDetails {
	return draft.GuestDetails{
		FullName:       "Asha Mushi",
		Email:          "asha@example.com",
		Phone:          "0712345678",
		Address:        "Arusha",
		NumberOfAdults: 2,
		PaymentMethod:  method,
	}
}
