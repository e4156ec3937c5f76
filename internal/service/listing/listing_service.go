package listing

import (
	"context"

	"github.com/Domenick1991/frontdesk/internal/domain"
	"github.com/sirupsen/logrus"
)

// ListingUseCase serves the booking views outside the wizard.
type ListingUseCase interface {
	GetBooking(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error)
	GetConversions(ctx context.Context, bookingID int64) (*domain.ConversionsResponse, error)
	ListPayments(ctx context.Context, bookingID int64) ([]domain.PaymentAudit, error)
}

type HotelAPI interface {
	GetBooking(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error)
	GetConversions(ctx context.Context, bookingID int64) (*domain.ConversionsResponse, error)
}

// Cache holds the entries the payment-confirmed, checked-in and guest-updated
// contracts clear.
type Cache interface {
	GetBooking(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error)
	SetBooking(ctx context.Context, booking *domain.EnrichedBooking) error
	GetConversions(ctx context.Context, bookingID int64) (*domain.ConversionsResponse, error)
	SetConversions(ctx context.Context, bookingID int64, resp *domain.ConversionsResponse) error
}

type AuditReader interface {
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.PaymentAudit, error)
}

type Service struct {
	api    HotelAPI
	cache  Cache
	audits AuditReader
	logger *logrus.Logger
}

type Option func(*Service)

func WithCache(cache Cache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithAudit(audits AuditReader) Option {
	return func(s *Service) {
		s.audits = audits
	}
}

func NewService(api HotelAPI, logger *logrus.Logger, opts ...Option) *Service {
	s := &Service{api: api, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) GetBooking(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error) {
	if err := validID("get booking", bookingID); err != nil {
		return nil, err
	}
	if s.cache != nil {
		cached, err := s.cache.GetBooking(ctx, bookingID)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			s.logger.WithError(err).WithField("booking_id", bookingID).Debug("Booking cache read failed")
		}
	}

	booking, err := s.api.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && booking.ID == bookingID {
		_ = s.cache.SetBooking(ctx, booking)
	}
	return booking, nil
}

func (s *Service) GetConversions(ctx context.Context, bookingID int64) (*domain.ConversionsResponse, error) {
	if err := validID("get conversions", bookingID); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if cached, err := s.cache.GetConversions(ctx, bookingID); err == nil && cached != nil {
			return cached, nil
		}
	}

	resp, err := s.api.GetConversions(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetConversions(ctx, bookingID, resp)
	}
	return resp, nil
}

// ListPayments returns the payment audit trail of a booking, oldest first.
func (s *Service) ListPayments(ctx context.Context, bookingID int64) ([]domain.PaymentAudit, error) {
	if err := validID("list payments", bookingID); err != nil {
		return nil, err
	}
	if s.audits == nil {
		return nil, domain.NewNotFoundError("list payments", "payment audit trail is not enabled")
	}

	audits, err := s.audits.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if audits == nil {
		audits = []domain.PaymentAudit{}
	}
	return audits, nil
}

func validID(op string, bookingID int64) error {
	if bookingID <= 0 {
		return domain.NewValidationError(op, "invalid booking id", map[string]string{"booking_id": "must be positive"})
	}
	return nil
}

var _ ListingUseCase = (*Service)(nil)
