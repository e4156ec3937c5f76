package availability

import (
	"context"

	"github.com/Domenick1991/frontdesk/internal/domain"
	"github.com/Domenick1991/frontdesk/internal/hotelapi"
	"github.com/sirupsen/logrus"
)

type AvailabilityUseCase interface {
	Search(ctx context.Context, input SearchInput) (*SearchResult, error)
	GetRoom(ctx context.Context, roomID int64) (*domain.DetailedRoom, error)
}

type HotelAPI interface {
	SearchAvailability(ctx context.Context, q hotelapi.AvailabilityQuery) (*domain.AvailabilityRangeResponse, error)
	GetRoom(ctx context.Context, roomID int64) (*domain.DetailedRoom, error)
}

// Cache holds room cards only. Availability always comes from the backend so a
// search reflects bookings made through any channel.
type Cache interface {
	GetRoom(ctx context.Context, roomID int64) (*domain.DetailedRoom, error)
	SetRoom(ctx context.Context, room *domain.DetailedRoom) error
}

type SearchInput struct {
	HotelID    int64            `json:"hotel_id"`
	Range      domain.DateRange `json:"range"`
	RoomTypeID int64            `json:"room_type_id,omitempty"`
}

// SearchResult holds only rooms that are Available on every night of the range.
type SearchResult struct {
	Query   SearchInput            `json:"query"`
	Rooms   []domain.AvailableRoom `json:"rooms"`
	Scanned int                    `json:"scanned"`
}

type Service struct {
	api     HotelAPI
	cache   Cache
	retries int
	logger  *logrus.Logger
}

type Option func(*Service)

func WithCache(cache Cache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithRetries sets how many extra attempts a transient failure gets.
func WithRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.retries = n
		}
	}
}

func NewService(api HotelAPI, logger *logrus.Logger, opts ...Option) *Service {
	s := &Service{api: api, retries: 1, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Search(ctx context.Context, input SearchInput) (*SearchResult, error) {
	if input.HotelID <= 0 {
		return nil, domain.NewValidationError("search availability", "hotel is required", map[string]string{
			"hotel_id": "must be positive",
		})
	}
	if err := input.Range.Validate(); err != nil {
		return nil, err
	}

	resp, err := s.fetch(ctx, input)
	if err != nil {
		return nil, err
	}

	rooms := domain.FilterFullyAvailable(resp.Rooms)
	s.logger.WithFields(logrus.Fields{
		"hotel_id":  input.HotelID,
		"start":     input.Range.Start.String(),
		"end":       input.Range.End.String(),
		"scanned":   len(resp.Rooms),
		"available": len(rooms),
	}).Info("Availability search completed")

	return &SearchResult{Query: input, Rooms: rooms, Scanned: len(resp.Rooms)}, nil
}

func (s *Service) fetch(ctx context.Context, input SearchInput) (*domain.AvailabilityRangeResponse, error) {
	query := hotelapi.AvailabilityQuery{HotelID: input.HotelID, Range: input.Range, RoomTypeID: input.RoomTypeID}
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		resp, err := s.api.SearchAvailability(ctx, query)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !domain.IsKind(err, domain.KindTransient) || ctx.Err() != nil {
			break
		}
		s.logger.WithError(err).WithField("attempt", attempt+1).Warn("Availability search failed")
	}
	return nil, lastErr
}

func (s *Service) GetRoom(ctx context.Context, roomID int64) (*domain.DetailedRoom, error) {
	if roomID <= 0 {
		return nil, domain.NewValidationError("get room", "invalid room id", map[string]string{"room_id": "must be positive"})
	}
	if s.cache != nil {
		if cached, err := s.cache.GetRoom(ctx, roomID); err == nil && cached != nil {
			return cached, nil
		}
	}

	room, err := s.api.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetRoom(ctx, room)
	}
	return room, nil
}

var _ AvailabilityUseCase = (*Service)(nil)
