package checkin

import (
	"context"
	"fmt"

	"github.com/Domenick1991/frontdesk/internal/domain"
	"github.com/sirupsen/logrus"
)

type CheckInUseCase interface {
	CheckIn(ctx context.Context, booking domain.DraftBooking) (*domain.EnrichedBooking, error)
	CheckInByID(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error)
}

type HotelAPI interface {
	GetBooking(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error)
	CheckIn(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error)
}

// Guard allows check-in only for Confirmed bookings. The message is meant for
// the operator as is.
func Guard(booking domain.DraftBooking) error {
	switch booking.BookingStatus {
	case domain.BookingStatusConfirmed:
		return nil
	case domain.BookingStatusCheckedIn:
		return domain.NewDomainStateError("check in", fmt.Sprintf("booking %s is already checked in", booking.Code))
	case domain.BookingStatusProcessing:
		return domain.NewDomainStateError("check in", fmt.Sprintf("booking %s has not been paid yet; confirm the payment before checking the guest in", booking.Code))
	default:
		return domain.NewDomainStateError("check in", fmt.Sprintf("booking %s is %s and cannot be checked in", booking.Code, booking.BookingStatus))
	}
}

type Service struct {
	api    HotelAPI
	logger *logrus.Logger
}

func NewService(api HotelAPI, logger *logrus.Logger) *Service {
	return &Service{api: api, logger: logger}
}

func (s *Service) CheckIn(ctx context.Context, booking domain.DraftBooking) (*domain.EnrichedBooking, error) {
	if err := Guard(booking); err != nil {
		return nil, err
	}

	updated, err := s.api.CheckIn(ctx, booking.ID)
	if err != nil {
		s.logger.WithError(err).WithField("booking_id", booking.ID).Warn("Check-in failed")
		return nil, err
	}

	checkedIn := domain.EnrichedBooking{DraftBooking: booking}
	if updated != nil {
		checkedIn = checkedIn.Overlay(*updated)
	}
	if updated == nil || updated.BookingStatus == "" {
		checkedIn.BookingStatus = domain.BookingStatusCheckedIn
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"booking_code": booking.Code,
	}).Info("Guest checked in")
	return &checkedIn, nil
}

// CheckInByID is the listing-view path: the booking is read fresh so the
// guard never runs on a stale status.
func (s *Service) CheckInByID(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error) {
	current, err := s.api.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.CheckIn(ctx, current.DraftBooking)
}

var _ CheckInUseCase = (*Service)(nil)
