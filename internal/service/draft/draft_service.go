package draft

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/Domenick1991/frontdesk/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const bookingTypeWalkIn = "walk_in"

type DraftUseCase interface {
	BuildPayload(input CreateInput) (domain.CreateBookingPayload, error)
	Create(ctx context.Context, payload domain.CreateBookingPayload) (*domain.DraftBooking, error)
	UpdateGuest(ctx context.Context, bookingID int64, update GuestUpdate) (*domain.EnrichedBooking, error)
}

type HotelAPI interface {
	CreateBooking(ctx context.Context, payload domain.CreateBookingPayload) (*domain.DraftBooking, error)
	UpdateBooking(ctx context.Context, bookingID int64, patch domain.BookingPatch) (*domain.EnrichedBooking, error)
}

// GuestDetails is what the operator types in step 2.
type GuestDetails struct {
	FullName         string `json:"full_name" validate:"required,min=2"`
	Email            string `json:"email" validate:"required,email"`
	Phone            string `json:"phone_number" validate:"required,min=7"`
	Address          string `json:"address" validate:"required"`
	Nationality      string `json:"nationality"`
	NumberOfAdults   int    `json:"number_of_adults" validate:"min=1"`
	NumberOfChildren int    `json:"number_of_children" validate:"min=0"`
	PaymentMethod    string `json:"payment_method" validate:"required"`
	SpecialRequests  string `json:"special_requests" validate:"max=500"`
}

type CreateInput struct {
	HotelID int64
	Room    domain.AvailableRoom
	Range   domain.DateRange
	Guest   GuestDetails
}

// GuestUpdate corrects guest details on an existing draft. Nil fields are kept.
type GuestUpdate struct {
	FullName    *string `json:"full_name" validate:"omitnil,min=2"`
	Email       *string `json:"email" validate:"omitnil,email"`
	Phone       *string `json:"phone_number" validate:"omitnil,min=7"`
	Address     *string `json:"address" validate:"omitnil,min=1"`
	Nationality *string `json:"nationality"`
}

func (u GuestUpdate) empty() bool {
	return u.FullName == nil && u.Email == nil && u.Phone == nil && u.Address == nil && u.Nationality == nil
}

type Service struct {
	api      HotelAPI
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewService(api HotelAPI, logger *logrus.Logger) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{api: api, validate: v, logger: logger}
}

// BuildPayload validates the guest details and prices the stay. It never
// touches the network.
func (s *Service) BuildPayload(input CreateInput) (domain.CreateBookingPayload, error) {
	if input.Room.RoomID == 0 {
		return domain.CreateBookingPayload{}, domain.NewDomainStateError("build booking", "no room selected")
	}
	if input.Range.Start.IsZero() || input.Range.End.IsZero() {
		return domain.CreateBookingPayload{}, domain.NewDomainStateError("build booking", "no date range selected")
	}
	if input.Range.End.Before(input.Range.Start.Time) {
		return domain.CreateBookingPayload{}, domain.NewValidationError("build booking", "check-out is before check-in", map[string]string{
			"end_date": "must not be before start date",
		})
	}

	fields := s.check(input.Guest)
	method, err := domain.ParsePaymentMethod(input.Guest.PaymentMethod)
	if err != nil && fields["payment_method"] == "" {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["payment_method"] = "must be Cash or Mobile"
	}
	if len(fields) > 0 {
		return domain.CreateBookingPayload{}, domain.NewValidationError("build booking", "guest details are incomplete", fields)
	}

	amount := domain.SourceTotal(input.Range.BillableNights(), input.Room.PricePerNight)
	g := input.Guest
	return domain.CreateBookingPayload{
		HotelID:          input.HotelID,
		RoomID:           input.Room.RoomID,
		RoomTypeID:       input.Room.RoomTypeID,
		FullName:         strings.TrimSpace(g.FullName),
		Email:            strings.TrimSpace(g.Email),
		Phone:            strings.TrimSpace(g.Phone),
		Address:          strings.TrimSpace(g.Address),
		Nationality:      strings.TrimSpace(g.Nationality),
		SpecialRequests:  strings.TrimSpace(g.SpecialRequests),
		CheckIn:          input.Range.Start,
		CheckOut:         input.Range.End,
		NumberOfAdults:   g.NumberOfAdults,
		NumberOfChildren: g.NumberOfChildren,
		AmountRequired:   amount.StringFixed(2),
		PaymentMethod:    method,
		BookingStatus:    domain.BookingStatusProcessing,
		BookingType:      bookingTypeWalkIn,
	}, nil
}

// Create submits a payload built earlier. The caller keeps the payload so a
// failed submission can be retried as is.
func (s *Service) Create(ctx context.Context, payload domain.CreateBookingPayload) (*domain.DraftBooking, error) {
	booking, err := s.api.CreateBooking(ctx, payload)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"room_id":  payload.RoomID,
			"check_in": payload.CheckIn.String(),
		}).Warn("Draft booking creation failed")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":      booking.ID,
		"booking_code":    booking.Code,
		"amount_required": payload.AmountRequired,
	}).Info("Draft booking created")
	return booking, nil
}

func (s *Service) UpdateGuest(ctx context.Context, bookingID int64, update GuestUpdate) (*domain.EnrichedBooking, error) {
	if update.empty() {
		return nil, domain.NewValidationError("update guest", "nothing to update", nil)
	}
	if fields := s.check(update); len(fields) > 0 {
		return nil, domain.NewValidationError("update guest", "guest details are invalid", fields)
	}

	patch := domain.BookingPatch{
		FullName:    update.FullName,
		Email:       update.Email,
		Phone:       update.Phone,
		Address:     update.Address,
		Nationality: update.Nationality,
	}
	booking, err := s.api.UpdateBooking(ctx, bookingID, patch)
	if err != nil {
		return nil, fmt.Errorf("update guest details: %w", err)
	}
	return booking, nil
}

func (s *Service) check(v interface{}) map[string]string {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describe(fe)
	}
	return fields
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

var _ DraftUseCase = (*Service)(nil)
