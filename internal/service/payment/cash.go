package payment

import (
	"context"

	"github.com/Domenick1991/frontdesk/internal/domain"
	"github.com/sirupsen/logrus"
)

type HotelAPI interface {
	GetBooking(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error)
	UpdateBooking(ctx context.Context, bookingID int64, patch domain.BookingPatch) (*domain.EnrichedBooking, error)
}

// CashInput is the amount typed twice by the operator.
type CashInput struct {
	AmountReceived string `json:"amount_received"`
	Confirmation   string `json:"amount_confirmation"`
}

// CanSubmit mirrors the enabled state of the cash form.
func CanSubmit(input CashInput, converted *domain.CurrencyConversion) bool {
	return converted != nil && domain.AmountsMatch(input.AmountReceived, input.Confirmation)
}

type CashService struct {
	api      HotelAPI
	currency string
	logger   *logrus.Logger
}

func NewCashService(api HotelAPI, currency string, logger *logrus.Logger) *CashService {
	if currency == "" {
		currency = "TZS"
	}
	return &CashService{api: api, currency: currency, logger: logger}
}

// Confirm records a cash payment. converted is the settlement-currency total;
// without it nothing is sent.
func (s *CashService) Confirm(ctx context.Context, booking domain.DraftBooking, converted *domain.CurrencyConversion, input CashInput) (*domain.EnrichedBooking, error) {
	if converted == nil {
		return nil, domain.NewDomainStateError("confirm cash payment", "converted total is not available yet")
	}

	amount, err := domain.ParseAmount(input.AmountReceived)
	if err != nil || !amount.IsPositive() {
		return nil, domain.NewValidationError("confirm cash payment", "amount received is invalid", map[string]string{
			"amount_received": "must be a positive number",
		})
	}
	if !domain.AmountsMatch(input.AmountReceived, input.Confirmation) {
		return nil, domain.NewValidationError("confirm cash payment", "amounts do not match", map[string]string{
			"amount_confirmation": "must match amount received",
		})
	}

	status := domain.BookingStatusConfirmed
	currency := s.currency
	paid := domain.WireAmount(amount)
	updated, err := s.api.UpdateBooking(ctx, booking.ID, domain.BookingPatch{
		BookingStatus: &status,
		CurrencyPaid:  &currency,
		AmountPaid:    &paid,
	})
	if err != nil {
		s.logger.WithError(err).WithField("booking_id", booking.ID).Warn("Cash payment update failed")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"amount":     paid.String(),
		"currency":   currency,
		"expected":   converted.ConvertedAmount.String(),
	}).Info("Cash payment confirmed")
	return updated, nil
}
