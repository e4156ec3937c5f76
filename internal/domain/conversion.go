package domain

import "github.com/shopspring/decimal"

// ConversionAmountRequiredReference marks the guest-payable total in the
// settlement currency. It is the only conversion type the wizard consumes.
const ConversionAmountRequiredReference = "amount_required_reference"

type CurrencyConversion struct {
	ConversionType    string          `json:"conversion_type"`
	OriginalAmount    decimal.Decimal `json:"original_amount"`
	OriginalCurrency  string          `json:"original_currency"`
	ConvertedAmount   decimal.Decimal `json:"converted_amount"`
	ConvertedCurrency string          `json:"converted_currency"`
	ExchangeRate      decimal.Decimal `json:"exchange_rate"`
}

// ConversionsResponse is GET /bookings/{id}/currency-conversions.
type ConversionsResponse struct {
	Booking     EnrichedBooking      `json:"booking"`
	Conversions []CurrencyConversion `json:"conversions"`
}

// Reference returns the amount_required_reference conversion if the backend
// has computed it yet.
func (r ConversionsResponse) Reference() (CurrencyConversion, bool) {
	for _, c := range r.Conversions {
		if c.ConversionType == ConversionAmountRequiredReference {
			return c, true
		}
	}
	return CurrencyConversion{}, false
}
