package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusProcessing BookingStatus = "Processing"
	BookingStatusConfirmed  BookingStatus = "Confirmed"
	BookingStatusCheckedIn  BookingStatus = "Checked In"
	BookingStatusCheckedOut BookingStatus = "Checked Out"
	BookingStatusCancelled  BookingStatus = "Cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
)

// PaymentMethod selects the step-4 reconciliation path. Every switch over it
// must handle both values and reject anything else.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "Cash"
	PaymentMobile PaymentMethod = "Mobile"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash":
		return PaymentCash, nil
	case "mobile":
		return PaymentMobile, nil
	default:
		return "", fmt.Errorf("unsupported payment method %q", s)
	}
}

// DraftBooking is created once per wizard run in Processing status and only
// updated afterwards.
type DraftBooking struct {
	ID               int64           `json:"id"`
	Code             string          `json:"code"`
	HotelID          int64           `json:"hotel_id"`
	RoomID           int64           `json:"room_id"`
	FullName         string          `json:"full_name"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone_number"`
	Address          string          `json:"address"`
	Nationality      string          `json:"nationality,omitempty"`
	CheckIn          Date            `json:"check_in"`
	CheckOut         Date            `json:"check_out"`
	NumberOfAdults   int             `json:"number_of_adults"`
	NumberOfChildren int             `json:"number_of_children"`
	AmountRequired   decimal.Decimal `json:"amount_required"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	CurrencyPaid     string          `json:"currency_paid,omitempty"`
	BookingStatus    BookingStatus   `json:"booking_status"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Reference is what the payment gateway gets as referenceId.
func (b DraftBooking) Reference() string {
	if b.PaymentReference != "" {
		return b.PaymentReference
	}
	return b.Code
}

// Settled is true only when the payment and the booking moved together.
func (b DraftBooking) Settled() bool {
	return b.PaymentStatus == PaymentStatusPaid && b.BookingStatus == BookingStatusConfirmed
}

// Overlay returns b updated with the fields resp actually carries. Identity
// fields always stay those of b, and a response decoded from an empty body
// leaves b unchanged.
func (b DraftBooking) Overlay(resp DraftBooking) DraftBooking {
	if b.Code == "" {
		b.Code = resp.Code
	}
	setString(&b.FullName, resp.FullName)
	setString(&b.Email, resp.Email)
	setString(&b.Phone, resp.Phone)
	setString(&b.Address, resp.Address)
	setString(&b.Nationality, resp.Nationality)
	setString(&b.CurrencyPaid, resp.CurrencyPaid)
	setString(&b.PaymentReference, resp.PaymentReference)
	if !resp.CheckIn.IsZero() {
		b.CheckIn = resp.CheckIn
	}
	if !resp.CheckOut.IsZero() {
		b.CheckOut = resp.CheckOut
	}
	if resp.NumberOfAdults > 0 {
		b.NumberOfAdults = resp.NumberOfAdults
	}
	if resp.NumberOfChildren > 0 {
		b.NumberOfChildren = resp.NumberOfChildren
	}
	if !resp.AmountRequired.IsZero() {
		b.AmountRequired = resp.AmountRequired
	}
	if !resp.AmountPaid.IsZero() {
		b.AmountPaid = resp.AmountPaid
	}
	if resp.BookingStatus != "" {
		b.BookingStatus = resp.BookingStatus
	}
	if resp.PaymentStatus != "" {
		b.PaymentStatus = resp.PaymentStatus
	}
	if resp.PaymentMethod != "" {
		b.PaymentMethod = resp.PaymentMethod
	}
	return b
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

type Charge struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type CalculationBreakdown struct {
	Items       []Charge        `json:"items"`
	FinalAmount decimal.Decimal `json:"final_amount"`
}

type BillingMeta struct {
	CalculationBreakdown CalculationBreakdown `json:"calculation_breakdown"`
}

// EnrichedBooking is the booking plus stay length and billing breakdown, in
// the source currency.
type EnrichedBooking struct {
	DraftBooking
	DurationDays int         `json:"duration_days"`
	Billing      BillingMeta `json:"billing_meta_data"`
}

// Overlay applies resp the same way DraftBooking.Overlay does. Stay length and
// billing are replaced only when resp has them.
func (e EnrichedBooking) Overlay(resp EnrichedBooking) EnrichedBooking {
	e.DraftBooking = e.DraftBooking.Overlay(resp.DraftBooking)
	if resp.DurationDays > 0 {
		e.DurationDays = resp.DurationDays
	}
	if bd := resp.Billing.CalculationBreakdown; len(bd.Items) > 0 || !bd.FinalAmount.IsZero() {
		e.Billing = resp.Billing
	}
	return e
}

// CreateBookingPayload is the body of POST /bookings/web-create.
type CreateBookingPayload struct {
	HotelID          int64         `json:"hotel_id"`
	RoomID           int64         `json:"room_id"`
	RoomTypeID       int64         `json:"room_type_id"`
	FullName         string        `json:"full_name"`
	Email            string        `json:"email"`
	Phone            string        `json:"phone_number"`
	Address          string        `json:"address"`
	Nationality      string        `json:"nationality,omitempty"`
	SpecialRequests  string        `json:"special_requests,omitempty"`
	CheckIn          Date          `json:"check_in"`
	CheckOut         Date          `json:"check_out"`
	NumberOfAdults   int           `json:"number_of_adults"`
	NumberOfChildren int           `json:"number_of_children"`
	AmountRequired   string        `json:"amount_required"`
	PaymentMethod    PaymentMethod `json:"payment_method"`
	BookingStatus    BookingStatus `json:"booking_status"`
	BookingType      string        `json:"booking_type"`
}

// BookingPatch is the body of PATCH /bookings/{id}. Nil fields are left alone.
type BookingPatch struct {
	BookingStatus *BookingStatus `json:"booking_status,omitempty"`
	CurrencyPaid  *string        `json:"currency_paid,omitempty"`
	AmountPaid    *json.Number   `json:"amount_paid,omitempty"`
	FullName      *string        `json:"full_name,omitempty"`
	Email         *string        `json:"email,omitempty"`
	Phone         *string        `json:"phone_number,omitempty"`
	Address       *string        `json:"address,omitempty"`
	Nationality   *string        `json:"nationality,omitempty"`
}
