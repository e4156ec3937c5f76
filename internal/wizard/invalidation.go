package wizard

import (
	"context"

	"github.com/Domenick1991/frontdesk/internal/cache"
)

// Contract names the cached reads a successful mutation makes stale.
type Contract string

const (
	ContractDraftCreated     Contract = "draft-created"
	ContractPaymentConfirmed Contract = "payment-confirmed"
	ContractCheckedIn        Contract = "checked-in"
	ContractGuestUpdated     Contract = "guest-updated"
)

type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// Keys lists the cache keys the contract deletes.
func (c Contract) Keys(hotelID, bookingID int64) []string {
	switch c {
	case ContractDraftCreated:
		return []string{cache.BookingListKey(), cache.AvailabilityKey(hotelID)}
	case ContractPaymentConfirmed:
		return []string{cache.BookingKey(bookingID), cache.BookingListKey(), cache.ConversionsKey(bookingID)}
	case ContractCheckedIn:
		return []string{cache.BookingKey(bookingID), cache.BookingListKey(), cache.AvailabilityKey(hotelID)}
	case ContractGuestUpdated:
		return []string{cache.BookingKey(bookingID), cache.BookingListKey()}
	default:
		return nil
	}
}
