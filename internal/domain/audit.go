package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AuditEvent string

const (
	AuditCashConfirmed     AuditEvent = "cash_confirmed"
	AuditCashFailed        AuditEvent = "cash_failed"
	AuditMobileInitiated   AuditEvent = "mobile_initiated"
	AuditMobileRejected    AuditEvent = "mobile_rejected"
	AuditMobileConfirmed   AuditEvent = "mobile_confirmed"
	AuditMobileUnconfirmed AuditEvent = "mobile_unconfirmed"
	AuditMobileCancelled   AuditEvent = "mobile_cancelled"
	AuditCheckedIn         AuditEvent = "checked_in"
	AuditCheckInRejected   AuditEvent = "check_in_rejected"
)

// PaymentAudit is one row of the payment trail kept per booking.
type PaymentAudit struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	SessionID     string          `db:"session_id" json:"session_id"`
	BookingID     int64           `db:"booking_id" json:"booking_id"`
	BookingCode   string          `db:"booking_code" json:"booking_code"`
	EventType     AuditEvent      `db:"event_type" json:"event_type"`
	Method        PaymentMethod   `db:"payment_method" json:"payment_method"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Currency      string          `db:"currency" json:"currency"`
	TransactionID string          `db:"transaction_id" json:"transaction_id"`
	ErrorMessage  string          `db:"error_message" json:"error_message"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
