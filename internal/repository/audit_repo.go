package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/frontdesk/config"
	"github.com/Domenick1991/frontdesk/internal/domain"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const schema = `
CREATE TABLE IF NOT EXISTS payment_audits (
	id             UUID PRIMARY KEY,
	session_id     TEXT NOT NULL,
	booking_id     BIGINT NOT NULL,
	booking_code   TEXT NOT NULL DEFAULT '',
	event_type     TEXT NOT NULL,
	payment_method TEXT NOT NULL DEFAULT '',
	amount         NUMERIC(18, 2) NOT NULL DEFAULT 0,
	currency       TEXT NOT NULL DEFAULT '',
	transaction_id TEXT NOT NULL DEFAULT '',
	error_message  TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_payment_audits_booking ON payment_audits (booking_id, created_at);
`

type AuditRepository interface {
	Log(ctx context.Context, audit *domain.PaymentAudit) error
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.PaymentAudit, error)
}

// PaymentAuditRepository keeps the trail of every payment and check-in
// attempt made through the wizard.
type PaymentAuditRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// Open connects through the pgx database/sql driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func NewPaymentAuditRepository(db *sqlx.DB, logger *logrus.Logger) *PaymentAuditRepository {
	return &PaymentAuditRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PaymentAuditRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create payment_audits: %w", err)
	}
	return nil
}

func (r *PaymentAuditRepository) Log(ctx context.Context, audit *domain.PaymentAudit) error {
	if audit == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}
	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payment_audits (
			id, session_id, booking_id, booking_code, event_type, payment_method,
			amount, currency, transaction_id, error_message, created_at
		) VALUES (
			:id, :session_id, :booking_id, :booking_code, :event_type, :payment_method,
			:amount, :currency, :transaction_id, :error_message, :created_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, audit); err != nil {
		r.logger.WithFields(logrus.Fields{
			"booking_id": audit.BookingID,
			"event_type": audit.EventType,
			"error":      err.Error(),
		}).Error("Failed to log payment audit")
		return fmt.Errorf("failed to log payment audit: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"audit_id":   audit.ID,
		"booking_id": audit.BookingID,
		"event_type": audit.EventType,
	}).Debug("Payment audit logged")
	return nil
}

func (r *PaymentAuditRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.PaymentAudit, error) {
	query := `
		SELECT id, session_id, booking_id, booking_code, event_type, payment_method,
		       amount, currency, transaction_id, error_message, created_at
		FROM payment_audits
		WHERE booking_id = $1
		ORDER BY created_at ASC`

	var audits []domain.PaymentAudit
	if err := r.db.SelectContext(ctx, &audits, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to list payment audits: %w", err)
	}
	return audits, nil
}

var _ AuditRepository = (*PaymentAuditRepository)(nil)
