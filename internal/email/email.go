package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/frontdesk/internal/kafka"
	"github.com/sirupsen/logrus"
)

// Notice is a guest-facing message derived from a wizard event.
type Notice struct {
	To          string `json:"to"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	BookingCode string `json:"booking_code"`
	EventType   string `json:"event_type"`
}

// Compose builds the notice for an event. Events the guest does not hear about
// (guest detail corrections) and events without an email return false.
func Compose(event kafka.WizardEvent) (Notice, bool) {
	if strings.TrimSpace(event.Email) == "" {
		return Notice{}, false
	}

	notice := Notice{
		To:          event.Email,
		BookingCode: event.BookingCode,
		EventType:   event.Type,
	}
	name := event.GuestName
	if name == "" {
		name = "Guest"
	}

	switch event.Type {
	case kafka.EventDraftCreated:
		notice.Subject = fmt.Sprintf("Booking %s received", event.BookingCode)
		notice.Body = fmt.Sprintf("Dear %s,\n\nYour booking %s from %s to %s has been received and is awaiting payment.",
			name, event.BookingCode, event.CheckIn, event.CheckOut)
	case kafka.EventPaymentConfirmed:
		notice.Subject = fmt.Sprintf("Payment received for booking %s", event.BookingCode)
		notice.Body = fmt.Sprintf("Dear %s,\n\nWe received your %s payment of %s %s. Booking %s is confirmed.",
			name, strings.ToLower(event.PaymentMethod), event.Amount, event.Currency, event.BookingCode)
	case kafka.EventCheckedIn:
		notice.Subject = fmt.Sprintf("Welcome, booking %s", event.BookingCode)
		notice.Body = fmt.Sprintf("Dear %s,\n\nYou are checked in. Your stay ends on %s.", name, event.CheckOut)
	default:
		return Notice{}, false
	}
	return notice, true
}

const publishAttempts = 3

type Publisher interface {
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

// Sender hands notices to the mail relay through the notices topic. Without a
// publisher it only logs them.
type Sender struct {
	publisher Publisher
	topic     string
	logger    *logrus.Logger
}

func NewSender(publisher Publisher, topic string, logger *logrus.Logger) *Sender {
	return &Sender{publisher: publisher, topic: topic, logger: logger}
}

func (s *Sender) Send(ctx context.Context, event kafka.WizardEvent) error {
	notice, ok := Compose(event)
	if !ok {
		s.logger.WithFields(logrus.Fields{
			"event_type": event.Type,
			"booking_id": event.BookingID,
		}).Debug("No guest notice for event")
		return nil
	}

	s.logger.WithFields(logrus.Fields{
		"to":           notice.To,
		"subject":      notice.Subject,
		"booking_code": notice.BookingCode,
	}).Info("Sending guest notice")

	if s.publisher == nil || s.topic == "" {
		return nil
	}
	if err := s.publisher.PublishWithRetry(ctx, s.topic, notice.BookingCode, notice, publishAttempts); err != nil {
		return fmt.Errorf("publish notice for %s: %w", notice.BookingCode, err)
	}
	return nil
}
