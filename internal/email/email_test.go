package email

import (
	"context"
	"errors"
	"testing"

	"github.com/Domenick1991/frontdesk/internal/kafka"
	"github.com/Domenick1991/frontdesk/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error {
	args := m.Called(ctx, topic, key, value, maxRetries)
	return args.Error(0)
}

func TestCompose(t *testing.T) {
	event := kafka.WizardEvent{
		Type:          kafka.EventPaymentConfirmed,
		BookingCode:   "BK-9",
		GuestName:     "Asha Mushi",
		Email:         "asha@example.com",
		PaymentMethod: "Cash",
		Amount:        "520000",
		Currency:      "TZS",
	}

	notice, ok := Compose(event)
	assert.True(t, ok)
	assert.Equal(t, "asha@example.com", notice.To)
	assert.Equal(t, "Payment received for booking BK-9", notice.Subject)
	assert.Contains(t, notice.Body, "cash payment of 520000 TZS")

	_, ok = Compose(kafka.WizardEvent{Type: kafka.EventGuestUpdated, Email: "a@b.c"})
	assert.False(t, ok)

	_, ok = Compose(kafka.WizardEvent{Type: kafka.EventCheckedIn})
	assert.False(t, ok)
}

func TestSender_Send(t *testing.T) {
	publisher := &MockPublisher{}
	publisher.On("PublishWithRetry", mock.Anything, "guest-notices", "BK-1", mock.AnythingOfType("email.Notice"), publishAttempts).Return(nil)

	sender := NewSender(publisher, "guest-notices", logger.Discard())
	err := sender.Send(context.Background(), kafka.WizardEvent{
		Type:        kafka.EventCheckedIn,
		BookingCode: "BK-1",
		Email:       "g@example.com",
		CheckOut:    "2025-03-04",
	})

	assert.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestSender_Send_SkipsAndFails(t *testing.T) {
	publisher := &MockPublisher{}
	sender := NewSender(publisher, "guest-notices", logger.Discard())

	assert.NoError(t, sender.Send(context.Background(), kafka.WizardEvent{Type: kafka.EventGuestUpdated, Email: "g@example.com"}))
	publisher.AssertNotCalled(t, "PublishWithRetry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	publisher.On("PublishWithRetry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))
	err := sender.Send(context.Background(), kafka.WizardEvent{Type: kafka.EventDraftCreated, BookingCode: "BK-2", Email: "g@example.com"})
	assert.ErrorContains(t, err, "broker down")
}
