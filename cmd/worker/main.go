package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/frontdesk/config"
	"github.com/Domenick1991/frontdesk/internal/email"
	"github.com/Domenick1991/frontdesk/internal/kafka"
	"github.com/Domenick1991/frontdesk/internal/logger"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logr := logger.New(cfg.Log)
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.WizardTopic == "" {
		logr.Fatal("kafka.brokers and kafka.wizard_topic are required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logr)
	defer producer.Close()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.WizardTopic)
	defer consumer.Close()

	sender := email.NewSender(producer, cfg.Kafka.NoticesTopic, logr)

	logr.WithField("topic", cfg.Kafka.WizardTopic).Info("Worker consuming wizard events")
	err = consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
		event, err := kafka.DecodeWizardEvent(msg)
		if err != nil {
			logr.WithError(err).Warn("Skipping undecodable wizard event")
			return nil
		}
		if err := sender.Send(ctx, event); err != nil {
			// A lost notice must not stall the partition.
			logr.WithError(err).WithFields(logrus.Fields{
				"event_type": event.Type,
				"booking_id": event.BookingID,
			}).Error("Failed to send guest notice")
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logr.Fatalf("consumer stopped: %v", err)
	}
	logr.Info("Worker stopped")
}
