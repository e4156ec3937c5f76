package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/frontdesk/api"
	"github.com/Domenick1991/frontdesk/config"
	"github.com/Domenick1991/frontdesk/internal/bootstrap"
	"github.com/Domenick1991/frontdesk/internal/cache"
	"github.com/Domenick1991/frontdesk/internal/gateway"
	"github.com/Domenick1991/frontdesk/internal/hotelapi"
	"github.com/Domenick1991/frontdesk/internal/kafka"
	"github.com/Domenick1991/frontdesk/internal/logger"
	"github.com/Domenick1991/frontdesk/internal/repository"
	"github.com/Domenick1991/frontdesk/internal/service/availability"
	"github.com/Domenick1991/frontdesk/internal/service/checkin"
	"github.com/Domenick1991/frontdesk/internal/service/draft"
	"github.com/Domenick1991/frontdesk/internal/service/listing"
	"github.com/Domenick1991/frontdesk/internal/service/payment"
	"github.com/Domenick1991/frontdesk/internal/wizard"
	"github.com/gin-gonic/gin"
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
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hotel := hotelapi.NewClient(cfg.HotelAPI, logr)
	gw := gateway.NewClient(cfg.Gateway, logr)
	if !gw.IsConfigured() {
		logr.Warn("Payment gateway is not configured, mobile payments will fail")
	}

	deps := wizard.Dependencies{
		HotelID:     cfg.HotelAPI.HotelID,
		HotelAPI:    hotel,
		Gateway:     gw,
		Drafts:      draft.NewService(hotel, logr),
		Cash:        payment.NewCashService(hotel, cfg.Wizard.SettlementCurrency, logr),
		CheckIn:     checkin.NewService(hotel, logr),
		EventsTopic: cfg.Kafka.WizardTopic,
		Config:      cfg.Wizard,
		Logger:      logr,
	}
	availabilityOpts := []availability.Option{availability.WithRetries(cfg.Wizard.SearchAutomaticRetries)}
	var listingOpts []listing.Option

	var locker api.BookingLocker
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis)
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			logr.WithError(err).Warn("Redis is unreachable, reads will fall through to the hotel backend")
		}
		deps.Cache = redisCache
		locker = redisCache
		availabilityOpts = append(availabilityOpts, availability.WithCache(redisCache))
		listingOpts = append(listingOpts, listing.WithCache(redisCache))
	}
	deps.Availability = availability.NewService(hotel, logr, availabilityOpts...)

	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, logr)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			logr.WithError(err).Warn("Kafka is unreachable, wizard events may be lost")
		}
		deps.Events = producer
	}

	if cfg.Database.Enabled() {
		db, err := repository.Open(ctx, cfg.Database)
		if err != nil {
			logr.Fatalf("connect postgres: %v", err)
		}
		defer db.Close()
		audits := repository.NewPaymentAuditRepository(db, logr)
		if err := audits.EnsureSchema(ctx); err != nil {
			logr.Fatalf("prepare payment audit table: %v", err)
		}
		deps.Audit = audits
		listingOpts = append(listingOpts, listing.WithAudit(audits))
	}

	manager := wizard.NewManager(ctx, deps)
	go manager.Run(ctx, cfg.Wizard.SessionSweepInterval())

	var invalidator wizard.Invalidator
	if deps.Cache != nil {
		invalidator = deps.Cache
	}
	handlers := bootstrap.Handlers{
		Wizards:  api.NewWizardHandler(manager, api.NewClientRateLimiter(cfg.HTTP.PushRateLimitPerMinute, logr).Middleware()),
		Bookings: api.NewBookingHandler(deps.Availability, deps.CheckIn, listing.NewService(hotel, logr, listingOpts...), locker, invalidator, cfg.HotelAPI.HotelID, logr),
	}

	if err := bootstrap.Run(ctx, cfg, handlers, logr); err != nil {
		logr.Fatalf("server error: %v", err)
	}
	manager.Shutdown()
}
