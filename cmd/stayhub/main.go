package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stayhub/internal/app/calendarapp"
	"stayhub/internal/app/catalog"
	"stayhub/internal/app/events"
	"stayhub/internal/app/idempotency"
	"stayhub/internal/app/inventory"
	"stayhub/internal/app/reservation"
	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	"stayhub/internal/infra/broker/kafka"
	cacheredis "stayhub/internal/infra/cache/redis"
	"stayhub/internal/infra/config"
	mongostore "stayhub/internal/infra/db/mongo"
	ginserver "stayhub/internal/infra/http/gin"
	"stayhub/internal/infra/obs"
	"stayhub/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration load failed", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	listings, bookings, ready := buildStorage(ctx, cfg, logger)
	publisher := buildPublisher(cfg, logger)
	idempStore := buildIdempotencyStore(cfg, logger)

	dispatcher := events.Dispatcher{Publisher: publisher, TopicPrefix: cfg.KafkaTopicPrefix, Logger: logger}
	reservations := &reservation.Service{Listings: listings, Bookings: bookings, Events: dispatcher, Logger: logger}
	inventorySvc := &inventory.Service{Listings: listings, Logger: logger}
	calendarSvc := &calendarapp.Service{Listings: listings, Logger: logger}
	catalogSvc := &catalog.Service{Listings: listings, Logger: logger}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Ready: ready}, ginserver.Handlers{
		Booking:   ginserver.BookingHandler{Reservations: reservations, Idempotency: idempStore},
		Inventory: ginserver.InventoryHandler{Inventory: inventorySvc},
		Calendar:  ginserver.CalendarHandler{Calendar: calendarSvc},
		Listing:   ginserver.ListingHandler{Catalog: catalogSvc},
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

func buildStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (domainlisting.Repository, domainbooking.Repository, func() error) {
	if cfg.MongoURI == "" {
		logger.Warn("MONGO_URI not set, using in-memory storage")
		return memory.NewListingRepository(), memory.NewBookingRepository(), func() error { return nil }
	}
	client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connect failed", "error", err)
		os.Exit(1)
	}
	if err := client.Ping(ctx); err != nil {
		logger.Warn("mongo ping failed", "error", err)
	}
	ready := func() error { return client.Ping(context.Background()) }
	return mongostore.NewListingRepository(client.DB), mongostore.NewBookingRepository(client.DB), ready
}

func buildPublisher(cfg config.Config, logger *slog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.Noop{}
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		logger.Warn("kafka producer unavailable, events disabled", "error", err)
		return events.Noop{}
	}
	return producer
}

func buildIdempotencyStore(cfg config.Config, logger *slog.Logger) idempotency.Store {
	if cfg.RedisAddr == "" {
		return memory.NewIdempotencyStore()
	}
	store := cacheredis.NewIdempotencyStore(cfg.RedisAddr, cfg.RedisPassword, cfg.IdempotencyTTL)
	if err := store.Ping(context.Background()); err != nil {
		logger.Warn("redis unavailable, falling back to memory idempotency store", "error", err)
		return memory.NewIdempotencyStore()
	}
	return store
}
