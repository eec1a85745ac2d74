package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"roomscout/internal/cli"
	"roomscout/internal/client"
	"roomscout/internal/config"
	"roomscout/internal/events"
	"roomscout/internal/flow"
	"roomscout/internal/history"
	"roomscout/internal/logging"
	"roomscout/internal/metrics"
	"roomscout/internal/models"
	"roomscout/internal/session"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "configs/config.yaml", "путь к конфигурации")
	staffID := flag.Int64("staff", 0, "ID сотрудника: включает режим заселения")
	customerID := flag.Int64("customer", 0, "ID активного гостя")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := baseLogger.With().Str("component", "cli-main").Logger()

	presets, err := config.LoadPresets("configs/presets.yaml")
	if err != nil {
		logger.Warn().Err(err).Msg("Пресеты не загружены")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = session.NewRedisClient(cfg.Redis)
		if errPing := session.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable, cache disabled")
			redisClient = nil
		}
	}

	opts := []client.Option{
		client.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Backend.TimeoutSeconds) * time.Second}),
	}
	if cfg.Backend.LegacyPaths {
		opts = append(opts, client.WithLegacyPaths())
	}
	if cfg.Backend.RateLimitRPS > 0 {
		opts = append(opts, client.WithRateLimit(cfg.Backend.RateLimitRPS, cfg.Backend.RateLimitBurst))
	}
	if redisClient != nil {
		opts = append(opts, client.WithRedisCache(redisClient, time.Duration(cfg.Backend.CacheTTL)*time.Second))
	}
	apiClient := client.New(cfg.Backend.BaseURL, &logger, opts...)

	if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
		return err
	}
	db, err := history.New(cfg.History.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	eventBus := events.NewEventBus()
	subscribeHistory(ctx, eventBus, db, &logger)

	var flowOpts []flow.Option
	if cfg.Behavior.RequireExplicitCustomerID {
		flowOpts = append(flowOpts, flow.WithExplicitCustomerID())
	}
	ctrl := flow.NewController(apiClient, eventBus, &logger, flowOpts...)
	if *customerID > 0 {
		ctrl.SetCustomer(*customerID)
	}
	if *staffID > 0 {
		ctrl.SetStaff(*staffID)
	}

	app := cli.New(apiClient, ctrl, db, cfg, presets, &logger)
	return app.Run(ctx)
}

// subscribeHistory пишет подтверждённые брони в локальный журнал
func subscribeHistory(ctx context.Context, bus *events.EventBus, db *history.DB, logger *zerolog.Logger) {
	handler := func(ev *events.Event) error {
		var payload events.StayEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}

		stay := history.Stay{
			Kind:       payload.Kind,
			RecordID:   payload.RecordID,
			RoomID:     payload.RoomID,
			CustomerID: payload.CustomerID,
			EmployeeID: payload.EmployeeID,
			Status:     payload.Status,
			HotelName:  payload.HotelName,
			Price:      payload.Price,
		}
		if d, err := models.ParseDate(payload.StartDate); err == nil {
			stay.StartDate = d
		}
		if d, err := models.ParseDate(payload.EndDate); err == nil {
			stay.EndDate = d
		}

		if err := db.AppendStay(ctx, &stay); err != nil {
			logger.Error().Err(err).Int64("record_id", payload.RecordID).Msg("event bus: append stay")
		}
		return nil
	}

	bus.Subscribe(events.EventBookingConfirmed, handler)
	bus.Subscribe(events.EventRentingConfirmed, handler)
}
