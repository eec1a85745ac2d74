package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"roomscout/internal/bot"
	"roomscout/internal/client"
	"roomscout/internal/config"
	"roomscout/internal/events"
	"roomscout/internal/history"
	"roomscout/internal/logging"
	"roomscout/internal/metrics"
	"roomscout/internal/models"
	"roomscout/internal/session"
	"roomscout/internal/sheets"
	"roomscout/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, presets, logger, closer, loadErr := loadConfigAndLogger()
	if loadErr != nil {
		return loadErr
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := history.New(cfg.History.Path)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации локальной истории")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()
	startMetricsServer(cfg, &logger)

	redisClient, sessionRepo := initSessionRepository(ctx, cfg, &logger)

	apiClient := buildClient(cfg, redisClient, &logger)
	warmReferenceData(ctx, apiClient, &logger)

	sheetsService := initSheetsMirror(ctx, cfg, &logger)

	var mirrorWorker *worker.MirrorWorker
	if sheetsService != nil {
		retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
		mirrorWorker = worker.NewMirrorWorker(db, sheetsService, redisClient, retryPolicy, &logger)
		go mirrorWorker.Start(ctx)
	}

	eventBus := events.NewEventBus()
	subscribeStayEvents(ctx, eventBus, db, mirrorWorker, &logger)

	return startBot(ctx, cfg, apiClient, sessionRepo, db, eventBus, presets, &logger)
}

func loadConfigAndLogger() (*config.Config, []config.SearchPreset, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "bot-main").Logger()

	presetsPath := os.Getenv("PRESETS_PATH")
	if presetsPath == "" {
		presetsPath = "configs/presets.yaml"
	}
	presets, err := config.LoadPresets(presetsPath)
	if err != nil {
		logger.Error().Err(err).Msgf("Ошибка чтения %s", presetsPath)
		return nil, nil, zerolog.Logger{}, closer, err
	}

	return cfg, presets, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для истории")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
		return err
	}
	return nil
}

func startMetricsServer(cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		logger.Info().Str("addr", addr).Msg("Prometheus endpoint listening")
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
}

func initSessionRepository(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, session.Repository) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = session.NewRedisClient(cfg.Redis)
		if errPing := session.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	ttl := time.Duration(models.DefaultRedisTTL) * time.Second
	primaryRepo := session.NewRedisRepository(redisClient, ttl)
	fallbackRepo := session.NewMemoryRepository(ttl)
	return redisClient, session.NewFailoverRepository(primaryRepo, fallbackRepo, logger)
}

func buildClient(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) *client.Client {
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
	return client.New(cfg.Backend.BaseURL, logger, opts...)
}

// warmReferenceData прогревает кэш справочников при старте
func warmReferenceData(ctx context.Context, apiClient *client.Client, logger *zerolog.Logger) {
	go func() {
		warmCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if _, err := apiClient.ListHotelChains(warmCtx); err != nil {
			logger.Warn().Err(err).Msg("Hotel chains preload failed")
		}
	}()
}

func initSheetsMirror(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *sheets.Service {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.MirrorSpreadSheetID == "" {
		logger.Info().Msg("Sheets mirror disabled: no credentials configured")
		return nil
	}

	svc, err := sheets.NewService(ctx, cfg.Google.GoogleCredentialsFile, cfg.Google.MirrorSpreadSheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Sheets mirror")
		return nil
	}

	if err := svc.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("Sheets mirror connection test failed")
		return nil
	}

	logger.Info().Msg("Sheets mirror initialized")
	return svc
}

// subscribeStayEvents ties confirmed stays to the local history log and
// the mirror queue.
func subscribeStayEvents(
	ctx context.Context,
	bus *events.EventBus,
	db *history.DB,
	mirrorWorker *worker.MirrorWorker,
	logger *zerolog.Logger,
) {
	if bus == nil || db == nil {
		return
	}

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
			return nil
		}

		if mirrorWorker != nil {
			if err := mirrorWorker.Enqueue(ctx, payload); err != nil {
				logger.Error().Err(err).Int64("record_id", payload.RecordID).Msg("event bus: enqueue mirror task")
			}
		}
		return nil
	}

	bus.Subscribe(events.EventBookingConfirmed, handler)
	bus.Subscribe(events.EventRentingConfirmed, handler)
}

func startBot(
	ctx context.Context,
	cfg *config.Config,
	apiClient *client.Client,
	sessionRepo session.Repository,
	db *history.DB,
	eventBus *events.EventBus,
	presets []config.SearchPreset,
	logger *zerolog.Logger,
) error {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		logger.Error().Msg("Задайте токен бота в config.yaml")
		return os.ErrInvalid
	}

	telegramBot, err := bot.NewBot(cfg.Telegram.BotToken, cfg, apiClient, sessionRepo, db, eventBus, presets, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}

	logger.Info().Msg("Бот запущен...")
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}
