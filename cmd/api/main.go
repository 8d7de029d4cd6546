package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"mentorship/internal/api"
	"mentorship/internal/config"
	"mentorship/internal/database"
	"mentorship/internal/domain"
	"mentorship/internal/events"
	"mentorship/internal/logging"
	"mentorship/internal/metrics"
	"mentorship/internal/repository"
	"mentorship/internal/service"
	"mentorship/internal/worker"

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
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := initCache(redisClient, cfg, logger)

	catalog := service.NewAvailabilityCatalog(db, cache, logging.Component(logger, "catalog"))
	if err := seedMentors(ctx, db, catalog, logger); err != nil {
		return err
	}

	eventBus := events.NewEventBus(logging.Component(logger, "events"))

	var wg sync.WaitGroup
	notifier, sinkClosers, err := initNotifications(cfg, logger)
	if err != nil {
		return err
	}
	for _, c := range sinkClosers {
		defer (func(c io.Closer) { _ = c.Close() })(c)
	}
	notifier.Subscribe(eventBus)
	notifier.Start(ctx)

	loc := cfg.App.Location()
	resolver := service.NewConflictResolver(catalog, db, loc, logging.Component(logger, "conflicts"))
	lifecycle := service.NewLifecycleManager(db, catalog, eventBus, logging.Component(logger, "lifecycle"))
	bookingService := service.NewBookingService(
		catalog, resolver, lifecycle, db, cache, eventBus, cfg.Booking, loc, logging.Component(logger, "booking"),
	)

	if cfg.Booking.AutoComplete {
		sweeper := service.NewCompletionSweeper(
			db, lifecycle, cfg.Booking.SessionLength, cfg.Booking.SweepInterval, loc, logging.Component(logger, "sweeper"),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sweeper.Start(ctx)
		}()
	}

	if cfg.Backup.Enabled {
		backups := database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			backups.Start(ctx)
		}()
	}

	startMetrics(ctx, cfg, logger)

	httpServer := api.NewHTTPServer(cfg.API, bookingService, db.Ping, logger)
	err = serve(ctx, httpServer, logger)
	stop()

	wg.Wait()
	notifier.Wait()
	logger.Info().Msg("API server stopped")
	return err
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := logging.Component(baseLogger, "api-main")

	return cfg, logger, closer, nil
}

// seedMentors upserts the mentor directory file and drops cached slot lists
// for every mentor it touched.
func seedMentors(ctx context.Context, db *database.DB, catalog *service.AvailabilityCatalog, logger *zerolog.Logger) error {
	mentorsPath := os.Getenv("MENTORS_PATH")
	if mentorsPath == "" {
		mentorsPath = "configs/mentors.yaml"
	}

	mentors, err := config.LoadMentors(mentorsPath)
	if err != nil {
		logger.Error().Err(err).Str("mentors_path", mentorsPath).Msg("load mentors")
		return err
	}
	if err := db.UpsertMentors(ctx, mentors); err != nil {
		logger.Error().Err(err).Msg("seed mentors")
		return err
	}

	ids := make([]int64, 0, len(mentors))
	for _, m := range mentors {
		ids = append(ids, m.ID)
	}
	catalog.Invalidate(ctx, ids...)

	logger.Info().Int("mentors", len(mentors)).Str("mentors_path", mentorsPath).Msg("mentor directory loaded")
	return nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, falling back to memory cache")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

func initCache(client *redis.Client, cfg *config.Config, logger *zerolog.Logger) domain.CacheRepository {
	memory := repository.NewMemoryCacheRepository(cfg.Redis.SlotTTL)
	if client == nil {
		return memory
	}
	primary := repository.NewRedisCacheRepository(client, cfg.Redis.SlotTTL)
	return repository.NewFailoverCacheRepository(primary, memory, logging.Component(logger, "cache"))
}

// initNotifications builds the sink list. The log sink is always present.
func initNotifications(cfg *config.Config, logger *zerolog.Logger) (*worker.NotificationWorker, []io.Closer, error) {
	notifyLogger := logging.Component(logger, "notifications")
	sinks := []domain.NotificationSink{worker.NewLogSink(notifyLogger)}
	var closers []io.Closer

	if cfg.Notifications.Telegram.Enabled {
		bot, err := worker.NewTelegramBot(cfg.Notifications.Telegram)
		if err != nil {
			return nil, nil, fmt.Errorf("init telegram bot: %w", err)
		}
		sinks = append(sinks, worker.NewTelegramSink(bot, cfg.Notifications.Telegram.ChatID))
		logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifications enabled")
	}

	if cfg.Notifications.Kafka.Enabled {
		sink := worker.NewKafkaSink(worker.NewKafkaWriter(cfg.Notifications.Kafka))
		sinks = append(sinks, sink)
		closers = append(closers, sink)
		logger.Info().Strs("brokers", cfg.Notifications.Kafka.Brokers).Str("topic", cfg.Notifications.Kafka.Topic).Msg("kafka notifications enabled")
	}

	retry := worker.NewRetryPolicy(cfg.Notifications.Retry)
	return worker.NewNotificationWorker(sinks, retry, cfg.Notifications.QueueSize, notifyLogger), closers, nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error().Err(serveErr).Msg("http server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	return serveErr
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
