package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	gormlogger "gorm.io/gorm/logger"

	"brandwisp-store-sync/internal/application"
	"brandwisp-store-sync/internal/application/webhook_handlers"
	"brandwisp-store-sync/internal/config"
	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/infrastructure/analytics"
	"brandwisp-store-sync/internal/infrastructure/api"
	"brandwisp-store-sync/internal/infrastructure/encryption"
	"brandwisp-store-sync/internal/infrastructure/lock"
	"brandwisp-store-sync/internal/infrastructure/metrics"
	"brandwisp-store-sync/internal/infrastructure/pubsub"
	"brandwisp-store-sync/internal/infrastructure/repository"
	shopifyinfra "brandwisp-store-sync/internal/infrastructure/shopify"
	"brandwisp-store-sync/internal/ports"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.MongoDatabase)

	// Connect to Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid REDIS_URL")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	encryptionService, err := encryption.NewService(cfg.EncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	tokenManager := shopifyinfra.NewTokenManager(encryptionService, logger)

	// Initialize repositories
	registry := repository.NewMongoStoreRegistry(db, tokenManager, logger)
	productRepo := repository.NewMongoRepository(db)
	sessionRepo := repository.NewRedisSessionRepository(redisClient)
	if err := registry.EnsureIndexes(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to ensure store connection indexes")
	}
	if err := productRepo.EnsureIndexes(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to ensure product indexes")
	}

	sink, err := newAnalyticsSink(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize analytics sink")
	}
	defer sink.Close()

	promMetrics := metrics.New()

	// Shopify clients
	shopifyOpts := shopifyinfra.Options{
		APIVersion: cfg.ShopifyAPIVersion,
		HTTPClient: &http.Client{Timeout: cfg.ShopifyHTTPTimeout},
	}
	platformClient := shopifyinfra.NewClient(registry, shopifyOpts, logger)
	installClient := shopifyinfra.NewInstallClient(cfg.ShopifyClientID, cfg.ShopifyClientSecret, shopifyOpts, logger)
	platforms := application.NewPlatformRegistry(platformClient)

	// Initialize application services
	syncService := application.NewSyncService(registry, platforms, productRepo, sink, application.SyncOptions{
		PageLimit: cfg.SyncPageLimit,
		LockTTL:   cfg.SyncLockTTL,
		Locker:    lock.NewRedisLocker(redisClient),
		Metrics:   promMetrics,
	}, logger)

	connectionEvents := pubsub.NewConnectionEvents(logger)

	connectionService := application.NewConnectionService(registry, sessionRepo, installClient, connectionEvents, application.ConnectionOptions{
		AppURL: cfg.AppURL,
		Scopes: cfg.ShopifyScopes,
	}, logger)

	webhookService := application.NewWebhookService(registry, productRepo, sink, connectionEvents, promMetrics, logger)

	// Initialize webhook dispatcher and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewProductHandler(webhookService, logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewOrderHandler(webhookService, logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(webhookService, logger))

	// Initial sync of newly connected stores
	connected := connectionEvents.Subscribe(ctx, &pubsub.ConnectionEventFilter{
		Statuses: []domain.ConnectionStatus{domain.StatusConnected},
	})
	go application.ListenForConnections(ctx, connected.Events, syncService, logger)

	if cfg.WatchConnections {
		watcher := repository.NewConnectionWatcher(db, connectionEvents, logger)
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("Connection watcher stopped")
			}
		}()
	}

	if cfg.SchedulerEnabled {
		scheduler := application.NewScheduler(syncService, platforms.Providers(), cfg.SyncInterval, logger)
		go scheduler.Run(ctx)
	}

	router := api.NewRouter(api.Dependencies{
		Verifier:       shopifyinfra.NewWebhookVerifier(cfg.ShopifyWebhookSecret),
		Dispatcher:     webhookDispatcher,
		WebhookLog:     productRepo,
		Installer:      connectionService,
		Syncer:         syncService,
		Metrics:        promMetrics,
		MetricsHandler: promMetrics.Handler(),
		APIKey:         cfg.APIKey,
		HealthStats:    connectionEvents.Stats,
	}, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Failed to shut down server")
		}
	}()

	logger.Info().Str("port", cfg.Port).Msg("Starting API server")
	logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
	logger.Info().Msg("Server stopped")
}

// newAnalyticsSink builds the sink selected by ANALYTICS_SINK
func newAnalyticsSink(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (ports.AnalyticsSink, error) {
	namespace := analytics.Namespace(cfg.GCPProjectID)

	switch cfg.AnalyticsSink {
	case config.SinkKafka:
		writer := analytics.NewKafkaWriter(cfg.KafkaBrokers)
		return analytics.NewKafkaSink(writer, namespace, cfg.KafkaTopic, logger), nil
	default:
		db, err := analytics.OpenDatabase(cfg.AnalyticsDatabaseURL, gormlogger.Warn)
		if err != nil {
			return nil, err
		}
		sink := analytics.NewSQLSink(db, namespace, logger)
		if err := sink.Migrate(ctx); err != nil {
			return nil, err
		}
		return sink, nil
	}
}
