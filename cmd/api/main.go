package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rezahawari/qurban-marketplace/pkg/cloudevents"
	"github.com/rezahawari/qurban-marketplace/pkg/idempotency"
	"github.com/rezahawari/qurban-marketplace/pkg/kafka"
	"github.com/rezahawari/qurban-marketplace/pkg/logging"
	"github.com/rezahawari/qurban-marketplace/pkg/metrics"
	"github.com/rezahawari/qurban-marketplace/pkg/middleware"
	"github.com/rezahawari/qurban-marketplace/pkg/mongodb"
	"github.com/rezahawari/qurban-marketplace/pkg/outbox"
	"github.com/rezahawari/qurban-marketplace/pkg/tracing"

	"github.com/rezahawari/qurban-marketplace/internal/api/handlers"
	"github.com/rezahawari/qurban-marketplace/internal/application"
	"github.com/rezahawari/qurban-marketplace/internal/config"
	"github.com/rezahawari/qurban-marketplace/internal/domain"
	"github.com/rezahawari/qurban-marketplace/internal/infrastructure/memory"
	mongoRepo "github.com/rezahawari/qurban-marketplace/internal/infrastructure/mongodb"
)

const serviceName = "qurban-marketplace"

// Storage drivers
const (
	DriverMemory  = "memory"
	DriverMongoDB = "mongodb"
)

type mongoClient interface {
	Database() *mongo.Database
	Close(context.Context) error
	HealthCheck(context.Context) error
}

type eventProducer interface {
	outbox.EventProducer
	Close() error
}

type outboxPublisher interface {
	Start(context.Context) error
	Stop() error
}

var newMongoClient = func(ctx context.Context, cfg *mongodb.Config, m *metrics.Metrics, logger *logging.Logger) (mongoClient, error) {
	return mongodb.NewClient(ctx, cfg, m, logger)
}

var newEventProducer = func(cfg *kafka.Config, m *metrics.Metrics, logger *logging.Logger) eventProducer {
	return kafka.NewProductionProducer(cfg, m, logger)
}

var newOutboxPublisher = func(repo outbox.Repository, producer eventProducer, logger *logging.Logger, m *metrics.Metrics, cfg *outbox.PublisherConfig) outboxPublisher {
	return outbox.NewPublisher(repo, producer, logger, m, cfg)
}

var newMetrics = metrics.New

var initTracing = tracing.Initialize

var startHTTPServer = func(srv *http.Server) error {
	return srv.ListenAndServe()
}

func main() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(context.Background(), signalCh); err != nil {
		os.Exit(1)
	}
}

// storage bundles the repositories of one driver
type storage struct {
	products    domain.ProductRepository
	fees        domain.FeeRuleRepository
	orders      domain.OrderRepository
	users       domain.UserRepository
	articles    domain.ArticleRepository
	outbox      outbox.Repository
	idempotency idempotency.Store
	ready       func(context.Context) error
	close       func(context.Context) error
}

func run(ctx context.Context, signalCh <-chan os.Signal) error {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting qurban-marketplace API")

	cfg := loadConfig()

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = cfg.OTLPEndpoint
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = cfg.TracingEnabled

	tracerProvider, err := initTracing(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "enabled", tracingConfig.Enabled, "endpoint", tracingConfig.OTLPEndpoint)
	}

	m := newMetrics(metrics.DefaultConfig(serviceName))

	seed, err := loadSeed(cfg.CatalogFile)
	if err != nil {
		logger.WithError(err).Error("Failed to load catalog", "file", cfg.CatalogFile)
		return err
	}

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceMarketplace)

	store, err := openStorage(ctx, cfg, m, logger, eventFactory)
	if err != nil {
		logger.WithError(err).Error("Failed to open storage", "driver", cfg.StorageDriver)
		return err
	}
	defer func() {
		if err := store.close(context.Background()); err != nil {
			logger.WithError(err).Warn("Failed to close storage")
		}
	}()
	logger.Info("Storage ready", "driver", cfg.StorageDriver)

	seeder := application.NewSeeder(store.products, store.fees, store.orders, store.users, store.articles, logger)
	if err := seeder.Seed(ctx, seed); err != nil {
		logger.WithError(err).Error("Failed to seed storage")
		return err
	}
	orderIDs := domain.NewOrderIDGenerator()
	if err := seeder.ReserveOrderIDs(ctx, orderIDs); err != nil {
		logger.WithError(err).Error("Failed to reserve order IDs")
		return err
	}

	if cfg.KafkaEnabled {
		producer := newEventProducer(cfg.Kafka, m, logger)
		defer producer.Close()

		publisher := newOutboxPublisher(store.outbox, producer, logger, m, outbox.DefaultPublisherConfig())
		if err := publisher.Start(ctx); err != nil {
			logger.WithError(err).Error("Failed to start outbox publisher")
			return err
		}
		defer func() {
			if err := publisher.Stop(); err != nil {
				logger.WithError(err).Warn("Failed to stop outbox publisher")
			}
		}()
		logger.Info("Outbox publisher started", "brokers", cfg.Kafka.Brokers)
	} else {
		logger.Info("Kafka disabled, order events stay in the outbox")
	}

	ids := application.NewIDGenerator()
	catalog := application.NewCatalogService(store.products, store.fees, seed.Locations, ids, logger, m)
	handler := handlers.NewHandler(handlers.Services{
		Catalog:  catalog,
		Sessions: application.NewSessionService(catalog, memory.NewSessionStore(cfg.SessionCapacity, cfg.SessionTTL), store.orders, orderIDs, logger, m),
		Orders:   application.NewOrderService(store.orders, logger, m),
		Users:    application.NewUserService(store.users, store.orders, ids, logger),
		Articles: application.NewArticleService(store.articles, ids, logger),
		Stats:    application.NewStatsService(store.orders, store.users, store.articles),
	}, logger)

	router := newRouter(handler, store, m, logger)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := startHTTPServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", cfg.ServerAddr)

	<-signalCh
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
	return nil
}

func newRouter(handler *handlers.Handler, store *storage, m *metrics.Metrics, logger *logging.Logger) *gin.Engine {
	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger.Logger))
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.SimpleTracingMiddleware(serviceName))

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, store.ready))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	idempotencyConfig := idempotency.DefaultConfig(store.idempotency)
	idempotencyConfig.ScopeExtractor = handlers.CallerScope
	idempotencyConfig.Logger = logger
	idempotencyConfig.Metrics = m

	handler.RegisterRoutes(router, idempotency.Middleware(idempotencyConfig))
	return router
}

func openStorage(ctx context.Context, cfg *Config, m *metrics.Metrics, logger *logging.Logger, eventFactory *cloudevents.EventFactory) (*storage, error) {
	switch cfg.StorageDriver {
	case DriverMemory:
		outboxRepo := outbox.NewMemoryRepository()
		return &storage{
			products:    memory.NewProductRepository(),
			fees:        memory.NewFeeRuleRepository(),
			orders:      memory.NewOrderRepository(outboxRepo, eventFactory),
			users:       memory.NewUserRepository(),
			articles:    memory.NewArticleRepository(),
			outbox:      outboxRepo,
			idempotency: idempotency.NewMemoryStore(10000, idempotency.DefaultRetentionPeriod),
			ready:       func(context.Context) error { return nil },
			close:       func(context.Context) error { return nil },
		}, nil

	case DriverMongoDB:
		client, err := newMongoClient(ctx, cfg.MongoDB, m, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		db := client.Database()

		idempotencyStore := idempotency.NewMongoStore(db)
		if err := idempotencyStore.EnsureIndexes(ctx); err != nil {
			logger.WithError(err).Warn("Failed to create idempotency indexes")
		}

		orders := mongoRepo.NewOrderRepository(db, eventFactory)
		return &storage{
			products:    mongoRepo.NewProductRepository(db),
			fees:        mongoRepo.NewFeeRuleRepository(db),
			orders:      orders,
			users:       mongoRepo.NewUserRepository(db),
			articles:    mongoRepo.NewArticleRepository(db),
			outbox:      orders.GetOutboxRepository(),
			idempotency: idempotencyStore,
			ready:       client.HealthCheck,
			close:       client.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func loadSeed(path string) (*config.Seed, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

// Config holds application configuration
type Config struct {
	ServerAddr      string
	StorageDriver   string
	CatalogFile     string
	SessionTTL      time.Duration
	SessionCapacity int
	KafkaEnabled    bool
	TracingEnabled  bool
	OTLPEndpoint    string
	MongoDB         *mongodb.Config
	Kafka           *kafka.Config
}

func loadConfig() *Config {
	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = getEnv("MONGODB_URI", mongoConfig.URI)
	mongoConfig.Database = getEnv("MONGODB_DATABASE", mongoConfig.Database)

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = splitList(getEnv("KAFKA_BROKERS", strings.Join(kafkaConfig.Brokers, ",")))
	kafkaConfig.ClientID = serviceName

	return &Config{
		ServerAddr:      getEnv("SERVER_ADDR", ":8080"),
		StorageDriver:   strings.ToLower(getEnv("STORAGE_DRIVER", DriverMemory)),
		CatalogFile:     getEnv("CATALOG_FILE", ""),
		SessionTTL:      getDuration("SESSION_TTL", 2*time.Hour),
		SessionCapacity: 10000,
		KafkaEnabled:    getEnv("KAFKA_ENABLED", "false") == "true",
		TracingEnabled:  getEnv("TRACING_ENABLED", "false") == "true",
		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		MongoDB:         mongoConfig,
		Kafka:           kafkaConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
