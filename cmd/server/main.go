package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/VedantBankewar/payment-gateway/internal/cart"
	"github.com/VedantBankewar/payment-gateway/internal/catalog"
	"github.com/VedantBankewar/payment-gateway/internal/gateway"
	"github.com/VedantBankewar/payment-gateway/internal/httpapi"
	"github.com/VedantBankewar/payment-gateway/internal/ledger"
	"github.com/VedantBankewar/payment-gateway/internal/order"
	"github.com/VedantBankewar/payment-gateway/internal/publisher"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	MongoURI    string
	MongoDBName string
	RedisAddr   string
	RedisPass   string

	KafkaBrokers string

	GatewayBaseURL   string
	GatewayKeyID     string
	GatewayKeySecret string
	GatewayTimeout   time.Duration

	Currency string
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "cartdb"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:   getEnv("REDIS_PASSWORD", ""),

		KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),

		GatewayBaseURL:   getEnv("GATEWAY_BASE_URL", "http://localhost:9090"),
		GatewayKeyID:     getEnv("GATEWAY_KEY_ID", "key_test"),
		GatewayKeySecret: getEnv("GATEWAY_KEY_SECRET", "secret_test"),
		GatewayTimeout:   10 * time.Second,

		Currency: getEnv("CURRENCY", "INR"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func loadDBCredentials() (*order.Credentials, error) {
	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, err
	}
	return &order.Credentials{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              port,
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "payments"),
		MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/order/migrations"),
	}, nil
}

func main() {
	cfg := loadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx := context.Background()

	// Postgres holds orders, billing records and the outbox.
	creds, err := loadDBCredentials()
	if err != nil {
		logger.Fatal("invalid database config", zap.Error(err))
	}
	repo, err := order.NewPostgresRepository(creds)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations completed")

	// MongoDB holds the session carts.
	mongoDB, err := cart.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoDB.Client().Disconnect(ctx)

	cartRepo := cart.NewMongoRepository(mongoDB)
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		logger.Fatal("failed to create cart indexes", zap.Error(err))
	}
	logger.Info("connected to MongoDB", zap.String("uri", cfg.MongoURI))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	logger.Info("redis ping succeeded")

	products := catalog.NewMemoryStore()
	cartService := cart.NewService(cartRepo, cart.NewRedisCache(redisClient), products, logger)

	gatewayClient := gateway.NewClient(
		cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret, cfg.GatewayTimeout, logger)

	billingStore := ledger.NewPostgresStore(repo.DB())
	orchestrator := order.NewOrchestrator(
		repo, cartService, gatewayClient, billingStore,
		cfg.Currency, cfg.GatewayTimeout, logger)

	// Outbox poller: publishes payment events and re-clears carts for paid
	// orders that crashed between commit and clear.
	poller := publisher.NewOutboxPoller(repo, cartService, logger, cfg.KafkaBrokers)
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(pollerCtx)
	}()

	router := httpapi.NewRouter(
		httpapi.NewCartHandler(cartService, cfg.RequestTimeout),
		httpapi.NewProductHandler(products, cfg.RequestTimeout),
		httpapi.NewCheckoutHandler(orchestrator, cfg.RequestTimeout),
		httpapi.NewHistoryHandler(billingStore, cfg.RequestTimeout),
		cfg.RequestTimeout,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "payment-gateway"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	pollerCancel()
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		logger.Info("poller stopped cleanly")
	case <-shutdownCtx.Done():
		logger.Warn("poller didn't stop in time")
	}

	logger.Info("server exited")
}
