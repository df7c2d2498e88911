/**
 * @description
 * This is the main entry point for the storefront-service.
 * It initializes and wires together all the components of the application:
 * configuration, database connection pool, repository, the application
 * services, the event producer, and the HTTP router. Finally, it starts the
 * HTTP server and waits for a shutdown signal.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5/pgxpool: PostgreSQL connection pooling.
 * - github.com/joho/godotenv: Used to load environment variables from a .env file during local development.
 */
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/gamevault/storefront-service/internal/api"
	"github.com/gamevault/storefront-service/internal/app"
	"github.com/gamevault/storefront-service/internal/config"
	"github.com/gamevault/storefront-service/internal/store"
	"github.com/gamevault/storefront-service/pkg/rabbitmq"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load .env for local development; in production the environment is set directly.
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Establish connection to the PostgreSQL database with connection pool configuration
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// IMPORTANT: Disable prepared statements to work with PgBouncer transaction pooling
	// Use simple protocol to avoid statement cache errors (SQLSTATE 42P05)
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// Connect the event producer; fall back to a no-op publisher so the
	// storefront keeps serving requests when RabbitMQ is down.
	var producer rabbitmq.Publisher
	if cfg.RabbitMQURL != "" {
		p, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
		if err != nil {
			logger.Warn("failed to connect to RabbitMQ, events will be skipped", "error", err)
			producer = &rabbitmq.EventProducerFallback{}
		} else {
			producer = p
		}
	} else {
		producer = &rabbitmq.EventProducerFallback{}
	}
	defer producer.Close()

	// Initialize application layers
	repository := store.NewPostgresRepository(dbpool)
	catalogSvc := app.NewCatalogService(repository)
	entitlementSvc := app.NewEntitlementService(repository)
	cartSvc := app.NewCartService(repository)
	purchaseSvc := app.NewPurchaseService(repository, entitlementSvc, producer)
	checkoutSvc := app.NewCheckoutService(repository, purchaseSvc, producer)
	subscriptionSvc := app.NewSubscriptionService(repository)

	handler := api.NewHandler(catalogSvc, entitlementSvc, cartSvc, checkoutSvc, purchaseSvc, subscriptionSvc)
	router := api.NewRouter(handler, cfg.AuthJWKSURL)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}
