package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/embla/internal"
	"github.com/dukerupert/embla/internal/billing"
	"github.com/dukerupert/embla/internal/document"
	"github.com/dukerupert/embla/internal/email"
	"github.com/dukerupert/embla/internal/handler/storefront"
	"github.com/dukerupert/embla/internal/handler/webhook"
	"github.com/dukerupert/embla/internal/postgres"
	"github.com/dukerupert/embla/internal/router"
	"github.com/dukerupert/embla/internal/routes"
	"github.com/dukerupert/embla/internal/service"
	"github.com/dukerupert/embla/internal/telemetry"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for the application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)

	// Initialize Stripe billing provider
	logger.Info("Initializing Stripe billing provider...")
	billingProvider, err := billing.NewStripeProvider(cfg.Stripe.SecretKey)
	if err != nil {
		return fmt.Errorf("failed to initialize Stripe provider: %w", err)
	}

	// Initialize email notifier
	sender := email.NewSMTPSender(&email.SMTPConfig{
		Host:     cfg.Email.Host,
		Port:     int(cfg.Email.Port),
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		FromName: cfg.Email.FromName,
	}, logger)
	documents := document.NewTextGenerator()
	notifier := email.NewOrderNotifier(sender, documents, cfg.Email.From, cfg.Email.FromName, cfg.OrderNotificationEmails, logger)

	// Initialize services
	productService := service.NewProductService(store, logger)
	orderService := service.NewOrderService(store, logger, time.Now)
	checkoutService := service.NewCheckoutService(store, billingProvider, notifier, logger, cfg.BillingTimeout)
	reconcileService := service.NewReconcileService(store, notifier, logger)

	// Initialize Prometheus metrics
	metrics := telemetry.NewMetrics("embla")

	secureCookies := cfg.Env == "prod"

	// Build route dependencies
	orderHandler := storefront.NewOrderHandler(orderService, reconcileService, billingProvider, documents, metrics, logger)

	storefrontDeps := routes.StorefrontDeps{
		ProductHandler:  storefront.NewProductHandler(productService, logger),
		CartHandler:     storefront.NewCartHandler(productService, metrics, logger, secureCookies),
		CheckoutHandler: storefront.NewCheckoutHandler(checkoutService, metrics, logger, secureCookies),
		OrderHandler:    orderHandler,
	}

	fulfillmentDeps := routes.FulfillmentDeps{
		OrderHandler: orderHandler,
	}

	stripeWebhookHandler := webhook.NewStripeHandler(billingProvider, reconcileService, cfg.Stripe.WebhookSecret, metrics, logger)
	webhookDeps := routes.WebhookDeps{
		StripeHandler: stripeWebhookHandler.HandleWebhook,
	}

	// Create router and register routes
	r := router.New(
		router.Recovery(logger),
		router.RequestID(),
		router.Logger(logger),
	)

	// Metrics endpoint (should be restricted via firewall in production)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	routes.RegisterStorefrontRoutes(r, storefrontDeps)
	routes.RegisterFulfillmentRoutes(r, fulfillmentDeps)
	routes.RegisterWebhookRoutes(r, webhookDeps)

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		logger.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
