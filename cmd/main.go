package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/mstgnz/carepay/handler"
	"github.com/mstgnz/carepay/infra/auth"
	"github.com/mstgnz/carepay/infra/config"
	"github.com/mstgnz/carepay/infra/conn"
	"github.com/mstgnz/carepay/infra/logger"
	"github.com/mstgnz/carepay/infra/middle"
	"github.com/mstgnz/carepay/infra/opensearch"
	"github.com/mstgnz/carepay/infra/store"
	"github.com/mstgnz/carepay/infra/validate"
	"github.com/mstgnz/carepay/merchant"
	"github.com/mstgnz/carepay/payment"
	"github.com/mstgnz/carepay/queue"
	"github.com/mstgnz/carepay/razorpay"
	"github.com/mstgnz/carepay/router"
	"github.com/mstgnz/carepay/webhook"
)

const version = "1.0.0"

func main() {
	// .env is optional; deployments inject the environment directly
	_ = godotenv.Load(".env")

	cfg := config.GetAppConfig()

	// interfaces stay nil unless OpenSearch is up
	var (
		sink         logger.EventSink
		recorder     handler.DeliveryRecorder
		deliveryLogs handler.DeliveryLogReader
	)
	if cfg.EnableLogging {
		osClient, err := opensearch.NewClient(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize OpenSearch client, continuing without it: %v\n", err)
		} else {
			osLogger := opensearch.NewLogger(osClient)
			sink, recorder, deliveryLogs = osLogger, osLogger, osLogger
		}
	}
	logger.InitGlobalLogger(sink, cfg.Environment, logger.ParseLevel(cfg.LoggingLevel))

	if cfg.RazorpayWebhookSecret == "" {
		logger.Warn("RAZORPAY_WEBHOOK_SECRET is empty, every webhook delivery will be rejected")
	}

	db, err := conn.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to open database", err)
	}
	defer db.CloseDatabase()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := store.New(db)
	if err := st.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", err)
	}

	gateway, err := razorpay.NewClient(razorpay.Config{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		BaseURL:   cfg.RazorpayBaseURL,
		Timeout:   cfg.RazorpayTimeout,
	})
	if err != nil {
		logger.Fatal("Failed to create Razorpay client", err)
	}

	tokens, err := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		logger.Fatal("Failed to create JWT service", err)
	}

	validator := validate.CustomValidate()
	accounts := merchant.NewService(st, st, gateway, validator)
	payments := payment.NewService(gateway, st, accounts, validator, cfg.RazorpayCurrency)

	var notifier webhook.Notifier
	if cfg.RebalanceQueueURL != "" {
		publisher, err := queue.NewSQSPublisher(ctx, cfg.RebalanceQueueURL, cfg.SQSEndpoint)
		if err != nil {
			logger.Fatal("Failed to create rebalance queue publisher", err)
		}
		relay := queue.NewRelay(st, publisher, queue.RelayConfig{PollInterval: cfg.RebalancePollInterval})
		notifier = relay
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Rebalance relay stopped", err)
			}
		}()
		logger.Info("Rebalance relay started", logger.LogContext{Fields: map[string]any{"queue_url": cfg.RebalanceQueueURL}})
	} else {
		logger.Warn("REBALANCE_QUEUE_URL is empty, rebalance tasks stay in the outbox")
	}

	dispatcher := webhook.NewDispatcher(
		cfg.RazorpayWebhookSecret,
		webhook.NewCorrelator(st),
		webhook.NewApplier(st, notifier),
	)

	handlers := router.Handlers{
		Health:       handler.NewHealthHandler(st, cfg.Environment, version),
		PaymentLinks: handler.NewPaymentLinkHandler(payments),
		QRCodes:      handler.NewQRCodeHandler(payments),
		Webhooks:     handler.NewWebhookHandler(dispatcher, recorder),
		Accounts:     handler.NewRazorpayAccountHandler(accounts),
		Logs:         handler.NewLogsHandler(deliveryLogs),
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middle.RequestLoggingMiddleware())
	r.Use(middle.PanicRecoveryMiddleware())
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middle.SecurityHeadersMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middle.RequestValidationMiddleware())

	limiter := middle.NewRateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute)
	router.Routes(r, handlers, tokens, limiter)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", err)
		}
	}()

	logger.Info("API is running", logger.LogContext{Fields: map[string]any{"port": cfg.Port, "driver": db.Driver}})

	<-ctx.Done()

	logger.Info("Shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", err)
	}
}
