package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/dermaline/clinic-platform/cmd/mainconfig"
	"github.com/dermaline/clinic-platform/internal/api/router"
	"github.com/dermaline/clinic-platform/internal/appointments"
	appconfig "github.com/dermaline/clinic-platform/internal/config"
	"github.com/dermaline/clinic-platform/internal/followup"
	"github.com/dermaline/clinic-platform/internal/gateway"
	"github.com/dermaline/clinic-platform/internal/http/handlers"
	"github.com/dermaline/clinic-platform/internal/intent"
	"github.com/dermaline/clinic-platform/internal/messagelog"
	"github.com/dermaline/clinic-platform/internal/notify"
	"github.com/dermaline/clinic-platform/internal/observability/metrics"
	"github.com/dermaline/clinic-platform/internal/pending"
	"github.com/dermaline/clinic-platform/internal/staff"
	"github.com/dermaline/clinic-platform/internal/webhook"
	"github.com/dermaline/clinic-platform/pkg/logging"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"version", version,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to reach database", "error", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, staff cache disabled", "error", err)
			redisClient = nil
		}
	}

	location, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		logger.Warn("invalid clinic timezone, falling back to UTC", "tz", cfg.ClinicTimezone)
		location = time.UTC
	}

	// Repositories.
	apptRepo := appointments.NewRepository(pool)
	msgLog := messagelog.NewStore(pool)
	pendingRepo := pending.NewRepository(pool)
	followupStore := followup.NewStore(pool)
	staffRepo := staff.NewRepository(pool)
	directory := staff.NewCachedDirectory(staffRepo, redisClient, cfg.StaffCacheTTL, logger)

	// AWS config is only loaded when a component needs it.
	var awsCfg aws.Config
	awsLoaded := false
	loadAWS := func() (aws.Config, bool) {
		if awsLoaded {
			return awsCfg, true
		}
		c, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			return aws.Config{}, false
		}
		awsCfg, awsLoaded = c, true
		return awsCfg, true
	}

	// Outbound WhatsApp gateway, wrapped in a circuit breaker.
	var messenger gateway.Messenger
	if cfg.GatewayBaseURL != "" {
		client, err := gateway.New(gateway.Config{
			BaseURL: cfg.GatewayBaseURL,
			Token:   cfg.GatewayToken,
			Timeout: cfg.GatewayTimeout,
			Logger:  logger.Logger,
		})
		if err != nil {
			logger.Error("failed to build WhatsApp gateway client", "error", err)
			os.Exit(1)
		}
		messenger = gateway.NewBreakerMessenger(client, logger.Logger)
	} else {
		logger.Warn("WHATSAPP_GATEWAY_URL not set, outbound replies disabled")
	}

	// Intent classifier: a remote primary when configured, with the keyword
	// fallback always behind it.
	var primary intent.Classifier
	switch cfg.ClassifierProvider {
	case "bedrock":
		if awsConfig, ok := loadAWS(); ok {
			bc, err := intent.NewBedrockClassifier(bedrockruntime.NewFromConfig(awsConfig), cfg.BedrockModelID)
			if err != nil {
				logger.Error("failed to build Bedrock classifier", "error", err)
			} else {
				primary = bc
			}
		}
	case "http":
		if cfg.ClassifierURL != "" {
			hc, err := intent.NewHTTPClassifier(intent.HTTPConfig{
				Endpoint: cfg.ClassifierURL,
				Token:    cfg.ClassifierToken,
			})
			if err != nil {
				logger.Error("failed to build HTTP classifier", "error", err)
			} else {
				primary = hc
			}
		}
	}
	if primary == nil {
		logger.Info("no remote classifier configured, using keyword fallback only")
	}
	classifier := intent.NewService(primary, logger)

	// Front-desk email alerts.
	var sender notify.EmailSender
	switch cfg.EmailProvider {
	case "sendgrid":
		sender = notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.NotifyFromEmail,
			FromName:  cfg.NotifyFromName,
		}, logger)
	case "ses":
		if awsConfig, ok := loadAWS(); ok {
			sender = notify.NewSESSender(sesv2.NewFromConfig(awsConfig), notify.SESConfig{
				FromEmail: cfg.NotifyFromEmail,
				FromName:  cfg.NotifyFromName,
			}, logger)
		}
	}
	if sender == nil {
		sender = notify.NewStubEmailSender(logger)
	}
	alerter := notify.NewService(sender, notify.Config{
		ClinicName:     cfg.ClinicName,
		FrontDeskEmail: cfg.FrontDeskEmail,
	}, logger)

	// Metrics.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	orchestrator := webhook.NewOrchestrator(webhook.Deps{
		Log:        msgLog,
		Appts:      apptRepo,
		Requests:   pendingRepo,
		Followups:  followupStore,
		Directory:  directory,
		Messenger:  messenger,
		Classifier: classifier,
		Alerter:    alerter,
		Metrics:    webhookMetrics,
		Logger:     logger,
	}, webhook.Settings{
		ClinicName:      cfg.ClinicName,
		Location:        location,
		OpenHour:        cfg.ClinicOpenHour,
		CloseHour:       cfg.ClinicCloseHour,
		CountryCode:     cfg.PhoneCountryCode,
		DuplicateWindow: cfg.DuplicateWindow,
	})

	routerCfg := &router.Config{
		Logger:           logger,
		WebhookHandler:   webhook.NewHandler(orchestrator, webhookMetrics, logger),
		HealthHandler:    handlers.NewHealthHandler(pool, version),
		AdminHandler:     handlers.NewAdminHandler(pendingRepo, msgLog, cfg.PhoneCountryCode, logger),
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminJWTSecret:   cfg.AdminJWTSecret,
		WebhookRateLimit: cfg.WebhookRateLimit,
		WebhookRateBurst: cfg.WebhookRateBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
