package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coldspark/outreach/config"
	"github.com/coldspark/outreach/pkg/ai/llm"
	"github.com/coldspark/outreach/pkg/api/handlers"
	"github.com/coldspark/outreach/pkg/dispatch"
	"github.com/coldspark/outreach/pkg/domain"
	"github.com/coldspark/outreach/pkg/jobs"
	"github.com/coldspark/outreach/pkg/logger"
	"github.com/coldspark/outreach/pkg/mailer"
	"github.com/coldspark/outreach/pkg/metrics"
	"github.com/coldspark/outreach/pkg/personalize"
	"github.com/coldspark/outreach/pkg/qualitygate"
	"github.com/coldspark/outreach/pkg/secrets"
	"github.com/coldspark/outreach/pkg/store/memory"
	"github.com/coldspark/outreach/pkg/store/postgres"
	"github.com/coldspark/outreach/pkg/warmup"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Secrets manager and the credential cipher
	secretsManager, err := secrets.NewManager(secrets.Config{
		Backend:       cfg.SecretsBackend,
		AWSRegion:     cfg.AWSRegion,
		CacheDuration: 5 * time.Minute,
	})
	if err != nil {
		log.Fatalf("❌ Failed to initialize secrets manager: %v", err)
	}
	defer secretsManager.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	cipher, err := secrets.NewCipher(ctx, secretsManager, cfg.CredentialKeyName)
	cancel()
	if err != nil {
		log.Fatalf("❌ Failed to load credential key: %v", err)
	}

	// Store backend
	var (
		stores   dispatch.Stores
		accounts domain.AccountStore
		counters domain.WarmupStore
	)
	switch cfg.StoreBackend {
	case "memory":
		log.Printf("💾 Using in-memory store (development mode)")
		mem := memory.New()
		stores = dispatch.Stores{Schedules: mem, Leads: mem, Progress: mem, SentMail: mem}
		accounts, counters = mem, mem
	default:
		pg, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		defer pg.Close()
		log.Printf("💾 Connected to PostgreSQL")
		stores = dispatch.Stores{Schedules: pg, Leads: pg, Progress: pg, SentMail: pg}
		accounts, counters = pg, pg
	}

	// LLM client (personalization and QA audit)
	var llmClient llm.LLMClient
	switch cfg.LLMProvider {
	case "ollama":
		log.Printf("🤖 Using Ollama LLM (model: %s)", cfg.LLMModel)
		llmClient = llm.NewOllamaClient(llm.OllamaConfig{
			BaseURL:     cfg.LLMBaseURL,
			Model:       cfg.LLMModel,
			Temperature: float32(cfg.LLMTemperature),
			MaxTokens:   cfg.LLMMaxTokens,
		}, appLogger)
	default:
		log.Printf("🤖 Using OpenAI-compatible LLM (model: %s)", cfg.LLMModel)
		llmClient = llm.NewOpenAIClient(llm.Config{
			APIKey:      cfg.LLMAPIKey,
			BaseURL:     cfg.LLMBaseURL,
			Model:       cfg.LLMModel,
			Temperature: float32(cfg.LLMTemperature),
			MaxTokens:   cfg.LLMMaxTokens,
		}, appLogger)
	}

	// Prometheus metrics
	prometheusMetrics := metrics.New()
	log.Printf("✅ Prometheus metrics initialized")

	// Wire the dispatch pipeline
	transport := mailer.NewSMTPTransport(0)
	engine := personalize.NewEngine(llmClient, stores.Leads, appLogger)
	gate := qualitygate.NewGate(llmClient, appLogger)

	dispatcher := dispatch.New(stores, engine, gate, transport, cipher, dispatch.Options{
		BatchSize:   cfg.DispatchBatchSize,
		RetryFailed: cfg.DispatchRetryFailed,
		Metrics:     prometheusMetrics,
		Logger:      appLogger,
	})

	warmupController := warmup.New(accounts, counters, transport, cipher, warmup.Options{
		Recipients: cfg.WarmupRecipients,
		Metrics:    prometheusMetrics,
		Logger:     appLogger,
	})

	// Cron scheduler
	cronManager := jobs.NewCronManager(dispatcher, warmupController, log.Default())
	err = cronManager.SetupJobs(
		time.Duration(cfg.DispatchIntervalMinutes)*time.Minute,
		time.Duration(cfg.WarmupIntervalMinutes)*time.Minute,
	)
	if err != nil {
		log.Fatalf("❌ Failed to set up cron jobs: %v", err)
	}
	cronManager.Start()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("[%s] %s - Status: %d", c.Request().Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
		}))
	}

	e.Use(prometheusMetrics.Middleware())

	// Health check endpoints (public)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "Outreach Dispatch API",
			"version":     "0.1.0",
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status": "healthy",
		})
	})

	// Prometheus metrics endpoint (public)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	v1 := e.Group("/api/v1")

	jobsHandler := handlers.NewJobsHandler(dispatcher, warmupController)
	v1.POST("/jobs/dispatch", jobsHandler.TriggerDispatchHandler)
	v1.POST("/jobs/warmup", jobsHandler.TriggerWarmupHandler)

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 Outreach Dispatch API starting on %s", address)
	log.Printf("📝 Log level: %s, Log format: %s", cfg.LogLevel, cfg.LogFormat)
	log.Printf("⏰ Cron jobs: dispatch every %dm, warmup every %dm",
		cfg.DispatchIntervalMinutes, cfg.WarmupIntervalMinutes)
	log.Printf("📬 Dispatch batch size: %d (retry failed: %v)", cfg.DispatchBatchSize, cfg.DispatchRetryFailed)
	log.Printf("🔥 Warmup recipient pool: %d addresses", len(cfg.WarmupRecipients))

	// Graceful shutdown
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	cronManager.Stop()
	log.Println("✅ Cron jobs stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}
