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

	"github.com/carevoice/backend/internal/adapters/database"
	"github.com/carevoice/backend/internal/adapters/events"
	"github.com/carevoice/backend/internal/api/handlers"
	"github.com/carevoice/backend/internal/api/routes"
	"github.com/carevoice/backend/internal/application/services"
	"github.com/carevoice/backend/internal/domain/providers"
	"github.com/carevoice/backend/internal/infrastructure/clients/calllogapi"
	"github.com/carevoice/backend/internal/infrastructure/clients/openai"
	"github.com/carevoice/backend/internal/infrastructure/clients/postgres"
	"github.com/carevoice/backend/internal/infrastructure/clients/redis"
	"github.com/carevoice/backend/internal/infrastructure/observability"
	"github.com/carevoice/backend/pkg/config"
	"github.com/carevoice/backend/pkg/secrets"
	redislib "github.com/redis/go-redis/v9"
)

func main() {
	// Pull secrets (API tokens, DB password) from Vault into the environment
	// before the config reads it
	vaultCfg := secrets.LoadVaultConfigFromEnv("")
	if result, err := secrets.ApplyVaultSecrets(context.Background(), vaultCfg); err != nil {
		log.Printf("Warning: Failed to load Vault secrets: %v", err)
	} else if result.Enabled {
		log.Printf("Loaded %d secrets from Vault path %s", result.Loaded, result.Path)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	// Initialize adapters
	callAdapter := database.NewCallAdapter(pgClient)
	checkinAdapter := database.NewCheckInAdapter(pgClient)
	userAdapter := database.NewUserAdapter(pgClient)

	// Initialize event bus
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Redis event bus initialized successfully")
	}

	// Initialize call log API client
	var callLogClient calllogapi.Client
	if cfg.CallLog.APIToken != "" {
		callLogClient = calllogapi.NewClient(cfg.CallLog.BaseURL, cfg.CallLog.APIToken, cfg.CallLog.Timeout)
		log.Println("Call log API client initialized successfully")
	} else {
		log.Println("Warning: CALLLOG_API_TOKEN not set, call sync disabled")
	}

	// Initialize extraction backend
	var extractor providers.TranscriptExtractor
	if cfg.OpenAI.APIKey != "" {
		openaiClient, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			log.Printf("Warning: Failed to initialize OpenAI client: %v", err)
		} else {
			extractor = openaiClient
			log.Println("OpenAI client initialized successfully")
		}
	} else {
		log.Println("Warning: OPENAI_API_KEY not set, extraction will use fallback summaries")
	}

	// Initialize services
	syncService := services.NewCallSyncService(callLogClient, callAdapter, userAdapter, metrics, cfg.CallLog.PageSize)
	extractionService := services.NewExtractionService(extractor, userAdapter, cfg.OpenAI.Model)
	processingService := services.NewCallProcessingService(
		callAdapter,
		checkinAdapter,
		extractionService,
		eventBus,
		metrics,
		cfg.Pipeline.BatchLimit,
	)

	// Start the background processing loop
	go processingService.StartPeriodicProcessing(ctx, cfg.Pipeline.ProcessInterval)

	// Initialize handlers
	var rawRedis *redislib.Client
	if redisClient != nil {
		rawRedis = redisClient.Client()
	}
	pipelineHandler := handlers.NewPipelineHandler(syncService, processingService, rawRedis, 0)

	healthHandler := handlers.NewHealthHandler(pgClient, nil)
	if redisClient != nil {
		healthHandler = handlers.NewHealthHandler(pgClient, redisClient)
	}

	// Set up router
	router := routes.NewRouter(pipelineHandler, healthHandler, metrics)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Stop the processing loop before closing its dependencies
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Server stopped")
}
