package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carevoice/backend/internal/adapters/database"
	"github.com/carevoice/backend/internal/adapters/events"
	"github.com/carevoice/backend/internal/application/services"
	"github.com/carevoice/backend/internal/domain/providers"
	"github.com/carevoice/backend/internal/infrastructure/clients/calllogapi"
	"github.com/carevoice/backend/internal/infrastructure/clients/openai"
	"github.com/carevoice/backend/internal/infrastructure/clients/postgres"
	"github.com/carevoice/backend/internal/infrastructure/clients/redis"
	"github.com/carevoice/backend/internal/infrastructure/observability"
	"github.com/carevoice/backend/pkg/config"
	"github.com/carevoice/backend/pkg/secrets"
)

// Headless pipeline runner: syncs the provider call log and processes
// unprocessed calls on an interval, with no HTTP surface.
func main() {
	vaultCfg := secrets.LoadVaultConfigFromEnv("")
	if result, err := secrets.ApplyVaultSecrets(context.Background(), vaultCfg); err != nil {
		log.Printf("Warning: Failed to load Vault secrets: %v", err)
	} else if result.Enabled {
		log.Printf("Loaded %d secrets from Vault path %s", result.Loaded, result.Path)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-worker", cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName+"-worker", cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
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
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()

	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	callAdapter := database.NewCallAdapter(pgClient)
	checkinAdapter := database.NewCheckInAdapter(pgClient)
	userAdapter := database.NewUserAdapter(pgClient)

	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
	}

	var callLogClient calllogapi.Client
	if cfg.CallLog.APIToken != "" {
		callLogClient = calllogapi.NewClient(cfg.CallLog.BaseURL, cfg.CallLog.APIToken, cfg.CallLog.Timeout)
	}

	var extractor providers.TranscriptExtractor
	if cfg.OpenAI.APIKey != "" {
		openaiClient, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			log.Printf("Warning: Failed to initialize OpenAI client: %v", err)
		} else {
			extractor = openaiClient
		}
	}

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

	// One sync on startup so the first processing pass has work to do
	if callLogClient != nil {
		if summary, err := syncService.FetchAndSync(ctx, ""); err != nil {
			log.Printf("Initial sync failed: %v", err)
		} else {
			log.Printf("Initial sync: fetched=%d synced=%d skipped=%d", summary.Fetched, summary.Synced, summary.Skipped)
		}
	}

	go processingService.StartPeriodicProcessing(ctx, cfg.Pipeline.ProcessInterval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Worker shutting down...")
	cancel()

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Worker stopped")
}
