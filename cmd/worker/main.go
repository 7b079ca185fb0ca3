package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"coinwise/internal/config"
	"coinwise/internal/database"
	"coinwise/internal/logger"
	"coinwise/internal/parser"
	"coinwise/internal/queue"
	"coinwise/internal/services"
)

// The worker consumes statement ingest jobs from the broker and runs the
// parsing pipeline. It is only needed when the API is configured with an
// AMQP_URL; without a broker the API processes uploads inline.
func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil && err != context.Canceled {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL must be set for the worker")
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	statementParser, err := parser.NewGeminiParser(ctx, appConfig.GeminiAPIKey, appConfig.GeminiModel)
	if err != nil {
		return fmt.Errorf("failed to create statement parser: %w", err)
	}

	queueClient, err := queue.NewClient(appConfig.AMQPURL, appConfig.AMQPExchange, appConfig.AMQPQueue)
	if err != nil {
		return fmt.Errorf("failed to connect to message broker: %w", err)
	}
	defer queueClient.Close()

	db := dbManager.DB()
	userService := services.NewUserService(db)
	ledgerService := services.NewLedgerService(db)

	// The worker never re-queues, so it gets no publisher.
	ingestService := services.NewIngestService(db, statementParser, ledgerService, userService, nil)

	log.Infow("worker started", "queue", appConfig.AMQPQueue)

	return queueClient.ConsumeIngest(ctx, func(msg *queue.IngestMessage) error {
		return ingestService.ProcessUpload(ctx, msg.UploadID)
	})
}
