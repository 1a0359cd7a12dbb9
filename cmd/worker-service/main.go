package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/assetforge/render-be/internal/artifact"
	"github.com/assetforge/render-be/internal/config"
	"github.com/assetforge/render-be/internal/jobstore"
	"github.com/assetforge/render-be/internal/queue"
	"github.com/assetforge/render-be/internal/worker"
	"github.com/assetforge/render-be/internal/worker/archive"
	"github.com/assetforge/render-be/internal/worker/pipeline"
	"github.com/assetforge/render-be/internal/worker/render"
	"github.com/assetforge/render-be/shared/logger"
	"github.com/assetforge/render-be/shared/postgresql"
	"github.com/assetforge/render-be/shared/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize job record store
	store, storeCleanup, err := initJobStore(&cfg.JobStore, &cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize job store: %w", err)
	}
	defer storeCleanup()

	// Initialize dispatch queue
	dispatchQueue, queueCleanup, err := initQueue(ctx, &cfg.Queue, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dispatch queue: %w", err)
	}
	defer queueCleanup()

	// Initialize artifact store
	artifacts, err := initArtifacts(ctx, &cfg.Storage, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	// Assemble the pipeline and dispatch loop
	renderPipeline := pipeline.New(
		artifacts,
		render.NewRegistry(),
		archive.NewZipArchiver(cfg.Worker.ZipCommand),
		pipeline.NewSlogReporter(appLogger.Logger),
		cfg.Worker.WorkspaceRoot,
		appLogger.Logger,
	)

	workerInstance := worker.New(dispatchQueue, store, renderPipeline, worker.Options{
		PollWait:     cfg.Worker.PollWait,
		IdleDelay:    cfg.Worker.IdleDelay,
		ErrorBackoff: cfg.Worker.ErrorBackoff,
	}, appLogger.Logger)

	// Start worker in a goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- workerInstance.Run(ctx)
	}()

	appLogger.Info("Worker service started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-errChan:
		if err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error("Worker error",
				slog.Any("error", err),
			)
			return err
		}
	}

	// Cancel context to stop the dispatch loop
	cancel()

	// Give the in-flight job time to finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	select {
	case <-errChan:
		appLogger.Info("Worker stopped gracefully")
	case <-shutdownCtx.Done():
		appLogger.Warn("Worker shutdown timeout exceeded, forcing exit")
	}

	appLogger.Info("Worker service shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initJobStore builds the configured job record store and returns a
// cleanup function for its underlying connection.
func initJobStore(cfg *config.JobStoreConfig, dbCfg *config.DatabaseConfig, logger *slog.Logger) (jobstore.Store, func(), error) {
	switch cfg.Driver {
	case "postgres":
		dbClient, err := postgresql.NewClient(&postgresql.Config{
			Host:            dbCfg.Host,
			Port:            dbCfg.Port,
			User:            dbCfg.User,
			Password:        dbCfg.Password,
			Database:        dbCfg.Database,
			SSLMode:         dbCfg.SSLMode,
			MaxOpenConns:    dbCfg.MaxOpenConns,
			MaxIdleConns:    dbCfg.MaxIdleConns,
			ConnMaxLifetime: dbCfg.ConnMaxLifetime,
			ConnMaxIdleTime: dbCfg.ConnMaxIdleTime,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return jobstore.NewPostgresStore(dbClient.GetDB(), logger), func() { dbClient.Close() }, nil
	case "memory":
		return jobstore.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown job_store driver: %q", cfg.Driver)
	}
}

// initQueue builds the configured dispatch queue and returns a cleanup
// function for its underlying connection.
func initQueue(ctx context.Context, cfg *config.QueueConfig, logger *slog.Logger) (queue.Queue, func(), error) {
	switch cfg.Driver {
	case "sqs":
		q, err := queue.NewSQSQueue(ctx, cfg.SQS, logger)
		if err != nil {
			return nil, nil, err
		}
		return q, func() {}, nil
	case "rabbitmq":
		client, err := rabbitmq.NewClient(&rabbitmq.Config{
			Host:              cfg.RabbitMQ.Host,
			Port:              cfg.RabbitMQ.Port,
			User:              cfg.RabbitMQ.User,
			Password:          cfg.RabbitMQ.Password,
			VHost:             cfg.RabbitMQ.VHost,
			QueueName:         cfg.RabbitMQ.QueueName,
			QueueDurable:      cfg.RabbitMQ.Durable,
			RetryAttempts:     cfg.RabbitMQ.Connection.RetryAttempts,
			RetryInterval:     cfg.RabbitMQ.Connection.RetryInterval,
			Heartbeat:         cfg.RabbitMQ.Connection.Heartbeat,
			ConnectionTimeout: cfg.RabbitMQ.Connection.DialTimeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return queue.NewRabbitQueue(client, logger), func() { client.Close() }, nil
	case "memory":
		// Single-process development only: nothing feeds this queue.
		return queue.NewMemoryQueue(5 * time.Minute), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown queue driver: %q", cfg.Driver)
	}
}

// initArtifacts builds the configured artifact store.
func initArtifacts(ctx context.Context, cfg *config.StorageConfig, logger *slog.Logger) (artifact.Store, error) {
	switch cfg.Driver {
	case "s3":
		return artifact.NewS3Store(ctx, cfg.Bucket, cfg.S3, logger)
	case "local":
		return artifact.NewLocalFSStore(cfg.Local.Root, cfg.Bucket), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", cfg.Driver)
	}
}
