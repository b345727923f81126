package main

import (
	"context"
	"errors"
	"os"
	"time"

	"rentaltax/internal/amqp"
	"rentaltax/internal/backend"
	"rentaltax/internal/cli"
	"rentaltax/internal/log"
	"rentaltax/internal/worker"
)

const janitorInterval = time.Minute

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateWorkerConfig()
	logger.Info("Starting report-worker", log.FieldOperation, log.OpStartup)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		_ = result.Cleanup()
		os.Exit(1)
	}

	reportWorker := worker.NewReportWorker(result.Service, logger)
	result.Janitor.Start(janitorInterval)

	// closed once the consumer has settled its last delivery
	consumed := make(chan struct{})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		logger.Info("Shutting down worker, waiting for in-flight batch job...")
		select {
		case <-consumed:
		case <-shutdownCtx.Done():
			logger.Warn("In-flight batch job still running at shutdown timeout, broker will redeliver it")
		}
		result.Janitor.Stop()
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", "error", err)
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Consuming batch report jobs",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"concurrency", cfg.BatchConcurrency)
	err = amqpClient.ConsumeBatchReports(ctx, reportWorker.HandleBatchMessage)
	close(consumed)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
