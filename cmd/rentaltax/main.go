package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"rentaltax/internal/backend"
	"rentaltax/internal/cli"
	apphttp "rentaltax/internal/http"
	"rentaltax/internal/log"
	"rentaltax/internal/middleware/ratelimit"
)

const janitorInterval = time.Minute

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	// async batches are offered only when a broker is configured
	backendCfg.Publisher = cfg.AMQPURL != ""

	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	opts := []apphttp.Option{
		apphttp.WithLogger(logger),
		apphttp.WithReadiness(result.Ready),
		apphttp.WithCORSOrigins(cfg.CORSAllowedOrigins),
		apphttp.WithTrustedProxies(cfg.TrustedProxies),
	}
	if result.Publisher != nil {
		opts = append(opts, apphttp.WithPublisher(result.Publisher))
	}
	if cfg.RateLimitPerMinute > 0 {
		limitCfg := ratelimit.DefaultConfig()
		limitCfg.Requests = cfg.RateLimitPerMinute
		limiter := ratelimit.NewLimiter(limitCfg)
		result.Janitor.Register(limiter)
		opts = append(opts, apphttp.WithRateLimiter(limiter))
	}
	if cfg.DevAccountID != "" {
		logger.Warn("Serving unauthenticated requests as a fixed account", log.FieldAccountID, cfg.DevAccountID)
		opts = append(opts, apphttp.WithDevAccount(cfg.DevAccountID))
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, result.Service, opts...)
	if err != nil {
		logger.Error("Failed to create HTTP server", "error", err)
		_ = result.Cleanup()
		os.Exit(1)
	}
	result.Janitor.Start(janitorInterval)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		result.Janitor.Stop()
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting rentaltax server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"artifacts", cfg.ArtifactBackend,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
