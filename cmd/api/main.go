package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chat-push/internal/application/dispatch"
	"github.com/go-chat-push/internal/application/retention"
	"github.com/go-chat-push/internal/config"
	"github.com/go-chat-push/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-chat-push/internal/infrastructure/jwt"
	snsinfra "github.com/go-chat-push/internal/infrastructure/sns"
	transporthttp "github.com/go-chat-push/internal/transport/http"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	logger := initLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config for DynamoDB", "err", err)
		os.Exit(1)
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	snsClient, err := snsinfra.NewClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config for SNS", "err", err)
		os.Exit(1)
	}
	transport := snsinfra.NewTransport(snsClient, snsinfra.Options{
		PublishTimeout: cfg.SNSPublishTimeout,
		RatePerSecond:  cfg.SNSRatePerSecond,
		RateBurst:      cfg.SNSRateBurst,
		Concurrency:    cfg.SNSMulticastConcurrency,
	})

	dispatchSvc := dispatch.NewService(dispatch.ServiceDeps{
		Directory: dynamo.NewRecipientRepo(dynamoClient, cfg.DynamoTables.Users, cfg.DynamoPageSize),
		Transport: transport,
		BatchSize: cfg.BroadcastBatchSize,
	})
	retentionSvc := retention.NewService(
		dynamo.NewMessageRepo(dynamoClient, cfg.DynamoTables.Conversations, cfg.DynamoTables.Messages, cfg.DynamoPageSize),
		cfg.RetentionWindow(),
	)

	deps := &transporthttp.Deps{Dispatch: dispatchSvc}
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		deps.Verifier = p
	} else if cfg.AppEnv == "development" {
		logger.Warn("JWT provider not available, trigger routes are open", "err", err)
	} else {
		logger.Error("JWT provider not available", "err", err)
		os.Exit(1)
	}

	scheduler, err := startSweeper(logger, cfg, retentionSvc)
	if err != nil {
		logger.Error("failed to schedule retention sweep", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "err", err)
	}
	// wait for a sweep in progress, bounded by the same deadline
	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("retention sweep still running at shutdown")
	}
	logger.Info("server stopped")
}

func initLogger(level string) *slog.Logger {
	logLevel := slog.LevelInfo
	if level == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return logger
}

// startSweeper registers the daily retention sweep. Overlapping runs are skipped.
func startSweeper(logger *slog.Logger, cfg *config.Config, svc retention.Service) (*cron.Cron, error) {
	loc, err := time.LoadLocation(cfg.SweepTimezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.SweepTimezone, err)
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(cfg.SweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.SweepTimeout)
		defer cancel()
		svc.RunScheduled(ctx)
	}); err != nil {
		return nil, fmt.Errorf("add sweep job: %w", err)
	}
	c.Start()
	logger.Info("retention sweep scheduled",
		"schedule", cfg.SweepSchedule,
		"timezone", cfg.SweepTimezone,
		"retention_days", cfg.RetentionDays)
	return c, nil
}
