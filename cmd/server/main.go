package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/benvon/smart-todo-client/internal/config"
	"github.com/benvon/smart-todo-client/internal/devapi"
	"github.com/benvon/smart-todo-client/internal/logger"
	"github.com/benvon/smart-todo-client/internal/telemetry"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging, including LLM requests")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.DebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, debugMode, zapLogger); err != nil {
		zapLogger.Error("server_failed", zap.Error(err))
		_ = logger.Sync(zapLogger)
		log.Fatalf("Server failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, debugMode bool, zapLogger *zap.Logger) error {
	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.DevServer.Port),
		zap.String("frontend_url", cfg.DevServer.FrontendURL),
		zap.String("ai_model", cfg.DevServer.AIModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	tp, shutdownTracing := telemetry.Setup(ctx, cfg.OTELEnabled, cfg.OTELEndpoint, telemetry.ServerServiceName, zapLogger)
	defer shutdownTracing()

	var redisClient *redis.Client
	if cfg.DevServer.RateLimitStore == "redis" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			return err
		}
		zapLogger.Info("connected_to_redis")
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
	}

	srv, err := devapi.New(ctx, devapi.Options{
		Config:      cfg.DevServer,
		Logger:      zapLogger,
		Tracing:     tp != nil,
		DebugMode:   debugMode,
		RedisClient: redisClient,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			zapLogger.Warn("failed_to_close_server_resources", zap.Error(err))
		}
	}()

	return srv.Run(ctx)
}
