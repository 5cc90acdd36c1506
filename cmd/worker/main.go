package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/benvon/smart-todo-client/internal/config"
	"github.com/benvon/smart-todo-client/internal/devapi"
	"github.com/benvon/smart-todo-client/internal/logger"
	"github.com/benvon/smart-todo-client/internal/telemetry"
	"github.com/benvon/smart-todo-client/internal/workers"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
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

	if cfg.DevServer.RabbitMQURL == "" {
		zapLogger.Fatal("rabbitmq_url_not_configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, shutdownTracing := telemetry.Setup(ctx, cfg.OTELEnabled, cfg.OTELEndpoint, telemetry.WorkerServiceName, zapLogger)
	defer shutdownTracing()

	eventQueue, err := devapi.ConnectRabbitMQ(ctx, cfg.DevServer.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := eventQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	msgs, errs, err := eventQueue.Consume(ctx, cfg.DevServer.WorkerPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}
	zapLogger.Info("worker_started", zap.Int("prefetch", cfg.DevServer.WorkerPrefetch))

	auditor := workers.NewEventAuditor(zapLogger)
	auditor.Run(ctx, msgs, errs)

	counts := auditor.Counts()
	fields := make([]zap.Field, 0, len(counts))
	for eventType, n := range counts {
		fields = append(fields, zap.Int(string(eventType), n))
	}
	zapLogger.Info("worker_stopped", fields...)
}
