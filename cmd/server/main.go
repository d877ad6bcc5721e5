package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kevin07696/transaction-service/internal/adapters/kafka"
	"github.com/kevin07696/transaction-service/internal/adapters/postgres"
	"github.com/kevin07696/transaction-service/internal/config"
	"github.com/kevin07696/transaction-service/internal/workers"
	"github.com/kevin07696/transaction-service/pkg/observability"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger := initLogger(cfg.Logger)
	defer logger.Sync()

	logger.Info("starting transaction service",
		zap.String("version", "0.1.0"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbCfg := postgres.DefaultConfig(cfg.Database.ConnectionString())
	dbCfg.MaxConns = cfg.Database.MaxConns
	dbCfg.MinConns = cfg.Database.MinConns

	db, err := postgres.NewDBExecutor(ctx, dbCfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	txnRepo := postgres.NewTransactionRepository(db)

	publisher, err := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	if err != nil {
		logger.Fatal("failed to initialize kafka publisher", zap.Error(err))
	}
	defer publisher.Close()

	outboxWorker := workers.NewOutboxWorker(
		txnRepo,
		publisher,
		logger,
		time.Duration(cfg.Outbox.PollIntervalMS)*time.Millisecond,
		cfg.Outbox.BatchSize,
	)
	go outboxWorker.Start(ctx)

	metricsServer := observability.StartMetricsServer(cfg.Metrics.Port, db.GetDB())
	logger.Info("metrics server started", zap.String("port", cfg.Metrics.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	cancel()
	if err := observability.ShutdownMetricsServer(metricsServer); err != nil {
		logger.Error("metrics server shutdown failed", zap.Error(err))
	}
}

func initLogger(cfg config.LoggerConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	return logger
}
