package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"leaveflow/internal/messaging/kafka"
	"leaveflow/internal/messaging/kafka/producer"
	"leaveflow/internal/shared/connection"
)

// RunWorker drains the transactional outbox into Kafka until interrupted.
func RunWorker() error {
	logger := zap.L().Named("app.worker")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	brokers := kafkaBrokers()
	if len(brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	outboxRepo := kafka.NewOutboxRepository(sqlDB)
	publisher := producer.NewPublisher(brokers, zap.L())
	defer publisher.Close()

	worker := producer.NewOutboxWorker(outboxRepo, publisher, zap.L())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()

	return nil
}

func kafkaBrokers() []string {
	raw := os.Getenv("KAFKA_BROKER")
	if raw == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
