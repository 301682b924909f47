package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"leaveflow/internal/events"
	"leaveflow/internal/messaging/kafka/consumer"
	"leaveflow/internal/notification"
)

const consumerGroupID = "leaveflow-notifications"

// RunConsumer feeds transition events from Kafka into the Slack notification
// dispatcher until interrupted.
func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

	brokers := kafkaBrokers()
	if len(brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	var notifier notification.Dispatcher = notification.Nop{}
	if token := os.Getenv("SLACK_BOT_TOKEN"); token != "" {
		notifier = notification.NewSlackDispatcher(token)
	} else {
		logger.Warn("SLACK_BOT_TOKEN not set, consumed events will be dropped")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeLeaveTransitions(ctx, brokers, consumerGroupID, notifier, zap.L())
	go consumer.ConsumeRequestTransitions(ctx, brokers, consumerGroupID, events.TopicClockIn, notifier, zap.L())
	go consumer.ConsumeRequestTransitions(ctx, brokers, consumerGroupID, events.TopicReimbursement, notifier, zap.L())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
