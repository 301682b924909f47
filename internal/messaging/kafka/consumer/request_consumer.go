package consumer

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"leaveflow/internal/events"
	"leaveflow/internal/notification"
)

// ConsumeRequestTransitions covers the clock-in and reimbursement topics,
// which share one event shape.
func ConsumeRequestTransitions(
	ctx context.Context,
	brokers []string,
	groupID string,
	topic string,
	dispatcher notification.Dispatcher,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.request").With(zap.String("topic", topic))

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   topic,
	})
	defer reader.Close()

	log.Info("request consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("request consumer stopped")
				return
			}
			log.Error("failed to fetch message", zap.Error(err))
			continue
		}

		var ev events.RequestTransition
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			log.Error("failed to decode request event",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			commit(ctx, reader, msg, log)
			continue
		}

		dispatcher.RequestTransition(ctx, ev)

		log.Debug("request event dispatched",
			zap.String("event_type", ev.EventType),
			zap.String("request_id", ev.RequestID),
		)
		commit(ctx, reader, msg, log)
	}
}
