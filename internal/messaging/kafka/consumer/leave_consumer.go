package consumer

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"leaveflow/internal/events"
	"leaveflow/internal/notification"
)

// ConsumeLeaveTransitions reads leave lifecycle events and hands them to the
// notification dispatcher. Dispatch failures are logged and the offset is
// committed anyway: notifications are best effort and must never wedge the
// consumer group.
func ConsumeLeaveTransitions(
	ctx context.Context,
	brokers []string,
	groupID string,
	dispatcher notification.Dispatcher,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.leave")

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   events.TopicLeave,
	})
	defer reader.Close()

	log.Info("leave consumer started", zap.String("topic", events.TopicLeave))

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("leave consumer stopped")
				return
			}
			log.Error("failed to fetch message", zap.Error(err))
			continue
		}

		var ev events.LeaveTransition
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			log.Error("failed to decode leave event",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			commit(ctx, reader, msg, log)
			continue
		}

		dispatcher.LeaveTransition(ctx, ev)

		log.Debug("leave event dispatched",
			zap.String("event_type", ev.EventType),
			zap.String("request_id", ev.RequestID),
		)
		commit(ctx, reader, msg, log)
	}
}

func commit(ctx context.Context, reader *kafkago.Reader, msg kafkago.Message, log *zap.Logger) {
	if err := reader.CommitMessages(ctx, msg); err != nil {
		log.Error("failed to commit message", zap.Int64("offset", msg.Offset), zap.Error(err))
	}
}
