package producer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"leaveflow/internal/messaging/kafka"
)

const (
	defaultBatchSize    = 50
	defaultPollInterval = 2 * time.Second
)

// publisher is the slice of Publisher the worker needs.
type publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// OutboxWorker drains pending outbox rows into Kafka. Delivery is
// at-least-once: rows are marked sent only after the broker acks.
type OutboxWorker struct {
	repo      kafka.OutboxRepository
	publisher publisher
	logger    *zap.Logger
}

func NewOutboxWorker(repo kafka.OutboxRepository, pub publisher, logger *zap.Logger) *OutboxWorker {
	return &OutboxWorker{
		repo:      repo,
		publisher: pub,
		logger:    logger.Named("kafka.outbox_worker"),
	}
}

func (w *OutboxWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(defaultPollInterval)
	defer ticker.Stop()

	w.logger.Info("outbox worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("outbox worker stopped")
			return
		case <-ticker.C:
			w.processBatch(ctx)
		}
	}
}

func (w *OutboxWorker) processBatch(ctx context.Context) {
	events, err := w.repo.ListPending(ctx, defaultBatchSize)
	if err != nil {
		w.logger.Error("failed to list pending outbox events", zap.Error(err))
		return
	}

	for _, event := range events {
		if err := kafka.ValidateOutboxEvent(event); err != nil {
			w.logger.Error("invalid outbox event",
				zap.String("outbox_id", event.ID),
				zap.Error(err),
			)
			if markErr := w.repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				w.logger.Error("failed to mark outbox event failed", zap.String("outbox_id", event.ID), zap.Error(markErr))
			}
			continue
		}

		if err := w.publisher.Publish(ctx, event.Topic, event.AggregateID, event.Payload); err != nil {
			w.logger.Warn("failed to publish outbox event",
				zap.String("outbox_id", event.ID),
				zap.String("topic", event.Topic),
				zap.Error(err),
			)
			if markErr := w.repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				w.logger.Error("failed to mark outbox event failed", zap.String("outbox_id", event.ID), zap.Error(markErr))
			}
			continue
		}

		if err := w.repo.MarkSent(ctx, event.ID); err != nil {
			w.logger.Error("failed to mark outbox event sent",
				zap.String("outbox_id", event.ID),
				zap.Error(err),
			)
			continue
		}

		w.logger.Debug("outbox event published",
			zap.String("outbox_id", event.ID),
			zap.String("topic", event.Topic),
			zap.String("event_type", event.EventType),
		)
	}
}
