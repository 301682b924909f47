package producer

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher writes outbox payloads to Kafka. Writers are created lazily
// per topic and reused for the lifetime of the process.
type Publisher struct {
	brokers []string
	writers map[string]*kafkago.Writer
	logger  *zap.Logger
}

func NewPublisher(brokers []string, logger *zap.Logger) *Publisher {
	return &Publisher{
		brokers: brokers,
		writers: make(map[string]*kafkago.Writer),
		logger:  logger.Named("kafka.producer"),
	}
}

func (p *Publisher) writer(topic string) *kafkago.Writer {
	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(p.brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	p.writers[topic] = w
	return w
}

func (p *Publisher) Publish(ctx context.Context, topic string, key string, payload []byte) error {
	return p.writer(topic).WriteMessages(ctx, kafkago.Message{
		Key:   []byte(key),
		Value: payload,
	})
}

func (p *Publisher) Close() {
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			p.logger.Warn("failed to close writer", zap.String("topic", topic), zap.Error(err))
		}
	}
}
