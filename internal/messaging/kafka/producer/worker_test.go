package producer

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"leaveflow/internal/messaging/kafka"
)

type fakeOutboxRepo struct {
	pending []kafka.OutboxEvent
	sent    []string
	failed  []string
}

func (f *fakeOutboxRepo) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }
func (f *fakeOutboxRepo) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.pending = append(f.pending, event)
	return nil
}
func (f *fakeOutboxRepo) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return f.pending, nil
}
func (f *fakeOutboxRepo) MarkSent(ctx context.Context, id string) error {
	f.sent = append(f.sent, id)
	return nil
}
func (f *fakeOutboxRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakePublisher struct {
	published map[string][]string // topic -> keys
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	if f.published == nil {
		f.published = map[string][]string{}
	}
	f.published[topic] = append(f.published[topic], key)
	return nil
}

func pendingEvent(id, topic string) kafka.OutboxEvent {
	return kafka.OutboxEvent{
		ID:          id,
		AggregateID: "agg-" + id,
		Topic:       topic,
		Payload:     []byte(`{"event_type":"test"}`),
		Status:      kafka.OutboxStatusPending,
	}
}

func TestOutboxWorker_ProcessBatch(t *testing.T) {
	t.Run("publishes and marks sent", func(t *testing.T) {
		repo := &fakeOutboxRepo{pending: []kafka.OutboxEvent{
			pendingEvent("1", "leaveflow.leave.v1"),
			pendingEvent("2", "leaveflow.clockin.v1"),
		}}
		pub := &fakePublisher{}
		w := NewOutboxWorker(repo, pub, zap.NewNop())

		w.processBatch(context.Background())

		assert.Equal(t, []string{"1", "2"}, repo.sent)
		assert.Empty(t, repo.failed)
		assert.Equal(t, []string{"agg-1"}, pub.published["leaveflow.leave.v1"])
	})

	t.Run("broker failure marks failed, not sent", func(t *testing.T) {
		repo := &fakeOutboxRepo{pending: []kafka.OutboxEvent{pendingEvent("1", "leaveflow.leave.v1")}}
		pub := &fakePublisher{err: errors.New("broker unreachable")}
		w := NewOutboxWorker(repo, pub, zap.NewNop())

		w.processBatch(context.Background())

		assert.Empty(t, repo.sent)
		assert.Equal(t, []string{"1"}, repo.failed)
	})

	t.Run("invalid event is failed without a publish attempt", func(t *testing.T) {
		bad := pendingEvent("1", "")
		repo := &fakeOutboxRepo{pending: []kafka.OutboxEvent{bad}}
		pub := &fakePublisher{}
		w := NewOutboxWorker(repo, pub, zap.NewNop())

		w.processBatch(context.Background())

		assert.Equal(t, []string{"1"}, repo.failed)
		assert.Empty(t, pub.published)
	})
}
