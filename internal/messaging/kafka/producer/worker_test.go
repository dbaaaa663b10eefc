package producer_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"go-skillmatrix/internal/messaging/kafka"
	"go-skillmatrix/internal/messaging/kafka/producer"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeOutboxRepo struct {
	pending []kafka.OutboxEvent
	listErr error
	sent    []string
	failed  map[string]string
}

func (f *fakeOutboxRepo) WithTx(*sql.Tx) kafka.OutboxRepository { return f }
func (f *fakeOutboxRepo) Create(context.Context, kafka.OutboxEvent) error {
	return nil
}
func (f *fakeOutboxRepo) ListPending(_ context.Context, limit int) ([]kafka.OutboxEvent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}
func (f *fakeOutboxRepo) MarkSent(_ context.Context, id string) error {
	f.sent = append(f.sent, id)
	return nil
}
func (f *fakeOutboxRepo) MarkFailed(_ context.Context, id, reason string) error {
	if f.failed == nil {
		f.failed = map[string]string{}
	}
	f.failed[id] = reason
	return nil
}

type fakeWriter struct {
	failFor map[string]bool
	written []kafkago.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		if w.failFor[string(m.Key)] {
			return errors.New("broker unavailable")
		}
		w.written = append(w.written, m)
	}
	return nil
}

func TestProcessPendingEvents(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("success marks every row sent", func(t *testing.T) {
		repo := &fakeOutboxRepo{pending: []kafka.OutboxEvent{
			{ID: "e-1", AggregateID: "r-1", Topic: "t", EventType: "x", Payload: []byte(`{}`), RequestID: "rid"},
			{ID: "e-2", AggregateID: "r-2", Topic: "t", EventType: "x", Payload: []byte(`{}`)},
		}}
		writer := &fakeWriter{}

		err := producer.ProcessPendingEvents(ctx, repo, writer, 50, logger)

		assert.NoError(t, err)
		assert.Equal(t, []string{"e-1", "e-2"}, repo.sent)
		assert.Len(t, writer.written, 2)
		assert.Equal(t, "r-1", string(writer.written[0].Key))
		assert.Equal(t, "request_id", writer.written[0].Headers[2].Key)
		assert.Equal(t, "rid", string(writer.written[0].Headers[2].Value))
	})

	t.Run("negative publish failure marks failed and continues", func(t *testing.T) {
		repo := &fakeOutboxRepo{pending: []kafka.OutboxEvent{
			{ID: "e-1", AggregateID: "bad", Topic: "t", Payload: []byte(`{}`)},
			{ID: "e-2", AggregateID: "ok", Topic: "t", Payload: []byte(`{}`)},
		}}
		writer := &fakeWriter{failFor: map[string]bool{"bad": true}}

		err := producer.ProcessPendingEvents(ctx, repo, writer, 50, logger)

		assert.NoError(t, err)
		assert.Equal(t, []string{"e-2"}, repo.sent)
		assert.Equal(t, "broker unavailable", repo.failed["e-1"])
	})

	t.Run("negative list error", func(t *testing.T) {
		repo := &fakeOutboxRepo{listErr: errors.New("db down")}

		err := producer.ProcessPendingEvents(ctx, repo, &fakeWriter{}, 50, logger)

		assert.EqualError(t, err, "db down")
	})

	t.Run("respects batch size", func(t *testing.T) {
		repo := &fakeOutboxRepo{pending: []kafka.OutboxEvent{
			{ID: "e-1", Payload: []byte(`{}`)}, {ID: "e-2", Payload: []byte(`{}`)}, {ID: "e-3", Payload: []byte(`{}`)},
		}}

		assert.NoError(t, producer.ProcessPendingEvents(ctx, repo, &fakeWriter{}, 2, logger))
		assert.Len(t, repo.sent, 2)
	})
}
