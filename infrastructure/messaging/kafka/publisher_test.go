package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry/infrastructure/messaging"
)

type fakeWriter struct {
	written []kafkaGo.Message
	err     error
	closed  bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w, "pantry.events")
	at := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), messaging.Message{
		ID:         "evt-1",
		Key:        "ing_abc",
		Type:       "IngredientCreated",
		Value:      []byte(`{"id":"evt-1"}`),
		OccurredAt: at,
	})
	require.NoError(t, err)
	require.Len(t, w.written, 1)

	m := w.written[0]
	assert.Equal(t, []byte("ing_abc"), m.Key)
	assert.Equal(t, []byte(`{"id":"evt-1"}`), m.Value)
	assert.Equal(t, at, m.Time)
	assert.Equal(t, []kafkaGo.Header{
		{Key: HeaderEventID, Value: []byte("evt-1")},
		{Key: HeaderEventType, Value: []byte("IngredientCreated")},
	}, m.Headers)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_WrapsWriteError(t *testing.T) {
	cause := errors.New("broker down")
	p := newPublisher(&fakeWriter{err: cause}, "pantry.events")

	err := p.Publish(context.Background(), messaging.Message{Type: "IngredientDeleted"})
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "IngredientDeleted")
}

func TestNewPublisher_Validation(t *testing.T) {
	_, err := NewPublisher(Config{Topic: "t"})
	assert.Error(t, err)
	_, err = NewPublisher(Config{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)

	p, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}, Topic: "t"})
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}
