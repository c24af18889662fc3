package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &mockWriter{}
	p := &KafkaPublisher{writer: w, origin: "shop.example"}

	e := NewCartEvent(ItemAdded, "1-38-black", "1", 1)
	require.NoError(t, p.Publish(context.Background(), e))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "shop.example", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "item_added", string(msg.Headers[0].Value))

	var got CartEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, "shop.example", got.Origin)
	assert.Equal(t, "1-38-black", got.LineItemID)
	assert.Equal(t, 1, got.Quantity)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &mockWriter{err: errors.New("broker unavailable")}}

	err := p.Publish(context.Background(), NewCartEvent(ItemRemoved, "x", "1", 0))
	assert.ErrorContains(t, err, "write event failed")
}

func TestKafkaPublisher_Close(t *testing.T) {
	w := &mockWriter{}
	p := &KafkaPublisher{writer: w}
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewCartEvent_UniqueIDs(t *testing.T) {
	a := NewCartEvent(ItemAdded, "x", "1", 1)
	b := NewCartEvent(ItemAdded, "x", "1", 1)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.OccurredAt.IsZero())
}

func TestNewKafkaPublisher_DefaultTopic(t *testing.T) {
	p := NewKafkaPublisher("o", "", "localhost:9092")
	defer p.Close()
	assert.Equal(t, DefaultTopic, p.writer.(*kafka.Writer).Topic)
}
