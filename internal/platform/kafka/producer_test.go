package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil)
	assert.ErrorContains(t, err, "at least one broker")
}

func TestToRecord(t *testing.T) {
	rec := toRecord(Message{
		Topic:   "placement.events",
		Key:     []byte("agent-1"),
		Value:   []byte(`{"type":"placement.created"}`),
		Headers: map[string]string{"event_type": "placement.created"},
	})

	assert.Equal(t, "placement.events", rec.Topic)
	assert.Equal(t, []byte("agent-1"), rec.Key)
	if assert.Len(t, rec.Headers, 1) {
		assert.Equal(t, "event_type", rec.Headers[0].Key)
		assert.Equal(t, []byte("placement.created"), rec.Headers[0].Value)
	}
}
