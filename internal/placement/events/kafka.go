package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/platform/kafka"
)

// Producer is the subset of kafka.Producer the publisher needs.
type Producer interface {
	Produce(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher writes events as JSON records keyed by agent id.
type KafkaPublisher struct {
	producer Producer
	topic    string
}

func NewKafkaPublisher(producer Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evts ...Event) error {
	if len(evts) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(evts))
	for _, evt := range evts {
		value, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("marshal %s event: %w", evt.Type, err)
		}
		msgs = append(msgs, kafka.Message{
			Topic: p.topic,
			Key:   []byte(evt.AgentID.String()),
			Value: value,
			Headers: map[string]string{
				"event_type": string(evt.Type),
				"event_id":   evt.ID,
			},
		})
	}
	return p.producer.Produce(ctx, msgs...)
}
