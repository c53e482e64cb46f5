//go:build integration

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/platform/kafka"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/testutil/containers"
)

func TestKafkaPublisherAgainstRedpanda(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	broker := containers.GetManager().Redpanda(t)
	topic := "placement.events." + uuid.NewString()[:8]
	broker.CreateTopic(ctx, t, topic)

	producer, err := kafka.NewProducer([]string{broker.Broker})
	require.NoError(t, err)
	t.Cleanup(producer.Close)

	agent := id.AgentID(uuid.New())
	position := models.NewRootPosition(agent, id.PlanID(uuid.New()), 2, time.Now().UTC())
	publisher := NewKafkaPublisher(producer, topic)
	require.NoError(t, publisher.Publish(ctx, PlacementCreated(position, time.Now().UTC(), "req-1")))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	var records []*kgo.Record
	for len(records) == 0 {
		fetches := consumer.PollFetches(ctx)
		require.NoError(t, ctx.Err(), "timed out waiting for placement event")
		fetches.EachRecord(func(r *kgo.Record) {
			records = append(records, r)
		})
	}

	rec := records[0]
	assert.Equal(t, agent.String(), string(rec.Key))
	var evt Event
	require.NoError(t, json.Unmarshal(rec.Value, &evt))
	assert.Equal(t, TypePlacementCreated, evt.Type)
	assert.Equal(t, agent, evt.AgentID)
	assert.Equal(t, "req-1", evt.RequestID)
}
