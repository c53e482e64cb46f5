package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type flakyPublisher struct {
	calls int
	err   error
}

func (p *flakyPublisher) Publish(context.Context, ...Event) error {
	p.calls++
	return p.err
}

func TestBreaker(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	next := &flakyPublisher{err: errors.New("broker down")}
	b := NewBreaker(next, 2, time.Minute)
	b.now = func() time.Time { return clock }

	t.Run("opens after consecutive failures", func(t *testing.T) {
		assert.Error(t, b.Publish(ctx))
		assert.False(t, b.IsOpen())
		assert.Error(t, b.Publish(ctx))
		assert.True(t, b.IsOpen())
	})

	t.Run("sheds while open", func(t *testing.T) {
		assert.ErrorIs(t, b.Publish(ctx), ErrCircuitOpen)
		assert.Equal(t, 2, next.calls)
	})

	t.Run("failed probe re-opens", func(t *testing.T) {
		clock = clock.Add(2 * time.Minute)
		assert.EqualError(t, b.Publish(ctx), "broker down")
		assert.Equal(t, 3, next.calls)
		assert.ErrorIs(t, b.Publish(ctx), ErrCircuitOpen)
	})

	t.Run("successful probe closes", func(t *testing.T) {
		clock = clock.Add(2 * time.Minute)
		next.err = nil
		assert.NoError(t, b.Publish(ctx))
		assert.False(t, b.IsOpen())
		assert.NoError(t, b.Publish(ctx))
		assert.Equal(t, 5, next.calls)
	})
}
