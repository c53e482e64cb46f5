//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisContainer wraps the Redis instance behind the plan settings cache.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string
}

// NewRedisContainer starts Redis and waits until it answers PING.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get redis connection string: %v", err)
	}

	rc := &RedisContainer{Container: container, URL: url}
	if err := rc.do(func(client *redis.Client) error {
		return client.Ping(ctx).Err()
	}); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping redis: %v", err)
	}
	return rc
}

// Flush drops every cached plan. Use between tests for isolation.
func (r *RedisContainer) Flush(ctx context.Context, t *testing.T) {
	t.Helper()
	if err := r.do(func(client *redis.Client) error {
		return client.FlushAll(ctx).Err()
	}); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}

func (r *RedisContainer) do(fn func(client *redis.Client) error) error {
	opts, err := redis.ParseURL(r.URL)
	if err != nil {
		return err
	}
	client := redis.NewClient(opts)
	defer client.Close()
	return fn(client)
}
