package plans

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
)

const (
	cacheKeyPrefix  = "placement:plan:"
	defaultCacheTTL = 10 * time.Minute
)

// RedisCache is a read-through cache in front of another Source. Plan rows are
// immutable once referenced, so entries are only ever expired, never invalidated.
// Redis failures degrade to the wrapped source.
type RedisCache struct {
	client redis.Cmdable
	next   Source
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

type CacheOption func(*RedisCache)

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *RedisCache) {
		c.logger = logger
	}
}

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func NewRedisCache(client redis.Cmdable, next Source, opts ...CacheOption) *RedisCache {
	c := &RedisCache{
		client: client,
		next:   next,
		ttl:    defaultCacheTTL,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cacheKey(planID id.PlanID) string {
	return cacheKeyPrefix + planID.String()
}

func (c *RedisCache) Get(ctx context.Context, planID id.PlanID) (models.PlanSettings, error) {
	key := cacheKey(planID)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var settings models.PlanSettings
		if jsonErr := json.Unmarshal(raw, &settings); jsonErr == nil {
			return settings, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable plan cache entry", "plan_id", planID.String())
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "plan cache read failed, using source",
			"plan_id", planID.String(),
			"error", err,
		)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		settings, err := c.next.Get(ctx, planID)
		if err != nil {
			return models.PlanSettings{}, err
		}
		c.store(ctx, key, settings)
		return settings, nil
	})
	if err != nil {
		return models.PlanSettings{}, err
	}
	return v.(models.PlanSettings), nil
}

func (c *RedisCache) store(ctx context.Context, key string, settings models.PlanSettings) {
	payload, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "plan cache write failed",
			"plan_id", settings.PlanID.String(),
			"error", err,
		)
	}
}
