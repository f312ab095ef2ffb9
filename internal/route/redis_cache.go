package route

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/ride-tracking/internal/models"
)

const redisKeyPrefix = "route:directions:"

// RedisCache shares provider paths across server instances. Paths are
// stored as encoded polylines, so values round to 1e-5 degrees.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]models.GeoPoint, bool) {
	s, err := r.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		// redis.Nil is a miss; anything else is treated as one too
		return nil, false
	}
	pts, err := DecodePolyline(s)
	if err != nil || len(pts) < 2 {
		return nil, false
	}
	return pts, true
}

func (r *RedisCache) Set(ctx context.Context, key string, path []models.GeoPoint) {
	_ = r.client.Set(ctx, redisKeyPrefix+key, EncodePolyline(path), r.ttl).Err()
}
