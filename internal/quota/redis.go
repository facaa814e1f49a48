package quota

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the counter with redis INCR, which is atomic across
// processes and machines.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) IncrAndGet(ctx context.Context, key string) (int64, error) {
	return s.client.Incr(ctx, key).Result()
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

var _ Store = (*RedisStore)(nil)
