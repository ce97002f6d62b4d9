package sink

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNoCheckpoint = errors.New("no checkpoint recorded")

// Checkpoint remembers the Time of the newest record already delivered.
type Checkpoint interface {
	Last(ctx context.Context) (string, error)
	Save(ctx context.Context, last string) error
}

type RedisCheckpoint struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewRedisCheckpoint stores the checkpoint under key. A zero ttl keeps it
// forever.
func NewRedisCheckpoint(client redis.Cmdable, key string, ttl time.Duration) *RedisCheckpoint {
	return &RedisCheckpoint{client: client, key: key, ttl: ttl}
}

func (c *RedisCheckpoint) Last(ctx context.Context) (string, error) {
	last, err := c.client.Get(ctx, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoCheckpoint
	}
	return last, err
}

func (c *RedisCheckpoint) Save(ctx context.Context, last string) error {
	return c.client.Set(ctx, c.key, last, c.ttl).Err()
}
