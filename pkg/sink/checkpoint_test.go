package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRedis serves Get and Set from a map; any other command panics.
type stubRedis struct {
	redis.Cmdable
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newStubRedis() *stubRedis {
	return &stubRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (r *stubRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if r.getErr != nil {
		return redis.NewStringResult("", r.getErr)
	}
	value, ok := r.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (r *stubRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	r.values[key] = value.(string)
	r.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedisCheckpoint(t *testing.T) {
	ctx := context.Background()
	client := newStubRedis()
	cp := NewRedisCheckpoint(client, "health-export:checkpoint", time.Hour)

	_, err := cp.Last(ctx)
	assert.True(t, errors.Is(err, ErrNoCheckpoint))

	require.NoError(t, cp.Save(ctx, "2023-01-02 10:00:00 -0500"))
	last, err := cp.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2023-01-02 10:00:00 -0500", last)
	assert.Equal(t, time.Hour, client.ttls["health-export:checkpoint"])
}

func TestRedisCheckpointPassesThroughErrors(t *testing.T) {
	client := newStubRedis()
	client.getErr = errors.New("connection reset")
	cp := NewRedisCheckpoint(client, "k", 0)

	_, err := cp.Last(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoCheckpoint))
}
