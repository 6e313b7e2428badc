package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisLimiterFixedWindow(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	limiter := NewRedisLimiter(client, Config{}, "test")
	ctx := context.Background()

	for i := 1; i <= DefaultMax; i++ {
		allowed, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		require.True(t, allowed, "write %d should be allowed", i)
	}

	allowed, err := limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, allowed)

	require.True(t, server.Exists("test:ratelimit:user-1"))
	require.Greater(t, server.TTL("test:ratelimit:user-1"), time.Duration(0))

	server.FastForward(DefaultWindow + time.Second)

	allowed, err = limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, allowed)

	count, err := client.Get(ctx, "test:ratelimit:user-1").Int()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestRedisLimiterRepairsMissingTTL(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	require.NoError(t, server.Set("comments:ratelimit:stuck", "9"))

	limiter := NewRedisLimiter(client, Config{Max: 5, Window: time.Minute}, "")
	allowed, err := limiter.Allow(context.Background(), "stuck")
	require.NoError(t, err)
	require.False(t, allowed)
	require.Greater(t, server.TTL("comments:ratelimit:stuck"), time.Duration(0))
}

func TestRedisLimiterReportsBackendErrors(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	defer client.Close()
	server.Close()

	_, err = NewRedisLimiter(client, Config{}, "test").Allow(context.Background(), "user-1")
	require.Error(t, err)
}
