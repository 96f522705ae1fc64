package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/todosoa/pkg/adapters/redis"
	"github.com/aretw0/todosoa/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisBackend_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunBackendContract(t, redis.NewFromClient(client))
}

func TestRedisBackend_Prefix(t *testing.T) {
	mr, client := setup(t)
	b := redis.NewFromClient(client, redis.WithPrefix("test:"))
	ctx := context.Background()

	require.NoError(t, b.Save(ctx, "todos", []byte(`{"todos":[]}`)))

	val, err := mr.Get("test:todos")
	require.NoError(t, err)
	assert.Equal(t, `{"todos":[]}`, val)
	assert.True(t, mr.Exists("test:index"))
}

func TestRedisBackend_TTL(t *testing.T) {
	mr, client := setup(t)
	b := redis.NewFromClient(client, redis.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, b.Save(ctx, "todos", []byte(`{"todos":[]}`)))
	assert.Equal(t, time.Minute, mr.TTL(redis.DefaultPrefix+"todos"))

	mr.FastForward(2 * time.Minute)

	_, err := b.Load(ctx, "todos")
	assert.Error(t, err)
}
