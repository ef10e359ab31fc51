package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rigno/pkg/adapters/redis"
	"github.com/aretw0/rigno/pkg/domain"
	"github.com/aretw0/rigno/pkg/ports"
)

func newTestClient(t *testing.T) *backend.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	store := redis.NewFromClient(newTestClient(t))
	ports.RunTrajectoryStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	traj := domain.NewTrajectory("ttl-run", domain.Field{Values: []float64{1, 2}, Channels: 1})
	require.NoError(t, store.Save(ctx, traj))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "ttl-run")

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "ttl-run")
	assert.ErrorIs(t, err, domain.ErrTrajectoryNotFound)

	// Lazy index pruning keys off time.Now(), so wait past the TTL in
	// real time before checking List.
	time.Sleep(1200 * time.Millisecond)
	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := redis.NewFromClient(client, redis.WithPrefix("custom:runs:"))
	ctx := context.Background()

	traj := domain.NewTrajectory("my-run", domain.Field{Values: []float64{1}, Channels: 1})
	require.NoError(t, store.Save(ctx, traj))

	assert.True(t, mr.Exists("custom:runs:my-run"))
	assert.True(t, mr.Exists("custom:runs:index"))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "my-run")
}

func TestRedisStore_StatusRoundTrip(t *testing.T) {
	store := redis.NewFromClient(newTestClient(t))
	ctx := context.Background()

	traj := domain.NewTrajectory("failed-run", domain.Field{Values: []float64{1, 2, 3}, Channels: 1})
	traj.Append(domain.Field{Values: []float64{2, 4, 6}, Channels: 1}, 0.25)
	traj.Status = domain.StatusFailed
	require.NoError(t, store.Save(ctx, traj))

	loaded, err := store.Load(ctx, "failed-run")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, loaded.Status)
	assert.Equal(t, 1, loaded.Steps())
	assert.InDelta(t, 0.25, loaded.Times[1], 1e-12)
}
