package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rigno/pkg/domain"
)

func contractTrajectory(id string) *domain.Trajectory {
	initial := domain.Field{Values: []float64{1, 2, 3}, Channels: 1}
	traj := domain.NewTrajectory(id, initial)
	traj.Append(domain.Field{Values: []float64{0.9, 1.8, 2.7}, Channels: 1}, 0.1)
	traj.Append(domain.Field{Values: []float64{0.8, 1.6, 2.4}, Channels: 1}, 0.1)
	traj.Status = domain.StatusDone
	return traj
}

// RunTrajectoryStoreContract verifies that a TrajectoryStore implementation
// adheres to the interface contract.
func RunTrajectoryStoreContract(t *testing.T, store TrajectoryStore) {
	ctx := context.Background()
	id := "contract-trajectory-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		traj := contractTrajectory(id)
		require.NoError(t, store.Save(ctx, traj))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, traj.ID, loaded.ID)
		assert.Equal(t, domain.StatusDone, loaded.Status)
		assert.Equal(t, traj.Snapshots, loaded.Snapshots)
		assert.InDeltaSlice(t, traj.Times, loaded.Times, 1e-12)
	})

	t.Run("Load is isolated", func(t *testing.T) {
		traj := contractTrajectory(id)
		require.NoError(t, store.Save(ctx, traj))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		loaded.Snapshots[0].Values[0] = -99

		again, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1.0, again.Snapshots[0].Values[0], "mutating a loaded trajectory must not affect the store")
	})

	t.Run("Overwrite", func(t *testing.T) {
		traj := contractTrajectory(id)
		require.NoError(t, store.Save(ctx, traj))

		traj.Status = domain.StatusFailed
		require.NoError(t, store.Save(ctx, traj))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, loaded.Status)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrTrajectoryNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, contractTrajectory(id)))
		require.NoError(t, store.Delete(ctx, id))

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrTrajectoryNotFound)

		assert.NoError(t, store.Delete(ctx, id), "deleting an unknown ID must not error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		require.NoError(t, store.Save(ctx, contractTrajectory(id1)))
		require.NoError(t, store.Save(ctx, contractTrajectory(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunGraphCacheContract verifies that a GraphCache implementation adheres
// to the interface contract.
func RunGraphCacheContract(t *testing.T, cache GraphCache) {
	ctx := context.Background()
	key := "contract-graph-" + time.Now().Format("20060102150405")

	gs := &domain.GraphSet{
		Key: key,
		Encoder: domain.Graph{
			Kind: domain.EdgeEncoder,
			Src:  []int{0, 1}, Dst: []int{0, 0},
			Rel:    []float64{0.1, 0, 0.1, -0.1, 0, 0.1},
			RelDim: 3, NumSrc: 2, NumDst: 1,
		},
	}

	t.Run("Miss", func(t *testing.T) {
		_, err := cache.Get(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrGraphNotCached)
	})

	t.Run("Put and Get", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, gs))

		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, gs.Key, got.Key)
		assert.Equal(t, gs.Encoder.Src, got.Encoder.Src)
		assert.Equal(t, gs.Encoder.Rel, got.Encoder.Rel)
	})
}
