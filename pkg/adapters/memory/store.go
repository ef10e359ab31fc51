// Package memory provides in-memory adapters for the storage ports.
// They are the default backends for single-process runs and tests.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aretw0/rigno/pkg/domain"
)

// Store implements ports.TrajectoryStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Trajectory
	mu   sync.RWMutex
}

// NewStore creates a new in-memory trajectory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Trajectory),
	}
}

func copyTrajectory(traj *domain.Trajectory) *domain.Trajectory {
	out := &domain.Trajectory{
		ID:        traj.ID,
		Status:    traj.Status,
		Snapshots: make([]domain.Field, len(traj.Snapshots)),
		Times:     make([]float64, len(traj.Times)),
	}
	for i := range traj.Snapshots {
		out.Snapshots[i] = traj.Snapshots[i].Clone()
	}
	copy(out.Times, traj.Times)
	return out
}

// Save stores a deep copy of the trajectory, overwriting any previous
// version under the same ID.
func (s *Store) Save(ctx context.Context, traj *domain.Trajectory) error {
	copied := copyTrajectory(traj)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[traj.ID] = copied
	return nil
}

// Load retrieves a trajectory. The returned copy is the caller's to mutate.
func (s *Store) Load(ctx context.Context, id string) (*domain.Trajectory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	traj, ok := s.data[id]
	if !ok {
		return nil, domain.ErrTrajectoryNotFound
	}
	return copyTrajectory(traj), nil
}

// Delete removes a trajectory. Unknown IDs are a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the stored trajectory IDs in no particular order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

// GraphCache implements ports.GraphCache in memory.
// Safe for concurrent use.
type GraphCache struct {
	data map[string]*domain.GraphSet
	mu   sync.RWMutex
}

// NewGraphCache creates a new in-memory graph cache.
func NewGraphCache() *GraphCache {
	return &GraphCache{
		data: make(map[string]*domain.GraphSet),
	}
}

// Put stores a deep copy of the graph set. Isolation goes through JSON
// because GraphSet nests several slice-of-slice shapes; graph sets are
// cached once per geometry, so the cost is off the hot path.
func (c *GraphCache) Put(ctx context.Context, key string, gs *domain.GraphSet) error {
	copied, err := copyGraphSet(gs)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = copied
	return nil
}

// Get retrieves a deep copy of a cached graph set.
func (c *GraphCache) Get(ctx context.Context, key string) (*domain.GraphSet, error) {
	c.mu.RLock()
	gs, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return nil, domain.ErrGraphNotCached
	}
	return copyGraphSet(gs)
}

func copyGraphSet(gs *domain.GraphSet) (*domain.GraphSet, error) {
	data, err := json.Marshal(gs)
	if err != nil {
		return nil, err
	}
	var out domain.GraphSet
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
