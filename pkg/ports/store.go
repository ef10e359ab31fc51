package ports

import (
	"context"

	"github.com/aretw0/rigno/pkg/domain"
)

// TrajectoryStore defines the interface for persisting rollout trajectories.
// Failed rollouts are stored too: their partial history is the main
// diagnostic for divergence.
type TrajectoryStore interface {
	// Save persists the trajectory under its ID, overwriting any previous
	// version (a rollout saves once when it finishes or fails).
	Save(ctx context.Context, traj *domain.Trajectory) error

	// Load retrieves a trajectory by ID.
	// Returns domain.ErrTrajectoryNotFound if it does not exist.
	Load(ctx context.Context, id string) (*domain.Trajectory, error)

	// Delete removes a trajectory. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored trajectories.
	List(ctx context.Context) ([]string, error)
}

// GraphCache caches built graph sets keyed by geometry and builder config.
// Cached graph sets are shared read-only between rollouts; implementations
// must return values the caller cannot use to mutate the cached copy, or
// document that callers must not.
type GraphCache interface {
	// Put stores a graph set under the given key.
	Put(ctx context.Context, key string, gs *domain.GraphSet) error

	// Get retrieves a graph set.
	// Returns domain.ErrGraphNotCached on a miss.
	Get(ctx context.Context, key string) (*domain.GraphSet, error)
}
