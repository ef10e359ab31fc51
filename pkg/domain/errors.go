package domain

import (
	"errors"
	"fmt"
)

// ErrTrajectoryNotFound is returned by trajectory stores on unknown IDs.
var ErrTrajectoryNotFound = errors.New("trajectory not found")

// ErrGraphNotCached is returned by graph caches on a miss.
var ErrGraphNotCached = errors.New("graph not cached")

// InvalidMeshError reports a malformed or empty point cloud.
type InvalidMeshError struct {
	Reason string
	// Index is the offending point, or -1 / zero-value when not point-specific.
	Index int
}

func (e *InvalidMeshError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("invalid mesh: %s (point %d)", e.Reason, e.Index)
	}
	return fmt.Sprintf("invalid mesh: %s", e.Reason)
}

// GraphConstructionError reports a support radius that leaves nodes without
// any edge in a stage graph.
type GraphConstructionError struct {
	Kind  EdgeKind
	Node  int
	Count int
}

func (e *GraphConstructionError) Error() string {
	if e.Count > 1 {
		return fmt.Sprintf("graph construction: %d isolated nodes in %s graph (first: node %d); increase the support radius", e.Count, e.Kind, e.Node)
	}
	return fmt.Sprintf("graph construction: node %d has no %s edges; increase the support radius", e.Node, e.Kind)
}

// DivergenceError reports non-finite values produced during a rollout.
// It is fatal to the rollout that produced it only; the partial trajectory
// is preserved for diagnostics.
type DivergenceError struct {
	Step int
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("rollout diverged: non-finite values at step %d", e.Step)
}
