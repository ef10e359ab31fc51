/*
Package rigno is a discretization-invariant operator pipeline for stepping
physical fields on arbitrary point clouds. Fields sampled on any mesh, grid
or unstructured cloud, are encoded onto a reduced set of region nodes,
evolved there by multi-level message passing, and decoded back onto the
physical points, one fixed lead time (tau) per step.

The pipeline treats every input as a point cloud: there is no grid-specific
code path, and every aggregation along the way is permutation-invariant, so
the same operator weights can be applied across resolutions and orderings.

# Key Pieces

  - Mesh registry: named point clouds and permutation-stable region-node
    reduction via farthest-point sampling.
  - Graph builder: encoder, multi-level processor, and decoder edge sets
    within configurable support radii, built deterministically and cached.
  - Message-passing stages: pure edge/node MLP blocks with sum or mean
    aggregation, tau conditioning, and direct or derivative output.
  - Rollout controller: autoregressive stepping with divergence detection;
    a failed rollout keeps its partial trajectory for diagnostics.

# Usage

	op, err := rigno.New(rigno.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}

	traj, err := op.Rollout(ctx, rigno.Run{
		ID:       "demo",
		Cloud:    cloud,
		Initial:  initial,
		Schedule: rigno.FixedTau(0.1, 20),
	})

Storage backends (in-memory, Redis) and the HTTP API live under
pkg/adapters and are wired by cmd/rigno.
*/
package rigno
