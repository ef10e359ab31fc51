/*
Package ports defines the driven ports (interfaces) for the rollout pipeline.

These interfaces decouple the core logic from external implementations,
allowing the pipeline to work with various storage backends and data sources.

# Key Interfaces

  - TrajectoryStore: persists rollout trajectories (memory, redis).
  - GraphCache: caches built graph sets per geometry/config key.
  - DatasetLoader: loads reference datasets (e.g., from JSON files).
*/
package ports
