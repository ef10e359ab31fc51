package domain

import "errors"

// ErrDatasetNotFound is returned by dataset loaders on unknown names.
var ErrDatasetNotFound = errors.New("dataset not found")

// Dataset bundles a spatial discretization with the reference trajectories
// sampled on it. Trajectories share the cloud; they are read-only once
// loaded.
type Dataset struct {
	Name         string        `json:"name"`
	Cloud        *PointCloud   `json:"cloud"`
	Trajectories []*Trajectory `json:"trajectories"`
}

// Validate checks the cloud and that every trajectory snapshot matches it.
func (d *Dataset) Validate() error {
	if d.Cloud == nil {
		return &InvalidMeshError{Reason: "dataset has no point cloud"}
	}
	if err := d.Cloud.Validate(); err != nil {
		return err
	}
	n := d.Cloud.Len()
	for _, traj := range d.Trajectories {
		for _, snap := range traj.Snapshots {
			if snap.Len() != n {
				return &InvalidMeshError{Reason: "trajectory snapshot does not match the point cloud"}
			}
		}
	}
	return nil
}
