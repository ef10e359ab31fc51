package domain

import "math"

// PointCloud holds the physical node coordinates of a discretized domain.
// Structured grids and unstructured clouds share this representation: a grid
// is just a cloud whose points happen to be regular. Coordinates are stored
// as a flat row-major array (n points of Dim components) so downstream code
// can work with indices instead of an object graph.
type PointCloud struct {
	// Coords is the flat coordinate array, length n*Dim.
	Coords []float64 `json:"coords"`
	// Dim is the spatial dimensionality (1, 2 or 3 in practice).
	Dim int `json:"dim"`
	// Params holds optional per-point known parameters (e.g. wave speed),
	// flat n*ParamDim. Nil when the dataset carries none.
	Params []float64 `json:"params,omitempty"`
	// ParamDim is the number of known-parameter channels per point.
	ParamDim int `json:"param_dim,omitempty"`
}

// Len returns the number of points in the cloud.
func (pc *PointCloud) Len() int {
	if pc.Dim == 0 {
		return 0
	}
	return len(pc.Coords) / pc.Dim
}

// At returns the coordinates of point i as a slice into the backing array.
// Callers must not mutate the result.
func (pc *PointCloud) At(i int) []float64 {
	return pc.Coords[i*pc.Dim : (i+1)*pc.Dim]
}

// ParamsAt returns the known parameters of point i, or nil if none are set.
func (pc *PointCloud) ParamsAt(i int) []float64 {
	if pc.Params == nil || pc.ParamDim == 0 {
		return nil
	}
	return pc.Params[i*pc.ParamDim : (i+1)*pc.ParamDim]
}

// Validate checks structural consistency of the cloud.
func (pc *PointCloud) Validate() error {
	if pc.Dim <= 0 {
		return &InvalidMeshError{Reason: "dimensionality must be positive"}
	}
	if len(pc.Coords) == 0 {
		return &InvalidMeshError{Reason: "point cloud is empty"}
	}
	if len(pc.Coords)%pc.Dim != 0 {
		return &InvalidMeshError{Reason: "coordinate array length is not a multiple of the dimension"}
	}
	for i, c := range pc.Coords {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return &InvalidMeshError{Reason: "non-finite coordinate", Index: i / pc.Dim}
		}
	}
	if pc.Params != nil {
		if pc.ParamDim <= 0 {
			return &InvalidMeshError{Reason: "params set but param_dim is zero"}
		}
		if len(pc.Params) != pc.Len()*pc.ParamDim {
			return &InvalidMeshError{Reason: "known-parameter array does not match point count"}
		}
	}
	return nil
}

// RegionSet is the reduced set of region-node coordinates derived from a
// physical cloud. Origin records, per region node, the index of the physical
// point it was placed on; it exists for diagnostics only and carries no
// semantics during message passing.
type RegionSet struct {
	Coords []float64 `json:"coords"`
	Dim    int       `json:"dim"`
	Origin []int     `json:"origin,omitempty"`
}

// Len returns the number of region nodes.
func (rs *RegionSet) Len() int {
	if rs.Dim == 0 {
		return 0
	}
	return len(rs.Coords) / rs.Dim
}

// At returns the coordinates of region node i.
func (rs *RegionSet) At(i int) []float64 {
	return rs.Coords[i*rs.Dim : (i+1)*rs.Dim]
}
