package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointCloudValidate(t *testing.T) {
	cases := []struct {
		name  string
		cloud PointCloud
		ok    bool
	}{
		{"valid 2d", PointCloud{Coords: []float64{0, 0, 1, 0, 0, 1}, Dim: 2}, true},
		{"empty", PointCloud{Dim: 2}, false},
		{"zero dim", PointCloud{Coords: []float64{1, 2}}, false},
		{"ragged", PointCloud{Coords: []float64{0, 0, 1}, Dim: 2}, false},
		{"nan coordinate", PointCloud{Coords: []float64{0, math.NaN()}, Dim: 2}, false},
		{"param mismatch", PointCloud{Coords: []float64{0, 0, 1, 1}, Dim: 2, Params: []float64{1}, ParamDim: 1}, false},
		{"params ok", PointCloud{Coords: []float64{0, 0, 1, 1}, Dim: 2, Params: []float64{1, 2}, ParamDim: 1}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cloud.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			var ime *InvalidMeshError
			require.Error(t, err)
			assert.ErrorAs(t, err, &ime)
		})
	}
}

func TestTrajectoryAppendAccumulatesTime(t *testing.T) {
	initial := Field{Values: []float64{1, 2}, Channels: 1}
	trj := NewTrajectory("t1", initial)
	require.Equal(t, 0, trj.Steps())
	assert.Equal(t, []float64{0}, trj.Times)

	trj.Append(Field{Values: []float64{3, 4}, Channels: 1}, 0.5)
	trj.Append(Field{Values: []float64{5, 6}, Channels: 1}, 0.25)

	assert.Equal(t, 2, trj.Steps())
	assert.Equal(t, []float64{0, 0.5, 0.75}, trj.Times)
	assert.Equal(t, []float64{5, 6}, trj.Last().Values)
}

func TestTrajectoryInitialIsIsolated(t *testing.T) {
	initial := Field{Values: []float64{1, 2}, Channels: 1}
	trj := NewTrajectory("t1", initial)

	// Mutating the caller's field must not touch snapshot 0.
	initial.Values[0] = 99
	assert.Equal(t, 1.0, trj.Snapshots[0].Values[0])
}

func TestFieldFinite(t *testing.T) {
	f := Field{Values: []float64{1, 2, 3}, Channels: 1}
	assert.True(t, f.Finite())
	f.Values[1] = math.Inf(1)
	assert.False(t, f.Finite())
}
