package domain

import "math"

// Field is a multi-channel scalar field sampled on the points of a cloud.
// Values are flat row-major, n points of Channels components each.
type Field struct {
	Values   []float64 `json:"values"`
	Channels int       `json:"channels"`
}

// Len returns the number of sample points.
func (f *Field) Len() int {
	if f.Channels == 0 {
		return 0
	}
	return len(f.Values) / f.Channels
}

// At returns the channel values at point i.
func (f *Field) At(i int) []float64 {
	return f.Values[i*f.Channels : (i+1)*f.Channels]
}

// Clone returns a deep copy of the field.
func (f *Field) Clone() Field {
	out := Field{Values: make([]float64, len(f.Values)), Channels: f.Channels}
	copy(out.Values, f.Values)
	return out
}

// Finite reports whether every value in the field is finite.
func (f *Field) Finite() bool {
	for _, v := range f.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
