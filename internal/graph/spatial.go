package graph

import (
	"math"
)

// gridIndex is a uniform cell grid over a flat coordinate array, used for
// fixed-radius neighbor queries. Cells are keyed by a hash of the integer
// cell coordinates; hash collisions only widen the candidate set, the exact
// distance filter runs afterwards. Nodes and edges stay plain indexed arrays
// so construction is allocation-light and permutation-stable.
type gridIndex struct {
	coords []float64
	dim    int
	cell   float64
	cells  map[uint64][]int
}

func newGridIndex(coords []float64, dim int, cell float64) *gridIndex {
	idx := &gridIndex{
		coords: coords,
		dim:    dim,
		cell:   cell,
		cells:  make(map[uint64][]int),
	}
	n := len(coords) / dim
	for i := 0; i < n; i++ {
		key := idx.cellKey(coords[i*dim:(i+1)*dim], nil)
		idx.cells[key] = append(idx.cells[key], i)
	}
	return idx
}

// cellKey hashes the integer cell coordinates of p, shifted by offset cells
// when offset is non-nil. FNV-1a over the int64 cell coordinates.
func (idx *gridIndex) cellKey(p []float64, offset []int) uint64 {
	const (
		fnvOffset = 14695981039346656037
		fnvPrime  = 1099511628211
	)
	h := uint64(fnvOffset)
	for k := 0; k < idx.dim; k++ {
		c := int64(math.Floor(p[k] / idx.cell))
		if offset != nil {
			c += int64(offset[k])
		}
		v := uint64(c)
		for b := 0; b < 8; b++ {
			h ^= (v >> (8 * b)) & 0xff
			h *= fnvPrime
		}
	}
	return h
}

// within appends to dst the indices of all points at euclidean distance
// <= radius from p, in ascending index order.
func (idx *gridIndex) within(p []float64, radius float64, dst []int) []int {
	reach := int(math.Ceil(radius / idx.cell))
	offset := make([]int, idx.dim)
	seen := make(map[int]struct{})

	var scan func(k int)
	scan = func(k int) {
		if k == idx.dim {
			for _, i := range idx.cells[idx.cellKey(p, offset)] {
				if _, dup := seen[i]; dup {
					continue
				}
				if idx.dist2(p, i) <= radius*radius {
					seen[i] = struct{}{}
					dst = append(dst, i)
				}
			}
			return
		}
		for o := -reach; o <= reach; o++ {
			offset[k] = o
			scan(k + 1)
		}
	}
	scan(0)

	// Candidate order depends on cell iteration; normalize it.
	sortInts(dst)
	return dst
}

func (idx *gridIndex) dist2(p []float64, i int) float64 {
	var d2 float64
	q := idx.coords[i*idx.dim : (i+1)*idx.dim]
	for k := 0; k < idx.dim; k++ {
		d := p[k] - q[k]
		d2 += d * d
	}
	return d2
}

func sortInts(s []int) {
	// Insertion sort: candidate sets are small (a few cells worth).
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
