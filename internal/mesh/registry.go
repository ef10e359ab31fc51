// Package mesh owns physical node coordinate data and derives the reduced
// region-node sets that message passing operates on. Structured grids and
// unstructured point clouds are handled through the same interface; nothing
// here inspects regularity.
package mesh

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/aretw0/rigno/internal/logging"
	"github.com/aretw0/rigno/pkg/domain"
)

// ReduceSpec selects how many region nodes to derive from a physical cloud.
// TargetCount wins when both are set; Factor is the ratio of physical nodes
// per region node.
type ReduceSpec struct {
	TargetCount int
	Factor      float64
}

// Registry holds named point clouds and produces region sets from them.
// Safe for concurrent use; registered clouds are treated as immutable.
type Registry struct {
	mu     sync.RWMutex
	clouds map[string]*domain.PointCloud
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets a structured logger for the registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		clouds: make(map[string]*domain.PointCloud),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates and stores a point cloud under a name.
func (r *Registry) Register(name string, cloud *domain.PointCloud) error {
	if err := cloud.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clouds[name] = cloud
	r.logger.Debug("registered point cloud", "name", name, "points", cloud.Len(), "dim", cloud.Dim)
	return nil
}

// Cloud returns a registered cloud by name.
func (r *Registry) Cloud(name string) (*domain.PointCloud, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cloud, ok := r.clouds[name]
	if !ok {
		return nil, fmt.Errorf("no point cloud registered under %q", name)
	}
	return cloud, nil
}

// Reduce derives region-node coordinates from a physical cloud using
// farthest-point sampling seeded at the lexicographically smallest point.
//
// Selection is permutation-stable: the seed and every tie-break depend only
// on coordinates, never on input order, so two clouds describing the same
// geometry in different point orders yield the same region set. This is
// what lets the rest of the pipeline claim discretization invariance.
// Farthest-point sampling also spreads region nodes evenly over irregular
// clouds, keeping the encoder support radius meaningful across densities.
func (r *Registry) Reduce(cloud *domain.PointCloud, spec ReduceSpec) (*domain.RegionSet, error) {
	if err := cloud.Validate(); err != nil {
		return nil, err
	}
	n := cloud.Len()
	count, err := resolveCount(n, spec)
	if err != nil {
		return nil, err
	}

	selected := farthestPoints(cloud, count)

	rs := &domain.RegionSet{
		Coords: make([]float64, 0, count*cloud.Dim),
		Dim:    cloud.Dim,
		Origin: selected,
	}
	for _, src := range selected {
		rs.Coords = append(rs.Coords, cloud.At(src)...)
	}
	r.logger.Debug("reduced point cloud", "points", n, "regions", count)
	return rs, nil
}

// farthestPoints selects count indices by iteratively taking the point
// farthest from the already-selected set. Ties break toward the
// lexicographically smaller coordinate.
func farthestPoints(cloud *domain.PointCloud, count int) []int {
	n := cloud.Len()
	dist := make([]float64, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}

	selected := make([]int, 0, count)
	cur := lexicalMin(cloud)
	for {
		selected = append(selected, cur)
		if len(selected) == count {
			break
		}
		next, far := -1, -1.0
		for i := 0; i < n; i++ {
			if d := dist2(cloud.At(i), cloud.At(cur)); d < dist[i] {
				dist[i] = d
			}
			if dist[i] == 0 {
				continue
			}
			if dist[i] > far || (dist[i] == far && next >= 0 && lexLess(cloud.At(i), cloud.At(next))) {
				next, far = i, dist[i]
			}
		}
		if next < 0 {
			break // all remaining points duplicate a selected one
		}
		cur = next
	}
	return selected
}

func lexicalMin(cloud *domain.PointCloud) int {
	best := 0
	for i := 1; i < cloud.Len(); i++ {
		if lexLess(cloud.At(i), cloud.At(best)) {
			best = i
		}
	}
	return best
}

func lexLess(a, b []float64) bool {
	for k := range a {
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return false
}

func dist2(a, b []float64) float64 {
	var d2 float64
	for k := range a {
		d := a[k] - b[k]
		d2 += d * d
	}
	return d2
}

func resolveCount(n int, spec ReduceSpec) (int, error) {
	switch {
	case spec.TargetCount > 0:
		if spec.TargetCount > n {
			return n, nil
		}
		return spec.TargetCount, nil
	case spec.Factor > 0:
		if spec.Factor < 1 {
			return 0, &domain.InvalidMeshError{Reason: "subsample factor must be >= 1"}
		}
		count := int(float64(n) / spec.Factor)
		if count < 1 {
			count = 1
		}
		return count, nil
	default:
		return 0, &domain.InvalidMeshError{Reason: "reduce spec needs a target count or a subsample factor"}
	}
}
