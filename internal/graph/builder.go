// Package graph constructs the encoder, processor and decoder edge sets that
// connect a physical point cloud to its region mesh. Construction is fully
// deterministic: the same cloud, region set and config always produce the
// same edge arrays, with no seed involved.
package graph

import (
	"log/slog"
	"math"
	"sort"

	"github.com/aretw0/rigno/internal/logging"
	"github.com/aretw0/rigno/pkg/domain"
)

// Config is the graph construction surface. Radii are in the coordinate
// units of the mesh; they are configuration, not constants, so callers can
// adapt them to point density.
type Config struct {
	// EncoderRadius is the support radius for physical->region edges.
	EncoderRadius float64 `yaml:"encoder_radius"`
	// DecoderRadius is the support radius for region->physical edges.
	// Zero means "same as EncoderRadius".
	DecoderRadius float64 `yaml:"decoder_radius"`
	// ProcessorRadius is the level-0 region<->region radius. Level l uses
	// ProcessorRadius * 2^l over a 2^l-strided subset of region nodes, which
	// keeps a global receptive field on sparse meshes.
	ProcessorRadius float64 `yaml:"processor_radius"`
	// Levels is the number of processor hierarchy levels (>= 1).
	Levels int `yaml:"levels"`
	// AllowVariableOutput permits decoding onto a coordinate set different
	// from the encoder input cloud.
	AllowVariableOutput bool `yaml:"allow_variable_output"`
}

func (c Config) decoderRadius() float64 {
	if c.DecoderRadius > 0 {
		return c.DecoderRadius
	}
	return c.EncoderRadius
}

// Validate checks the construction parameters.
func (c Config) Validate() error {
	if c.EncoderRadius <= 0 {
		return &domain.InvalidMeshError{Reason: "encoder support radius must be positive"}
	}
	if c.ProcessorRadius <= 0 {
		return &domain.InvalidMeshError{Reason: "processor support radius must be positive"}
	}
	if c.DecoderRadius < 0 {
		return &domain.InvalidMeshError{Reason: "decoder support radius must not be negative"}
	}
	if c.Levels < 1 {
		return &domain.InvalidMeshError{Reason: "processor hierarchy needs at least one level"}
	}
	return nil
}

// Builder constructs stage graphs for a mesh configuration.
type Builder struct {
	cfg    Config
	logger *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets a structured logger for the builder.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder creates a Builder after validating the config.
func NewBuilder(cfg Config, opts ...Option) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Builder{cfg: cfg, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Build constructs the encoder, processor and decoder graphs for a cloud and
// its region set. Decoder edges land back on the input cloud.
func (b *Builder) Build(cloud *domain.PointCloud, regions *domain.RegionSet) (*domain.GraphSet, error) {
	return b.BuildTo(cloud, regions, cloud)
}

// BuildTo constructs stage graphs decoding onto a separate output cloud.
// Requires AllowVariableOutput unless out is the input cloud itself.
func (b *Builder) BuildTo(cloud *domain.PointCloud, regions *domain.RegionSet, out *domain.PointCloud) (*domain.GraphSet, error) {
	if err := cloud.Validate(); err != nil {
		return nil, err
	}
	if out != cloud {
		if !b.cfg.AllowVariableOutput {
			return nil, &domain.InvalidMeshError{Reason: "variable output coordinates are disabled in this configuration"}
		}
		if err := out.Validate(); err != nil {
			return nil, err
		}
		if out.Dim != cloud.Dim {
			return nil, &domain.InvalidMeshError{Reason: "output cloud dimensionality differs from input"}
		}
	}
	if regions.Len() == 0 {
		return nil, &domain.InvalidMeshError{Reason: "region set is empty"}
	}

	gs := &domain.GraphSet{
		Regions: *regions,
		Key:     CacheKey(cloud, regions, b.cfg),
	}

	encoder, err := b.bipartite(domain.EdgeEncoder, cloud.Coords, regions.Coords, cloud.Dim, b.cfg.EncoderRadius)
	if err != nil {
		return nil, err
	}
	gs.Encoder = encoder

	decoder, err := b.bipartite(domain.EdgeDecoder, regions.Coords, out.Coords, cloud.Dim, b.cfg.decoderRadius())
	if err != nil {
		return nil, err
	}
	gs.Decoder = decoder

	for level := 0; level < b.cfg.Levels; level++ {
		proc, err := b.processorLevel(regions, level)
		if err != nil {
			return nil, err
		}
		gs.Processor = append(gs.Processor, proc)
	}

	b.logger.Debug("built graph set",
		"encoder_edges", gs.Encoder.NumEdges(),
		"decoder_edges", gs.Decoder.NumEdges(),
		"levels", len(gs.Processor),
		"total_edges", gs.NumEdges(),
	)
	return gs, nil
}

// RelDim returns the width of the relative-position edge features for a
// spatial dimension: the normalized coordinate delta plus the scaled
// distance.
func RelDim(dim int) int { return dim + 1 }

// bipartite builds a src->dst graph keeping every edge within the radius
// (soft assignment: a point in range of several nodes connects to all of
// them; aggregation at the neural stage handles the multiplicity).
//
// Every source node must reach at least one destination and vice versa,
// otherwise information would be silently dropped at this stage.
func (b *Builder) bipartite(kind domain.EdgeKind, srcCoords, dstCoords []float64, dim int, radius float64) (domain.Graph, error) {
	numSrc := len(srcCoords) / dim
	numDst := len(dstCoords) / dim

	g := domain.Graph{
		Kind:   kind,
		RelDim: dim + 1,
		NumSrc: numSrc,
		NumDst: numDst,
	}

	idx := newGridIndex(srcCoords, dim, radius)
	srcSeen := make([]bool, numSrc)
	var buf []int
	for j := 0; j < numDst; j++ {
		p := dstCoords[j*dim : (j+1)*dim]
		buf = idx.within(p, radius, buf[:0])
		for _, i := range buf {
			g.Src = append(g.Src, i)
			g.Dst = append(g.Dst, j)
			srcSeen[i] = true
		}
	}

	if err := checkCovered(kind, srcSeen); err != nil {
		return domain.Graph{}, err
	}
	if err := checkDstCovered(kind, &g); err != nil {
		return domain.Graph{}, err
	}

	sortEdges(&g)
	fillRelFeatures(&g, srcCoords, dstCoords, dim, radius)
	return g, nil
}

// processorLevel builds the region<->region graph for one hierarchy level.
// Region sets come out of farthest-point sampling, whose prefixes are
// themselves well-spread coarser samplings: level l connects the first
// 1/2^l of the region nodes with radius scaled by 2^l, which keeps a global
// receptive field on sparse meshes. Edges are added in both directions, and
// node indices always refer to the full region set so latent states share
// one array across levels.
func (b *Builder) processorLevel(regions *domain.RegionSet, level int) (domain.Graph, error) {
	stride := 1 << level
	dim := regions.Dim
	radius := b.cfg.ProcessorRadius * float64(stride)

	n := (regions.Len() + stride - 1) / stride
	selected := make([]int, n)
	for i := range selected {
		selected[i] = i
	}
	coords := make([]float64, 0, len(selected)*dim)
	for _, i := range selected {
		coords = append(coords, regions.At(i)...)
	}

	g := domain.Graph{
		Kind:   domain.EdgeProcessor,
		Level:  level,
		RelDim: dim + 1,
		NumSrc: regions.Len(),
		NumDst: regions.Len(),
	}

	idx := newGridIndex(coords, dim, radius)
	var buf []int
	for a := range selected {
		p := coords[a*dim : (a+1)*dim]
		buf = idx.within(p, radius, buf[:0])
		for _, c := range buf {
			if c == a {
				continue
			}
			g.Src = append(g.Src, selected[c])
			g.Dst = append(g.Dst, selected[a])
		}
	}

	// Only the base level must keep every region connected; coarser levels
	// are a long-range supplement.
	if level == 0 {
		covered := make([]bool, regions.Len())
		for _, d := range g.Dst {
			covered[d] = true
		}
		if err := checkCovered(domain.EdgeProcessor, covered); err != nil {
			return domain.Graph{}, err
		}
	}

	sortEdges(&g)
	fillRelFeatures(&g, regions.Coords, regions.Coords, dim, radius)
	return g, nil
}

func checkCovered(kind domain.EdgeKind, seen []bool) error {
	first, count := -1, 0
	for i, ok := range seen {
		if !ok {
			if first < 0 {
				first = i
			}
			count++
		}
	}
	if count > 0 {
		return &domain.GraphConstructionError{Kind: kind, Node: first, Count: count}
	}
	return nil
}

func checkDstCovered(kind domain.EdgeKind, g *domain.Graph) error {
	covered := make([]bool, g.NumDst)
	for _, d := range g.Dst {
		covered[d] = true
	}
	return checkCovered(kind, covered)
}

// sortEdges orders edges by (dst, src) so rebuilds are byte-identical.
func sortEdges(g *domain.Graph) {
	order := make([]int, len(g.Src))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ea, eb := order[a], order[b]
		if g.Dst[ea] != g.Dst[eb] {
			return g.Dst[ea] < g.Dst[eb]
		}
		return g.Src[ea] < g.Src[eb]
	})
	src := make([]int, len(g.Src))
	dst := make([]int, len(g.Dst))
	for i, e := range order {
		src[i] = g.Src[e]
		dst[i] = g.Dst[e]
	}
	g.Src, g.Dst = src, dst
}

// fillRelFeatures computes per-edge relative position features: the
// coordinate delta dst-src normalized by the stage radius, plus the
// normalized distance.
func fillRelFeatures(g *domain.Graph, srcCoords, dstCoords []float64, dim int, radius float64) {
	g.Rel = make([]float64, 0, g.NumEdges()*g.RelDim)
	for e := 0; e < g.NumEdges(); e++ {
		s := srcCoords[g.Src[e]*dim : (g.Src[e]+1)*dim]
		d := dstCoords[g.Dst[e]*dim : (g.Dst[e]+1)*dim]
		var dist2 float64
		for k := 0; k < dim; k++ {
			delta := (d[k] - s[k]) / radius
			g.Rel = append(g.Rel, delta)
			dist2 += delta * delta
		}
		g.Rel = append(g.Rel, math.Sqrt(dist2))
	}
}
