package domain

// EdgeKind identifies which stage a graph feeds.
type EdgeKind string

const (
	// EdgeEncoder connects physical nodes to region nodes.
	EdgeEncoder EdgeKind = "encoder"
	// EdgeProcessor connects region nodes to region nodes.
	EdgeProcessor EdgeKind = "processor"
	// EdgeDecoder connects region nodes back to physical nodes.
	EdgeDecoder EdgeKind = "decoder"
)

// Graph is one stage's edge set in struct-of-arrays form: edge e runs from
// source node Src[e] to destination node Dst[e]. Rel holds relative-position
// features per edge (RelDim components each). Edges are sorted by
// (Dst, Src) so that rebuilding from identical inputs yields an identical
// graph byte for byte.
type Graph struct {
	Kind   EdgeKind  `json:"kind"`
	Level  int       `json:"level"`
	Src    []int     `json:"src"`
	Dst    []int     `json:"dst"`
	Rel    []float64 `json:"rel"`
	RelDim int       `json:"rel_dim"`
	NumSrc int       `json:"num_src"`
	NumDst int       `json:"num_dst"`
}

// NumEdges returns the number of edges in the graph.
func (g *Graph) NumEdges() int { return len(g.Src) }

// RelAt returns the relative-position features of edge e.
func (g *Graph) RelAt(e int) []float64 {
	return g.Rel[e*g.RelDim : (e+1)*g.RelDim]
}

// GraphSet bundles the three stage graphs built for one mesh configuration.
// Processor holds one graph per hierarchy level, level 0 first. The whole
// set is immutable after construction; rollouts share it read-only.
type GraphSet struct {
	Encoder   Graph     `json:"encoder"`
	Processor []Graph   `json:"processor"`
	Decoder   Graph     `json:"decoder"`
	Regions   RegionSet `json:"regions"`
	// Key identifies the (geometry, config) pair this set was built for.
	Key string `json:"key"`
}

// NumEdges returns total edges across all stage graphs.
func (gs *GraphSet) NumEdges() int {
	n := gs.Encoder.NumEdges() + gs.Decoder.NumEdges()
	for i := range gs.Processor {
		n += gs.Processor[i].NumEdges()
	}
	return n
}
