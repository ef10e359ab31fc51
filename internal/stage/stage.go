// Package stage implements the three message-passing stages of the
// operator: encode onto the region mesh, process across the region
// hierarchy, decode back onto physical coordinates. Every stage is a pure
// function from (graph, features) to new features; aggregation over
// incoming edges is sum or mean, never an order-dependent reduction.
package stage

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/aretw0/rigno/pkg/domain"
)

// Inputs carries one operator application: the current field on the
// physical nodes, the cloud providing known parameters, and the time step.
type Inputs struct {
	U     domain.Field
	Cloud *domain.PointCloud
	Tau   float64
}

// Model applies a parameterized operator to inputs over a graph set.
// A Model is read-only after construction and safe for concurrent use.
type Model struct {
	params *Params
}

// NewModel wraps operator parameters.
func NewModel(params *Params) *Model {
	return &Model{params: params}
}

// Params exposes the underlying weights (for checkpointing).
func (m *Model) Params() *Params { return m.params }

// InChannels returns the expected per-point feature width for a cloud:
// field channels + known-parameter channels + the tau channel.
func InChannels(fieldChannels, paramDim int) int {
	return fieldChannels + paramDim + 1
}

// Apply runs encode -> process^k -> decode and returns the next field.
// Neither the graph set nor the inputs are mutated.
func (m *Model) Apply(gs *domain.GraphSet, in Inputs) (domain.Field, error) {
	p := m.params
	n := in.U.Len()
	if n != gs.Encoder.NumSrc {
		return domain.Field{}, fmt.Errorf("field has %d points, encoder graph expects %d", n, gs.Encoder.NumSrc)
	}
	paramDim := 0
	if in.Cloud != nil {
		paramDim = in.Cloud.ParamDim
	}
	if want := InChannels(in.U.Channels, paramDim); want != p.InChannels {
		return domain.Field{}, fmt.Errorf("operator expects %d input channels, inputs provide %d", p.InChannels, want)
	}

	phys := m.physFeatures(in, n)
	hPhys := p.Embed.apply(phys)

	// Encode: physical -> region.
	msg := p.Encoder.Edge.apply(gatherEdgeInputs(&gs.Encoder, hPhys))
	hReg := p.Encoder.Node.apply(aggregate(&gs.Encoder, msg, p.Cfg.Aggregation))

	// Process: region <-> region across every hierarchy level, repeated.
	for r := 0; r < p.Cfg.Repetitions; r++ {
		b := p.processorBlock(r)
		for i := range gs.Processor {
			g := &gs.Processor[i]
			msg := b.Edge.apply(gatherEdgeInputs(g, hReg))
			agg := aggregate(g, msg, p.Cfg.Aggregation)
			upd := b.Node.apply(concatCols(hReg, agg))
			hReg = addResidual(hReg, upd)
		}
	}

	// Decode: region -> physical (or the variable output set).
	msg = p.Decoder.Edge.apply(gatherEdgeInputs(&gs.Decoder, hReg))
	out := p.Decoder.Node.apply(aggregate(&gs.Decoder, msg, p.Cfg.Aggregation))

	rows, cols := out.Dims()
	next := domain.Field{
		Values:   append([]float64(nil), out.RawMatrix().Data...),
		Channels: cols,
	}

	if p.Cfg.OutputMode == OutputDerivative {
		if rows != n || cols != in.U.Channels {
			return domain.Field{}, fmt.Errorf("derivative stepping needs matching input/output shapes (got %dx%d vs %dx%d)", rows, cols, n, in.U.Channels)
		}
		for i := range next.Values {
			next.Values[i] = in.U.Values[i] + in.Tau*next.Values[i]
		}
	}
	return next, nil
}

// physFeatures assembles the per-point input rows: field values, known
// parameters, then the tau conditioning channel.
func (m *Model) physFeatures(in Inputs, n int) *mat.Dense {
	w := m.params.InChannels
	x := mat.NewDense(n, w, nil)
	for i := 0; i < n; i++ {
		row := x.RawRowView(i)
		copy(row, in.U.At(i))
		off := in.U.Channels
		if in.Cloud != nil && in.Cloud.ParamDim > 0 {
			copy(row[off:], in.Cloud.ParamsAt(i))
			off += in.Cloud.ParamDim
		}
		row[off] = in.Tau
	}
	return x
}

// gatherEdgeInputs builds the E x (L+RelDim) edge input matrix:
// source latent features concatenated with relative-position features.
func gatherEdgeInputs(g *domain.Graph, src *mat.Dense) *mat.Dense {
	_, l := src.Dims()
	x := mat.NewDense(g.NumEdges(), l+g.RelDim, nil)
	for e := 0; e < g.NumEdges(); e++ {
		row := x.RawRowView(e)
		copy(row, src.RawRowView(g.Src[e]))
		copy(row[l:], g.RelAt(e))
	}
	return x
}

// aggregate reduces edge messages into destination rows. Sum and mean are
// the only supported reductions; both are invariant under edge reordering
// up to floating-point association.
func aggregate(g *domain.Graph, msg *mat.Dense, mode Aggregation) *mat.Dense {
	_, l := msg.Dims()
	out := mat.NewDense(g.NumDst, l, nil)
	counts := make([]float64, g.NumDst)
	for e := 0; e < g.NumEdges(); e++ {
		dst := out.RawRowView(g.Dst[e])
		src := msg.RawRowView(e)
		for j := range dst {
			dst[j] += src[j]
		}
		counts[g.Dst[e]]++
	}
	if mode == AggMean {
		for i := 0; i < g.NumDst; i++ {
			if counts[i] == 0 {
				continue
			}
			row := out.RawRowView(i)
			for j := range row {
				row[j] /= counts[i]
			}
		}
	}
	return out
}

func concatCols(a, b *mat.Dense) *mat.Dense {
	rows, ca := a.Dims()
	_, cb := b.Dims()
	out := mat.NewDense(rows, ca+cb, nil)
	for i := 0; i < rows; i++ {
		row := out.RawRowView(i)
		copy(row, a.RawRowView(i))
		copy(row[ca:], b.RawRowView(i))
	}
	return out
}

func addResidual(h, upd *mat.Dense) *mat.Dense {
	rows, cols := h.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Add(h, upd)
	return out
}
