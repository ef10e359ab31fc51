package stage

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// mlp is a two-layer perceptron with optional layer normalization on the
// output, the per-node transform used by every stage. Weights live in
// gonum dense matrices; rows of the input matrix are nodes or edges.
type mlp struct {
	W1, W2 *mat.Dense
	B1, B2 []float64
	// Norm enables layer normalization with learned scale/shift.
	Norm  bool
	Gamma []float64
	Beta  []float64
}

// newMLP initializes weights deterministically from rng with a uniform
// Glorot-style range.
func newMLP(in, hidden, out int, norm bool, rng *rand.Rand) *mlp {
	m := &mlp{
		W1:   mat.NewDense(in, hidden, nil),
		W2:   mat.NewDense(hidden, out, nil),
		B1:   make([]float64, hidden),
		B2:   make([]float64, out),
		Norm: norm,
	}
	initUniform(m.W1, in, hidden, rng)
	initUniform(m.W2, hidden, out, rng)
	if norm {
		m.Gamma = make([]float64, out)
		m.Beta = make([]float64, out)
		for i := range m.Gamma {
			m.Gamma[i] = 1
		}
	}
	return m
}

func initUniform(w *mat.Dense, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	r, c := w.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			w.Set(i, j, (2*rng.Float64()-1)*limit)
		}
	}
}

// apply runs the MLP over every row of x and returns a new matrix; x is
// never mutated. Activation (tanh) is applied on the hidden layer only.
func (m *mlp) apply(x *mat.Dense) *mat.Dense {
	rows, _ := x.Dims()
	_, hidden := m.W1.Dims()
	_, out := m.W2.Dims()

	h := mat.NewDense(rows, hidden, nil)
	h.Mul(x, m.W1)
	for i := 0; i < rows; i++ {
		for j := 0; j < hidden; j++ {
			h.Set(i, j, math.Tanh(h.At(i, j)+m.B1[j]))
		}
	}

	y := mat.NewDense(rows, out, nil)
	y.Mul(h, m.W2)
	for i := 0; i < rows; i++ {
		for j := 0; j < out; j++ {
			y.Set(i, j, y.At(i, j)+m.B2[j])
		}
	}

	if m.Norm {
		normalizeRows(y, m.Gamma, m.Beta)
	}
	return y
}

// normalizeRows applies layer normalization per row with learned
// scale/shift, matching the augmented-MLP construction.
func normalizeRows(y *mat.Dense, gamma, beta []float64) {
	rows, cols := y.Dims()
	for i := 0; i < rows; i++ {
		row := y.RawRowView(i)
		var mean float64
		for _, v := range row {
			mean += v
		}
		mean /= float64(cols)
		var variance float64
		for _, v := range row {
			d := v - mean
			variance += d * d
		}
		variance /= float64(cols)
		inv := 1 / math.Sqrt(variance+1e-8)
		for j, v := range row {
			row[j] = gamma[j]*(v-mean)*inv + beta[j]
		}
	}
}
