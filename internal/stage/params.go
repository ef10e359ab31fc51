package stage

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Aggregation selects the permutation-invariant reduction over incoming
// edges. Only order-independent reductions are allowed here; that property
// is what backs discretization invariance.
type Aggregation string

const (
	AggSum  Aggregation = "sum"
	AggMean Aggregation = "mean"
)

// OutputMode selects how the decoder output becomes the next field.
type OutputMode string

const (
	// OutputDirect uses the decoder output as the next field.
	OutputDirect OutputMode = "direct"
	// OutputDerivative treats the decoder output as a time derivative:
	// next = u + tau * output (derivative stepping).
	OutputDerivative OutputMode = "derivative"
)

// Config fixes the architecture of the three message-passing stages.
type Config struct {
	LatentSize  int         `yaml:"latent_size"`
	HiddenSize  int         `yaml:"hidden_size"`
	Aggregation Aggregation `yaml:"aggregation"`
	// Repetitions is the number of processor applications per step.
	Repetitions int `yaml:"repetitions"`
	// SharedWeights reuses one processor parameter set for every repetition
	// instead of distinct sets per repetition.
	SharedWeights bool       `yaml:"shared_weights"`
	OutputMode    OutputMode `yaml:"output_mode"`
	LayerNorm     bool       `yaml:"layer_norm"`
}

// Validate checks the stage configuration.
func (c Config) Validate() error {
	if c.LatentSize <= 0 {
		return fmt.Errorf("latent size must be positive")
	}
	if c.HiddenSize <= 0 {
		return fmt.Errorf("hidden size must be positive")
	}
	switch c.Aggregation {
	case AggSum, AggMean:
	default:
		return fmt.Errorf("unknown aggregation %q (want sum or mean)", c.Aggregation)
	}
	if c.Repetitions < 1 {
		return fmt.Errorf("processor repetitions must be at least 1")
	}
	switch c.OutputMode {
	case OutputDirect, OutputDerivative:
	default:
		return fmt.Errorf("unknown output mode %q (want direct or derivative)", c.OutputMode)
	}
	return nil
}

// block is one message-passing unit: an edge MLP producing messages and a
// node MLP applying the aggregated messages.
type block struct {
	Edge *mlp
	Node *mlp
}

// Params holds every weight of the operator. Initialization is
// deterministic in the seed; a given (config, shapes, seed) triple always
// produces the same operator.
type Params struct {
	Cfg         Config
	InChannels  int
	OutChannels int
	RelDim      int

	Embed     *mlp
	Encoder   block
	Processor []block
	Decoder   block
}

// NewParams builds operator weights for the given field/edge shapes.
func NewParams(cfg Config, inChannels, outChannels, relDim int, seed int64) (*Params, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if inChannels <= 0 || outChannels <= 0 {
		return nil, fmt.Errorf("field channel counts must be positive")
	}

	rng := rand.New(rand.NewSource(seed))
	L, H := cfg.LatentSize, cfg.HiddenSize

	p := &Params{
		Cfg:         cfg,
		InChannels:  inChannels,
		OutChannels: outChannels,
		RelDim:      relDim,
	}

	// Physical features: field channels + known params folded in by the
	// model, plus the tau conditioning channel.
	p.Embed = newMLP(inChannels, H, L, cfg.LayerNorm, rng)
	p.Encoder = block{
		Edge: newMLP(L+relDim, H, L, cfg.LayerNorm, rng),
		Node: newMLP(L, H, L, cfg.LayerNorm, rng),
	}

	reps := cfg.Repetitions
	if cfg.SharedWeights {
		reps = 1
	}
	for i := 0; i < reps; i++ {
		p.Processor = append(p.Processor, block{
			Edge: newMLP(L+relDim, H, L, cfg.LayerNorm, rng),
			Node: newMLP(2*L, H, L, cfg.LayerNorm, rng),
		})
	}

	p.Decoder = block{
		Edge: newMLP(L+relDim, H, L, cfg.LayerNorm, rng),
		// The final transform maps aggregated messages to output channels;
		// no normalization on the output head.
		Node: newMLP(L, H, outChannels, false, rng),
	}
	return p, nil
}

// processorBlock returns the parameter block for repetition r.
func (p *Params) processorBlock(r int) block {
	if p.Cfg.SharedWeights {
		return p.Processor[0]
	}
	return p.Processor[r]
}

// checkpoint is the JSON wire form of Params.
type checkpoint struct {
	Cfg         Config       `json:"config"`
	InChannels  int          `json:"in_channels"`
	OutChannels int          `json:"out_channels"`
	RelDim      int          `json:"rel_dim"`
	Embed       mlpState     `json:"embed"`
	Encoder     blockState   `json:"encoder"`
	Processor   []blockState `json:"processor"`
	Decoder     blockState   `json:"decoder"`
}

type blockState struct {
	Edge mlpState `json:"edge"`
	Node mlpState `json:"node"`
}

type mlpState struct {
	In     int       `json:"in"`
	Hidden int       `json:"hidden"`
	Out    int       `json:"out"`
	W1     []float64 `json:"w1"`
	W2     []float64 `json:"w2"`
	B1     []float64 `json:"b1"`
	B2     []float64 `json:"b2"`
	Norm   bool      `json:"norm"`
	Gamma  []float64 `json:"gamma,omitempty"`
	Beta   []float64 `json:"beta,omitempty"`
}

func dumpMLP(m *mlp) mlpState {
	in, hidden := m.W1.Dims()
	_, out := m.W2.Dims()
	return mlpState{
		In: in, Hidden: hidden, Out: out,
		W1:    append([]float64(nil), m.W1.RawMatrix().Data...),
		W2:    append([]float64(nil), m.W2.RawMatrix().Data...),
		B1:    append([]float64(nil), m.B1...),
		B2:    append([]float64(nil), m.B2...),
		Norm:  m.Norm,
		Gamma: append([]float64(nil), m.Gamma...),
		Beta:  append([]float64(nil), m.Beta...),
	}
}

func loadMLP(s mlpState) (*mlp, error) {
	if len(s.W1) != s.In*s.Hidden || len(s.W2) != s.Hidden*s.Out {
		return nil, fmt.Errorf("checkpoint weight shapes are inconsistent")
	}
	m := &mlp{
		W1:   mat.NewDense(s.In, s.Hidden, s.W1),
		W2:   mat.NewDense(s.Hidden, s.Out, s.W2),
		B1:   s.B1,
		B2:   s.B2,
		Norm: s.Norm,
	}
	if s.Norm {
		m.Gamma, m.Beta = s.Gamma, s.Beta
	}
	return m, nil
}

// Save writes the parameters as a JSON checkpoint.
func (p *Params) Save(w io.Writer) error {
	ck := checkpoint{
		Cfg:         p.Cfg,
		InChannels:  p.InChannels,
		OutChannels: p.OutChannels,
		RelDim:      p.RelDim,
		Embed:       dumpMLP(p.Embed),
		Encoder:     blockState{Edge: dumpMLP(p.Encoder.Edge), Node: dumpMLP(p.Encoder.Node)},
		Decoder:     blockState{Edge: dumpMLP(p.Decoder.Edge), Node: dumpMLP(p.Decoder.Node)},
	}
	for _, b := range p.Processor {
		ck.Processor = append(ck.Processor, blockState{Edge: dumpMLP(b.Edge), Node: dumpMLP(b.Node)})
	}
	enc := json.NewEncoder(w)
	return enc.Encode(ck)
}

// LoadParams reads a JSON checkpoint written by Save.
func LoadParams(r io.Reader) (*Params, error) {
	var ck checkpoint
	if err := json.NewDecoder(r).Decode(&ck); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	if err := ck.Cfg.Validate(); err != nil {
		return nil, fmt.Errorf("checkpoint config: %w", err)
	}

	p := &Params{
		Cfg:         ck.Cfg,
		InChannels:  ck.InChannels,
		OutChannels: ck.OutChannels,
		RelDim:      ck.RelDim,
	}
	var err error
	if p.Embed, err = loadMLP(ck.Embed); err != nil {
		return nil, err
	}
	if p.Encoder.Edge, err = loadMLP(ck.Encoder.Edge); err != nil {
		return nil, err
	}
	if p.Encoder.Node, err = loadMLP(ck.Encoder.Node); err != nil {
		return nil, err
	}
	for _, bs := range ck.Processor {
		var b block
		if b.Edge, err = loadMLP(bs.Edge); err != nil {
			return nil, err
		}
		if b.Node, err = loadMLP(bs.Node); err != nil {
			return nil, err
		}
		p.Processor = append(p.Processor, b)
	}
	if p.Decoder.Edge, err = loadMLP(ck.Decoder.Edge); err != nil {
		return nil, err
	}
	if p.Decoder.Node, err = loadMLP(ck.Decoder.Node); err != nil {
		return nil, err
	}
	return p, nil
}
