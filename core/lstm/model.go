// Package lstm implements an AWD-LSTM language model: a tied-weight
// embedding/decoder around a stack of LSTM layers, trained by
// truncated back-propagation through time with embedding dropout,
// locked dropout, DropConnect on recurrent weights, and activation
// regularization.
package lstm

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Param is a learnable matrix W and its gradient G of the same shape.
type Param struct {
	Name string
	W, G *mat.Dense
}

func newParam(name string, r, c int) *Param {
	return &Param{
		Name: name,
		W:    mat.NewDense(r, c, nil),
		G:    mat.NewDense(r, c, nil),
	}
}

func (p *Param) uniform(rng *rand.Rand, bound float64) {
	w := p.W.RawMatrix().Data
	for i := range w {
		w[i] = (2*rng.Float64() - 1) * bound
	}
}

// Layer is one LSTM layer.  Gate pre-activations of a batch are
// computed as in·Wih + h·Whh + B, and laid out as [i f g o] along
// the columns.
type Layer struct {
	In, Out int
	Wih     *Param // In x 4*Out
	Whh     *Param // Out x 4*Out
	B       *Param // 1 x 4*Out
}

type Model struct {
	Config Config

	// Encoder is VocabSize x EmSz.  The decoder computes logits as
	// out·Encoderᵀ + DecoderBias.
	Encoder     *Param
	Layers      []*Layer
	DecoderBias *Param // 1 x VocabSize

	params []*Param
}

// NewModel creates a model with freshly initialized parameters.
func NewModel(cfg Config, rng *rand.Rand) (*Model, error) {
	if e := cfg.Validate(); e != nil {
		return nil, e
	}
	m := &Model{
		Config:      cfg,
		Encoder:     newParam("encoder.weight", cfg.VocabSize, cfg.EmSz),
		Layers:      make([]*Layer, cfg.NL),
		DecoderBias: newParam("decoder.bias", 1, cfg.VocabSize),
	}
	m.Encoder.uniform(rng, 0.1)
	m.params = append(m.params, m.Encoder)

	for l := range m.Layers {
		in, out := cfg.layerDims(l)
		prefix := fmt.Sprintf("rnns.%d.", l)
		layer := &Layer{
			In:  in,
			Out: out,
			Wih: newParam(prefix+"weight_ih", in, 4*out),
			Whh: newParam(prefix+"weight_hh", out, 4*out),
			B:   newParam(prefix+"bias", 1, 4*out),
		}
		bound := 1 / math.Sqrt(float64(out))
		for _, p := range []*Param{layer.Wih, layer.Whh, layer.B} {
			p.uniform(rng, bound)
			m.params = append(m.params, p)
		}
		m.Layers[l] = layer
	}

	m.params = append(m.params, m.DecoderBias)
	return m, nil
}

// Params returns all learnable parameters in a fixed order.
func (m *Model) Params() []*Param {
	return m.params
}

// NumWeights returns the number of learnable scalars.
func (m *Model) NumWeights() int {
	n := 0
	for _, p := range m.params {
		r, c := p.W.Dims()
		n += r * c
	}
	return n
}

func (m *Model) zeroGrad() {
	for _, p := range m.params {
		p.G.Zero()
	}
}
