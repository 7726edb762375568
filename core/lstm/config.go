package lstm

import (
	"fmt"
)

// Dropouts holds the five regularization rates of an AWD-LSTM.
type Dropouts struct {
	Input  float64 `yaml:"input"`  // locked dropout on embedded inputs
	Output float64 `yaml:"output"` // locked dropout on the last layer output
	Weight float64 `yaml:"weight"` // DropConnect on hidden-to-hidden weights
	Embed  float64 `yaml:"embed"`  // whole-row dropout on the embedding matrix
	Hidden float64 `yaml:"hidden"` // locked dropout between LSTM layers
}

// ScaledDropouts returns the rates recommended by the AWD-LSTM paper,
// each multiplied by m.
func ScaledDropouts(m float64) Dropouts {
	return Dropouts{
		Input:  0.05 * m,
		Output: 0.05 * m,
		Weight: 0.1 * m,
		Embed:  0.02 * m,
		Hidden: 0.05 * m,
	}
}

func (d Dropouts) Validate() error {
	for _, r := range []struct {
		name string
		p    float64
	}{
		{"input", d.Input}, {"output", d.Output}, {"weight", d.Weight},
		{"embed", d.Embed}, {"hidden", d.Hidden},
	} {
		if r.p < 0 || r.p >= 1 {
			return fmt.Errorf("%s dropout %g not in [0, 1)", r.name, r.p)
		}
	}
	return nil
}

// Config determines the architecture of a Model.  Two models built
// from equal Configs have state dicts of identical names and shapes.
type Config struct {
	VocabSize int
	EmSz      int // embedding size, also the output size of the last layer
	NH        int // hidden size of all but the last layer
	NL        int // number of LSTM layers
	Dropouts  Dropouts
}

func (c Config) Validate() error {
	if c.VocabSize < 1 {
		return fmt.Errorf("VocabSize = %d, less than 1", c.VocabSize)
	}
	if c.EmSz < 1 {
		return fmt.Errorf("EmSz = %d, less than 1", c.EmSz)
	}
	if c.NH < 1 {
		return fmt.Errorf("NH = %d, less than 1", c.NH)
	}
	if c.NL < 1 {
		return fmt.Errorf("NL = %d, less than 1", c.NL)
	}
	return c.Dropouts.Validate()
}

// layerDims returns the input and output sizes of layer l.  The first
// layer reads embeddings and the last one writes vectors of the
// embedding size, so the decoder can share weights with the encoder.
func (c Config) layerDims(l int) (in, out int) {
	in, out = c.NH, c.NH
	if l == 0 {
		in = c.EmSz
	}
	if l == c.NL-1 {
		out = c.EmSz
	}
	return in, out
}
