package lstm

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrNonFinite is returned by Learner.Step when the loss or the
// gradient norm is NaN or infinite.  Parameters are left untouched.
var ErrNonFinite = errors.New("non-finite loss")

// Options are the training hyper-parameters that do not change the
// architecture.
type Options struct {
	Alpha float64 // activation regularization
	Beta  float64 // temporal activation regularization
	Clip  float64 // global gradient norm threshold
	Beta1 float64 // Adam first moment decay
	Beta2 float64 // Adam second moment decay
}

func DefaultOptions() Options {
	return Options{Alpha: 2, Beta: 1, Clip: 0.3, Beta1: 0.7, Beta2: 0.99}
}

// Learner owns a Model, its optimizer state and the recurrent state
// carried from one window to the next.  It is not safe for concurrent
// use.
type Learner struct {
	Model *Model
	Options

	opt  *Adam
	rng  *rand.Rand
	h, c []*mat.Dense
}

func NewLearner(m *Model, o Options, rng *rand.Rand) *Learner {
	return &Learner{Model: m, Options: o, rng: rng}
}

// NewStage discards the optimizer state, so the next Step starts with
// fresh moment estimates.
func (l *Learner) NewStage() {
	l.opt = NewAdam(l.Model.Params(), l.Beta1, l.Beta2)
}

// Reset zeroes the recurrent state.
func (l *Learner) Reset() {
	l.h, l.c = nil, nil
}

func (l *Learner) ensureState(bs int) {
	layers := l.Model.Layers
	if len(l.h) == len(layers) {
		if r, _ := l.h[0].Dims(); r == bs {
			return
		}
	}
	l.h = make([]*mat.Dense, len(layers))
	l.c = make([]*mat.Dense, len(layers))
	for i, layer := range layers {
		l.h[i] = mat.NewDense(bs, layer.Out, nil)
		l.c[i] = mat.NewDense(bs, layer.Out, nil)
	}
}

// Step trains on one window at learning rate lr and returns the
// cross-entropy loss of the window, excluding regularization.
func (l *Learner) Step(x, y [][]int32, lr float64) (float64, error) {
	if l.opt == nil {
		l.NewStage()
	}
	w := l.forward(x, y, true)
	if total := w.ce + w.ar + w.tar; !isFinite(total) {
		return total, errors.Wrapf(ErrNonFinite, "loss = %f", total)
	}

	l.Model.zeroGrad()
	l.backward(w)
	params := l.Model.Params()
	if norm := ClipGradNorm(params, l.Clip); !isFinite(norm) {
		return w.ce, errors.Wrapf(ErrNonFinite, "gradient norm = %f", norm)
	}
	l.opt.Step(params, lr)
	return w.ce, nil
}

// Loss returns the cross-entropy loss of a window without dropout,
// regularization or parameter updates.  The recurrent state advances.
func (l *Learner) Loss(x, y [][]int32) float64 {
	return l.forward(x, y, false).ce
}

func (l *Learner) StateDict() *StateDict {
	return l.Model.StateDict()
}

func (l *Learner) LoadStateDict(sd *StateDict) error {
	return l.Model.LoadStateDict(sd)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
