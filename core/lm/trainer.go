package lm

import (
	"log"
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/wangkuiyi/notewise/core/lstm"
	"github.com/wangkuiyi/notewise/core/utils"
)

// Stage is one step of the fine-tuning schedule.
type Stage struct {
	Label  string  `yaml:"label"`
	Suffix string  `yaml:"suffix"`
	LR     float64 `yaml:"lr"`
}

// DefaultStages lowers the learning rate by two orders of magnitude
// per stage, except after the first.
var DefaultStages = []Stage{
	{Label: "light", Suffix: "_light.pth", LR: 3e-3},
	{Label: "medium", Suffix: "_med.pth", LR: 3e-4},
	{Label: "full", Suffix: "_full.pth", LR: 3e-6},
	{Label: "extra", Suffix: "_extra.pth", LR: 3e-8},
}

// Learner is the numeric capability driven by Trainer.  *lstm.Learner
// implements it.
type Learner interface {
	// NewStage resets the optimizer state.
	NewStage()
	// Reset zeroes the recurrent state.
	Reset()
	// Step runs forward and backward passes over a window and updates
	// the parameters.  It returns the cross-entropy loss.
	Step(x, y [][]int32, lr float64) (float64, error)
	// Loss evaluates a window without dropout or parameter updates.
	Loss(x, y [][]int32) float64
	StateDict() *lstm.StateDict
}

// Trainer runs Stages in order on the same Learner, Epochs passes
// each, and checkpoints after every stage.
type Trainer struct {
	Stages      []Stage
	Epochs      int
	BPTT        int
	Rng         *rand.Rand // draws training window lengths; nil disables jitter
	Checkpoints *CheckpointWriter
	Progress    utils.Iterations
}

func NewTrainer(cfg *Config, w *CheckpointWriter, rng *rand.Rand) *Trainer {
	return &Trainer{
		Stages:      cfg.Stages,
		Epochs:      cfg.Epochs,
		BPTT:        cfg.BPTT,
		Rng:         rng,
		Checkpoints: w,
	}
}

// Run returns the paths of the checkpoints written.  If a stage fails,
// it returns the checkpoints of earlier stages together with the
// error, and later stages do not run.
func (t *Trainer) Run(l Learner, train, valid *Batched) ([]string, error) {
	saved := make([]string, 0, len(t.Stages))
	for _, s := range t.Stages {
		if e := t.fit(l, s, train, valid); e != nil {
			return saved, e
		}
		filename, e := t.Checkpoints.Write(s, l.StateDict())
		if e != nil {
			return saved, e
		}
		log.Printf("Stage %s saved to %s", s.Label, filename)
		saved = append(saved, filename)
	}
	return saved, nil
}

func (t *Trainer) fit(l Learner, s Stage, train, valid *Batched) error {
	log.Printf("Stage %s start with lr %g", s.Label, s.LR)
	l.NewStage()
	for epoch := 0; epoch < t.Epochs; epoch++ {
		t.Progress.Start(s.Label)
		l.Reset()
		sum, n := 0.0, 0
		windows := train.Windows(t.BPTT, t.Rng != nil, t.Rng)
		for x, y, ok := windows.Next(); ok; x, y, ok = windows.Next() {
			loss, e := l.Step(x, y, s.LR)
			if e == nil && !isFinite(loss) {
				e = errors.Errorf("loss = %f", loss)
			}
			if e != nil {
				return errors.Wrapf(ErrDivergence, "stage %s epoch %d window %d: %v",
					s.Label, epoch, n, e)
			}
			sum += loss
			n++
		}

		pp := Perplexity(l, valid, t.BPTT)
		if !isFinite(pp) {
			return errors.Wrapf(ErrDivergence, "stage %s epoch %d: validation perplexity %f",
				s.Label, epoch, pp)
		}
		iter := t.Progress.End(pp)
		log.Printf("Stage %s epoch %02d train loss %f valid perplexity %f done in %s",
			s.Label, epoch, sum/float64(n), pp, iter.Duration)
	}
	return nil
}

// Perplexity returns exp of the token-weighted mean cross-entropy of l
// over b, starting from a zero recurrent state.
func Perplexity(l Learner, b *Batched, bptt int) float64 {
	l.Reset()
	sum, count := 0.0, 0
	windows := b.Windows(bptt, false, nil)
	for x, y, ok := windows.Next(); ok; x, y, ok = windows.Next() {
		n := len(x) * b.BS()
		sum += l.Loss(x, y) * float64(n)
		count += n
	}
	return math.Exp(sum / float64(count))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
