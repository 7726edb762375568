package lm

import (
	"io"
	"log"
	"math/rand"
	"path"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/wangkuiyi/notewise/core/lstm"
	"github.com/wangkuiyi/notewise/core/utils"
)

// ProgressExt is appended to Config.Prefix to name the plot of
// validation perplexity.
const ProgressExt = "_progress.png"

// Result lists the artifacts of a training run.
type Result struct {
	Params         string
	Checkpoints    []string
	Progress       string
	VocabSize      int
	TestPerplexity float64
}

// Run trains a model as configured by cfg, reading and writing files in
// fs.  On failure, it returns the artifacts written so far together
// with the error.
func Run(fs afero.Fs, cfg *Config) (*Result, error) {
	if e := cfg.Validate(); e != nil {
		return nil, e
	}
	res := new(Result)

	splits, e := LoadSplits(fs, cfg)
	if e != nil {
		return res, e
	}

	vocab := BuildVocabulary(splits.Train, cfg.MinFreq)
	res.VocabSize = vocab.Len()
	log.Printf("Vocabulary size %d, min_freq %d", vocab.Len(), cfg.MinFreq)

	var batched [3]*Batched
	for i, tokens := range [][]string{splits.Train, splits.Validation, splits.Test} {
		if batched[i], e = Batchify(vocab.Numericalize(tokens), cfg.BS); e != nil {
			return res, e
		}
	}
	train, valid, test := batched[0], batched[1], batched[2]

	out := cfg.Out()
	if e := fs.MkdirAll(out, 0755); e != nil {
		return res, errors.Wrapf(ErrIO, "creating %s: %v", out, e)
	}

	params := NewParams(vocab, cfg)
	res.Params = ParamsPath(out, cfg.Prefix)
	if e := SaveParams(fs, res.Params, params); e != nil {
		return res, e
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	model, e := lstm.NewModel(params.ModelConfig(), rng)
	if e != nil {
		return res, errors.Wrapf(ErrConfiguration, "%v", e)
	}
	log.Printf("Model of %d weights, run %s", model.NumWeights(), params.RunID)

	if len(cfg.LoadModel) > 0 {
		filename := cfg.LoadModel
		if !path.IsAbs(filename) {
			filename = path.Join(out, filename)
		}
		log.Printf("Loading checkpoint %s ...", filename)
		if e := LoadCheckpoint(fs, filename, model); e != nil {
			return res, e
		}
		log.Printf("Done loading checkpoint")
	}

	learner := lstm.NewLearner(model, lstm.DefaultOptions(), rng)
	trainer := NewTrainer(cfg, &CheckpointWriter{
		Fs:     fs,
		Dir:    out,
		Prefix: cfg.Prefix,
		RunID:  params.RunID,
	}, rng)
	res.Checkpoints, e = trainer.Run(learner, train, valid)
	if e != nil {
		return res, e
	}

	res.TestPerplexity = Perplexity(learner, test, cfg.BPTT)
	log.Printf("Test perplexity %f", res.TestPerplexity)

	res.Progress = path.Join(out, cfg.Prefix+ProgressExt)
	e = utils.WriteFileAtomic(fs, res.Progress, func(w io.Writer) error {
		return trainer.Progress.WritePlot(w, cfg.Prefix)
	})
	if e != nil {
		return res, errors.Wrapf(ErrIO, "plotting %s: %v", res.Progress, e)
	}
	return res, nil
}
