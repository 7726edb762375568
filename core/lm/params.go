package lm

import (
	"encoding/gob"
	"fmt"
	"io"
	"log"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/wangkuiyi/notewise/core/lstm"
	"github.com/wangkuiyi/notewise/core/utils"
)

// ParamsExt is appended to Config.Prefix to name the configuration
// artifact.  The extension selects gzip compression.
const ParamsExt = ".params" + utils.GzipExt

// Params is everything needed to rebuild a model of a training run
// without re-reading the corpus.
type Params struct {
	RunID      string
	CreatedAt  time.Time
	Vocab      *Vocabulary
	BS         int
	BPTT       int
	EmSz       int
	NH         int
	NL         int
	Dropouts   lstm.Dropouts
	NewlineEOS bool
	Stages     []Stage
}

// NewParams assigns a new run id.
func NewParams(v *Vocabulary, cfg *Config) *Params {
	return &Params{
		RunID:      uuid.New().String(),
		CreatedAt:  time.Now(),
		Vocab:      v,
		BS:         cfg.BS,
		BPTT:       cfg.BPTT,
		EmSz:       cfg.EmSz,
		NH:         cfg.NH,
		NL:         cfg.NL,
		Dropouts:   cfg.Dropouts(),
		NewlineEOS: cfg.NewlineEOS,
		Stages:     append([]Stage(nil), cfg.Stages...),
	}
}

func (p *Params) ModelConfig() lstm.Config {
	return lstm.Config{
		VocabSize: p.Vocab.Len(),
		EmSz:      p.EmSz,
		NH:        p.NH,
		NL:        p.NL,
		Dropouts:  p.Dropouts,
	}
}

func (p *Params) String() string {
	return fmt.Sprintf("run %s created %s\n"+
		"vocab %d (min_freq %d) bs %d bptt %d em_sz %d nh %d nl %d newline_eos %v\n"+
		"dropouts %+v\nstages %v\n",
		p.RunID, p.CreatedAt.Format(time.RFC3339),
		p.Vocab.Len(), p.Vocab.MinFreq, p.BS, p.BPTT, p.EmSz, p.NH, p.NL,
		p.NewlineEOS, p.Dropouts, p.Stages)
}

func ParamsPath(dir, prefix string) string {
	return path.Join(dir, prefix+ParamsExt)
}

// SaveParams replaces filename atomically, so readers see either the
// old or the new content.
func SaveParams(fs afero.Fs, filename string, p *Params) error {
	log.Printf("Saving model configuration to %s ...", filename)
	e := utils.WriteFileAtomic(fs, filename, func(w io.Writer) error {
		return gob.NewEncoder(w).Encode(p)
	})
	if e != nil {
		return errors.Wrapf(ErrIO, "saving %s: %v", filename, e)
	}
	log.Printf("Done saving model configuration")
	return nil
}

func LoadParams(fs afero.Fs, filename string) (*Params, error) {
	f, e := utils.OpenReader(fs, filename)
	if e != nil {
		return nil, errors.Wrapf(ErrIO, "%v", e)
	}
	defer f.Close()

	p := new(Params)
	if e := gob.NewDecoder(f).Decode(p); e != nil {
		return nil, errors.Wrapf(ErrIO, "decoding %s: %v", filename, e)
	}
	if p.Vocab == nil || p.Vocab.Len() == 0 {
		return nil, errors.Wrapf(ErrIO, "%s has no vocabulary", filename)
	}
	p.Vocab.buildIdMap()
	return p, nil
}
