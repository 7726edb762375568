// inspect prints the model configuration saved by train in human
// readable format.  Optionally, it prints the vocabulary, and checks
// that a checkpoint matches the configuration.  For example:
/*
  $GOPATH/bin/inspect -params=./data/models/mod.params.gz \
    -checkpoint=./data/models/mod_full.pth -vocab
*/
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"

	"github.com/spf13/afero"
	"github.com/wangkuiyi/notewise/core/lm"
	"github.com/wangkuiyi/notewise/core/lstm"
)

func main() {
	flagParams := flag.String("params", "", "The model configuration file")
	flagCheckpoint := flag.String("checkpoint", "", "A checkpoint to validate")
	flagVocab := flag.Bool("vocab", false, "Print the vocabulary")
	flag.Parse()

	if e := inspect(afero.NewOsFs(), os.Stdout,
		*flagParams, *flagCheckpoint, *flagVocab); e != nil {
		log.Fatal(e)
	}
}

func inspect(fs afero.Fs, w io.Writer, params, checkpoint string, vocab bool) error {
	p, e := lm.LoadParams(fs, params)
	if e != nil {
		return fmt.Errorf("Cannot load model configuration %s: %v", params, e)
	}
	fmt.Fprint(w, p)

	if vocab {
		if _, e := p.Vocab.WriteTo(w); e != nil {
			return e
		}
	}

	if len(checkpoint) > 0 {
		sd, e := lm.ReadCheckpoint(fs, checkpoint)
		if e != nil {
			return e
		}
		m, e := lstm.NewModel(p.ModelConfig(), rand.New(rand.NewSource(0)))
		if e != nil {
			return fmt.Errorf("Invalid model configuration: %v", e)
		}
		if e := m.CheckStateDict(sd); e != nil {
			return fmt.Errorf("Checkpoint %s does not match %s: %v", checkpoint, params, e)
		}
		if sd.RunID != p.RunID {
			log.Printf("Checkpoint %s is of run %s, not %s", checkpoint, sd.RunID, p.RunID)
		}
		fmt.Fprint(w, sd)
	}
	return nil
}
