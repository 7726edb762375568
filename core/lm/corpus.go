package lm

import (
	"bufio"
	"io"
	"log"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/wangkuiyi/notewise/core/utils"
)

// Tokenize lowercases line and splits it on white space.
func Tokenize(line string) []string {
	return strings.Fields(strings.ToLower(line))
}

// ReadTokens tokenizes every line of r.  If eos is true, EOSToken is
// appended after each non-empty line.
func ReadTokens(r io.Reader, eos bool) ([]string, error) {
	var tokens []string
	reader := bufio.NewReader(r)
	for {
		line, e := reader.ReadString('\n')
		if len(line) > 0 {
			ts := Tokenize(line)
			tokens = append(tokens, ts...)
			if eos && len(ts) > 0 {
				tokens = append(tokens, EOSToken)
			}
		}
		if e == io.EOF {
			return tokens, nil
		}
		if e != nil {
			return nil, e
		}
	}
}

// LoadTokens reads and tokenizes a split file.  A missing file is a
// configuration error.
func LoadTokens(fs afero.Fs, filename string, eos bool) ([]string, error) {
	if !utils.Exists(fs, filename) {
		return nil, errors.Wrapf(ErrConfiguration, "missing split %s", filename)
	}
	f, e := utils.OpenReader(fs, filename)
	if e != nil {
		return nil, errors.Wrapf(ErrIO, "%v", e)
	}
	defer f.Close()

	log.Printf("Loading %s ...", filename)
	tokens, e := ReadTokens(f, eos)
	if e != nil {
		return nil, errors.Wrapf(ErrIO, "reading %s: %v", filename, e)
	}
	log.Printf("Done loading %d tokens from %s", len(tokens), filename)
	return tokens, nil
}

// Splits are the tokenized train, validation and test streams.
type Splits struct {
	Train, Validation, Test []string
}

// LoadSplits loads the three splits named by cfg in parallel.  A file
// named by more than one split is read only once.
func LoadSplits(fs afero.Fs, cfg *Config) (*Splits, error) {
	files := []string{cfg.TrainPath(), cfg.ValidationPath(), cfg.TestPath()}
	unique := make([]string, 0, len(files))
	index := make(map[string]int)
	for _, f := range files {
		if _, ok := index[f]; !ok {
			index[f] = len(unique)
			unique = append(unique, f)
		}
	}

	loaded := make([][]string, len(unique))
	e := utils.ParallelFor(0, len(unique), 1, func(i int) error {
		var e error
		loaded[i], e = LoadTokens(fs, unique[i], cfg.NewlineEOS)
		return e
	})
	if e != nil {
		return nil, e
	}
	return &Splits{
		Train:      loaded[index[files[0]]],
		Validation: loaded[index[files[1]]],
		Test:       loaded[index[files[2]]],
	}, nil
}
