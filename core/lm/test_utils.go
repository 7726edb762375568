package lm

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/spf13/afero"
)

const (
	testingDataDir = "/data"
	testingNotes   = 12
)

// CreateTestingTokens returns n tokens drawn from a small alphabet of
// note names, so every name occurs often.
func CreateTestingTokens(n int, seed int64) []string {
	rng := rand.New(rand.NewSource(seed))
	ts := make([]string, n)
	for i := range ts {
		ts[i] = fmt.Sprintf("n%d", rng.Intn(testingNotes))
	}
	return ts
}

// CreateTestingFs writes the train split and the test split, which
// also serves as validation, into an in-memory filesystem.
func CreateTestingFs(train, test []string) afero.Fs {
	fs := afero.NewMemMapFs()
	write := func(name string, tokens []string) {
		var lines []string
		for i := 0; i < len(tokens); i += 20 {
			end := i + 20
			if end > len(tokens) {
				end = len(tokens)
			}
			lines = append(lines, strings.Join(tokens[i:end], " "))
		}
		e := afero.WriteFile(fs, testingDataDir+"/"+name,
			[]byte(strings.Join(lines, "\n")+"\n"), 0644)
		if e != nil {
			panic("CreateTestingFs: " + e.Error())
		}
	}
	write("train", train)
	write("test", test)
	return fs
}

// CreateTestingConfig returns a configuration that trains within a
// fraction of a second on CreateTestingFs.
func CreateTestingConfig() *Config {
	cfg := DefaultConfig()
	cfg.DataDir = testingDataDir
	cfg.BS = 4
	cfg.BPTT = 10
	cfg.EmSz = 6
	cfg.NH = 8
	cfg.NL = 2
	cfg.Epochs = 1
	return cfg
}
