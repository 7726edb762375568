package lm

import (
	"bytes"
	"math/rand"
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/wangkuiyi/notewise/core/lstm"
)

func distinct(tokens []string) int {
	m := make(map[string]bool)
	for _, t := range tokens {
		m[t] = true
	}
	return len(m)
}

func TestRunEndToEnd(t *testing.T) {
	train, test := CreateTestingTokens(1000, 1), CreateTestingTokens(200, 2)
	fs := CreateTestingFs(train, test)
	cfg := CreateTestingConfig()

	res, e := Run(fs, cfg)
	if e != nil {
		t.Fatalf("Run: %v", e)
	}
	if res.VocabSize != distinct(train)+1 {
		t.Errorf("Expecting vocabulary of %d, got %d", distinct(train)+1, res.VocabSize)
	}

	files, _ := afero.ReadDir(fs, "/data/models")
	var names []string
	for _, f := range files {
		names = append(names, f.Name())
	}
	expected := []string{"mod.params.gz", "mod_extra.pth", "mod_full.pth",
		"mod_light.pth", "mod_med.pth", "mod_progress.png"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("Expecting %v, got %v", expected, names)
	}

	p, e := LoadParams(fs, res.Params)
	if e != nil {
		t.Fatalf("LoadParams: %v", e)
	}
	if p.Vocab.Len() != res.VocabSize || p.BS != 4 || p.BPTT != 10 {
		t.Errorf("Unexpected params %s", p)
	}
	m, e := lstm.NewModel(p.ModelConfig(), rand.New(rand.NewSource(1)))
	if e != nil {
		t.Fatalf("NewModel: %v", e)
	}
	for i, filename := range res.Checkpoints {
		sd, e := ReadCheckpoint(fs, filename)
		if e != nil {
			t.Fatalf("ReadCheckpoint: %v", e)
		}
		if sd.RunID != p.RunID || sd.Stage != DefaultStages[i].Label {
			t.Errorf("Checkpoint %s of run %s stage %s", filename, sd.RunID, sd.Stage)
		}
		if e := m.CheckStateDict(sd); e != nil {
			t.Errorf("Checkpoint %s does not match params: %v", filename, e)
		}
	}

	png, _ := afero.ReadFile(fs, res.Progress)
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Errorf("Progress plot is not a PNG")
	}
	if !(res.TestPerplexity > 1) {
		t.Errorf("Unexpected test perplexity %f", res.TestPerplexity)
	}
}

func TestRunDeterministic(t *testing.T) {
	train, test := CreateTestingTokens(300, 1), CreateTestingTokens(100, 2)
	checkpoint := func() *lstm.StateDict {
		fs := CreateTestingFs(train, test)
		cfg := CreateTestingConfig()
		cfg.Stages = cfg.Stages[:1]
		res, e := Run(fs, cfg)
		if e != nil {
			t.Fatalf("Run: %v", e)
		}
		sd, _ := ReadCheckpoint(fs, res.Checkpoints[0])
		return sd
	}
	if a, b := checkpoint(), checkpoint(); !reflect.DeepEqual(a.Tensors, b.Tensors) {
		t.Errorf("Two runs of the same seed differ")
	}
}

func TestRunResume(t *testing.T) {
	train, test := CreateTestingTokens(300, 1), CreateTestingTokens(100, 2)
	fs := CreateTestingFs(train, test)
	cfg := CreateTestingConfig()
	cfg.Stages = cfg.Stages[:1]
	if _, e := Run(fs, cfg); e != nil {
		t.Fatalf("Run: %v", e)
	}
	first, _ := ReadCheckpoint(fs, "/data/models/mod_light.pth")

	cfg.LoadModel = "mod_light.pth"
	cfg.Prefix = "resumed"
	res, e := Run(fs, cfg)
	if e != nil {
		t.Fatalf("Run: %v", e)
	}
	second, _ := ReadCheckpoint(fs, res.Checkpoints[0])
	if reflect.DeepEqual(first.Tensors, second.Tensors) {
		t.Errorf("Resumed training changed nothing")
	}

	// An absolute path is taken as is, not relative to the output
	// directory.
	b, _ := afero.ReadFile(fs, "/data/models/mod_light.pth")
	afero.WriteFile(fs, "/elsewhere/keep.pth", b, 0644)
	fs.Remove("/data/models/mod_light.pth")
	cfg.LoadModel = "/elsewhere/keep.pth"
	cfg.Prefix = "absolute"
	if _, e := Run(fs, cfg); e != nil {
		t.Errorf("Run with absolute load_model: %v", e)
	}
}

func TestRunLoadMismatch(t *testing.T) {
	train, test := CreateTestingTokens(300, 1), CreateTestingTokens(100, 2)
	fs := CreateTestingFs(train, test)
	cfg := CreateTestingConfig()
	cfg.Stages = cfg.Stages[:1]
	if _, e := Run(fs, cfg); e != nil {
		t.Fatalf("Run: %v", e)
	}

	cfg.EmSz++
	cfg.LoadModel = "mod_light.pth"
	cfg.Prefix = "wider"
	res, e := Run(fs, cfg)
	if errors.Cause(e) != ErrLoad {
		t.Fatalf("Expecting ErrLoad, got %v", e)
	}
	if len(res.Checkpoints) != 0 {
		t.Errorf("Unexpected checkpoints %v", res.Checkpoints)
	}
	if ok, _ := afero.Exists(fs, "/data/models/wider.params.gz"); !ok {
		t.Errorf("Model configuration not saved before loading")
	}
}

func TestRunConfigurationErrors(t *testing.T) {
	cfg := CreateTestingConfig()
	if _, e := Run(afero.NewMemMapFs(), cfg); errors.Cause(e) != ErrConfiguration {
		t.Errorf("Missing splits: expecting ErrConfiguration, got %v", e)
	}

	fs := CreateTestingFs(CreateTestingTokens(5, 1), CreateTestingTokens(100, 2))
	if _, e := Run(fs, cfg); errors.Cause(e) != ErrConfiguration {
		t.Errorf("Tiny split: expecting ErrConfiguration, got %v", e)
	}

	cfg.BS = 0
	if _, e := Run(fs, cfg); errors.Cause(e) != ErrConfiguration {
		t.Errorf("Invalid bs: expecting ErrConfiguration, got %v", e)
	}
}
