package lm

import (
	"bytes"
	"flag"
	"fmt"
	"math"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/wangkuiyi/notewise/core/lstm"
	"github.com/wangkuiyi/notewise/core/utils"
	"gopkg.in/yaml.v3"
)

// Config contains everything a training run needs.
type Config struct {
	// DataDir contains the split files.  OutDir receives all
	// artifacts, and defaults to DataDir/models.
	DataDir string `yaml:"data_dir"`
	OutDir  string `yaml:"out_dir,omitempty"`

	// Split file names, relative to DataDir.  The same file may serve
	// as more than one split.
	Train      string `yaml:"train"`
	Validation string `yaml:"validation"`
	Test       string `yaml:"test"`

	// Prefix names all artifacts.  LoadModel, if not empty, is a
	// checkpoint relative to OutDir to start from.
	Prefix    string `yaml:"prefix"`
	LoadModel string `yaml:"load_model,omitempty"`

	BS      int `yaml:"bs"`
	BPTT    int `yaml:"bptt"`
	EmSz    int `yaml:"em_sz"`
	NH      int `yaml:"nh"`
	NL      int `yaml:"nl"`
	MinFreq int `yaml:"min_freq"`
	Epochs  int `yaml:"epochs"`

	// Dropout multiplies every rate of lstm.ScaledDropouts.
	Dropout float64 `yaml:"dropout"`

	NewlineEOS bool    `yaml:"newline_eos"`
	Seed       int64   `yaml:"seed"`
	Stages     []Stage `yaml:"stages"`
}

const (
	MaxDropout = 5.0
	ModelsDir  = "models"
)

func DefaultConfig() *Config {
	return &Config{
		DataDir:    "./data",
		Train:      "train",
		Validation: "test",
		Test:       "test",
		Prefix:     "mod",
		BS:         16,
		BPTT:       200,
		EmSz:       400,
		NH:         600,
		NL:         4,
		MinFreq:    1,
		Epochs:     3,
		Dropout:    1.0,
		Seed:       1,
		Stages:     append([]Stage(nil), DefaultStages...),
	}
}

func (c *Config) Out() string {
	if len(c.OutDir) > 0 {
		return c.OutDir
	}
	return path.Join(c.DataDir, ModelsDir)
}

func (c *Config) TrainPath() string      { return path.Join(c.DataDir, c.Train) }
func (c *Config) ValidationPath() string { return path.Join(c.DataDir, c.Validation) }
func (c *Config) TestPath() string       { return path.Join(c.DataDir, c.Test) }

func (c *Config) Dropouts() lstm.Dropouts {
	return lstm.ScaledDropouts(c.Dropout)
}

// Validate returns an ErrConfiguration listing every invalid field.
func (c *Config) Validate() error {
	msg := ""
	positive := []struct {
		name string
		v    int
	}{
		{"bs", c.BS}, {"bptt", c.BPTT}, {"em_sz", c.EmSz}, {"nh", c.NH},
		{"nl", c.NL}, {"min_freq", c.MinFreq}, {"epochs", c.Epochs},
	}
	for _, p := range positive {
		if p.v < 1 {
			msg += fmt.Sprintf("%s = %d must be positive. ", p.name, p.v)
		}
	}
	if c.Dropout < 0 || c.Dropout > MaxDropout || math.IsNaN(c.Dropout) {
		msg += fmt.Sprintf("dropout = %g not in [0, %g]. ", c.Dropout, MaxDropout)
	} else if e := c.Dropouts().Validate(); e != nil {
		msg += e.Error() + ". "
	}
	if len(c.Prefix) == 0 {
		msg += "prefix must be specified. "
	}
	if len(c.Train) == 0 || len(c.Validation) == 0 || len(c.Test) == 0 {
		msg += "train, validation and test must be specified. "
	}
	if len(c.Stages) == 0 {
		msg += "at least one stage is required. "
	}
	suffixes := make(map[string]bool)
	for i, s := range c.Stages {
		if len(s.Label) == 0 || len(s.Suffix) == 0 {
			msg += fmt.Sprintf("stages[%d] needs a label and a suffix. ", i)
		}
		if suffixes[s.Suffix] {
			msg += fmt.Sprintf("stages[%d] suffix %s is duplicated. ", i, s.Suffix)
		}
		suffixes[s.Suffix] = true
		if !(s.LR > 0) || math.IsInf(s.LR, 0) {
			msg += fmt.Sprintf("stages[%d] lr = %g must be positive. ", i, s.LR)
		}
	}
	if len(msg) > 0 {
		return errors.Wrap(ErrConfiguration, strings.TrimSpace(msg))
	}
	return nil
}

// Encode returns the YAML-encoded Config.
func (c *Config) Encode() (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if e := enc.Encode(c); e != nil {
		return "", fmt.Errorf("YAML encoding failed: %v", e)
	}
	if e := enc.Close(); e != nil {
		return "", fmt.Errorf("YAML encoding failed: %v", e)
	}
	return buf.String(), nil
}

// String is required by interface flag.Value.
func (c *Config) String() string {
	if s, e := c.Encode(); e == nil {
		return s
	}
	return ""
}

// Set is required by interface flag.Value.  It decodes a YAML (or
// JSON) encoded Config on top of the current values.
func (c *Config) Set(value string) error {
	if e := yaml.Unmarshal([]byte(value), c); e != nil {
		return fmt.Errorf("Error decoding YAML: %v", e)
	}
	return nil
}

// RegisterAsFlag registers a flag named name in fs that accepts an
// encoded Config.  It must be called before fs.Parse().
func (c *Config) RegisterAsFlag(fs *flag.FlagSet, name string) {
	fs.Var(c, name, "YAML encoded configuration")
}

// ReadConfig decodes filename on top of cfg without validating, so
// later overrides may still fix invalid values.
func ReadConfig(fs afero.Fs, filename string, cfg *Config) error {
	f, e := utils.OpenReader(fs, filename)
	if e != nil {
		return errors.Wrapf(ErrConfiguration,
			"Cannot open config file %s: %v", filename, e)
	}
	defer f.Close()

	if e := yaml.NewDecoder(f).Decode(cfg); e != nil {
		return errors.Wrapf(ErrConfiguration,
			"Parse config file %s: %v", filename, e)
	}
	return nil
}

// LoadConfig decodes filename on top of DefaultConfig and validates the
// result.
func LoadConfig(fs afero.Fs, filename string) (*Config, error) {
	cfg := DefaultConfig()
	if e := ReadConfig(fs, filename, cfg); e != nil {
		return nil, e
	}
	if e := cfg.Validate(); e != nil {
		return nil, e
	}
	return cfg, nil
}
