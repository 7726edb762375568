// train learns an AWD-LSTM language model from a tokenized music
// corpus in four stages of decreasing learning rate, writing a
// checkpoint after each stage.
// Usage:
/*
  $GOPATH/bin/train -data=./data -bs=16 -bptt=200 -epochs=3 -prefix=mod
*/
// The data directory must contain the files train and test.  Outputs go
// to -out, or data/models by default.  A YAML file given by -config
// replaces the defaults; flags set explicitly on the command line
// override it.
package main

import (
	"flag"
	"log"
	"os"
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"github.com/spf13/afero"
	"github.com/wangkuiyi/notewise/core/lm"
)

func main() {
	fs := afero.NewOsFs()
	cfg, maxProcs, e := parseFlags(fs, os.Args[1:])
	if e != nil {
		log.Fatalf("Invalid command line: %v", e)
	}

	if maxProcs <= 0 {
		runtime.GOMAXPROCS(runtime.NumCPU())
	} else {
		runtime.GOMAXPROCS(maxProcs)
	}
	log.Printf("Running on %s, %d cores, AVX2 %v, GOMAXPROCS %d",
		cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores,
		cpuid.CPU.Supports(cpuid.AVX2), runtime.GOMAXPROCS(-1))
	log.Printf("Configuration:\n%s", cfg)

	res, e := lm.Run(fs, cfg)
	if e != nil {
		log.Fatalf("Training failed: %v", e)
	}
	log.Printf("Done training: %s %v %s", res.Params, res.Checkpoints, res.Progress)
}

// parseFlags builds the configuration from args.  The file named by
// -config is decoded first and the command line applied on top of it;
// validation is left to lm.Run.
func parseFlags(fs afero.Fs, args []string) (*lm.Config, int, error) {
	cfg := lm.DefaultConfig()
	f := flag.NewFlagSet("train", flag.ContinueOnError)
	f.StringVar(&cfg.DataDir, "data", cfg.DataDir, "Directory of the train and test files")
	f.StringVar(&cfg.OutDir, "out", "", "Output directory, data/models if empty")
	f.StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "Prefix of output files")
	f.StringVar(&cfg.LoadModel, "load_model", "",
		"Checkpoint to start from, relative to the output directory unless absolute")
	f.IntVar(&cfg.BS, "bs", cfg.BS, "Number of parallel streams")
	f.IntVar(&cfg.BPTT, "bptt", cfg.BPTT, "Back-propagation through time window length")
	f.IntVar(&cfg.EmSz, "em_sz", cfg.EmSz, "Embedding size")
	f.IntVar(&cfg.NH, "nh", cfg.NH, "Hidden size")
	f.IntVar(&cfg.NL, "nl", cfg.NL, "Number of LSTM layers")
	f.IntVar(&cfg.MinFreq, "min_freq", cfg.MinFreq, "Minimum token frequency")
	f.IntVar(&cfg.Epochs, "epochs", cfg.Epochs, "Epochs per stage")
	f.Float64Var(&cfg.Dropout, "dropout", cfg.Dropout, "Dropout multiplier in [0, 5]")
	f.BoolVar(&cfg.NewlineEOS, "eos", cfg.NewlineEOS, "Append <eos> to every line")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	cfg.RegisterAsFlag(f, "config_yaml")
	flagConfig := f.String("config", "", "YAML configuration file")
	flagGoMaxProcs := f.Int("GOMAXPROCS", -1, "GOMAXPROCS")
	if e := f.Parse(args); e != nil {
		return nil, 0, e
	}

	if len(*flagConfig) > 0 {
		if e := lm.ReadConfig(fs, *flagConfig, cfg); e != nil {
			return nil, 0, e
		}
		// Parse again, so flags on the command line override the file.
		if e := f.Parse(args); e != nil {
			return nil, 0, e
		}
	}
	return cfg, *flagGoMaxProcs, nil
}
