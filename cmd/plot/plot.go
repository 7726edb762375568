// plot draws figures about a training run.  -log plots the validation
// perplexity of every epoch found in the log written by train; -params
// plots the rank-frequency curve of the vocabulary in a model
// configuration file.  Images are written to -outdir as PNG.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"path"
	"regexp"
	"strconv"

	"github.com/spf13/afero"
	"github.com/wangkuiyi/notewise/core/lm"
	"github.com/wangkuiyi/notewise/core/utils"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

func main() {
	flagLog := flag.String("log", "", "The log file of train")
	flagParams := flag.String("params", "", "The model configuration file")
	flagOut := flag.String("outdir", ".", "Output directory")
	flag.Parse()

	fs := afero.NewOsFs()
	outFile := func(dir, inFile string) string {
		return path.Join(dir, path.Base(inFile)+".png")
	}
	var g errgroup.Group
	if len(*flagLog) > 0 {
		g.Go(func() error {
			return plotLog(fs, *flagLog, outFile(*flagOut, *flagLog))
		})
	}
	if len(*flagParams) > 0 {
		g.Go(func() error {
			return plotVocab(fs, *flagParams, outFile(*flagOut, *flagParams))
		})
	}
	if e := g.Wait(); e != nil {
		log.Fatal(e)
	}
}

var epochLine = regexp.MustCompile(`Stage (\S+) epoch ([0-9]+) .*valid perplexity ([0-9\.]+)`)

// parseLog collects one Iteration per epoch line of a train log.
func parseLog(r io.Reader) (utils.Iterations, error) {
	var is utils.Iterations
	s := bufio.NewScanner(r)
	for s.Scan() {
		ms := epochLine.FindStringSubmatch(s.Text())
		if len(ms) != 4 {
			continue
		}
		perplexity, e := strconv.ParseFloat(ms[3], 64)
		if e != nil {
			return nil, fmt.Errorf("Parsing perplexity in %s: %v", s.Text(), e)
		}
		is = append(is, &utils.Iteration{Label: ms[1], Perplexity: perplexity})
	}
	return is, s.Err()
}

func plotLog(fs afero.Fs, logFile, imageFile string) error {
	f, e := utils.OpenReader(fs, logFile)
	if e != nil {
		return e
	}
	defer f.Close()

	log.Printf("Loading log file: %s ...", logFile)
	is, e := parseLog(f)
	if e != nil {
		return e
	}
	log.Printf("Done loading %d epochs.", len(is))

	log.Printf("Plotting to %s ...", imageFile)
	return utils.WriteFileAtomic(fs, imageFile, func(w io.Writer) error {
		return is.WritePlot(w, path.Base(logFile))
	})
}

func plotVocab(fs afero.Fs, paramsFile, imageFile string) error {
	log.Printf("Loading model configuration %s ...", paramsFile)
	p, e := lm.LoadParams(fs, paramsFile)
	if e != nil {
		return e
	}

	// Tokens are sorted by frequency, so the rank of Tokens[i] is i.
	pts := make(plotter.XYs, 0, p.Vocab.Len())
	for i := 1; i < p.Vocab.Len(); i++ {
		if f := p.Vocab.Freqs[i]; f > 0 {
			pts = append(pts, plotter.XY{X: float64(i), Y: float64(f)})
		}
	}
	if len(pts) == 0 {
		return fmt.Errorf("%s has no known tokens", paramsFile)
	}

	log.Printf("Plotting to %s ...", imageFile)
	return utils.WriteFileAtomic(fs, imageFile, func(w io.Writer) error {
		return plotLine(w, pts, path.Base(paramsFile), "Rank", "Frequency")
	})
}

// plotLine draws data on log-log axes.  All coordinates must be
// positive.
func plotLine(w io.Writer, data plotter.XYs, title, xLabel, yLabel string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{}
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{}
	p.Add(plotter.NewGrid())

	if e := plotutil.AddLinePoints(p, "", data); e != nil {
		return fmt.Errorf("plotutil.AddLinePoints failed: %v", e)
	}
	wt, e := p.WriterTo(9*vg.Inch, 6*vg.Inch, "png")
	if e != nil {
		return e
	}
	_, e = wt.WriteTo(w)
	return e
}
