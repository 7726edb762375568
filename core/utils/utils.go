package utils

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Iteration records one training epoch.
type Iteration struct {
	Label      string
	StartTime  time.Time
	Duration   time.Duration
	Perplexity float64
}
type Iterations []*Iteration

func (is *Iterations) String() string {
	var buf bytes.Buffer
	for i, iter := range *is {
		fmt.Fprintf(&buf, "%05d: %-8s %s\t%s\t%f\n",
			i, iter.Label, iter.StartTime.Format(time.RFC3339),
			iter.Duration, iter.Perplexity)
	}
	return buf.String()
}

func (is *Iterations) Start(label string) *Iteration {
	i := &Iteration{Label: label, StartTime: time.Now()}
	*is = append(*is, i)
	return i
}

func (is *Iterations) End(perplexity float64) *Iteration {
	i := (*is)[len(*is)-1]
	i.Duration = time.Since(i.StartTime)
	i.Perplexity = perplexity
	return i
}

// WritePlot draws the perplexity of every finished iteration, one line
// per label, and writes the figure to w as a PNG image.
func (is *Iterations) WritePlot(w io.Writer, title string) error {
	var labels []string
	lines := make(map[string]plotter.XYs)
	for i, iter := range *is {
		if iter.Perplexity <= 0.0 {
			continue
		}
		if _, ok := lines[iter.Label]; !ok {
			labels = append(labels, iter.Label)
		}
		lines[iter.Label] = append(lines[iter.Label],
			plotter.XY{X: float64(i), Y: iter.Perplexity})
	}
	if len(labels) == 0 {
		return fmt.Errorf("No finished iteration to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = "Perplexity"
	p.Add(plotter.NewGrid())

	vs := make([]interface{}, 0, 2*len(labels))
	for _, l := range labels {
		vs = append(vs, l, lines[l])
	}
	if e := plotutil.AddLinePoints(p, vs...); e != nil {
		return fmt.Errorf("plotutil.AddLinePoints failed: %v", e)
	}

	wt, e := p.WriterTo(vg.Length(640), vg.Length(480), "png")
	if e != nil {
		return fmt.Errorf("plot.WriterTo failed: %v", e)
	}
	_, e = wt.WriteTo(w)
	return e
}
