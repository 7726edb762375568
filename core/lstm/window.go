package lstm

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// lockedMask returns a dropout mask of n elements, each either 0 or
// 1/(1-p), or nil if p is zero.  A mask is drawn once per window and
// shared by all its time steps.
func lockedMask(rng *rand.Rand, n int, p float64) []float64 {
	if p <= 0 {
		return nil
	}
	m := make([]float64, n)
	keep := 1 / (1 - p)
	for i := range m {
		if rng.Float64() >= p {
			m[i] = keep
		}
	}
	return m
}

// applyMask returns a⊙mask as a new matrix, or a itself if mask is nil.
func applyMask(a *mat.Dense, mask []float64) *mat.Dense {
	if mask == nil {
		return a
	}
	r, c := a.Dims()
	out := mat.NewDense(r, c, nil)
	src, dst := a.RawMatrix().Data, out.RawMatrix().Data
	for i := range dst {
		dst[i] = src[i] * mask[i]
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// stepCache keeps what the backward pass needs from one time step of
// one layer.
type stepCache struct {
	in, hPrev, cPrev *mat.Dense
	act              *mat.Dense // activated gates [i f g o]
	c, tanhC, h      *mat.Dense
}

func (layer *Layer) step(in, hPrev, cPrev, whh *mat.Dense) *stepCache {
	bs, _ := in.Dims()
	H := layer.Out

	z := mat.NewDense(bs, 4*H, nil)
	z.Mul(in, layer.Wih.W)
	var r mat.Dense
	r.Mul(hPrev, whh)
	z.Add(z, &r)

	s := &stepCache{
		in:    in,
		hPrev: hPrev,
		cPrev: cPrev,
		act:   z,
		c:     mat.NewDense(bs, H, nil),
		tanhC: mat.NewDense(bs, H, nil),
		h:     mat.NewDense(bs, H, nil),
	}
	zd := z.RawMatrix().Data
	bias := layer.B.W.RawMatrix().Data
	cp := cPrev.RawMatrix().Data
	cd, tcd, hd := s.c.RawMatrix().Data, s.tanhC.RawMatrix().Data, s.h.RawMatrix().Data
	for b := 0; b < bs; b++ {
		a := zd[b*4*H : (b+1)*4*H]
		for k := range a {
			a[k] += bias[k]
		}
		for j := 0; j < H; j++ {
			i := sigmoid(a[j])
			f := sigmoid(a[H+j])
			g := math.Tanh(a[2*H+j])
			o := sigmoid(a[3*H+j])
			a[j], a[H+j], a[2*H+j], a[3*H+j] = i, f, g, o

			k := b*H + j
			cd[k] = f*cp[k] + i*g
			tcd[k] = math.Tanh(cd[k])
			hd[k] = o * tcd[k]
		}
	}
	return s
}

// backward propagates dH, the gradients with respect to the outputs
// of every time step, through the layer.  It accumulates gradients of
// Wih and B, and returns the gradients with respect to the inputs and
// to the effective recurrent weights whh.
func (layer *Layer) backward(steps []*stepCache, whh *mat.Dense,
	dH []*mat.Dense) ([]*mat.Dense, *mat.Dense) {

	T := len(steps)
	bs, _ := steps[0].h.Dims()
	H := layer.Out

	dIn := make([]*mat.Dense, T)
	dWhh := mat.NewDense(H, 4*H, nil)
	dhNext := mat.NewDense(bs, H, nil)
	dcNext := mat.NewDense(bs, H, nil)
	dbias := layer.B.G.RawMatrix().Data

	for t := T - 1; t >= 0; t-- {
		s := steps[t]
		dgates := mat.NewDense(bs, 4*H, nil)
		dg := dgates.RawMatrix().Data
		act := s.act.RawMatrix().Data
		dh := dH[t].RawMatrix().Data
		dhn := dhNext.RawMatrix().Data
		dcn := dcNext.RawMatrix().Data
		tc := s.tanhC.RawMatrix().Data
		cp := s.cPrev.RawMatrix().Data

		for b := 0; b < bs; b++ {
			a := act[b*4*H : (b+1)*4*H]
			d := dg[b*4*H : (b+1)*4*H]
			for j := 0; j < H; j++ {
				k := b*H + j
				i, f, g, o := a[j], a[H+j], a[2*H+j], a[3*H+j]
				dhk := dh[k] + dhn[k]
				dc := dhk*o*(1-tc[k]*tc[k]) + dcn[k]
				d[j] = dc * g * i * (1 - i)
				d[H+j] = dc * cp[k] * f * (1 - f)
				d[2*H+j] = dc * i * (1 - g*g)
				d[3*H+j] = dhk * tc[k] * o * (1 - o)
				dcn[k] = dc * f
			}
			for k := range d {
				dbias[k] += d[k]
			}
		}

		var gih, ghh mat.Dense
		gih.Mul(s.in.T(), dgates)
		layer.Wih.G.Add(layer.Wih.G, &gih)
		ghh.Mul(s.hPrev.T(), dgates)
		dWhh.Add(dWhh, &ghh)

		dIn[t] = mat.NewDense(bs, layer.In, nil)
		dIn[t].Mul(dgates, layer.Wih.W.T())
		dhNext = mat.NewDense(bs, H, nil)
		dhNext.Mul(dgates, whh.T())
	}
	return dIn, dWhh
}

type layerCache struct {
	whh     *mat.Dense // Whh after DropConnect
	whhMask []float64
	outMask []float64 // locked dropout between this layer and the next
	steps   []*stepCache
}

// window is the forward state of one (x, y) window, kept for the
// backward pass.
type window struct {
	x, y    [][]int32
	embMask []float64 // per vocabulary row
	inMask  []float64
	layers  []*layerCache
	outMask []float64
	raw     []*mat.Dense // last layer outputs
	out     []*mat.Dense // raw after output dropout
	probs   []*mat.Dense

	ce, ar, tar float64
}

// forward runs the model over a window, x[t][b] being the token at
// time t of stream b and y[t][b] its successor.  The recurrent state
// of the learner is read as the initial state and overwritten with the
// final one.  Dropout and activation regularization apply only if
// train is true.
func (l *Learner) forward(x, y [][]int32, train bool) *window {
	m := l.Model
	cfg := m.Config
	T, bs := len(x), len(x[0])
	E, V := cfg.EmSz, cfg.VocabSize

	var drop Dropouts
	if train {
		drop = cfg.Dropouts
	}
	w := &window{x: x, y: y}
	w.embMask = lockedMask(l.rng, V, drop.Embed)
	w.inMask = lockedMask(l.rng, bs*E, drop.Input)

	enc := m.Encoder.W.RawMatrix().Data
	inputs := make([]*mat.Dense, T)
	for t := range x {
		e := mat.NewDense(bs, E, nil)
		ed := e.RawMatrix().Data
		for b, id := range x[t] {
			if int(id) < 0 || int(id) >= V || int(y[t][b]) < 0 || int(y[t][b]) >= V {
				panic(fmt.Sprintf("token id out of range [0, %d) at t=%d b=%d", V, t, b))
			}
			scale := 1.0
			if w.embMask != nil {
				scale = w.embMask[id]
			}
			row := enc[int(id)*E : (int(id)+1)*E]
			for j := range row {
				ed[b*E+j] = row[j] * scale
			}
		}
		inputs[t] = applyMask(e, w.inMask)
	}

	l.ensureState(bs)
	for li, layer := range m.Layers {
		lc := &layerCache{whh: layer.Whh.W, steps: make([]*stepCache, T)}
		if drop.Weight > 0 {
			lc.whhMask = lockedMask(l.rng, layer.Out*4*layer.Out, drop.Weight)
			lc.whh = applyMask(layer.Whh.W, lc.whhMask)
		}
		h, c := l.h[li], l.c[li]
		for t := range inputs {
			s := layer.step(inputs[t], h, c, lc.whh)
			lc.steps[t] = s
			h, c = s.h, s.c
		}
		l.h[li], l.c[li] = h, c

		if li < len(m.Layers)-1 {
			lc.outMask = lockedMask(l.rng, bs*layer.Out, drop.Hidden)
			for t, s := range lc.steps {
				inputs[t] = applyMask(s.h, lc.outMask)
			}
		}
		w.layers = append(w.layers, lc)
	}

	last := w.layers[len(w.layers)-1]
	w.outMask = lockedMask(l.rng, bs*E, drop.Output)
	w.raw = make([]*mat.Dense, T)
	w.out = make([]*mat.Dense, T)
	w.probs = make([]*mat.Dense, T)
	bias := m.DecoderBias.W.RawMatrix().Data
	for t, s := range last.steps {
		w.raw[t] = s.h
		w.out[t] = applyMask(s.h, w.outMask)

		p := mat.NewDense(bs, V, nil)
		p.Mul(w.out[t], m.Encoder.W.T())
		pd := p.RawMatrix().Data
		for b := 0; b < bs; b++ {
			row := pd[b*V : (b+1)*V]
			max := math.Inf(-1)
			for v := range row {
				row[v] += bias[v]
				if row[v] > max {
					max = row[v]
				}
			}
			sum := 0.0
			for v := range row {
				row[v] = math.Exp(row[v] - max)
				sum += row[v]
			}
			for v := range row {
				row[v] /= sum
			}
			w.ce -= math.Log(row[y[t][b]])
		}
		w.probs[t] = p
	}

	n := float64(T * bs)
	w.ce /= n
	if train && l.Alpha != 0 {
		sum := 0.0
		for _, o := range w.out {
			for _, v := range o.RawMatrix().Data {
				sum += v * v
			}
		}
		w.ar = l.Alpha * sum / (n * float64(E))
	}
	if train && l.Beta != 0 && T > 1 {
		sum := 0.0
		for t := 1; t < T; t++ {
			cur, prev := w.raw[t].RawMatrix().Data, w.raw[t-1].RawMatrix().Data
			for k := range cur {
				d := cur[k] - prev[k]
				sum += d * d
			}
		}
		w.tar = l.Beta * sum / float64((T-1)*bs*E)
	}
	return w
}

// backward accumulates into every Param.G the gradient of
// w.ce + w.ar + w.tar.
func (l *Learner) backward(w *window) {
	m := l.Model
	T, bs := len(w.x), len(w.x[0])
	E, V := m.Config.EmSz, m.Config.VocabSize
	n := float64(T * bs)

	decB := m.DecoderBias.G.RawMatrix().Data
	arCoef := 2 * l.Alpha / (n * float64(E))
	dRaw := make([]*mat.Dense, T)
	for t := 0; t < T; t++ {
		dl := mat.DenseCopyOf(w.probs[t])
		dd := dl.RawMatrix().Data
		for b, id := range w.y[t] {
			dd[b*V+int(id)] -= 1
		}
		for k := range dd {
			dd[k] /= n
		}
		for b := 0; b < bs; b++ {
			for v := 0; v < V; v++ {
				decB[v] += dd[b*V+v]
			}
		}

		var ge mat.Dense
		ge.Mul(dl.T(), w.out[t])
		m.Encoder.G.Add(m.Encoder.G, &ge)

		dout := mat.NewDense(bs, E, nil)
		dout.Mul(dl, m.Encoder.W)
		if arCoef != 0 {
			od, gd := w.out[t].RawMatrix().Data, dout.RawMatrix().Data
			for k := range gd {
				gd[k] += arCoef * od[k]
			}
		}
		dRaw[t] = applyMask(dout, w.outMask)
	}

	if l.Beta != 0 && T > 1 {
		coef := 2 * l.Beta / float64((T-1)*bs*E)
		for t := 1; t < T; t++ {
			cur, prev := w.raw[t].RawMatrix().Data, w.raw[t-1].RawMatrix().Data
			gc, gp := dRaw[t].RawMatrix().Data, dRaw[t-1].RawMatrix().Data
			for k := range cur {
				d := coef * (cur[k] - prev[k])
				gc[k] += d
				gp[k] -= d
			}
		}
	}

	dH := dRaw
	for li := len(m.Layers) - 1; li >= 0; li-- {
		layer, lc := m.Layers[li], w.layers[li]
		dIn, dWhh := layer.backward(lc.steps, lc.whh, dH)
		if lc.whhMask != nil {
			gd := dWhh.RawMatrix().Data
			for k := range gd {
				gd[k] *= lc.whhMask[k]
			}
		}
		layer.Whh.G.Add(layer.Whh.G, dWhh)
		if li > 0 {
			for t := range dIn {
				dIn[t] = applyMask(dIn[t], w.layers[li-1].outMask)
			}
		}
		dH = dIn
	}

	encG := m.Encoder.G.RawMatrix().Data
	for t := range dH {
		d := applyMask(dH[t], w.inMask).RawMatrix().Data
		for b, id := range w.x[t] {
			scale := 1.0
			if w.embMask != nil {
				scale = w.embMask[id]
			}
			if scale == 0 {
				continue
			}
			row := encG[int(id)*E : (int(id)+1)*E]
			for j := range row {
				row[j] += scale * d[b*E+j]
			}
		}
	}
}
