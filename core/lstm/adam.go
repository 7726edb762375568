package lstm

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Adam keeps the first and second moment estimates of every parameter.
type Adam struct {
	Beta1, Beta2, Eps float64

	t    int
	m, v [][]float64
}

func NewAdam(params []*Param, beta1, beta2 float64) *Adam {
	a := &Adam{Beta1: beta1, Beta2: beta2, Eps: 1e-8}
	for _, p := range params {
		n := len(p.W.RawMatrix().Data)
		a.m = append(a.m, make([]float64, n))
		a.v = append(a.v, make([]float64, n))
	}
	return a
}

// Step updates every parameter in place from its gradient.
func (a *Adam) Step(params []*Param, lr float64) {
	a.t++
	bc1 := 1 - math.Pow(a.Beta1, float64(a.t))
	bc2 := 1 - math.Pow(a.Beta2, float64(a.t))
	stepSize := lr / bc1
	sqrtBc2 := math.Sqrt(bc2)

	for i, p := range params {
		w, g := p.W.RawMatrix().Data, p.G.RawMatrix().Data
		m, v := a.m[i], a.v[i]
		for k := range w {
			m[k] = a.Beta1*m[k] + (1-a.Beta1)*g[k]
			v[k] = a.Beta2*v[k] + (1-a.Beta2)*g[k]*g[k]
			w[k] -= stepSize * m[k] / (math.Sqrt(v[k])/sqrtBc2 + a.Eps)
		}
	}
}

// ClipGradNorm scales all gradients so that their global L2 norm does
// not exceed max, and returns the norm before clipping.  A max of zero
// or less disables clipping.
func ClipGradNorm(params []*Param, max float64) float64 {
	total := 0.0
	for _, p := range params {
		n := floats.Norm(p.G.RawMatrix().Data, 2)
		total += n * n
	}
	total = math.Sqrt(total)
	if max > 0 && total > max {
		s := max / (total + 1e-6)
		for _, p := range params {
			floats.Scale(s, p.G.RawMatrix().Data)
		}
	}
	return total
}
