package lstm

import (
	"fmt"
)

// Tensor is the serialized form of one parameter matrix.
type Tensor struct {
	Name       string
	Rows, Cols int
	Data       []float64
}

// StateDict is a snapshot of all learnable parameters of a Model, in
// the order of Model.Params.
type StateDict struct {
	RunID   string
	Stage   string
	Tensors []Tensor
}

// String returns a human readable summary, one tensor per line.
func (sd *StateDict) String() string {
	s := fmt.Sprintf("run %s stage %s\n", sd.RunID, sd.Stage)
	for _, t := range sd.Tensors {
		s += fmt.Sprintf("%-20s %5d x %-5d\n", t.Name, t.Rows, t.Cols)
	}
	return s
}

// StateDict copies the current parameters.
func (m *Model) StateDict() *StateDict {
	sd := &StateDict{Tensors: make([]Tensor, 0, len(m.params))}
	for _, p := range m.params {
		r, c := p.W.Dims()
		sd.Tensors = append(sd.Tensors, Tensor{
			Name: p.Name,
			Rows: r,
			Cols: c,
			Data: append([]float64(nil), p.W.RawMatrix().Data...),
		})
	}
	return sd
}

// CheckStateDict returns an error describing the first tensor of sd
// that is missing, unexpected, or of a different shape than m's.
func (m *Model) CheckStateDict(sd *StateDict) error {
	byName := make(map[string]*Param, len(m.params))
	for _, p := range m.params {
		byName[p.Name] = p
	}
	seen := make(map[string]bool, len(sd.Tensors))
	for _, t := range sd.Tensors {
		p, ok := byName[t.Name]
		if !ok {
			return fmt.Errorf("unexpected tensor %s", t.Name)
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicated tensor %s", t.Name)
		}
		seen[t.Name] = true
		r, c := p.W.Dims()
		if t.Rows != r || t.Cols != c {
			return fmt.Errorf("tensor %s is %dx%d, expecting %dx%d",
				t.Name, t.Rows, t.Cols, r, c)
		}
		if len(t.Data) != r*c {
			return fmt.Errorf("tensor %s has %d values, expecting %d",
				t.Name, len(t.Data), r*c)
		}
	}
	for _, p := range m.params {
		if !seen[p.Name] {
			return fmt.Errorf("missing tensor %s", p.Name)
		}
	}
	return nil
}

// LoadStateDict overwrites all parameters of m with those in sd.  It
// changes nothing if sd does not match m.
func (m *Model) LoadStateDict(sd *StateDict) error {
	if e := m.CheckStateDict(sd); e != nil {
		return e
	}
	byName := make(map[string]*Param, len(m.params))
	for _, p := range m.params {
		byName[p.Name] = p
	}
	for _, t := range sd.Tensors {
		copy(byName[t.Name].W.RawMatrix().Data, t.Data)
	}
	return nil
}
