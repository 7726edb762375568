package hist

import (
	"errors"
	"fmt"
	"testing"
)

func checkHist(h Hist, exp string) error {
	l := 0
	if e := h.ForEach(func(key int, count int64) error {
		if key+1 != int(count) {
			return errors.New("Wrong content")
		}
		l++
		return nil
	}); e != nil {
		return fmt.Errorf("Unexpected error: %v", e)
	}
	if l != h.Len() {
		return fmt.Errorf("Expecting len=%d, got %d", h.Len(), l)
	}

	if e := h.ForEach(func(key int, count int64) error {
		return fmt.Errorf("%d %d ", key, count)
	}); exp != "" && fmt.Sprint(e) != exp {
		return fmt.Errorf("Expecting %s; got: %v", exp, e)
	}

	return nil
}

func TestSparseIsHist(t *testing.T) {
	s := NewSparse()
	s.Inc(0, 1)
	s.Inc(1, 2)
	// Map iteration order is unspecified, so only the content is checked.
	if e := checkHist(s, ""); e != nil {
		t.Errorf("%v", e)
	}
}

func TestOrderedSparseIsHist(t *testing.T) {
	o := NewOrderedSparse().Assign(Sparse{0: 1, 1: 2})
	if e := checkHist(o, "1 2 "); e != nil {
		t.Errorf("%v", e)
	}
}
