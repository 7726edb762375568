package hist

import (
	"reflect"
	"testing"
)

func checkOrdered(t *testing.T, o *OrderedSparse, keys, counts []int32) {
	if len(o.Keys) == 0 && len(keys) == 0 {
		return
	}
	if !reflect.DeepEqual(o.Keys, keys) || !reflect.DeepEqual(o.Counts, counts) {
		t.Errorf("Expected keys %v counts %v, got %v %v", keys, counts, o.Keys, o.Counts)
	}
}

func TestNewOrderedSparse(t *testing.T) {
	m := NewOrderedSparse()
	if m.Len() != 0 {
		t.Errorf("Expecting m.Len() = 0, got %d", m.Len())
	}
}

func TestOrderedSparseAssign(t *testing.T) {
	checkOrdered(t, NewOrderedSparse().Assign(Sparse{}), nil, nil)
	checkOrdered(t, NewOrderedSparse().Assign(Sparse{0: 7, 1: 2, 2: 1, 3: 10}),
		[]int32{3, 0, 1, 2}, []int32{10, 7, 2, 1})
}

func TestOrderedSparseAssignBreaksTiesByKey(t *testing.T) {
	checkOrdered(t, NewOrderedSparse().Assign(Sparse{5: 3, 2: 3, 9: 1, 0: 3, 4: 1}),
		[]int32{0, 2, 5, 4, 9}, []int32{3, 3, 3, 1, 1})
}

func TestOrderedSparseTruncate(t *testing.T) {
	o := NewOrderedSparse().Assign(Sparse{0: 7, 1: 2, 2: 1, 3: 10})
	checkOrdered(t, o.Truncate(2), []int32{3, 0, 1}, []int32{10, 7, 2})
	checkOrdered(t, o.Truncate(100), nil, nil)
	if o.Len() != 0 {
		t.Errorf("Expecting empty, got %d", o.Len())
	}
}
