package hist

import (
	"sort"
)

// OrderedSparse represent a histogram using two arrays, Keys and
// Counts, where Counts is in descending order and equal counts are
// ordered by ascending key.  When keys are first-occurrence indices,
// this is exactly the order in which tokens receive vocabulary ids.
type OrderedSparse struct {
	Keys   []int32
	Counts []int32
}

func NewOrderedSparse() *OrderedSparse {
	return &OrderedSparse{nil, nil}
}

// Len makes OrderedSparse compatible with sort.Interface.
func (o *OrderedSparse) Len() int {
	return len(o.Keys)
}

// Less allows package sort to sort elements in OrderedSparse
// descreasing order.
func (o *OrderedSparse) Less(i, j int) bool {
	return o.Counts[i] > o.Counts[j] ||
		(o.Counts[i] == o.Counts[j] &&
			o.Keys[i] < o.Keys[j])
}

// Swap makes OrderedSparse compatible with interface
// sort.Interface.
func (o *OrderedSparse) Swap(i, j int) {
	o.Keys[i], o.Keys[j] = o.Keys[j], o.Keys[i]
	o.Counts[i], o.Counts[j] = o.Counts[j], o.Counts[i]
}

// Assign clears and recreates an OrderedSparse variable, and makes it
// represents s.
func (o *OrderedSparse) Assign(s Hist) *OrderedSparse {
	o.Keys = make([]int32, 0, s.Len())
	o.Counts = make([]int32, 0, s.Len())
	s.ForEach(func(key int, count int64) error {
		o.Keys = append(o.Keys, int32(key))
		o.Counts = append(o.Counts, int32(count))
		return nil
	})
	sort.Sort(o)
	return o
}

// Truncate drops every element whose count is less than min.  Since
// counts are in descending order, this cuts a suffix.
func (o *OrderedSparse) Truncate(min int) *OrderedSparse {
	n := sort.Search(len(o.Counts), func(i int) bool {
		return int(o.Counts[i]) < min
	})
	o.Keys = o.Keys[:n]
	o.Counts = o.Counts[:n]
	return o
}

// ForEach goes over elements in the order of descending count.
func (o *OrderedSparse) ForEach(p func(key int, count int64) error) error {
	for i := 0; i < len(o.Keys); i++ {
		if e := p(int(o.Keys[i]), int64(o.Counts[i])); e != nil {
			return e
		}
	}
	return nil
}
