// Package hist provides the count histograms behind vocabulary
// construction.  Keys are small non-negative integers, usually the
// first-occurrence index of a token in a training stream, and counts
// are token frequencies.
package hist

type Hist interface {
	Len() int

	// ForEach access elements in the histogram one-by-one. For each
	// element <key, count>, it calls p(key, count).  If p returns nil,
	// it goes on to rest elements; otherwise, it stops the traversal
	// and returns the error from p.
	ForEach(p func(key int, count int64) error) error
}
