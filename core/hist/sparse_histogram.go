package hist

import (
	"fmt"
	"math"
)

// Sparse represents histogram using Go map.  It accumulates token
// frequencies while a corpus is being scanned.
type Sparse map[int32]int32

func NewSparse() Sparse {
	return make(Sparse)
}

func (s Sparse) Len() int {
	return len(s)
}

func (s Sparse) Inc(key, count int) {
	if count <= 0 {
		panic(fmt.Sprintf("Inc(key=%d, count=%d): count must > 0",
			key, count))
	}
	if count > int(math.MaxInt32) {
		panic(fmt.Sprintf("count (%d) larger than MaxInt32", count))
	}
	k := int32(key)
	if s[k] > math.MaxInt32-int32(count) {
		panic(fmt.Sprintf("s[%d] = %d overflow", key, s[k]))
	}
	s[k] += int32(count)
}

// ForEach visits elements in unspecified order.
func (s Sparse) ForEach(p func(key int, count int64) error) error {
	for k, v := range s {
		if e := p(int(k), int64(v)); e != nil {
			return e
		}
	}
	return nil
}
