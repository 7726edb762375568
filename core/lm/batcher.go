package lm

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Batched is a token stream reshaped into BS parallel streams of equal
// length.  Stream b holds ids[b*n : (b+1)*n], where n = len(ids)/BS.
type Batched struct {
	Streams [][]int32
}

// Batchify discards the len(ids)%bs trailing tokens and splits the rest
// into bs streams.  It fails if a stream would hold fewer than two
// tokens, because no (input, target) pair could be formed.
func Batchify(ids []int32, bs int) (*Batched, error) {
	if bs < 1 {
		return nil, errors.Wrapf(ErrConfiguration, "bs = %d", bs)
	}
	n := len(ids) / bs
	if n < 2 {
		return nil, errors.Wrapf(ErrConfiguration,
			"%d tokens too few for %d streams", len(ids), bs)
	}
	b := &Batched{Streams: make([][]int32, bs)}
	for i := range b.Streams {
		b.Streams[i] = append([]int32(nil), ids[i*n:(i+1)*n]...)
	}
	return b, nil
}

func (b *Batched) BS() int {
	return len(b.Streams)
}

// Len returns the length of each stream.
func (b *Batched) Len() int {
	if len(b.Streams) == 0 {
		return 0
	}
	return len(b.Streams[0])
}

// Flatten concatenates the streams.  The result is the prefix of the
// batched ids.
func (b *Batched) Flatten() []int32 {
	r := make([]int32, 0, b.BS()*b.Len())
	for _, s := range b.Streams {
		r = append(r, s...)
	}
	return r
}

// Window returns seqLen time steps starting at position i, as inputs
// x[t][b] and targets y[t][b] = x[t+1][b].  seqLen is clipped so the
// last target stays within the streams; past the end, the window is
// empty.
func (b *Batched) Window(i, seqLen int) (x, y [][]int32) {
	if rest := b.Len() - 1 - i; seqLen > rest {
		seqLen = rest
	}
	if seqLen < 0 {
		seqLen = 0
	}
	x = make([][]int32, seqLen)
	y = make([][]int32, seqLen)
	for t := 0; t < seqLen; t++ {
		x[t] = make([]int32, b.BS())
		y[t] = make([]int32, b.BS())
		for s, stream := range b.Streams {
			x[t][s] = stream[i+t]
			y[t][s] = stream[i+t+1]
		}
	}
	return x, y
}

// Windows returns an iterator over consecutive windows of about bptt
// steps.  If jitter is true, window lengths are randomized with rng.
func (b *Batched) Windows(bptt int, jitter bool, rng *rand.Rand) *WindowIterator {
	if !jitter {
		rng = nil
	}
	return &WindowIterator{b: b, bptt: bptt, rng: rng}
}

// NumWindows is the number of windows of a pass without jitter.
func (b *Batched) NumWindows(bptt int) int {
	return (b.Len() - 1 + bptt - 1) / bptt
}

type WindowIterator struct {
	b    *Batched
	bptt int
	rng  *rand.Rand
	pos  int
}

// seqLen draws the length of the next window.  With probability 0.95
// the target is bptt, otherwise bptt/2; the length is then drawn from
// a normal distribution of deviation 5 around the target and floored at
// min(5, bptt).
func (it *WindowIterator) seqLen() int {
	if it.rng == nil {
		return it.bptt
	}
	target := float64(it.bptt)
	if it.rng.Float64() >= 0.95 {
		target /= 2
	}
	n := int(it.rng.NormFloat64()*5 + target)
	floor := it.bptt
	if floor > 5 {
		floor = 5
	}
	if n < floor {
		n = floor
	}
	return n
}

// Next returns the next window, or ok = false at the end of the
// streams.
func (it *WindowIterator) Next() (x, y [][]int32, ok bool) {
	if it.pos >= it.b.Len()-1 {
		return nil, nil, false
	}
	n := it.seqLen()
	if n < 1 {
		n = 1
	}
	x, y = it.b.Window(it.pos, n)
	it.pos += len(x)
	return x, y, true
}
