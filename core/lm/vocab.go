package lm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wangkuiyi/notewise/core/hist"
)

const (
	// UnkToken has id 0.  Every token not in the vocabulary maps to
	// it, and it doubles as padding.
	UnkToken = "<unk>"

	// EOSToken is appended to each line when Config.NewlineEOS is set.
	EOSToken = "<eos>"
)

// Vocabulary maintains the bi-directional mapping between tokens and
// ids.  Id 0 is UnkToken.  The other ids are assigned in descending
// order of training frequency, and tokens of equal frequency in the
// order of their first occurrence in the training stream.  So the
// mapping depends only on the training stream, not on map iteration
// or sorting stability.
type Vocabulary struct {
	Tokens []string

	// Freqs[i] is the training frequency of Tokens[i].  Freqs[0]
	// counts the training tokens that were mapped to UnkToken.
	Freqs   []int32
	MinFreq int

	ids map[string]int32
}

// BuildVocabulary indexes every token that occurs at least minFreq
// times in tokens.  An empty stream yields a vocabulary holding only
// UnkToken.
func BuildVocabulary(tokens []string, minFreq int) *Vocabulary {
	first := make(map[string]int32)
	order := make([]string, 0)
	counts := hist.NewSparse()
	for _, t := range tokens {
		if t == UnkToken {
			continue
		}
		k, ok := first[t]
		if !ok {
			k = int32(len(order))
			first[t] = k
			order = append(order, t)
		}
		counts.Inc(int(k), 1)
	}

	kept := hist.NewOrderedSparse().Assign(counts).Truncate(minFreq)
	v := &Vocabulary{
		Tokens:  make([]string, 1, kept.Len()+1),
		Freqs:   make([]int32, 1, kept.Len()+1),
		MinFreq: minFreq,
	}
	v.Tokens[0] = UnkToken
	known := 0
	kept.ForEach(func(key int, count int64) error {
		v.Tokens = append(v.Tokens, order[key])
		v.Freqs = append(v.Freqs, int32(count))
		known += int(count)
		return nil
	})
	v.Freqs[0] = int32(len(tokens) - known)
	v.buildIdMap()
	return v
}

func (v *Vocabulary) buildIdMap() {
	v.ids = make(map[string]int32, len(v.Tokens))
	for i, t := range v.Tokens {
		v.ids[t] = int32(i)
	}
}

func (v *Vocabulary) Len() int {
	return len(v.Tokens)
}

func (v *Vocabulary) Token(id int32) string {
	if int(id) < 0 || int(id) >= len(v.Tokens) {
		panic(fmt.Sprintf("id=%d out of range [0, %d)", id, len(v.Tokens)))
	}
	return v.Tokens[id]
}

// Id returns the index of token, or 0 if token is not in the
// vocabulary.
func (v *Vocabulary) Id(token string) int32 {
	if v.ids == nil {
		v.buildIdMap()
	}
	return v.ids[token]
}

func (v *Vocabulary) Numericalize(tokens []string) []int32 {
	ids := make([]int32, len(tokens))
	for i, t := range tokens {
		ids[i] = v.Id(t)
	}
	return ids
}

// WriteTo writes one token per line, followed by a tab and its
// frequency.
func (v *Vocabulary) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for i, t := range v.Tokens {
		var f int32
		if i < len(v.Freqs) {
			f = v.Freqs[i]
		}
		m, e := fmt.Fprintf(bw, "%s\t%d\n", t, f)
		n += int64(m)
		if e != nil {
			return n, e
		}
	}
	return n, bw.Flush()
}

// Load reads the format written by WriteTo.  The frequency column is
// optional; the first token must be UnkToken.
func (v *Vocabulary) Load(r io.Reader) error {
	v.Tokens, v.Freqs = nil, nil
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fs := strings.Fields(scanner.Text())
		if len(fs) == 0 {
			continue
		}
		var f int64
		if len(fs) > 1 {
			var e error
			if f, e = strconv.ParseInt(fs[1], 10, 32); e != nil {
				return fmt.Errorf("Invalid frequency of %s: %v", fs[0], e)
			}
		}
		v.Tokens = append(v.Tokens, fs[0])
		v.Freqs = append(v.Freqs, int32(f))
	}
	if e := scanner.Err(); e != nil {
		return e
	}
	if len(v.Tokens) == 0 || v.Tokens[0] != UnkToken {
		return fmt.Errorf("The first token must be %s", UnkToken)
	}
	v.buildIdMap()
	return nil
}
