package lm

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestBuildVocabularyOrder(t *testing.T) {
	v := BuildVocabulary(strings.Fields("c e c g e c d"), 1)
	if !reflect.DeepEqual(v.Tokens, []string{UnkToken, "c", "e", "g", "d"}) {
		t.Errorf("Unexpected tokens %v", v.Tokens)
	}
	if !reflect.DeepEqual(v.Freqs, []int32{0, 3, 2, 1, 1}) {
		t.Errorf("Unexpected freqs %v", v.Freqs)
	}
	if v.Id("c") != 1 || v.Id("d") != 4 || v.Id("f") != 0 {
		t.Errorf("Unexpected ids %d %d %d", v.Id("c"), v.Id("d"), v.Id("f"))
	}
	if v.Token(2) != "e" {
		t.Errorf("Expecting e, got %s", v.Token(2))
	}
}

func TestBuildVocabularyMinFreq(t *testing.T) {
	tokens := CreateTestingTokens(1000, 1)
	for i := 0; i < 4; i++ {
		tokens = append(tokens, "xyz")
	}
	v := BuildVocabulary(tokens, 5)
	if v.Id("xyz") != 0 {
		t.Errorf("xyz occurs 4 times, expecting id 0, got %d", v.Id("xyz"))
	}
	if v.Len() != testingNotes+1 {
		t.Errorf("Expecting %d tokens, got %d", testingNotes+1, v.Len())
	}
	if v.Freqs[0] != 4 {
		t.Errorf("Expecting 4 unknown tokens, got %d", v.Freqs[0])
	}
	for i := 1; i < v.Len(); i++ {
		if int(v.Freqs[i]) < 5 {
			t.Errorf("%s of frequency %d kept", v.Tokens[i], v.Freqs[i])
		}
	}
}

func TestBuildVocabularyBijection(t *testing.T) {
	v := BuildVocabulary(CreateTestingTokens(500, 2), 1)
	for i := 0; i < v.Len(); i++ {
		if id := v.Id(v.Token(int32(i))); id != int32(i) {
			t.Errorf("Id(Token(%d)) = %d", i, id)
		}
	}
}

func TestBuildVocabularyDeterministic(t *testing.T) {
	tokens := CreateTestingTokens(500, 3)
	v1 := BuildVocabulary(tokens, 2)
	v2 := BuildVocabulary(tokens, 2)
	if !reflect.DeepEqual(v1.Tokens, v2.Tokens) {
		t.Errorf("%v != %v", v1.Tokens, v2.Tokens)
	}
}

func TestBuildVocabularyEmpty(t *testing.T) {
	v := BuildVocabulary(nil, 1)
	if v.Len() != 1 || v.Token(0) != UnkToken {
		t.Errorf("Expecting only %s, got %v", UnkToken, v.Tokens)
	}
}

func TestBuildVocabularyFoldsUnk(t *testing.T) {
	v := BuildVocabulary(strings.Fields("a <unk> a b <unk>"), 1)
	if !reflect.DeepEqual(v.Tokens, []string{UnkToken, "a", "b"}) {
		t.Errorf("Unexpected tokens %v", v.Tokens)
	}
	if v.Freqs[0] != 2 {
		t.Errorf("Expecting 2, got %d", v.Freqs[0])
	}
}

func TestNumericalize(t *testing.T) {
	v := BuildVocabulary(strings.Fields("a b a"), 1)
	ids := v.Numericalize(strings.Fields("b a z"))
	if !reflect.DeepEqual(ids, []int32{2, 1, 0}) {
		t.Errorf("Unexpected ids %v", ids)
	}
}

func TestVocabularyTextRoundTrip(t *testing.T) {
	v := BuildVocabulary(CreateTestingTokens(300, 4), 1)
	var buf bytes.Buffer
	if _, e := v.WriteTo(&buf); e != nil {
		t.Fatalf("WriteTo: %v", e)
	}
	var w Vocabulary
	if e := w.Load(&buf); e != nil {
		t.Fatalf("Load: %v", e)
	}
	if !reflect.DeepEqual(v.Tokens, w.Tokens) || !reflect.DeepEqual(v.Freqs, w.Freqs) {
		t.Errorf("Expecting %v, got %v", v.Tokens, w.Tokens)
	}
	if w.Id(v.Tokens[3]) != 3 {
		t.Errorf("Expecting 3, got %d", w.Id(v.Tokens[3]))
	}
}

func TestVocabularyLoadRequiresUnk(t *testing.T) {
	var v Vocabulary
	if e := v.Load(strings.NewReader("a\t1\n")); e == nil {
		t.Errorf("Expecting an error but got none")
	}
}
