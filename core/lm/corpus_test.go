package lm

import (
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

func TestTokenize(t *testing.T) {
	if ts := Tokenize("  C4 e4\tG4  "); !reflect.DeepEqual(ts, []string{"c4", "e4", "g4"}) {
		t.Errorf("Unexpected tokens %v", ts)
	}
}

func TestReadTokens(t *testing.T) {
	text := "A b\n\nc"
	ts, e := ReadTokens(strings.NewReader(text), false)
	if e != nil || !reflect.DeepEqual(ts, []string{"a", "b", "c"}) {
		t.Errorf("Unexpected tokens %v, error %v", ts, e)
	}
	ts, _ = ReadTokens(strings.NewReader(text), true)
	if !reflect.DeepEqual(ts, []string{"a", "b", EOSToken, "c", EOSToken}) {
		t.Errorf("Unexpected tokens %v", ts)
	}
}

func TestLoadTokensMissing(t *testing.T) {
	_, e := LoadTokens(afero.NewMemMapFs(), "/data/train", false)
	if errors.Cause(e) != ErrConfiguration {
		t.Errorf("Expecting ErrConfiguration, got %v", e)
	}
}

func TestLoadSplits(t *testing.T) {
	train, test := CreateTestingTokens(100, 1), CreateTestingTokens(40, 2)
	s, e := LoadSplits(CreateTestingFs(train, test), CreateTestingConfig())
	if e != nil {
		t.Fatalf("LoadSplits: %v", e)
	}
	if !reflect.DeepEqual(s.Train, train) {
		t.Errorf("Train split differs")
	}
	if !reflect.DeepEqual(s.Validation, test) || !reflect.DeepEqual(s.Test, test) {
		t.Errorf("Validation or test split differs")
	}
}
