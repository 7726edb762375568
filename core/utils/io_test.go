package utils

import (
	"bytes"
	"errors"
	"io"
	"io/ioutil"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
)

const testingContent = "n60 n64 n67 wait2 n60 n64 n67 wait4\nn62 wait1\n"

func TestCompressedRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"/corpus", "/corpus.gz", "/corpus.zst"} {
		w, e := CreateWriter(fs, name)
		if e != nil {
			t.Fatalf("CreateWriter(%s): %v", name, e)
		}
		if _, e := io.WriteString(w, testingContent); e != nil {
			t.Fatalf("Write %s: %v", name, e)
		}
		if e := w.Close(); e != nil {
			t.Fatalf("Close %s: %v", name, e)
		}

		r, e := OpenReader(fs, name)
		if e != nil {
			t.Fatalf("OpenReader(%s): %v", name, e)
		}
		b, e := ioutil.ReadAll(r)
		r.Close()
		if e != nil {
			t.Fatalf("ReadAll %s: %v", name, e)
		}
		if string(b) != testingContent {
			t.Errorf("%s: expecting %q, got %q", name, testingContent, b)
		}
	}
}

func TestCompressedFileIsCompressed(t *testing.T) {
	fs := afero.NewMemMapFs()
	w, _ := CreateWriter(fs, "/corpus.gz")
	io.WriteString(w, testingContent)
	w.Close()

	raw, e := afero.ReadFile(fs, "/corpus.gz")
	if e != nil {
		t.Fatalf("ReadFile: %v", e)
	}
	if !bytes.HasPrefix(raw, []byte{0x1f, 0x8b}) {
		t.Errorf("Expecting gzip magic number, got % x", raw[:2])
	}
}

func TestOpenReaderMissingFile(t *testing.T) {
	if _, e := OpenReader(afero.NewMemMapFs(), "/nonexist"); e == nil {
		t.Errorf("Expecting an error opening a missing file")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	fs := afero.NewMemMapFs()
	if e := WriteFileAtomic(fs, "/model", func(w io.Writer) error {
		_, e := io.WriteString(w, "first")
		return e
	}); e != nil {
		t.Fatalf("WriteFileAtomic: %v", e)
	}

	e := WriteFileAtomic(fs, "/model", func(w io.Writer) error {
		io.WriteString(w, "partial")
		return errors.New("disk full")
	})
	if e == nil {
		t.Errorf("Expecting the error returned by write")
	}

	if b, _ := afero.ReadFile(fs, "/model"); string(b) != "first" {
		t.Errorf("Expecting previous content \"first\", got %q", b)
	}
	if Exists(fs, "/model.tmp") {
		t.Errorf("Temporary file should have been removed")
	}
}

func TestExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	fs.MkdirAll("/models", 0755)
	afero.WriteFile(fs, "/models/train", []byte("n1"), 0644)
	if !Exists(fs, "/models/train") {
		t.Errorf("Expecting /models/train to exist")
	}
	if Exists(fs, "/models") {
		t.Errorf("A directory is not a regular file")
	}
	if Exists(fs, "/models/test") {
		t.Errorf("Expecting /models/test not to exist")
	}
}

func TestParallelFor(t *testing.T) {
	var sum int64
	if e := ParallelFor(0, 10, 2, func(i int) error {
		atomic.AddInt64(&sum, int64(i))
		return nil
	}); e != nil {
		t.Errorf("Unexpected error: %v", e)
	}
	if sum != 0+2+4+6+8 {
		t.Errorf("Expecting sum 20, got %d", sum)
	}

	e := ParallelFor(0, 3, 1, func(i int) error {
		if i == 1 {
			return errors.New("failed")
		}
		return nil
	})
	if e == nil || e.Error() != "failed" {
		t.Errorf("Expecting error \"failed\", got %v", e)
	}
}
