package utils

import (
	"fmt"
	"io"
	"path"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
)

// Files whose names end with one of these extensions are compressed
// transparently by OpenReader, CreateWriter and WriteFileAtomic.
const (
	GzipExt = ".gz"
	ZstdExt = ".zst"
)

type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReader) Close() error {
	return closeAll(s.closers)
}

type stackedWriter struct {
	io.Writer
	closers []io.Closer
}

func (s *stackedWriter) Close() error {
	return closeAll(s.closers)
}

// closeAll closes from the innermost wrapper outwards and returns the
// first error.
func closeAll(cs []io.Closer) error {
	var first error
	for _, c := range cs {
		if e := c.Close(); e != nil && first == nil {
			first = e
		}
	}
	return first
}

// NewReader wraps f with a decompressor chosen by ext.  Closing the
// returned reader closes f.
func NewReader(f io.ReadCloser, ext string) (io.ReadCloser, error) {
	switch ext {
	case GzipExt:
		r, e := gzip.NewReader(f)
		if e != nil {
			f.Close()
			return nil, fmt.Errorf("Cannot create gzip reader: %v", e)
		}
		return &stackedReader{r, []io.Closer{r, f}}, nil
	case ZstdExt:
		d, e := zstd.NewReader(f)
		if e != nil {
			f.Close()
			return nil, fmt.Errorf("Cannot create zstd reader: %v", e)
		}
		r := d.IOReadCloser()
		return &stackedReader{r, []io.Closer{r, f}}, nil
	}
	return f, nil
}

// NewWriter wraps f with a compressor chosen by ext.  Closing the
// returned writer flushes the compressor and closes f.
func NewWriter(f io.WriteCloser, ext string) (io.WriteCloser, error) {
	switch ext {
	case GzipExt:
		w := gzip.NewWriter(f)
		return &stackedWriter{w, []io.Closer{w, f}}, nil
	case ZstdExt:
		w, e := zstd.NewWriter(f)
		if e != nil {
			f.Close()
			return nil, fmt.Errorf("Cannot create zstd writer: %v", e)
		}
		return &stackedWriter{w, []io.Closer{w, f}}, nil
	}
	return f, nil
}

// OpenReader opens filename on fs for reading, decompressing it
// according to its extension.
func OpenReader(fs afero.Fs, filename string) (io.ReadCloser, error) {
	f, e := fs.Open(filename)
	if e != nil {
		return nil, e
	}
	return NewReader(f, path.Ext(filename))
}

// CreateWriter creates or truncates filename on fs, compressing what
// is written according to its extension.
func CreateWriter(fs afero.Fs, filename string) (io.WriteCloser, error) {
	f, e := fs.Create(filename)
	if e != nil {
		return nil, e
	}
	return NewWriter(f, path.Ext(filename))
}

// WriteFileAtomic writes to a temporary sibling of filename and
// renames it to filename only after write returned and every writer
// was closed successfully.  A reader of filename therefore sees either
// the previous content or the complete new one.
func WriteFileAtomic(fs afero.Fs, filename string, write func(w io.Writer) error) error {
	tmp := filename + ".tmp"
	f, e := fs.Create(tmp)
	if e != nil {
		return fmt.Errorf("Cannot create %s: %v", tmp, e)
	}
	w, e := NewWriter(f, path.Ext(filename))
	if e != nil {
		fs.Remove(tmp)
		return e
	}

	if e := write(w); e != nil {
		w.Close()
		fs.Remove(tmp)
		return e
	}
	if e := w.Close(); e != nil {
		fs.Remove(tmp)
		return fmt.Errorf("Cannot close %s: %v", tmp, e)
	}
	if e := fs.Rename(tmp, filename); e != nil {
		fs.Remove(tmp)
		return fmt.Errorf("Cannot rename %s to %s: %v", tmp, filename, e)
	}
	return nil
}

// Exists returns false if filename does not exist or cannot be
// stat-ed, and true if it is a regular file.
func Exists(fs afero.Fs, filename string) bool {
	fi, e := fs.Stat(filename)
	return e == nil && !fi.IsDir()
}
