package lm

import (
	"encoding/gob"
	"io"
	"path"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/wangkuiyi/notewise/core/lstm"
	"github.com/wangkuiyi/notewise/core/utils"
)

func CheckpointPath(dir, prefix string, s Stage) string {
	return path.Join(dir, prefix+s.Suffix)
}

// CheckpointWriter persists the model state at the end of each stage
// to Dir/<Prefix><Stage.Suffix>.  A checkpoint is written to a
// temporary file and renamed into place, so an interrupted write never
// leaves a partial checkpoint.
type CheckpointWriter struct {
	Fs     afero.Fs
	Dir    string
	Prefix string
	RunID  string
}

// Write stamps sd with the run id and the stage label and returns the
// path of the checkpoint.
func (w *CheckpointWriter) Write(s Stage, sd *lstm.StateDict) (string, error) {
	sd.RunID, sd.Stage = w.RunID, s.Label
	filename := CheckpointPath(w.Dir, w.Prefix, s)
	e := utils.WriteFileAtomic(w.Fs, filename, func(out io.Writer) error {
		return gob.NewEncoder(out).Encode(sd)
	})
	if e != nil {
		return "", errors.Wrapf(ErrIO, "writing checkpoint %s: %v", filename, e)
	}
	return filename, nil
}

func ReadCheckpoint(fs afero.Fs, filename string) (*lstm.StateDict, error) {
	f, e := utils.OpenReader(fs, filename)
	if e != nil {
		return nil, errors.Wrapf(ErrLoad, "%v", e)
	}
	defer f.Close()

	sd := new(lstm.StateDict)
	if e := gob.NewDecoder(f).Decode(sd); e != nil {
		return nil, errors.Wrapf(ErrLoad, "decoding %s: %v", filename, e)
	}
	return sd, nil
}

// LoadCheckpoint overwrites the parameters of m with a checkpoint.  A
// checkpoint that does not match m's architecture leaves m unchanged.
func LoadCheckpoint(fs afero.Fs, filename string, m *lstm.Model) error {
	sd, e := ReadCheckpoint(fs, filename)
	if e != nil {
		return e
	}
	if e := m.LoadStateDict(sd); e != nil {
		return errors.Wrapf(ErrLoad, "%s: %v", filename, e)
	}
	return nil
}
