package lm

import (
	"github.com/pkg/errors"
)

// Every error returned by this package has one of the following as
// its errors.Cause.
var (
	// ErrConfiguration reports invalid parameters or missing input
	// files, detected before any training.
	ErrConfiguration = errors.New("configuration error")

	// ErrLoad reports a checkpoint that cannot be read or does not
	// match the configured architecture.
	ErrLoad = errors.New("load error")

	// ErrDivergence reports a non-finite loss during training.
	ErrDivergence = errors.New("numeric divergence")

	// ErrIO reports a failure writing an artifact.
	ErrIO = errors.New("I/O error")
)
