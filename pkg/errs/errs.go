// Package errs defines the error categories shared by the terrain pipeline.
//
// Packages wrap these sentinels in their own, more specific errors so callers
// can match either the category or the exact failure with errors.Is.
package errs

import "errors"

var (
	// ErrInvalidArgument reports a precondition violation: a non-positive
	// size, an empty palette, a nil grid or image, mismatched dimensions.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIO reports a failure reading or writing a file.
	ErrIO = errors.New("i/o error")
)
