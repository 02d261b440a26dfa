// Package errs holds the sentinel errors shared across popscore packages.
//
// Callers wrap them with fmt.Errorf("...: %w", ...) and match with errors.Is.
package errs

import "errors"

var (
	// ErrInputFormat marks a missing or malformed corpus, feature or model artifact.
	ErrInputFormat = errors.New("malformed or missing input")
	// ErrInsufficientVocabulary marks a corpus with fewer distinct tokens than requested.
	ErrInsufficientVocabulary = errors.New("insufficient vocabulary")
	// ErrDimension marks a feature matrix whose width disagrees with what the operation expects.
	ErrDimension = errors.New("dimension mismatch")
	// ErrNotTrained is returned when a model is used before Train succeeded.
	ErrNotTrained = errors.New("model not trained")
	// ErrDiverged is returned when gradient descent produced a non-finite loss.
	ErrDiverged = errors.New("gradient descent diverged")
)
