// Package regression implements linear regression models sharing one
// contract: a closed-form least-squares solver and a regularized batch
// gradient-descent solver.
package regression

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/happyhackingspace/popscore/errs"
)

// Kind names a solver type.
type Kind string

// Solver kinds.
const (
	KindClosedForm      Kind = "ClosedForm"
	KindGradientDescent Kind = "GradientDescent"
)

// Model is a linear model y = X·w.
//
// Train overwrites the state of the receiver; independent fits need
// independent instances, which is what a Factory is for.
type Model interface {
	Kind() Kind
	Train(x mat.Matrix, y mat.Vector) error
	Predict(x mat.Matrix) (*mat.VecDense, error)
	IsTrained() bool
	// Weights returns a copy of the fitted weights, nil before training.
	Weights() []float64
}

// Factory returns a new, untrained model each time it is called.
type Factory func() Model

// NewFactory returns a factory for the given kind.
func NewFactory(kind Kind, closedForm ClosedFormConfig, hp Hyperparameters) (Factory, error) {
	switch kind {
	case KindClosedForm:
		return func() Model { return NewClosedForm(closedForm) }, nil
	case KindGradientDescent:
		return func() Model { return NewGradientDescent(hp) }, nil
	}
	return nil, fmt.Errorf("regression: unknown model kind %q", kind)
}

// checkTrainingData returns the dimensions of x after checking y matches.
func checkTrainingData(x mat.Matrix, y mat.Vector) (n, d int, err error) {
	n, d = x.Dims()
	if y.Len() != n {
		return 0, 0, fmt.Errorf("regression: %w: %d rows but %d targets", errs.ErrDimension, n, y.Len())
	}
	return n, d, nil
}

// predict returns x·w after checking the widths agree.
func predict(x mat.Matrix, w *mat.VecDense) (*mat.VecDense, error) {
	if w == nil {
		return nil, fmt.Errorf("regression: %w", errs.ErrNotTrained)
	}
	n, d := x.Dims()
	if d != w.Len() {
		return nil, fmt.Errorf("regression: %w: matrix has %d columns, model has %d weights",
			errs.ErrDimension, d, w.Len())
	}
	out := mat.NewVecDense(n, nil)
	out.MulVec(x, w)
	return out, nil
}

func weightsCopy(w *mat.VecDense) []float64 {
	if w == nil {
		return nil
	}
	return mat.Col(nil, 0, w)
}
