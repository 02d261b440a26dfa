package regression

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/happyhackingspace/popscore/errs"
)

// MeanSquaredError returns (1/n)||pred − y||².
func MeanSquaredError(pred, y mat.Vector) (float64, error) {
	if pred.Len() != y.Len() || y.Len() == 0 {
		return 0, fmt.Errorf("regression: %w: %d predictions for %d targets", errs.ErrDimension, pred.Len(), y.Len())
	}
	var diff mat.VecDense
	diff.SubVec(pred, y)
	return mat.Dot(&diff, &diff) / float64(y.Len()), nil
}

// RSquared returns the coefficient of determination of pred against y.
func RSquared(pred, y mat.Vector) (float64, error) {
	if pred.Len() != y.Len() || y.Len() == 0 {
		return 0, fmt.Errorf("regression: %w: %d predictions for %d targets", errs.ErrDimension, pred.Len(), y.Len())
	}
	return stat.RSquaredFrom(mat.Col(nil, 0, pred), mat.Col(nil, 0, y), nil), nil
}

// Evaluate predicts x with m and returns the mean squared error against y.
func Evaluate(m Model, x mat.Matrix, y mat.Vector) (float64, error) {
	pred, err := m.Predict(x)
	if err != nil {
		return 0, err
	}
	return MeanSquaredError(pred, y)
}
