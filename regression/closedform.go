package regression

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ClosedFormConfig holds closed-form solver settings.
type ClosedFormConfig struct {
	// ConditionLimit is the largest condition number of XᵀX solved through
	// the normal equations; above it the pseudo-inverse is used.
	ConditionLimit float64 `json:"condition_limit" yaml:"condition_limit" validate:"gt=1"`
}

// DefaultClosedFormConfig returns the default closed-form settings.
func DefaultClosedFormConfig() ClosedFormConfig {
	return ClosedFormConfig{ConditionLimit: 1e12}
}

// ClosedForm fits w = (XᵀX)⁻¹Xᵀy exactly.
type ClosedForm struct {
	config        ClosedFormConfig
	w             *mat.VecDense
	pseudoInverse bool
}

// NewClosedForm creates an untrained closed-form model.
func NewClosedForm(config ClosedFormConfig) *ClosedForm {
	if config.ConditionLimit <= 1 {
		config = DefaultClosedFormConfig()
	}
	return &ClosedForm{config: config}
}

// Kind implements Model.
func (m *ClosedForm) Kind() Kind { return KindClosedForm }

// Train solves the normal equations through a Cholesky factorization of XᵀX.
// A singular or badly conditioned XᵀX (collinear columns, for instance) falls
// back to the minimum-norm least-squares solution.
func (m *ClosedForm) Train(x mat.Matrix, y mat.Vector) error {
	_, d, err := checkTrainingData(x, y)
	if err != nil {
		return err
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	w := mat.NewVecDense(d, nil)
	var chol mat.Cholesky
	if chol.Factorize(&xtx) && chol.Cond() <= m.config.ConditionLimit {
		if err := chol.SolveVecTo(w, &xty); err == nil {
			m.w, m.pseudoInverse = w, false
			return nil
		}
	}

	slog.Warn("Normal equations ill-conditioned, using pseudo-inverse", "columns", d)
	w, err = minimumNorm(x, y)
	if err != nil {
		return err
	}
	m.w, m.pseudoInverse = w, true
	return nil
}

// minimumNorm returns pinv(X)·y computed from a thin SVD of X. Singular
// values below max(n, d)·σ_max·ε are treated as zero.
func minimumNorm(x mat.Matrix, y mat.Vector) (*mat.VecDense, error) {
	n, d := x.Dims()
	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return nil, fmt.Errorf("regression: SVD factorization failed")
	}
	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var uty mat.VecDense
	uty.MulVec(u.T(), y)

	tol := 0.0
	if len(values) > 0 {
		eps := math.Nextafter(1, 2) - 1
		tol = float64(max(n, d)) * values[0] * eps
	}
	coef := mat.NewVecDense(len(values), nil)
	for i, s := range values {
		if s > tol {
			coef.SetVec(i, uty.AtVec(i)/s)
		}
	}

	w := mat.NewVecDense(d, nil)
	w.MulVec(&v, coef)
	return w, nil
}

// Predict implements Model.
func (m *ClosedForm) Predict(x mat.Matrix) (*mat.VecDense, error) {
	return predict(x, m.w)
}

// IsTrained implements Model.
func (m *ClosedForm) IsTrained() bool { return m.w != nil }

// Weights implements Model.
func (m *ClosedForm) Weights() []float64 { return weightsCopy(m.w) }

// PseudoInverse reports whether the last fit fell back to the pseudo-inverse.
func (m *ClosedForm) PseudoInverse() bool { return m.pseudoInverse }
