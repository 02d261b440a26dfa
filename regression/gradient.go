package regression

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/go-playground/validator/v10"
	"gonum.org/v1/gonum/mat"

	"github.com/happyhackingspace/popscore/errs"
)

var validate = validator.New()

// Hyperparameters configures gradient descent.
type Hyperparameters struct {
	// Beta is the L2 regularization strength (keep it below 1e-3).
	Beta float64 `json:"beta" yaml:"beta" validate:"gte=0"`
	// Eta0 is the initial learning rate (keep it at or below 1e-5 on raw features).
	Eta0 float64 `json:"eta_0" yaml:"eta_0" validate:"gt=0"`
	// Eps stops descent once the weight update norm falls below it.
	Eps float64 `json:"eps" yaml:"eps" validate:"gt=0"`
	// Decay sets the step schedule eta_t = Eta0 / (1 + Decay*t); 0 keeps it
	// constant. Near 1 the step shrinks so fast that Eps is met within a few
	// iterations whatever the fit.
	Decay         float64 `json:"decay" yaml:"decay" validate:"gte=0"`
	MaxIterations int     `json:"max_iterations" yaml:"max_iterations" validate:"gt=0"`
	// W0 is the initial weight vector; nil starts from zeros.
	W0 []float64 `json:"w_0,omitempty" yaml:"-"`
}

// DefaultHyperparameters returns the default gradient-descent settings.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		Beta:          1e-4,
		Eta0:          1e-5,
		Eps:           1e-6,
		Decay:         1e-3,
		MaxIterations: 10000,
	}
}

// Validate checks every field is in range.
func (h Hyperparameters) Validate() error {
	if err := validate.Struct(h); err != nil {
		return fmt.Errorf("regression: invalid hyperparameters: %w", err)
	}
	return nil
}

// Rate returns the learning rate of iteration t (0-based).
func (h Hyperparameters) Rate(t int) float64 {
	return h.Eta0 / (1 + h.Decay*float64(t))
}

// Status is the state a gradient-descent model ended training in.
type Status int

// Training states.
const (
	StatusUntrained Status = iota
	StatusConverged
	StatusMaxIterations
)

var statusNames = map[Status]string{
	StatusUntrained:     "untrained",
	StatusConverged:     "converged",
	StatusMaxIterations: "max_iterations",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for st, name := range statusNames {
		if name == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("regression: unknown status %q", text)
}

// GradientDescent fits weights by batch gradient descent on
// L(w) = (1/n)||Xw − y||² + β||w||².
type GradientDescent struct {
	// hp is what the model was configured with; effective is what the last
	// successful fit ran with, W0 filled in.
	hp         Hyperparameters
	effective  Hyperparameters
	w          *mat.VecDense
	iterations int
	status     Status
	loss       float64

	// OnIteration, when set, is called once per iteration with the loss
	// at the weights the iteration started from.
	OnIteration func(iteration int, loss float64)
}

// NewGradientDescent creates an untrained gradient-descent model.
func NewGradientDescent(hp Hyperparameters) *GradientDescent {
	hp.W0 = slices.Clone(hp.W0)
	return &GradientDescent{hp: hp}
}

// Kind implements Model.
func (m *GradientDescent) Kind() Kind { return KindGradientDescent }

// Train runs gradient descent until the update norm drops below Eps or
// MaxIterations is reached. Reaching the cap is reported through Status, not
// as an error. A non-finite loss aborts with errs.ErrDiverged and leaves the
// model untrained, as does any other error.
func (m *GradientDescent) Train(x mat.Matrix, y mat.Vector) error {
	m.reset()
	n, d, err := checkTrainingData(x, y)
	if err != nil {
		return err
	}
	hp := m.hp
	hp.W0 = slices.Clone(hp.W0)
	if err := hp.Validate(); err != nil {
		return err
	}
	if hp.W0 == nil {
		hp.W0 = make([]float64, d)
	}
	if len(hp.W0) != d {
		return fmt.Errorf("regression: %w: w_0 has %d entries, matrix has %d columns",
			errs.ErrDimension, len(hp.W0), d)
	}

	w := mat.NewVecDense(d, slices.Clone(hp.W0))
	residual := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(d, nil)
	step := mat.NewVecDense(d, nil)
	scale := 2 / float64(n)

	status := StatusMaxIterations
	iterations := 0
	for t := range hp.MaxIterations {
		residual.MulVec(x, w)
		residual.SubVec(residual, y)

		loss := mat.Dot(residual, residual)/float64(n) + hp.Beta*mat.Dot(w, w)
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return fmt.Errorf("regression: %w at iteration %d", errs.ErrDiverged, t+1)
		}
		if m.OnIteration != nil {
			m.OnIteration(t+1, loss)
		}
		if t%1000 == 0 {
			slog.Debug("Gradient descent iteration", "iteration", t+1, "loss", loss)
		}

		grad.MulVec(x.T(), residual)
		grad.ScaleVec(scale, grad)
		grad.AddScaledVec(grad, 2*hp.Beta, w)

		step.ScaleVec(-hp.Rate(t), grad)
		w.AddVec(w, step)
		iterations = t + 1

		if mat.Norm(step, 2) < hp.Eps {
			status = StatusConverged
			break
		}
	}

	residual.MulVec(x, w)
	residual.SubVec(residual, y)
	loss := mat.Dot(residual, residual)/float64(n) + hp.Beta*mat.Dot(w, w)
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return fmt.Errorf("regression: %w after %d iterations", errs.ErrDiverged, iterations)
	}

	if status == StatusMaxIterations {
		slog.Warn("Gradient descent stopped at iteration cap", "iterations", iterations, "loss", loss)
	} else {
		slog.Debug("Gradient descent converged", "iterations", iterations, "loss", loss)
	}

	m.effective = hp
	m.w = w
	m.iterations = iterations
	m.status = status
	m.loss = loss
	return nil
}

func (m *GradientDescent) reset() {
	m.effective = Hyperparameters{}
	m.w = nil
	m.iterations = 0
	m.status = StatusUntrained
	m.loss = 0
}

// Predict implements Model.
func (m *GradientDescent) Predict(x mat.Matrix) (*mat.VecDense, error) {
	return predict(x, m.w)
}

// IsTrained implements Model.
func (m *GradientDescent) IsTrained() bool { return m.w != nil }

// Weights implements Model.
func (m *GradientDescent) Weights() []float64 { return weightsCopy(m.w) }

// Iterations returns the number of iterations the last fit ran.
func (m *GradientDescent) Iterations() int { return m.iterations }

// Status returns how the last fit ended.
func (m *GradientDescent) Status() Status { return m.status }

// Loss returns the regularized loss at the fitted weights.
func (m *GradientDescent) Loss() float64 { return m.loss }

// Hyperparameters returns the hyperparameters of the last fit, including the
// initial weights it started from. Before training it returns the configured
// ones.
func (m *GradientDescent) Hyperparameters() Hyperparameters {
	hp := m.hp
	if m.IsTrained() {
		hp = m.effective
	}
	hp.W0 = slices.Clone(hp.W0)
	return hp
}
