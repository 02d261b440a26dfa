package regression

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/happyhackingspace/popscore/errs"
)

// Artifact is the serialized form of a trained model.
type Artifact struct {
	Kind            Kind             `json:"kind"`
	Weights         []float64        `json:"weights"`
	Hyperparameters *Hyperparameters `json:"hyperparameters,omitempty"`
	Iterations      int              `json:"iterations,omitempty"`
	Status          Status           `json:"status,omitempty"`
	Loss            float64          `json:"loss,omitempty"`
	PseudoInverse   bool             `json:"pseudo_inverse,omitempty"`
}

// ToArtifact captures a trained model.
func ToArtifact(m Model) (Artifact, error) {
	if !m.IsTrained() {
		return Artifact{}, fmt.Errorf("regression: %w", errs.ErrNotTrained)
	}
	a := Artifact{Kind: m.Kind(), Weights: m.Weights()}
	switch model := m.(type) {
	case *ClosedForm:
		a.PseudoInverse = model.PseudoInverse()
	case *GradientDescent:
		hp := model.Hyperparameters()
		a.Hyperparameters = &hp
		a.Iterations = model.Iterations()
		a.Status = model.Status()
		a.Loss = model.Loss()
	}
	return a, nil
}

// FromArtifact restores a trained model.
func FromArtifact(a Artifact) (Model, error) {
	if len(a.Weights) == 0 {
		return nil, fmt.Errorf("regression: %w: artifact has no weights", errs.ErrInputFormat)
	}
	w := mat.NewVecDense(len(a.Weights), slices.Clone(a.Weights))
	switch a.Kind {
	case KindClosedForm:
		m := NewClosedForm(DefaultClosedFormConfig())
		m.w, m.pseudoInverse = w, a.PseudoInverse
		return m, nil
	case KindGradientDescent:
		if a.Hyperparameters == nil {
			return nil, fmt.Errorf("regression: %w: gradient descent artifact without hyperparameters", errs.ErrInputFormat)
		}
		m := NewGradientDescent(*a.Hyperparameters)
		m.effective = NewGradientDescent(*a.Hyperparameters).hp
		m.w = w
		m.iterations = a.Iterations
		m.status = a.Status
		m.loss = a.Loss
		return m, nil
	}
	return nil, fmt.Errorf("regression: %w: unknown model kind %q", errs.ErrInputFormat, a.Kind)
}

// MarshalModel serializes a trained model to JSON bytes.
func MarshalModel(m Model) ([]byte, error) {
	a, err := ToArtifact(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(a)
}

// UnmarshalModel deserializes a model from JSON bytes.
func UnmarshalModel(data []byte) (Model, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("regression: %w: %w", errs.ErrInputFormat, err)
	}
	return FromArtifact(a)
}

// SaveModel writes a trained model to path as JSON.
func SaveModel(m Model, path string) error {
	a, err := ToArtifact(m)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadModel reads a model written by SaveModel.
func LoadModel(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("regression: %w: %w", errs.ErrInputFormat, err)
	}
	return UnmarshalModel(data)
}
