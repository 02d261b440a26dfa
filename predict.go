package popscore

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/happyhackingspace/popscore/errs"
	"github.com/happyhackingspace/popscore/features"
	"github.com/happyhackingspace/popscore/regression"
)

// Predictor scores raw documents with one stored model.
type Predictor struct {
	Name      string
	assembler *features.Assembler
	variant   features.Variant
	model     regression.Model
}

// LoadPredictor loads the vocabularies and the named model from store.
func LoadPredictor(store Store, name string) (*Predictor, error) {
	assembler, err := LoadAssembler(store)
	if err != nil {
		return nil, err
	}
	saved, m, err := LoadModel(store, name)
	if err != nil {
		return nil, err
	}
	if saved.Layout != assembler.Layout() {
		return nil, fmt.Errorf("popscore: %w: %s was trained on another vocabulary", errs.ErrDimension, name)
	}
	return NewPredictor(name, assembler, saved.Variant, m), nil
}

// NewPredictor wraps a trained model fitted on variant columns of the
// assembler layout.
func NewPredictor(name string, assembler *features.Assembler, variant features.Variant, m regression.Model) *Predictor {
	return &Predictor{Name: name, assembler: assembler, variant: variant, model: m}
}

// Score returns the predicted popularity score of every document.
func (p *Predictor) Score(docs []features.Document) ([]float64, error) {
	if len(docs) == 0 {
		return []float64{}, nil
	}
	x, err := p.assembler.Matrix(docs)
	if err != nil {
		return nil, fmt.Errorf("popscore: %w", err)
	}
	xv, err := p.variant.Apply(x, p.assembler.Layout())
	if err != nil {
		return nil, fmt.Errorf("popscore: %w", err)
	}
	pred, err := p.model.Predict(xv)
	if err != nil {
		return nil, fmt.Errorf("popscore: %s: %w", p.Name, err)
	}
	return mat.Col(nil, 0, pred), nil
}
