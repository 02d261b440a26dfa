package popscore

import (
	"fmt"
	"log/slog"

	"github.com/happyhackingspace/popscore/errs"
	"github.com/happyhackingspace/popscore/regression"
)

// Score holds the error of one stored model on a split.
type Score struct {
	Name     string
	Kind     regression.Kind
	Variant  string
	RunID    string
	MSE      float64
	RSquared float64
}

// Evaluate scores every stored model on the features of split, in model
// name order.
func Evaluate(store Store, split string) ([]Score, error) {
	assembler, err := LoadAssembler(store)
	if err != nil {
		return nil, err
	}
	layout := assembler.Layout()
	x, y, err := loadSplit(store, split)
	if err != nil {
		return nil, err
	}
	names, err := ModelNames(store)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("popscore: %w: no stored models", errs.ErrInputFormat)
	}

	scores := make([]Score, 0, len(names))
	for _, name := range names {
		saved, m, err := LoadModel(store, name)
		if err != nil {
			return nil, err
		}
		if saved.Layout != layout {
			return nil, fmt.Errorf("popscore: %w: %s was trained on another vocabulary", errs.ErrDimension, name)
		}
		xv, err := saved.Variant.Apply(x, layout)
		if err != nil {
			return nil, fmt.Errorf("popscore: %s: %w", name, err)
		}
		pred, err := m.Predict(xv)
		if err != nil {
			return nil, fmt.Errorf("popscore: %s: %w", name, err)
		}
		mse, err := regression.MeanSquaredError(pred, y)
		if err != nil {
			return nil, fmt.Errorf("popscore: %s: %w", name, err)
		}
		r2, err := regression.RSquared(pred, y)
		if err != nil {
			return nil, fmt.Errorf("popscore: %s: %w", name, err)
		}
		slog.Debug("Model evaluated", "model", name, "split", split, "mse", mse)
		scores = append(scores, Score{
			Name:     name,
			Kind:     m.Kind(),
			Variant:  saved.Variant.Name,
			RunID:    saved.RunID,
			MSE:      mse,
			RSquared: r2,
		})
	}
	return scores, nil
}
