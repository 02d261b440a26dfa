package popscore

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/happyhackingspace/popscore/errs"
	"github.com/happyhackingspace/popscore/features"
	"github.com/happyhackingspace/popscore/internal/storage"
	"github.com/happyhackingspace/popscore/regression"
)

// Observer receives per-model training measurements.
type Observer interface {
	// ObserveFit is called after every fit; iterations and loss are -1 for
	// closed-form fits.
	ObserveFit(solver, variant string, elapsed time.Duration, iterations int, loss float64)
	ObserveSaved(solver, variant string)
}

// TrainConfig holds configuration for the train stage.
type TrainConfig struct {
	// Split is the split whose features the models are fitted on.
	Split           string
	Variants        []features.Variant
	Solvers         []regression.Kind
	ClosedForm      regression.ClosedFormConfig
	GradientDescent regression.Hyperparameters
	// Observer, when set, receives the measurements of every fit.
	Observer Observer
}

// DefaultTrainConfig trains both solvers on the four reference variants.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Split:           SplitTraining,
		Variants:        features.DefaultVariants(features.DefaultVocabularySize, features.DefaultStemWidth),
		Solvers:         []regression.Kind{regression.KindClosedForm, regression.KindGradientDescent},
		ClosedForm:      regression.DefaultClosedFormConfig(),
		GradientDescent: regression.DefaultHyperparameters(),
	}
}

// TrainedModel is the outcome of one (solver, variant) fit.
type TrainedModel struct {
	Name     string
	Variant  features.Variant
	Model    regression.Model
	Duration time.Duration
	// Err is set when the fit diverged; the model is then untrained.
	Err error
}

// Trained reports whether the fit produced a usable model.
func (t TrainedModel) Trained() bool {
	return t.Err == nil && t.Model.IsTrained()
}

// ModelName returns the artifact name of a solver trained on a variant,
// such as "ClosedForm" or "GradientDescent_60".
func ModelName(kind regression.Kind, v features.Variant) string {
	return string(kind) + v.Suffix()
}

// TrainVariants fits one fresh model per solver and variant against the
// full-layout matrix x and the shared targets y. A diverging fit is logged
// and reported on its TrainedModel; any other error stops the run.
func TrainVariants(x mat.Matrix, layout features.Layout, y mat.Vector, config TrainConfig) ([]TrainedModel, error) {
	factories := make([]regression.Factory, len(config.Solvers))
	for i, kind := range config.Solvers {
		f, err := regression.NewFactory(kind, config.ClosedForm, config.GradientDescent)
		if err != nil {
			return nil, fmt.Errorf("popscore: %w", err)
		}
		factories[i] = f
	}

	var out []TrainedModel
	for _, v := range config.Variants {
		xv, err := v.Apply(x, layout)
		if err != nil {
			return nil, fmt.Errorf("popscore: variant %q: %w", v.Name, err)
		}
		for _, newModel := range factories {
			m := newModel()
			name := ModelName(m.Kind(), v)

			start := time.Now()
			err := m.Train(xv, y)
			elapsed := time.Since(start)
			if err != nil && !errors.Is(err, errs.ErrDiverged) {
				return nil, fmt.Errorf("popscore: %s: %w", name, err)
			}
			if err != nil {
				slog.Warn("Model diverged, not saved", "model", name, "error", err)
			} else {
				slog.Info("Model trained", "model", name, "duration", elapsed)
			}
			observeFit(config.Observer, m, v, elapsed)
			out = append(out, TrainedModel{Name: name, Variant: v, Model: m, Duration: elapsed, Err: err})
		}
	}
	return out, nil
}

func observeFit(o Observer, m regression.Model, v features.Variant, elapsed time.Duration) {
	if o == nil {
		return
	}
	iterations, loss := -1, -1.0
	if gd, ok := m.(*regression.GradientDescent); ok && gd.IsTrained() {
		iterations, loss = gd.Iterations(), gd.Loss()
	}
	o.ObserveFit(string(m.Kind()), v.Name, elapsed, iterations, loss)
}

// SavedModel is the stored form of a trained model.
type SavedModel struct {
	Name    string              `json:"name"`
	RunID   string              `json:"run_id"`
	Variant features.Variant    `json:"variant"`
	Layout  features.Layout     `json:"layout"`
	Model   regression.Artifact `json:"model"`
}

// Run summarizes one train stage.
type Run struct {
	ID     string
	Models []TrainedModel
	Saved  []string
}

// Train fits every configured model on the stored features of the
// configured split and stores the ones that trained.
func Train(store Store, config TrainConfig) (*Run, error) {
	assembler, err := LoadAssembler(store)
	if err != nil {
		return nil, err
	}
	x, y, err := loadSplit(store, config.Split)
	if err != nil {
		return nil, err
	}
	layout := assembler.Layout()
	if _, cols := x.Dims(); cols != layout.Width() {
		return nil, fmt.Errorf("popscore: %w: feature matrix has %d columns, vocabulary layout has %d",
			errs.ErrDimension, cols, layout.Width())
	}

	run := &Run{ID: uuid.NewString()}
	slog.Info("Training", "run", run.ID, "split", config.Split, "variants", len(config.Variants))

	run.Models, err = TrainVariants(x, layout, y, config)
	if err != nil {
		return nil, err
	}
	for _, tm := range run.Models {
		if !tm.Trained() {
			continue
		}
		if err := saveModel(store, run.ID, layout, tm); err != nil {
			return nil, err
		}
		if config.Observer != nil {
			config.Observer.ObserveSaved(string(tm.Model.Kind()), tm.Variant.Name)
		}
		run.Saved = append(run.Saved, tm.Name)
	}
	slog.Info("Training completed", "run", run.ID, "saved", len(run.Saved))
	return run, nil
}

func saveModel(store Store, runID string, layout features.Layout, tm TrainedModel) error {
	a, err := regression.ToArtifact(tm.Model)
	if err != nil {
		return fmt.Errorf("popscore: %s: %w", tm.Name, err)
	}
	saved := SavedModel{Name: tm.Name, RunID: runID, Variant: tm.Variant, Layout: layout, Model: a}
	if err := storage.PutJSON(store, storage.ModelKey(tm.Name), saved); err != nil {
		return fmt.Errorf("popscore: %w", err)
	}
	slog.Debug("Model saved", "model", tm.Name, "run", runID)
	return nil
}

// LoadModel reads a stored model by name.
func LoadModel(store Store, name string) (*SavedModel, regression.Model, error) {
	var saved SavedModel
	if err := storage.GetJSON(store, storage.ModelKey(name), &saved); err != nil {
		return nil, nil, fmt.Errorf("popscore: %w", err)
	}
	m, err := regression.FromArtifact(saved.Model)
	if err != nil {
		return nil, nil, fmt.Errorf("popscore: %s: %w", name, err)
	}
	if len(saved.Model.Weights) != saved.Variant.Width() {
		return nil, nil, fmt.Errorf("popscore: %w: %s has %d weights, variant %q has %d columns",
			errs.ErrDimension, name, len(saved.Model.Weights), saved.Variant.Name, saved.Variant.Width())
	}
	return &saved, m, nil
}

// ModelNames lists the stored model names, sorted.
func ModelNames(store Store) ([]string, error) {
	keys, err := store.List(storage.ModelPrefix)
	if err != nil {
		return nil, fmt.Errorf("popscore: %w", err)
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if name, ok := storage.ModelName(k); ok {
			names = append(names, name)
		}
	}
	return names, nil
}
