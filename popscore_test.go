package popscore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/happyhackingspace/popscore/errs"
	"github.com/happyhackingspace/popscore/features"
	"github.com/happyhackingspace/popscore/internal/storage"
	"github.com/happyhackingspace/popscore/regression"
)

var corpus = []features.Document{
	{Text: "cats run", IsRoot: true, Children: 2, PopularityScore: 1.0},
	{Text: "dogs run fast", Children: 1, PopularityScore: 0.5},
	{Text: "cats nap", IsRoot: true, Controversiality: 1, PopularityScore: 0.2},
	{Text: "run cats run", Children: 3, PopularityScore: 1.5},
	{Text: "dogs nap", IsRoot: true, PopularityScore: 0.1},
	{Text: "fast cats", Controversiality: 1, Children: 4, PopularityScore: 2.0},
	{Text: "run", IsRoot: true, Children: 1, PopularityScore: 0.7},
	{Text: "dogs", PopularityScore: 0.3},
	{Text: "cats run fast", IsRoot: true, Children: 2, PopularityScore: 1.2},
	{Text: "nap", Children: 1, PopularityScore: 0.4},
}

var testVariants = []features.Variant{
	{Name: features.VariantFull, Length: true, Words: 3, Stems: 2},
	{Name: "2", Words: 2},
	{Name: features.VariantNoText},
}

func datasetConfig(t *testing.T) DatasetConfig {
	t.Helper()
	dir := t.TempDir()
	raw := filepath.Join(dir, "data", rawDir)
	require.NoError(t, os.MkdirAll(raw, 0755))
	data, err := json.Marshal(corpus)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(raw, "corpus.json"), data, 0644))

	return DatasetConfig{
		DataDir:    filepath.Join(dir, "data"),
		RawFile:    "corpus.json",
		ReportDir:  filepath.Join(dir, "reports"),
		Training:   6,
		Validation: 2,
		Test:       2,
		Vocabulary: features.VocabularyConfig{Words: 3, Stems: 2},
	}
}

func trainConfig() TrainConfig {
	cfg := DefaultTrainConfig()
	cfg.Variants = testVariants
	cfg.GradientDescent = regression.Hyperparameters{
		Beta:          1e-4,
		Eta0:          1e-3,
		Eps:           1e-8,
		MaxIterations: 2000,
	}
	return cfg
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	b, err := storage.OpenInMemoryBadgerStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return map[string]Store{
		storage.BackendFile:   storage.NewFileStore(t.TempDir()),
		storage.BackendBadger: b,
	}
}

func TestPrepareDataset(t *testing.T) {
	cfg := datasetConfig(t)
	store := storage.NewFileStore(t.TempDir())

	a, err := PrepareDataset(cfg, store)
	require.NoError(t, err)
	assert.Equal(t, []string{"cats", "run", "dogs"}, a.Vocabulary())
	assert.Equal(t, []string{"cat", "run"}, a.StemVocabulary())

	report, err := os.ReadFile(filepath.Join(cfg.ReportDir, "words.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1. cats\n2. run\n3. dogs\n", string(report))

	interim, err := storage.NewStorage(filepath.Join(cfg.DataDir, interimDir)).LoadDocuments("validation_data.json")
	require.NoError(t, err)
	assert.Equal(t, corpus[6:8], interim)

	records, err := storage.NewStorage(filepath.Join(cfg.DataDir, processedDir)).LoadRecords("training_data.json")
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, features.Record{
		Text: "cats run", IsRoot: 1, Children: 2, PopularityScore: 1.0,
		XCounts: []int{1, 1, 0}, Length: 8, StemCounts: []int{1, 1},
	}, records[0])

	loaded, err := LoadAssembler(store)
	require.NoError(t, err)
	assert.Equal(t, a.Layout(), loaded.Layout())
	want, err := a.Vector(corpus[9])
	require.NoError(t, err)
	got, err := loaded.Vector(corpus[9])
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPrepareDatasetErrors(t *testing.T) {
	t.Run("missing corpus", func(t *testing.T) {
		cfg := datasetConfig(t)
		cfg.RawFile = "missing.json"
		_, err := PrepareDataset(cfg, storage.NewFileStore(t.TempDir()))
		require.ErrorIs(t, err, errs.ErrInputFormat)
	})
	t.Run("short corpus", func(t *testing.T) {
		cfg := datasetConfig(t)
		cfg.Training = 100
		_, err := PrepareDataset(cfg, storage.NewFileStore(t.TempDir()))
		require.ErrorIs(t, err, errs.ErrInputFormat)
	})
	t.Run("small vocabulary", func(t *testing.T) {
		cfg := datasetConfig(t)
		cfg.Vocabulary.Words = 50
		_, err := PrepareDataset(cfg, storage.NewFileStore(t.TempDir()))
		require.ErrorIs(t, err, errs.ErrInsufficientVocabulary)
	})
}

type fakeObserver struct {
	fits  map[string]int
	saved map[string]int
}

func newFakeObserver() *fakeObserver {
	return &fakeObserver{fits: map[string]int{}, saved: map[string]int{}}
}

func (o *fakeObserver) ObserveFit(solver, variant string, _ time.Duration, _ int, _ float64) {
	o.fits[solver+"/"+variant]++
}

func (o *fakeObserver) ObserveSaved(solver, variant string) {
	o.saved[solver+"/"+variant]++
}

func TestPipeline(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			cfg := datasetConfig(t)
			_, err := PrepareDataset(cfg, store)
			require.NoError(t, err)
			require.NoError(t, BuildFeatures(cfg.DataDir, store))

			x, y, err := loadSplit(store, SplitTraining)
			require.NoError(t, err)
			rows, cols := x.Dims()
			assert.Equal(t, 6, rows)
			assert.Equal(t, 10, cols)
			assert.Equal(t, 2.0, y.AtVec(5))

			obs := newFakeObserver()
			tc := trainConfig()
			tc.Observer = obs
			run, err := Train(store, tc)
			require.NoError(t, err)
			assert.NotEmpty(t, run.ID)
			want := []string{
				"ClosedForm", "ClosedForm_2", "ClosedForm_no_text",
				"GradientDescent", "GradientDescent_2", "GradientDescent_no_text",
			}
			assert.ElementsMatch(t, want, run.Saved)
			assert.Len(t, obs.fits, 6)
			assert.Equal(t, 1, obs.saved["GradientDescent/no_text"])

			names, err := ModelNames(store)
			require.NoError(t, err)
			assert.Equal(t, want, names)

			saved, m, err := LoadModel(store, "GradientDescent_2")
			require.NoError(t, err)
			assert.Equal(t, run.ID, saved.RunID)
			assert.Equal(t, "2", saved.Variant.Name)
			assert.Len(t, m.Weights(), 6)

			scores, err := Evaluate(store, SplitValidation)
			require.NoError(t, err)
			require.Len(t, scores, 6)
			for i, s := range scores {
				assert.Equal(t, want[i], s.Name)
				assert.GreaterOrEqual(t, s.MSE, 0.0)
			}
			assert.Equal(t, regression.KindGradientDescent, scores[5].Kind)
			assert.Equal(t, features.VariantNoText, scores[5].Variant)
		})
	}
}

func TestPredictor(t *testing.T) {
	store := storage.NewFileStore(t.TempDir())
	cfg := datasetConfig(t)
	_, err := PrepareDataset(cfg, store)
	require.NoError(t, err)
	require.NoError(t, BuildFeatures(cfg.DataDir, store))
	run, err := Train(store, trainConfig())
	require.NoError(t, err)

	x, _, err := loadSplit(store, SplitTraining)
	require.NoError(t, err)
	assembler, err := LoadAssembler(store)
	require.NoError(t, err)

	for _, tm := range run.Models {
		t.Run(tm.Name, func(t *testing.T) {
			p, err := LoadPredictor(store, tm.Name)
			require.NoError(t, err)
			got, err := p.Score(corpus[:6])
			require.NoError(t, err)

			xv, err := tm.Variant.Apply(x, assembler.Layout())
			require.NoError(t, err)
			want, err := tm.Model.Predict(xv)
			require.NoError(t, err)
			assert.InDeltaSlice(t, mat.Col(nil, 0, want), got, 1e-12)
		})
	}

	_, err = LoadPredictor(store, "Missing")
	require.ErrorIs(t, err, errs.ErrInputFormat)
}

func trainingMatrix(t *testing.T) (*mat.Dense, features.Layout, *mat.VecDense) {
	t.Helper()
	a, err := features.FitAssembler(corpus[:6], features.VocabularyConfig{Words: 3, Stems: 2})
	require.NoError(t, err)
	records := a.ProcessAll(corpus[:6])
	x, err := features.RecordMatrix(records, a.Layout())
	require.NoError(t, err)
	y, err := features.Targets(records)
	require.NoError(t, err)
	return x, a.Layout(), y
}

func TestTrainVariantsIndependent(t *testing.T) {
	x, layout, y := trainingMatrix(t)
	models, err := TrainVariants(x, layout, y, trainConfig())
	require.NoError(t, err)
	require.Len(t, models, 6)

	before := make(map[string][]float64, len(models))
	for _, tm := range models {
		require.True(t, tm.Trained(), tm.Name)
		assert.Len(t, tm.Model.Weights(), tm.Variant.Width(), tm.Name)
		before[tm.Name] = tm.Model.Weights()
	}
	for i := range models {
		for j := i + 1; j < len(models); j++ {
			assert.NotSame(t, models[i].Model, models[j].Model)
		}
	}

	// Retraining one instance on other targets leaves the rest untouched.
	first := models[0]
	xv, err := first.Variant.Apply(x, layout)
	require.NoError(t, err)
	other := mat.NewVecDense(6, []float64{9, 9, 9, 9, 9, 9})
	require.NoError(t, first.Model.Train(xv, other))
	assert.NotEqual(t, before[first.Name], first.Model.Weights())
	for _, tm := range models[1:] {
		assert.Equal(t, before[tm.Name], tm.Model.Weights(), tm.Name)
	}
}

func TestTrainSkipsDivergedModels(t *testing.T) {
	store := storage.NewFileStore(t.TempDir())
	cfg := datasetConfig(t)
	_, err := PrepareDataset(cfg, store)
	require.NoError(t, err)
	require.NoError(t, BuildFeatures(cfg.DataDir, store))

	tc := trainConfig()
	tc.GradientDescent.Eta0 = 10
	run, err := Train(store, tc)
	require.NoError(t, err)
	assert.Equal(t, []string{"ClosedForm", "ClosedForm_2", "ClosedForm_no_text"}, run.Saved)
	for _, tm := range run.Models {
		if tm.Model.Kind() == regression.KindGradientDescent {
			assert.ErrorIs(t, tm.Err, errs.ErrDiverged)
			assert.False(t, tm.Trained())
		}
	}
}

func TestTrainVariantsErrors(t *testing.T) {
	x, layout, y := trainingMatrix(t)

	cfg := trainConfig()
	cfg.Variants = []features.Variant{{Name: "wide", Words: 10}}
	_, err := TrainVariants(x, layout, y, cfg)
	require.ErrorIs(t, err, errs.ErrDimension)

	cfg = trainConfig()
	cfg.Solvers = []regression.Kind{"Lasso"}
	_, err = TrainVariants(x, layout, y, cfg)
	require.Error(t, err)
}

func TestTrainWithoutFeatures(t *testing.T) {
	_, err := Train(storage.NewFileStore(t.TempDir()), trainConfig())
	require.ErrorIs(t, err, errs.ErrInputFormat)
}

func TestModelName(t *testing.T) {
	assert.Equal(t, "ClosedForm", ModelName(regression.KindClosedForm, features.Variant{Name: features.VariantFull}))
	assert.Equal(t, "GradientDescent_160", ModelName(regression.KindGradientDescent, features.Variant{Name: features.VariantTop160}))
}
