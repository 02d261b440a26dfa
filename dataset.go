package popscore

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/happyhackingspace/popscore/errs"
	"github.com/happyhackingspace/popscore/features"
	"github.com/happyhackingspace/popscore/internal/storage"
)

// Data directory layout.
const (
	rawDir       = "raw"
	interimDir   = "interim"
	processedDir = "processed"
	reportFile   = "words.txt"
)

// DatasetConfig holds configuration for the dataset stage.
type DatasetConfig struct {
	// DataDir holds raw/, interim/ and processed/.
	DataDir   string
	RawFile   string
	ReportDir string

	Training   int
	Validation int
	Test       int

	Vocabulary features.VocabularyConfig
}

// DefaultDatasetConfig returns the reference split sizes and vocabularies.
func DefaultDatasetConfig() DatasetConfig {
	sizes := storage.DefaultSplitSizes()
	return DatasetConfig{
		DataDir:    "data",
		RawFile:    "proj1_data.json",
		ReportDir:  "reports",
		Training:   sizes.Training,
		Validation: sizes.Validation,
		Test:       sizes.Test,
		Vocabulary: features.DefaultVocabularyConfig(),
	}
}

// PrepareDataset splits the raw corpus, fits the vocabularies on the
// training split and writes the interim and processed splits, the vocabulary
// report and the vocabulary artifact.
func PrepareDataset(config DatasetConfig, store Store) (*features.Assembler, error) {
	docs, err := storage.NewStorage(filepath.Join(config.DataDir, rawDir)).LoadDocuments(config.RawFile)
	if err != nil {
		return nil, fmt.Errorf("popscore: %w", err)
	}
	slog.Info("Corpus loaded", "documents", len(docs))

	splits, err := storage.SplitCorpus(docs, storage.SplitSizes{
		Training:   config.Training,
		Validation: config.Validation,
		Test:       config.Test,
	})
	if err != nil {
		return nil, fmt.Errorf("popscore: %w", err)
	}

	interim := storage.NewStorage(filepath.Join(config.DataDir, interimDir))
	for _, name := range storage.Splits {
		if err := interim.SaveJSON(storage.SplitFile(name), splits[name]); err != nil {
			return nil, fmt.Errorf("popscore: %w", err)
		}
	}

	assembler, err := features.FitAssembler(splits[SplitTraining], config.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("popscore: %w", err)
	}
	slog.Info("Vocabulary built", "words", assembler.Layout().Words, "stems", assembler.Layout().Stems)

	processed := storage.NewStorage(filepath.Join(config.DataDir, processedDir))
	for _, name := range storage.Splits {
		records := assembler.ProcessAll(splits[name])
		if err := processed.SaveJSON(storage.SplitFile(name), records); err != nil {
			return nil, fmt.Errorf("popscore: %w", err)
		}
		slog.Debug("Split processed", "split", name, "records", len(records))
	}

	if err := storage.NewStorage(config.ReportDir).WriteVocabularyReport(reportFile, assembler.Vocabulary()); err != nil {
		return nil, fmt.Errorf("popscore: %w", err)
	}
	if err := storage.PutJSON(store, storage.VocabularyKey, assembler); err != nil {
		return nil, fmt.Errorf("popscore: %w", err)
	}
	return assembler, nil
}

// LoadAssembler reads the vocabularies stored by PrepareDataset.
func LoadAssembler(store Store) (*features.Assembler, error) {
	var a features.Assembler
	if err := storage.GetJSON(store, storage.VocabularyKey, &a); err != nil {
		return nil, fmt.Errorf("popscore: %w", err)
	}
	if a.Words == nil {
		return nil, fmt.Errorf("popscore: %w: vocabulary artifact has no words", errs.ErrInputFormat)
	}
	return &a, nil
}

// BuildFeatures turns every processed split under dataDir into a full-layout
// feature matrix and a target vector. Empty splits are skipped.
func BuildFeatures(dataDir string, store Store) error {
	assembler, err := LoadAssembler(store)
	if err != nil {
		return err
	}
	layout := assembler.Layout()

	processed := storage.NewStorage(filepath.Join(dataDir, processedDir))
	for _, name := range storage.Splits {
		records, err := processed.LoadRecords(storage.SplitFile(name))
		if err != nil {
			return fmt.Errorf("popscore: %w", err)
		}
		if len(records) == 0 {
			slog.Debug("Skipping empty split", "split", name)
			continue
		}

		x, err := features.RecordMatrix(records, layout)
		if err != nil {
			return fmt.Errorf("popscore: %s split: %w", name, err)
		}
		y, err := features.Targets(records)
		if err != nil {
			return fmt.Errorf("popscore: %s split: %w", name, err)
		}
		if err := storage.PutMatrix(store, storage.MatrixKey(name), x); err != nil {
			return fmt.Errorf("popscore: %w", err)
		}
		if err := storage.PutVector(store, storage.TargetKey(name), y); err != nil {
			return fmt.Errorf("popscore: %w", err)
		}
		rows, cols := x.Dims()
		slog.Info("Features built", "split", name, "rows", rows, "columns", cols)
	}
	return nil
}

// loadSplit reads the feature matrix and targets of a split.
func loadSplit(store Store, split string) (*mat.Dense, *mat.VecDense, error) {
	x, err := storage.GetMatrix(store, storage.MatrixKey(split))
	if err != nil {
		return nil, nil, fmt.Errorf("popscore: %w", err)
	}
	y, err := storage.GetVector(store, storage.TargetKey(split))
	if err != nil {
		return nil, nil, fmt.Errorf("popscore: %w", err)
	}
	return x, y, nil
}
