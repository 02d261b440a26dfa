// Package storage reads and writes corpus splits, vocabulary reports and the
// feature/model artifacts exchanged between pipeline stages.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/happyhackingspace/popscore/errs"
	"github.com/happyhackingspace/popscore/features"
)

// Split names.
const (
	SplitTraining   = "training"
	SplitValidation = "validation"
	SplitTest       = "test"
)

// Splits lists the split names in corpus order.
var Splits = []string{SplitTraining, SplitValidation, SplitTest}

// SplitFile returns the corpus file name of a split.
func SplitFile(split string) string {
	return split + "_data.json"
}

// Storage wraps a folder of JSON corpus files.
type Storage struct {
	Folder string
}

// NewStorage creates a Storage for the given folder.
func NewStorage(folder string) *Storage {
	return &Storage{Folder: folder}
}

// Path returns the path of name inside the folder.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.Folder, name)
}

// LoadDocuments reads a JSON array of documents.
func (s *Storage) LoadDocuments(name string) ([]features.Document, error) {
	var docs []features.Document
	if err := s.readJSON(name, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// LoadRecords reads a JSON array of preprocessed records.
func (s *Storage) LoadRecords(name string) ([]features.Record, error) {
	var records []features.Record
	if err := s.readJSON(name, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Storage) readJSON(name string, v any) error {
	path := s.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("storage: %w: %w", errs.ErrInputFormat, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage: %w: %s: %w", errs.ErrInputFormat, path, err)
	}
	return nil
}

// SaveJSON writes v as JSON to name, creating the folder when needed.
func (s *Storage) SaveJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.write(name, data)
}

func (s *Storage) write(name string, data []byte) error {
	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("storage: create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	slog.Debug("File written", "path", path, "bytes", len(data))
	return nil
}

// WriteVocabularyReport writes one term per line, numbered from 1: "1. the".
func (s *Storage) WriteVocabularyReport(name string, terms []string) error {
	var b strings.Builder
	for i, term := range terms {
		fmt.Fprintf(&b, "%d. %s\n", i+1, term)
	}
	return s.write(name, []byte(b.String()))
}

// SplitSizes holds the number of documents of each split.
type SplitSizes struct {
	Training   int `yaml:"training" validate:"gt=0"`
	Validation int `yaml:"validation" validate:"gte=0"`
	Test       int `yaml:"test" validate:"gte=0"`
}

// DefaultSplitSizes returns 10000 training, 1000 validation and 1000 test documents.
func DefaultSplitSizes() SplitSizes {
	return SplitSizes{Training: 10000, Validation: 1000, Test: 1000}
}

// SplitCorpus cuts docs positionally into training, validation and test
// splits, keyed by split name. Documents past the requested sizes are dropped.
func SplitCorpus(docs []features.Document, sizes SplitSizes) (map[string][]features.Document, error) {
	total := sizes.Training + sizes.Validation + sizes.Test
	if len(docs) < total {
		return nil, fmt.Errorf("storage: %w: corpus has %d documents, splits need %d",
			errs.ErrInputFormat, len(docs), total)
	}
	v := sizes.Training + sizes.Validation
	return map[string][]features.Document{
		SplitTraining:   docs[:sizes.Training],
		SplitValidation: docs[sizes.Training:v],
		SplitTest:       docs[v:total],
	}, nil
}
