package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/happyhackingspace/popscore/errs"
)

// Artifact keys.
const (
	VocabularyKey = "vocabulary.json"
	ModelPrefix   = "models/"
)

// MatrixKey returns the key of the full-layout feature matrix of a split.
func MatrixKey(split string) string { return split + "_X.bin" }

// TargetKey returns the key of the target vector of a split.
func TargetKey(split string) string { return split + "_y.bin" }

// ModelKey returns the key of a model artifact.
func ModelKey(name string) string { return ModelPrefix + name + ".json" }

// ModelName is the inverse of ModelKey.
func ModelName(key string) (string, bool) {
	name, ok := strings.CutPrefix(key, ModelPrefix)
	if !ok {
		return "", false
	}
	name, ok = strings.CutSuffix(name, ".json")
	return name, ok && name != "" && !strings.Contains(name, "/")
}

// PutMatrix stores m in gonum's binary encoding.
func PutMatrix(s Store, key string, m *mat.Dense) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", key, err)
	}
	return s.Put(key, data)
}

// GetMatrix loads a matrix stored by PutMatrix.
func GetMatrix(s Store, key string) (*mat.Dense, error) {
	data, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	var m mat.Dense
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("storage: %w: decode %s: %w", errs.ErrInputFormat, key, err)
	}
	return &m, nil
}

// PutVector stores v in gonum's binary encoding.
func PutVector(s Store, key string, v *mat.VecDense) error {
	data, err := v.MarshalBinary()
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", key, err)
	}
	return s.Put(key, data)
}

// GetVector loads a vector stored by PutVector.
func GetVector(s Store, key string) (*mat.VecDense, error) {
	data, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	var v mat.VecDense
	if err := v.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("storage: %w: decode %s: %w", errs.ErrInputFormat, key, err)
	}
	return &v, nil
}

// PutJSON stores v as JSON.
func PutJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", key, err)
	}
	return s.Put(key, data)
}

// GetJSON decodes the JSON stored under key into v.
func GetJSON(s Store, key string, v any) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage: %w: decode %s: %w", errs.ErrInputFormat, key, err)
	}
	return nil
}
