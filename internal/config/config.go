// Package config loads popscore settings from a YAML file, a .env file and
// POPSCORE_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/happyhackingspace/popscore/features"
	"github.com/happyhackingspace/popscore/internal/storage"
	"github.com/happyhackingspace/popscore/regression"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "popscore.yaml"

// StoreConfig selects where features, vocabularies and models are kept.
type StoreConfig struct {
	Backend string `yaml:"backend" validate:"oneof=file badger"`
	// Dir is relative to the data directory unless absolute.
	Dir string `yaml:"dir" validate:"required"`
}

// Config holds every pipeline setting.
type Config struct {
	DataDir         string                      `yaml:"data_dir" validate:"required"`
	RawFile         string                      `yaml:"raw_file" validate:"required"`
	ReportDir       string                      `yaml:"report_dir" validate:"required"`
	Store           StoreConfig                 `yaml:"store"`
	Splits          storage.SplitSizes          `yaml:"splits"`
	Vocabulary      features.VocabularyConfig   `yaml:"vocabulary"`
	StemWidth       int                         `yaml:"stem_width" validate:"gte=0"`
	Variants        []features.Variant          `yaml:"variants" validate:"dive"`
	ClosedForm      regression.ClosedFormConfig `yaml:"closed_form"`
	GradientDescent regression.Hyperparameters  `yaml:"gradient_descent"`
	LogLevel        string                      `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// Default returns the settings of the reference pipeline.
func Default() Config {
	return Config{
		DataDir:         "data",
		RawFile:         "proj1_data.json",
		ReportDir:       "reports",
		Store:           StoreConfig{Backend: storage.BackendFile, Dir: "artifacts"},
		Splits:          storage.DefaultSplitSizes(),
		Vocabulary:      features.DefaultVocabularyConfig(),
		StemWidth:       features.DefaultStemWidth,
		ClosedForm:      regression.DefaultClosedFormConfig(),
		GradientDescent: regression.DefaultHyperparameters(),
		LogLevel:        "info",
	}
}

// overrides lists the environment variables that win over the file.
type overrides struct {
	DataDir       *string  `env:"POPSCORE_DATA_DIR"`
	RawFile       *string  `env:"POPSCORE_RAW_FILE"`
	ReportDir     *string  `env:"POPSCORE_REPORT_DIR"`
	StoreBackend  *string  `env:"POPSCORE_STORE_BACKEND"`
	StoreDir      *string  `env:"POPSCORE_STORE_DIR"`
	Words         *int     `env:"POPSCORE_VOCABULARY_SIZE"`
	Stems         *int     `env:"POPSCORE_STEM_VOCABULARY_SIZE"`
	StemWidth     *int     `env:"POPSCORE_STEM_WIDTH"`
	Beta          *float64 `env:"POPSCORE_BETA"`
	Eta0          *float64 `env:"POPSCORE_ETA_0"`
	Eps           *float64 `env:"POPSCORE_EPS"`
	Decay         *float64 `env:"POPSCORE_DECAY"`
	MaxIterations *int     `env:"POPSCORE_MAX_ITERATIONS"`
	LogLevel      *string  `env:"POPSCORE_LOG_LEVEL"`
}

var validate = validator.New()

// Load builds a Config from defaults, the YAML file at path, a .env file in
// the working directory and the environment. A missing file is not an
// error unless path was set explicitly.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var o overrides
	if _, err := env.UnmarshalFromEnviron(&o); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	set(&c.DataDir, o.DataDir)
	set(&c.RawFile, o.RawFile)
	set(&c.ReportDir, o.ReportDir)
	set(&c.Store.Backend, o.StoreBackend)
	set(&c.Store.Dir, o.StoreDir)
	set(&c.Vocabulary.Words, o.Words)
	set(&c.Vocabulary.Stems, o.Stems)
	set(&c.StemWidth, o.StemWidth)
	set(&c.GradientDescent.Beta, o.Beta)
	set(&c.GradientDescent.Eta0, o.Eta0)
	set(&c.GradientDescent.Eps, o.Eps)
	set(&c.GradientDescent.Decay, o.Decay)
	set(&c.GradientDescent.MaxIterations, o.MaxIterations)
	set(&c.LogLevel, o.LogLevel)
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (c *Config) applyDefaults() {
	if len(c.Variants) == 0 {
		c.Variants = features.DefaultVariants(c.Vocabulary.Words, c.StemWidth)
	}
}

// Validate checks field ranges and the constraints between fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.StemWidth > c.Vocabulary.Stems {
		return fmt.Errorf("config: stem_width %d exceeds stem vocabulary size %d", c.StemWidth, c.Vocabulary.Stems)
	}
	for _, v := range c.Variants {
		if v.Words > c.Vocabulary.Words {
			return fmt.Errorf("config: variant %q uses %d words, vocabulary has %d", v.Name, v.Words, c.Vocabulary.Words)
		}
		if v.Stems > c.Vocabulary.Stems {
			return fmt.Errorf("config: variant %q uses %d stems, stem vocabulary has %d", v.Name, v.Stems, c.Vocabulary.Stems)
		}
	}
	return nil
}

// DataPath joins elem onto the data directory.
func (c Config) DataPath(elem ...string) string {
	return filepath.Join(append([]string{c.DataDir}, elem...)...)
}

// StoreDir returns the artifact store location.
func (c Config) StoreDir() string {
	if filepath.IsAbs(c.Store.Dir) {
		return c.Store.Dir
	}
	return c.DataPath(c.Store.Dir)
}
