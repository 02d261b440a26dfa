package features

import (
	"fmt"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"

	"github.com/happyhackingspace/popscore/errs"
	"github.com/happyhackingspace/popscore/internal/vectorizer"
)

// DefaultVocabularySize is the number of most frequent words used as columns.
const DefaultVocabularySize = 160

// VocabularyConfig sets the vocabulary sizes an Assembler is fitted with.
// Stems = 0 disables the stem-count block.
type VocabularyConfig struct {
	Words int `json:"words" yaml:"words" validate:"gt=0"`
	Stems int `json:"stems" yaml:"stems" validate:"gte=0"`
}

// DefaultVocabularyConfig returns 160 words and 160 stems.
func DefaultVocabularyConfig() VocabularyConfig {
	return VocabularyConfig{
		Words: DefaultVocabularySize,
		Stems: DefaultVocabularySize,
	}
}

// Assembler maps documents onto the full feature layout. It is read-only once
// built and can be shared by every split scored against it.
type Assembler struct {
	Words *vectorizer.CountVectorizer `json:"words"`
	Stems *vectorizer.CountVectorizer `json:"stems,omitempty"`
}

// NewAssembler creates an assembler over fitted vectorizers. stems may be nil.
func NewAssembler(words, stems *vectorizer.CountVectorizer) *Assembler {
	return &Assembler{Words: words, Stems: stems}
}

// FitAssembler builds the word (and optionally stem) vocabularies from the
// training documents.
func FitAssembler(docs []Document, config VocabularyConfig) (*Assembler, error) {
	corpus := texts(docs)

	words := vectorizer.NewCountVectorizer(config.Words, "word")
	if err := words.Fit(corpus); err != nil {
		return nil, fmt.Errorf("features: word vocabulary: %w", err)
	}

	var stems *vectorizer.CountVectorizer
	if config.Stems > 0 {
		stems = vectorizer.NewCountVectorizer(config.Stems, "stem")
		if err := stems.Fit(corpus); err != nil {
			return nil, fmt.Errorf("features: stem vocabulary: %w", err)
		}
	}
	return NewAssembler(words, stems), nil
}

// BuildVocabulary returns the k most frequent lowercase whitespace tokens of
// the corpus, most frequent first, ties in first-appearance order.
func BuildVocabulary(docs []Document, k int) ([]string, error) {
	cv := vectorizer.NewCountVectorizer(k, "word")
	if err := cv.Fit(texts(docs)); err != nil {
		return nil, err
	}
	return cv.Terms, nil
}

func texts(docs []Document) []string {
	return lo.Map(docs, func(d Document, _ int) string { return d.Text })
}

// Layout returns the full layout produced by the assembler.
func (a *Assembler) Layout() Layout {
	l := Layout{Words: a.Words.VocabSize()}
	if a.Stems != nil {
		l.Stems = a.Stems.VocabSize()
	}
	return l
}

// Vocabulary returns the word vocabulary in column order.
func (a *Assembler) Vocabulary() []string {
	return a.Words.Terms
}

// StemVocabulary returns the stem vocabulary in column order, nil when disabled.
func (a *Assembler) StemVocabulary() []string {
	if a.Stems == nil {
		return nil
	}
	return a.Stems.Terms
}

// Process derives a Record from doc.
func (a *Assembler) Process(doc Document) Record {
	r := Record{
		Text:             doc.Text,
		IsRoot:           doc.IsRoot.Int(),
		Controversiality: doc.Controversiality,
		Children:         doc.Children,
		PopularityScore:  doc.PopularityScore,
		XCounts:          a.Words.Transform(doc.Text),
		Length:           doc.Length(),
	}
	if a.Stems != nil {
		r.StemCounts = a.Stems.Transform(doc.Text)
	}
	return r
}

// ProcessAll derives a Record for every document, keeping order.
func (a *Assembler) ProcessAll(docs []Document) []Record {
	return lo.Map(docs, func(d Document, _ int) Record { return a.Process(d) })
}

// Vector returns the full feature vector of doc.
func (a *Assembler) Vector(doc Document) ([]float64, error) {
	return a.Process(doc).Vector(a.Layout())
}

// Matrix assembles one full-layout row per document.
func (a *Assembler) Matrix(docs []Document) (*mat.Dense, error) {
	return RecordMatrix(a.ProcessAll(docs), a.Layout())
}

// RecordMatrix stacks the full feature vectors of records into a matrix.
func RecordMatrix(records []Record, layout Layout) (*mat.Dense, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("features: %w: no records", errs.ErrInputFormat)
	}
	x := mat.NewDense(len(records), layout.Width(), nil)
	for i, r := range records {
		v, err := r.Vector(layout)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		x.SetRow(i, v)
	}
	return x, nil
}

// Targets returns the popularity scores of records as a vector.
func Targets(records []Record) (*mat.VecDense, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("features: %w: no records", errs.ErrInputFormat)
	}
	y := lo.Map(records, func(r Record, _ int) float64 { return r.PopularityScore })
	return mat.NewVecDense(len(y), y), nil
}
