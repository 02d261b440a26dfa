// Package vectorizer builds fixed-size frequency vocabularies and turns text
// into token count vectors over them.
package vectorizer

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/happyhackingspace/popscore/errs"
	"github.com/happyhackingspace/popscore/internal/textutil"
)

// CountVectorizer converts text to token count vectors over a vocabulary of
// the Size most frequent tokens of a training corpus.
type CountVectorizer struct {
	Terms    []string `json:"terms"`
	Size     int      `json:"size"`
	Analyzer string   `json:"analyzer"` // "word" or "stem"

	index map[string]int
}

// NewCountVectorizer creates an unfitted CountVectorizer.
func NewCountVectorizer(size int, analyzer string) *CountVectorizer {
	if analyzer == "" {
		analyzer = "word"
	}
	return &CountVectorizer{
		Size:     size,
		Analyzer: analyzer,
	}
}

func (cv *CountVectorizer) analyze(text string) []string {
	return textutil.AnalyzerByName(cv.Analyzer)(text)
}

// Fit builds the vocabulary from a corpus: the Size most frequent tokens in
// descending count order, equal counts ordered by first appearance in the
// corpus scan.
func (cv *CountVectorizer) Fit(corpus []string) error {
	counts := make(map[string]int)
	var order []string
	for _, doc := range corpus {
		for _, tok := range cv.analyze(doc) {
			if _, ok := counts[tok]; !ok {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	if len(order) < cv.Size {
		return fmt.Errorf("vectorizer: %w: corpus has %d distinct %s tokens, want %d",
			errs.ErrInsufficientVocabulary, len(order), cv.Analyzer, cv.Size)
	}

	// Stable sort keeps first-appearance order among equal counts.
	slices.SortStableFunc(order, func(a, b string) int {
		return counts[b] - counts[a]
	})

	cv.Terms = slices.Clone(order[:cv.Size])
	cv.buildIndex()
	return nil
}

func (cv *CountVectorizer) buildIndex() {
	cv.index = make(map[string]int, len(cv.Terms))
	for i, term := range cv.Terms {
		cv.index[term] = i
	}
}

// Transform counts the vocabulary tokens of text. The result has one entry per
// vocabulary term, in vocabulary order; tokens outside the vocabulary are ignored.
func (cv *CountVectorizer) Transform(text string) []int {
	if cv.index == nil {
		cv.buildIndex()
	}
	counts := make([]int, len(cv.Terms))
	for _, tok := range cv.analyze(text) {
		if idx, ok := cv.index[tok]; ok {
			counts[idx]++
		}
	}
	return counts
}

// VocabSize returns the vocabulary size.
func (cv *CountVectorizer) VocabSize() int {
	return len(cv.Terms)
}

// Index returns the position of term in the vocabulary, or -1.
func (cv *CountVectorizer) Index(term string) int {
	if cv.index == nil {
		cv.buildIndex()
	}
	if idx, ok := cv.index[term]; ok {
		return idx
	}
	return -1
}

// MarshalJSON implements json.Marshaler.
func (cv *CountVectorizer) MarshalJSON() ([]byte, error) {
	type Alias CountVectorizer
	return json.Marshal((*Alias)(cv))
}

// UnmarshalJSON implements json.Unmarshaler.
func (cv *CountVectorizer) UnmarshalJSON(data []byte) error {
	type Alias CountVectorizer
	if err := json.Unmarshal(data, (*Alias)(cv)); err != nil {
		return err
	}
	if len(cv.Terms) != cv.Size {
		return fmt.Errorf("vectorizer: %w: %d terms stored for size %d",
			errs.ErrInputFormat, len(cv.Terms), cv.Size)
	}
	cv.buildIndex()
	return nil
}
