// Package textutil provides the tokenizers used to build bag-of-words features.
package textutil

import (
	"strings"

	"github.com/blevesearch/go-porterstemmer"
)

// Tokenize lowercases text and splits it on Unicode whitespace.
// Punctuation is kept, so "great!" and "great" are different tokens.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// punctuation lists the characters StripPunctuation turns into spaces.
const punctuation = ",.'\"!?/(){}[]"

// StripPunctuation replaces every punctuation character with a space.
func StripPunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return ' '
		}
		return r
	}, text)
}

// StemTokenize strips punctuation, tokenizes like Tokenize and reduces every
// token to its Porter stem.
func StemTokenize(text string) []string {
	tokens := Tokenize(StripPunctuation(text))
	for i, tok := range tokens {
		tokens[i] = porterstemmer.StemString(tok)
	}
	return tokens
}

// Analyzer turns a document text into tokens.
type Analyzer func(text string) []string

// AnalyzerByName returns the analyzer registered under name: "word" for
// Tokenize, "stem" for StemTokenize. Unknown names fall back to "word".
func AnalyzerByName(name string) Analyzer {
	if name == "stem" {
		return StemTokenize
	}
	return Tokenize
}
