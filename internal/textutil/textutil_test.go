package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"hello world", []string{"hello", "world"}},
		{"Hello  World", []string{"hello", "world"}},
		{"great!", []string{"great!"}},
		{"line\nbreak\ttab", []string{"line", "break", "tab"}},
		{"", []string{}},
		{"   ", []string{}},
		{"Café RÉSUMÉ", []string{"café", "résumé"}},
	}
	for _, tt := range tests {
		got := Tokenize(tt.input)
		assert.Equal(t, tt.want, got, "Tokenize(%q)", tt.input)
	}
}

func TestStripPunctuation(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"hi, there.", "hi  there "},
		{`"quoted" (paren) [b] {c}`, ` quoted   paren   b   c `},
		{"what?!", "what  "},
		{"a/b", "a b"},
		{"don't", "don t"},
		{"no-change_here", "no-change_here"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripPunctuation(tt.input), "StripPunctuation(%q)", tt.input)
	}
}

func TestStemTokenize(t *testing.T) {
	got := StemTokenize("Running, runs! The runner ran.")
	assert.Equal(t, []string{"run", "run", "the", "runner", "ran"}, got)
}

func TestAnalyzerByName(t *testing.T) {
	assert.Equal(t, []string{"cats!"}, AnalyzerByName("word")("Cats!"))
	assert.Equal(t, []string{"cat"}, AnalyzerByName("stem")("Cats!"))
	assert.Equal(t, []string{"cats!"}, AnalyzerByName("unknown")("Cats!"))
}
