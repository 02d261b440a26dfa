// Package features turns comment documents into fixed-layout numeric feature
// vectors and derives the per-variant matrices the regression models train on.
package features

import (
	"fmt"

	"github.com/happyhackingspace/popscore/errs"
)

// Structural column names, in layout order.
var StructuralColumns = []string{"is_root", "controversiality", "children", "length"}

// Index of the length column inside the structural block.
const lengthColumn = 3

// Layout describes the column order of a full feature vector:
// structural columns, Words word counts, Stems stem counts, then the bias.
type Layout struct {
	Words int `json:"words"`
	Stems int `json:"stems"`
}

// WordOffset returns the index of the first word-count column.
func (l Layout) WordOffset() int { return len(StructuralColumns) }

// StemOffset returns the index of the first stem-count column.
func (l Layout) StemOffset() int { return l.WordOffset() + l.Words }

// BiasIndex returns the index of the bias column, always the last one.
func (l Layout) BiasIndex() int { return l.StemOffset() + l.Stems }

// Width returns the full vector width.
func (l Layout) Width() int { return l.BiasIndex() + 1 }

// Columns names every column of the layout. Word and stem columns are named
// after their vocabulary terms when words/stems are given, by position otherwise.
func (l Layout) Columns(words, stems []string) []string {
	cols := make([]string, 0, l.Width())
	cols = append(cols, StructuralColumns...)
	for i := range l.Words {
		cols = append(cols, termColumn("word", words, i))
	}
	for i := range l.Stems {
		cols = append(cols, termColumn("stem", stems, i))
	}
	return append(cols, "bias")
}

func termColumn(prefix string, terms []string, i int) string {
	if i < len(terms) {
		return prefix + ":" + terms[i]
	}
	return fmt.Sprintf("%s:%d", prefix, i+1)
}

func dimensionErr(format string, args ...any) error {
	return fmt.Errorf("features: %w: %s", errs.ErrDimension, fmt.Sprintf(format, args...))
}
