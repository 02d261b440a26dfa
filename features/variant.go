package features

import (
	"gonum.org/v1/gonum/mat"
)

// DefaultStemWidth is the number of stem columns the full variant keeps.
const DefaultStemWidth = 42

// Variant selects the feature subset one model is trained on. Every variant
// keeps is_root, controversiality and children, the first Words word-count
// columns, the first Stems stem-count columns and the bias.
type Variant struct {
	Name   string `json:"name" yaml:"name" validate:"required"`
	Length bool   `json:"length" yaml:"length"`
	Words  int    `json:"words" yaml:"words" validate:"gte=0"`
	Stems  int    `json:"stems" yaml:"stems" validate:"gte=0"`
}

// Variant names.
const (
	VariantFull   = "full"
	VariantTop160 = "160"
	VariantTop60  = "60"
	VariantNoText = "no_text"
)

// DefaultVariants returns the trained variants: the full feature set over a
// vocabulary of words terms with stemWidth stem columns, the top 160 and top
// 60 words, and no text at all. A top-N variant is left out when the
// vocabulary has fewer than N words.
func DefaultVariants(words, stemWidth int) []Variant {
	vs := []Variant{{Name: VariantFull, Length: true, Words: words, Stems: stemWidth}}
	for _, top := range []struct {
		name string
		n    int
	}{{VariantTop160, 160}, {VariantTop60, 60}} {
		if words >= top.n {
			vs = append(vs, Variant{Name: top.name, Words: top.n})
		}
	}
	return append(vs, Variant{Name: VariantNoText})
}

// Width returns the number of columns of the variant matrix.
func (v Variant) Width() int {
	w := len(StructuralColumns) - 1 + v.Words + v.Stems + 1
	if v.Length {
		w++
	}
	return w
}

// Suffix returns the artifact name suffix of the variant: empty for the full
// variant, "_<name>" otherwise.
func (v Variant) Suffix() string {
	if v.Name == VariantFull || v.Name == "" {
		return ""
	}
	return "_" + v.Name
}

// Apply derives the variant matrix from a full-layout matrix x. The stem block
// is first reduced to v.Stems columns, then the variant columns are selected.
func (v Variant) Apply(x mat.Matrix, layout Layout) (*mat.Dense, error) {
	if v.Words < 0 || v.Words > layout.Words {
		return nil, dimensionErr("variant %q wants %d words, layout has %d", v.Name, v.Words, layout.Words)
	}
	reduced, rl, err := Reduce(x, layout, v.Stems)
	if err != nil {
		return nil, err
	}
	if v.Length && v.Words == rl.Words {
		return reduced, nil
	}

	idx := make([]int, 0, v.Width()-1)
	for j := range len(StructuralColumns) {
		if j == lengthColumn && !v.Length {
			continue
		}
		idx = append(idx, j)
	}
	for j := range v.Words {
		idx = append(idx, rl.WordOffset()+j)
	}
	for j := range v.Stems {
		idx = append(idx, rl.StemOffset()+j)
	}
	return withBias(reduced, idx), nil
}

// ApplyVector derives the variant vector from one full-layout vector.
func (v Variant) ApplyVector(vec []float64, layout Layout) ([]float64, error) {
	if len(vec) != layout.Width() {
		return nil, dimensionErr("vector has %d entries, layout wants %d", len(vec), layout.Width())
	}
	out, err := v.Apply(mat.NewDense(1, len(vec), vec), layout)
	if err != nil {
		return nil, err
	}
	return mat.Row(nil, 0, out), nil
}
