package features

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Flag is a boolean that decodes from a JSON boolean or from 0/1 and encodes
// as 0/1.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true", "1":
		*f = true
	case "false", "0", "null":
		*f = false
	default:
		return fmt.Errorf("features: invalid flag value %s", data)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f Flag) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Int())
}

// Int returns 1 for true and 0 for false.
func (f Flag) Int() int {
	if f {
		return 1
	}
	return 0
}

// Document is one raw comment record of a corpus split.
type Document struct {
	Text             string  `json:"text"`
	IsRoot           Flag    `json:"is_root"`
	Controversiality float64 `json:"controversiality"`
	Children         int     `json:"children"`
	PopularityScore  float64 `json:"popularity_score"`
}

// Length returns the number of characters of the document text.
func (d Document) Length() int {
	return utf8.RuneCountInString(d.Text)
}

// Record is a preprocessed document. The derived fields are computed once by
// an Assembler and carried as they are into feature matrices.
type Record struct {
	Text             string  `json:"text"`
	IsRoot           int     `json:"is_root"`
	Controversiality float64 `json:"controversiality"`
	Children         int     `json:"children"`
	PopularityScore  float64 `json:"popularity_score"`
	XCounts          []int   `json:"x_counts"`
	Length           int     `json:"length"`
	StemCounts       []int   `json:"stem_counts,omitempty"`
}

// Vector lays the record out as a full feature vector for layout:
// [is_root, controversiality, children, length, words..., stems..., bias].
func (r Record) Vector(layout Layout) ([]float64, error) {
	if len(r.XCounts) != layout.Words {
		return nil, dimensionErr("record has %d word counts, layout wants %d", len(r.XCounts), layout.Words)
	}
	if len(r.StemCounts) != layout.Stems {
		return nil, dimensionErr("record has %d stem counts, layout wants %d", len(r.StemCounts), layout.Stems)
	}

	v := make([]float64, 0, layout.Width())
	v = append(v,
		float64(r.IsRoot),
		r.Controversiality,
		float64(r.Children),
		float64(r.Length),
	)
	for _, c := range r.XCounts {
		v = append(v, float64(c))
	}
	for _, c := range r.StemCounts {
		v = append(v, float64(c))
	}
	v = append(v, 1)
	return v, nil
}
