package features

import (
	"gonum.org/v1/gonum/mat"
)

// Reduce keeps every non-stem column of x, only the first n columns of its
// stem block, and appends a bias column of ones. x must be laid out as
// layout (bias last); the returned layout describes the reduced matrix.
// Reducing a reduced matrix to the same n returns an identical matrix.
func Reduce(x mat.Matrix, layout Layout, n int) (*mat.Dense, Layout, error) {
	_, c := x.Dims()
	if c != layout.Width() {
		return nil, Layout{}, dimensionErr("matrix has %d columns, layout wants %d", c, layout.Width())
	}
	if n < 0 || n > layout.Stems {
		return nil, Layout{}, dimensionErr("stem width %d outside stem block of %d columns", n, layout.Stems)
	}

	idx := make([]int, 0, layout.StemOffset()+n)
	for j := range layout.StemOffset() + n {
		idx = append(idx, j)
	}
	return withBias(x, idx), Layout{Words: layout.Words, Stems: n}, nil
}

// withBias copies the columns idx of x, in order, and appends a bias column.
func withBias(x mat.Matrix, idx []int) *mat.Dense {
	r, _ := x.Dims()
	out := mat.NewDense(r, len(idx)+1, nil)
	for i := range r {
		for k, j := range idx {
			out.Set(i, k, x.At(i, j))
		}
		out.Set(i, len(idx), 1)
	}
	return out
}
