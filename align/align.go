// Package align maps one embedding space onto another with a linear
// transform fitted by least squares over the rows both spaces share.
package align

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/WladimirSidorenko/word2vec/params"
)

// LeastSquares returns the dim(src) x dim(dst) matrix W minimising
// ||src*W - dst||. Row i of src and dst must describe the same token.
func LeastSquares(src, dst *mat.Dense) (*mat.Dense, error) {
	sr, sc := src.Dims()
	dr, dc := dst.Dims()
	if sr != dr {
		return nil, fmt.Errorf("%w: %d source rows vs %d target rows", params.ErrConfig, sr, dr)
	}
	if sr < sc {
		return nil, fmt.Errorf("%w: %d rows cannot determine a %d-column mapping", params.ErrConfig, sr, sc)
	}
	w := mat.NewDense(sc, dc, nil)
	if err := w.Solve(src, dst); err != nil {
		return nil, fmt.Errorf("solving alignment: %w", err)
	}
	return w, nil
}

// Apply maps every row of emb through w.
func Apply(emb, w *mat.Dense) *mat.Dense {
	r, _ := emb.Dims()
	_, c := w.Dims()
	out := mat.NewDense(r, c, nil)
	out.Mul(emb, w)
	return out
}
