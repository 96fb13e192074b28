package utils

import "gonum.org/v1/gonum/blas/blas64"

// Helpers over single matrix rows (as returned by mat.Dense.RawRowView).

func vec(x []float64) blas64.Vector {
	return blas64.Vector{N: len(x), Inc: 1, Data: x}
}

func Dot(x, y []float64) float64 {
	return blas64.Dot(vec(x), vec(y))
}

// Axpy computes y += a*x.
func Axpy(a float64, x, y []float64) {
	blas64.Axpy(a, vec(x), vec(y))
}

func Scal(a float64, x []float64) {
	blas64.Scal(a, vec(x))
}

func Zero(x []float64) {
	for i := range x {
		x[i] = 0
	}
}
