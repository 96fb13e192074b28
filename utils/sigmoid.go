package utils

import "math"

const (
	TableSize = 1000 // samples of the sigmoid over [-MaxExp, MaxExp]
	MaxExp    = 6
)

// SigmoidTable is a precomputed approximation of 1/(1+e^-x).
// Read only after construction; safe for concurrent use.
type SigmoidTable struct {
	values []float64
}

func NewSigmoidTable() *SigmoidTable {
	t := &SigmoidTable{values: make([]float64, TableSize+1)}
	for i := 0; i <= TableSize; i++ {
		e := math.Exp((float64(i)/TableSize*2 - 1) * MaxExp)
		t.values[i] = e / (e + 1)
	}
	return t
}

// Saturated reports whether f lies outside the tabulated range. What to do
// with a saturated score is up to the caller.
func Saturated(f float64) bool {
	return f <= -MaxExp || f >= MaxExp
}

// Lookup returns σ(f) for the nearest sample. Indices outside the table are
// clamped to its ends.
func (t *SigmoidTable) Lookup(f float64) float64 {
	i := int((f + MaxExp) * (TableSize / MaxExp / 2.0))
	if i < 0 {
		i = 0
	} else if i > TableSize {
		i = TableSize
	}
	return t.values[i]
}
