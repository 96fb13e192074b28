package utils

// Random is the linear congruential generator used throughout training.
// Each worker owns one; it is not safe for concurrent use.
type Random struct {
	next uint64
}

func NewRandom(seed uint64) *Random {
	return &Random{next: seed}
}

// Next advances the generator and returns the new state.
func (r *Random) Next() uint64 {
	r.next = r.next*25214903917 + 11
	return r.next
}

// Float returns a value in [0, 1) built from the low 16 bits of the next state.
func (r *Random) Float() float64 {
	return float64(r.Next()&0xFFFF) / 65536
}

// RandomArray returns size samples from U(-0.5/dim, 0.5/dim).
func RandomArray(size, dim int, r *Random) []float64 {
	out := make([]float64, size)
	for i := range out {
		out[i] = (r.Float() - 0.5) / float64(dim)
	}
	return out
}
