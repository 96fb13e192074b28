package vocab

import (
	"math"

	"github.com/WladimirSidorenko/word2vec/utils"
)

const (
	UnigramTableSize = 100_000_000
	unigramPower     = 0.75
)

// UnigramTable maps uniformly drawn slots to token indices with probability
// proportional to count^0.75. It is read only after construction.
type UnigramTable struct {
	table []int32
}

// NewUnigramTable fills a table of size slots from v's counts.
func NewUnigramTable(v *Vocabulary, size int) *UnigramTable {
	if size <= 0 {
		size = UnigramTableSize
	}
	n := len(v.Tokens)
	t := &UnigramTable{table: make([]int32, size)}
	var norm float64
	for _, tok := range v.Tokens {
		norm += math.Pow(float64(tok.Count), unigramPower)
	}
	if norm == 0 {
		return t
	}
	i := 0
	d1 := math.Pow(float64(v.Tokens[i].Count), unigramPower) / norm
	for a := range t.table {
		t.table[a] = int32(i)
		if float64(a)/float64(size) > d1 && i < n-1 {
			i++
			d1 += math.Pow(float64(v.Tokens[i].Count), unigramPower) / norm
		}
	}
	return t
}

func (t *UnigramTable) Len() int { return len(t.table) }

// At returns the token index stored in slot i.
func (t *UnigramTable) At(i int) int { return int(t.table[i]) }

// Sample draws a token index. The slot comes from bits 16 and up of the
// generator state; next is that same state, returned for callers that need to
// remap a draw.
func (t *UnigramTable) Sample(r *utils.Random) (idx int, next uint64) {
	next = r.Next()
	return int(t.table[(next>>16)%uint64(len(t.table))]), next
}
