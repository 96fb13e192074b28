package vocab

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/WladimirSidorenko/word2vec/utils"
)

func fill(v *Vocabulary, counts map[string]int, order []string) {
	for _, w := range order {
		for i := 0; i < counts[w]; i++ {
			v.Add(w)
		}
	}
}

func TestAddSearch(t *testing.T) {
	v := New(1024)
	require.Equal(t, 0, v.Search(EOS))
	a := v.Add("a")
	assert.Equal(t, a, v.Add("a"))
	assert.Equal(t, int64(2), v.Tokens[a].Count)
	assert.Equal(t, -1, v.Search("missing"))

	long := strings.Repeat("x", 250)
	i := v.Add(long)
	assert.Len(t, v.Tokens[i].Word, MaxString-1)
	assert.Equal(t, i, v.Search(long[:MaxString-1]))
}

func TestSortKeepsSentinelAndMinCount(t *testing.T) {
	v := New(1024)
	fill(v, map[string]int{"rare": 1, "mid": 3, "top": 7, "low": 2},
		[]string{"rare", "mid", "top", "low"})
	v.Sort(3)

	require.Equal(t, EOS, v.Tokens[0].Word)
	words := []string{}
	for _, tok := range v.Tokens[1:] {
		assert.GreaterOrEqual(t, tok.Count, int64(3))
		words = append(words, tok.Word)
	}
	assert.Equal(t, []string{"top", "mid"}, words)
	assert.Equal(t, int64(10), v.TrainWords)
	assert.Equal(t, -1, v.Search("rare"))
	assert.Equal(t, 1, v.Search("top"))
}

func TestSortTiesKeepInsertionOrder(t *testing.T) {
	v := New(1024)
	for _, w := range strings.Fields("a b a c b c b a") {
		v.Add(w)
	}
	v.Sort(1)
	got := []string{}
	for _, tok := range v.Tokens {
		got = append(got, tok.Word)
	}
	assert.Equal(t, []string{EOS, "a", "b", "c"}, got)
}

func TestReduceKeepsSentinel(t *testing.T) {
	v := New(16)
	v.Add("x")
	v.Add("y")
	v.Add("y")
	for i := 0; !v.Full(); i++ {
		v.Add(strings.Repeat("z", i+1))
	}
	v.Reduce()
	require.Equal(t, EOS, v.Tokens[0].Word)
	assert.Equal(t, -1, v.Search("x"))
	assert.Equal(t, 1, v.Search("y"))
	assert.False(t, v.Full())

	// threshold grows with every pass
	v.Reduce()
	assert.Equal(t, -1, v.Search("y"))
	assert.Equal(t, 0, v.Search(EOS))
}

func huffmanVocab(t *testing.T) *Vocabulary {
	v := New(1024)
	counts := map[string]int{"a": 40, "b": 23, "c": 17, "d": 11, "e": 7, "f": 5, "g": 3, "h": 2}
	fill(v, counts, []string{"a", "b", "c", "d", "e", "f", "g", "h"})
	for i := 0; i < 50; i++ {
		v.Tokens[0].Count++
	}
	v.Sort(1)
	require.NoError(t, v.BuildHuffman())
	return v
}

func TestHuffmanPrefixFree(t *testing.T) {
	v := huffmanVocab(t)
	codes := map[string]bool{}
	for _, tok := range v.Tokens {
		require.NotEmpty(t, tok.Code)
		require.Len(t, tok.Point, len(tok.Code))
		require.LessOrEqual(t, len(tok.Code), MaxCodeLength)
		var sb strings.Builder
		for _, b := range tok.Code {
			sb.WriteByte('0' + b)
		}
		codes[sb.String()] = true
		for _, p := range tok.Point {
			assert.True(t, p >= 0 && p < len(v.Tokens)-1)
		}
		assert.Equal(t, len(v.Tokens)-2, tok.Point[0])
	}
	require.Len(t, codes, len(v.Tokens))
	for a := range codes {
		for b := range codes {
			if a != b {
				assert.False(t, strings.HasPrefix(b, a), "%s is a prefix of %s", a, b)
			}
		}
	}
}

func TestHuffmanLengthsFollowFrequency(t *testing.T) {
	v := huffmanVocab(t)
	for i, x := range v.Tokens {
		for j, y := range v.Tokens {
			if i != j && x.Count < y.Count {
				assert.GreaterOrEqual(t, len(x.Code), len(y.Code), "%s vs %s", x.Word, y.Word)
			}
		}
	}
}

func TestHuffmanTinyVocab(t *testing.T) {
	v := New(8)
	v.Sort(1)
	require.NoError(t, v.BuildHuffman())
	assert.Empty(t, v.Tokens[0].Code)
}

func TestUnigramDistribution(t *testing.T) {
	v := New(1024)
	fill(v, map[string]int{"a": 100, "b": 50, "c": 20, "d": 5}, []string{"a", "b", "c", "d"})
	v.Tokens[0].Count = 10
	v.Sort(1)
	tab := NewUnigramTable(v, 1_000_000)

	want := make([]float64, len(v.Tokens))
	for i, tok := range v.Tokens {
		want[i] = math.Pow(float64(tok.Count), 0.75)
	}
	floats.Scale(1/floats.Sum(want), want)

	got := make([]float64, len(v.Tokens))
	r := utils.NewRandom(3)
	const draws = 200_000
	for i := 0; i < draws; i++ {
		idx, _ := tab.Sample(r)
		got[idx]++
	}
	floats.Scale(1.0/draws, got)

	for i := range want {
		assert.InDelta(t, want[i], got[i], 0.01, "token %s", v.Tokens[i].Word)
	}
	assert.Less(t, floats.Distance(want, got, 1), 0.03)
}

func TestKeepProbabilityMonotone(t *testing.T) {
	const total = 1_000_000
	for _, count := range []int64{1, 100, 10_000, 500_000} {
		prev := KeepProbability(count, 1e-6, total)
		for _, s := range []float64{1e-5, 1e-4, 1e-3, 1e-2} {
			p := KeepProbability(count, s, total)
			assert.Greater(t, p, prev, "count=%d sample=%g", count, s)
			prev = p
		}
	}
	assert.True(t, math.IsInf(KeepProbability(10, 0, total), 1))
	// frequent tokens are kept less often than rare ones
	assert.Less(t, KeepProbability(500_000, 1e-3, total), KeepProbability(10, 1e-3, total))
}

func TestFullHashTableGrows(t *testing.T) {
	v := New(1)
	assert.Equal(t, -1, v.Search("a"), "lookup in a full table must terminate")

	words := []string{"a", "b", "c", "d", "e"}
	for _, w := range words {
		v.Add(w)
	}
	v.Add("c")
	require.Equal(t, len(words)+1, v.Size())
	for i, w := range words {
		assert.Equal(t, i+1, v.Search(w))
	}
	assert.Equal(t, int64(2), v.Tokens[v.Search("c")].Count)
	assert.Equal(t, -1, v.Search("zzz"))
}

func TestReduceKeepingEveryTokenStillTerminates(t *testing.T) {
	v := New(4)
	for _, w := range []string{"a", "b", "c"} {
		v.Add(w)
		v.Add(w)
	}
	require.True(t, v.Full())
	v.Reduce() // every count is above the threshold
	require.Equal(t, 4, v.Size())

	v.Add("d")
	v.Add("e")
	assert.Equal(t, 4, v.Search("d"))
	assert.Equal(t, 5, v.Search("e"))
	assert.Equal(t, -1, v.Search("f"))
}
