package vocab

import (
	"math"
	"sort"
)

const (
	MaxString         = 100 // tokens are truncated to MaxString-1 bytes
	MaxCodeLength     = 40
	MaxSentenceLength = 1000
	VocabHashSize     = 30_000_000 // up to 21M tokens at 0.7 load
	EOS               = "</s>"
)

// Token is a single vocabulary entry. Code and Point are only filled in by
// BuildHuffman.
type Token struct {
	Word  string
	Count int64
	Code  []byte // Huffman code, root to leaf
	Point []int  // internal nodes visited, root to leaf; rows of the HS output layer
}

// Vocabulary keeps tokens in insertion order until Sort, afterwards in
// descending frequency. Index 0 is always EOS.
type Vocabulary struct {
	Tokens     []Token
	TrainWords int64

	hash      []int32
	minReduce int64
}

// New returns a vocabulary whose hash index has hashSize slots.
func New(hashSize int) *Vocabulary {
	if hashSize <= 0 {
		hashSize = VocabHashSize
	}
	v := &Vocabulary{
		Tokens:    make([]Token, 0, 1000),
		hash:      make([]int32, hashSize),
		minReduce: 1,
	}
	v.clearHash()
	v.insert(EOS, 0)
	return v
}

func (v *Vocabulary) Size() int { return len(v.Tokens) }

// Words lists the token strings in index order.
func (v *Vocabulary) Words() []string {
	out := make([]string, len(v.Tokens))
	for i, t := range v.Tokens {
		out[i] = t.Word
	}
	return out
}

// Full reports whether the hash table is past its 0.7 load factor.
func (v *Vocabulary) Full() bool {
	return float64(len(v.Tokens)) > 0.7*float64(len(v.hash))
}

func (v *Vocabulary) hashOf(word string) int {
	var h uint64
	for i := 0; i < len(word); i++ {
		h = h*257 + uint64(word[i])
	}
	return int(h % uint64(len(v.hash)))
}

// Search returns the index of word or -1. At most every slot is probed once.
func (v *Vocabulary) Search(word string) int {
	h := v.hashOf(word)
	for range len(v.hash) {
		idx := v.hash[h]
		if idx == -1 {
			return -1
		}
		if v.Tokens[idx].Word == word {
			return int(idx)
		}
		h = (h + 1) % len(v.hash)
	}
	return -1
}

// Add counts one occurrence of word and returns its index.
func (v *Vocabulary) Add(word string) int {
	if len(word) >= MaxString {
		word = word[:MaxString-1]
	}
	if i := v.Search(word); i >= 0 {
		v.Tokens[i].Count++
		return i
	}
	return v.insert(word, 1)
}

func (v *Vocabulary) insert(word string, count int64) int {
	if len(v.Tokens) >= len(v.hash) {
		// Reduce could not keep up; double the index instead of probing a full table
		v.hash = make([]int32, 2*len(v.hash))
		v.rehash()
	}
	v.Tokens = append(v.Tokens, Token{Word: word, Count: count})
	idx := len(v.Tokens) - 1
	v.place(word, idx)
	return idx
}

func (v *Vocabulary) place(word string, idx int) {
	h := v.hashOf(word)
	for v.hash[h] != -1 {
		h = (h + 1) % len(v.hash)
	}
	v.hash[h] = int32(idx)
}

func (v *Vocabulary) clearHash() {
	for i := range v.hash {
		v.hash[i] = -1
	}
}

func (v *Vocabulary) rehash() {
	v.clearHash()
	for i, t := range v.Tokens {
		v.place(t.Word, i)
	}
}

// Reduce drops every token seen at most minReduce times and raises the
// threshold for the next call. EOS is never dropped.
func (v *Vocabulary) Reduce() {
	kept := v.Tokens[:1]
	for _, t := range v.Tokens[1:] {
		if t.Count > v.minReduce {
			kept = append(kept, t)
		}
	}
	v.Tokens = kept
	v.minReduce++
	v.rehash()
}

// Sort orders tokens by descending count (EOS stays first, ties keep
// insertion order), drops tokens below minCount and recomputes TrainWords.
func (v *Vocabulary) Sort(minCount int) {
	rest := v.Tokens[1:]
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Count > rest[j].Count })

	kept := v.Tokens[:1]
	v.TrainWords = v.Tokens[0].Count
	for _, t := range rest {
		if t.Count < int64(minCount) {
			continue
		}
		kept = append(kept, t)
		v.TrainWords += t.Count
	}
	v.Tokens = kept
	v.rehash()
}

// KeepProbability is the subsampling keep score of a token seen count times.
// Values >= 1 mean the token is always kept. sample <= 0 disables subsampling.
func KeepProbability(count int64, sample float64, trainWords int64) float64 {
	if sample <= 0 || count <= 0 {
		return math.Inf(1)
	}
	st := sample * float64(trainWords)
	c := float64(count)
	return (math.Sqrt(c/st) + 1) * st / c
}
