package vocab

import (
	"fmt"
	"math"
)

// BuildHuffman assigns a binary code and the path of internal nodes to every
// token. Tokens must already be sorted, so leaves come in descending count
// order and the two cheapest nodes can be found with two moving cursors.
// Internal node n (0 <= n < V-1) is stored at virtual position V+n.
func (v *Vocabulary) BuildHuffman() error {
	n := len(v.Tokens)
	if n < 2 {
		for i := range v.Tokens {
			v.Tokens[i].Code = nil
			v.Tokens[i].Point = nil
		}
		return nil
	}
	count := make([]int64, 2*n-1)
	binary := make([]byte, 2*n-1)
	parent := make([]int, 2*n-1)
	for i, t := range v.Tokens {
		count[i] = t.Count
	}
	for i := n; i < 2*n-1; i++ {
		count[i] = math.MaxInt64
	}

	pos1, pos2 := n-1, n
	pick := func() int {
		if pos1 >= 0 && count[pos1] < count[pos2] {
			pos1--
			return pos1 + 1
		}
		pos2++
		return pos2 - 1
	}
	for a := 0; a < n-1; a++ {
		min1 := pick()
		min2 := pick()
		count[n+a] = count[min1] + count[min2]
		parent[min1] = n + a
		parent[min2] = n + a
		binary[min2] = 1
	}

	root := 2*n - 2
	code := make([]byte, 0, MaxCodeLength)
	point := make([]int, 0, MaxCodeLength)
	for a := 0; a < n; a++ {
		code, point = code[:0], point[:0]
		for b := a; b != root; b = parent[b] {
			code = append(code, binary[b])
			point = append(point, parent[b]-n)
		}
		if len(code) > MaxCodeLength {
			return fmt.Errorf("huffman code of %q has %d bits, limit is %d", v.Tokens[a].Word, len(code), MaxCodeLength)
		}
		l := len(code)
		t := &v.Tokens[a]
		t.Code = make([]byte, l)
		t.Point = make([]int, l)
		for i := 0; i < l; i++ {
			t.Code[l-1-i] = code[i]
			t.Point[l-1-i] = point[i]
		}
	}
	return nil
}
