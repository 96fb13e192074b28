package train

import (
	"github.com/WladimirSidorenko/word2vec/utils"
)

// maxNegativeDraws bounds the redraws of a negative sample that keeps
// hitting the center token; after that the sample is dropped.
const maxNegativeDraws = 8

// trainWord2Vec applies one CBOW or skip-gram step for the token at pos.
func (w *worker) trainWord2Vec(pos, word int) float64 {
	window := w.t.cfg.Window
	b := int(w.rnd.Next() % uint64(window))
	if w.t.cfg.CBOW {
		return w.cbow(pos, word, window, b)
	}
	return w.skipGram(pos, word, window, b)
}

// context calls fn with the sentence index of every context position of
// pos inside the shrunk window [pos-window+b, pos+window-b].
func (w *worker) context(pos, window, b int, fn func(c int)) {
	for a := b; a < window*2+1-b; a++ {
		if a == window {
			continue
		}
		c := pos - window + a
		if c < 0 || c >= len(w.sen) {
			continue
		}
		fn(c)
	}
}

func (w *worker) cbow(pos, word, window, b int) float64 {
	net := w.t.net
	utils.Zero(w.neu1)
	utils.Zero(w.neu1e)

	cw := 0
	net.Lock()
	w.context(pos, window, b, func(c int) {
		utils.Axpy(1, net.Syn0.RawRowView(w.sen[c]), w.neu1)
		cw++
	})
	net.Unlock()
	if cw == 0 {
		return 0
	}
	utils.Scal(1/float64(cw), w.neu1)

	cost := w.outputStep(w.neu1, word)

	w.context(pos, window, b, func(c int) {
		net.Lock()
		utils.Axpy(1, w.neu1e, net.Syn0.RawRowView(w.sen[c]))
		net.Unlock()
	})
	return cost
}

func (w *worker) skipGram(pos, word, window, b int) float64 {
	net := w.t.net
	var cost float64
	w.context(pos, window, b, func(c int) {
		l1 := net.Syn0.RawRowView(w.sen[c])
		utils.Zero(w.neu1e)
		cost += w.outputStep(l1, word)
		net.Lock()
		utils.Axpy(1, w.neu1e, l1)
		net.Unlock()
	})
	return cost
}

// outputStep predicts word from the hidden vector h through hierarchical
// softmax and/or negative sampling. Output rows are updated in place and the
// error for h is accumulated into w.neu1e. h is either w.neu1 or a row of
// Syn0, so it is only read under the lock.
func (w *worker) outputStep(h []float64, word int) float64 {
	t := w.t
	net := t.net
	alpha := w.alpha
	var cost float64

	if t.cfg.HS {
		tok := &t.vocab.Tokens[word]
		for d, node := range tok.Point {
			l2 := net.Syn1.RawRowView(node)
			net.Lock()
			f := utils.Dot(h, l2)
			if !utils.Saturated(f) {
				g := 1 - float64(tok.Code[d]) - t.sig.Lookup(f)
				cost += g
				g *= alpha
				utils.Axpy(g, l2, w.neu1e)
				utils.Axpy(g, h, l2)
			}
			net.Unlock()
		}
	}

	if t.cfg.Negative > 0 && t.table != nil && t.vocab.Size() > 1 {
		for d := 0; d <= t.cfg.Negative; d++ {
			target, label := word, 1.0
			if d > 0 {
				if target = w.negative(word); target < 0 {
					continue
				}
				label = 0
			}
			l2 := net.Syn1Neg.RawRowView(target)
			net.Lock()
			f := utils.Dot(h, l2)
			var g float64
			switch {
			case f > utils.MaxExp:
				g = (label - 1) * alpha
			case f < -utils.MaxExp:
				g = label * alpha
			default:
				e := label - t.sig.Lookup(f)
				cost += e
				g = e * alpha
			}
			utils.Axpy(g, l2, w.neu1e)
			utils.Axpy(g, h, l2)
			net.Unlock()
		}
	}
	return cost
}

// negative draws a token other than word from the unigram table, or -1 if
// every draw collided with word. Draws of EOS are remapped to a uniform
// non-sentinel token.
func (w *worker) negative(word int) int {
	n := uint64(w.t.vocab.Size() - 1)
	for i := 0; i < maxNegativeDraws; i++ {
		target, next := w.t.table.Sample(w.rnd)
		if target == 0 {
			target = int(next%n) + 1
		}
		if target != word {
			return target
		}
	}
	return -1
}
