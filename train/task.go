package train

import (
	"github.com/WladimirSidorenko/word2vec/utils"
)

// trainTasks runs one one-vs-rest logistic step per active task of the
// current line: the embedding of word and the classifier row of the observed
// label are pulled towards each other.
func (w *worker) trainTasks(word int) float64 {
	net := w.t.net
	emb := net.TaskEmbeddings().RawRowView(word)
	alpha := w.alpha
	var cost float64

	seen := 0
	for task, label := range w.labels.Values {
		if seen == w.labels.Active {
			break
		}
		if label < 0 {
			continue
		}
		seen++
		weights := net.Vec2Task[task]
		if rows, _ := weights.Dims(); label >= rows {
			continue
		}
		row := weights.RawRowView(label)

		net.Lock()
		f := utils.Dot(emb, row)
		if f > utils.MaxExp {
			net.Unlock()
			continue
		}
		if f < -utils.MaxExp {
			f = -utils.MaxExp
		}
		g := 1 - w.t.sig.Lookup(f)
		cost += g
		g *= alpha
		for c, e := range emb {
			emb[c] += g * row[c]
			row[c] += g * e
		}
		net.Unlock()
	}
	return cost
}
