package train

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/WladimirSidorenko/word2vec/IO"
	"github.com/WladimirSidorenko/word2vec/params"
	"github.com/WladimirSidorenko/word2vec/utils"
	"github.com/WladimirSidorenko/word2vec/vocab"
)

// worker is the private state of one training goroutine: its shard cursor,
// the sentence being trained, its generator and its view of the learning
// rate. Nothing here is shared.
type worker struct {
	id  int
	t   *Trainer
	rnd *utils.Random
	log logrus.FieldLogger

	start  int64
	reader *bufio.Reader
	budget int64 // tokens per epoch

	toks   []string // current line
	tokPos int
	inLine bool
	labels params.Labels
	sen    []int

	wordCount, lastWordCount int64
	alpha                    float64
	cost                     float64

	neu1, neu1e []float64
}

func (t *Trainer) newWorker(id int) (*worker, error) {
	start, err := t.corpus.LineStart(int64(id) * t.corpus.Size() / int64(t.cfg.Threads))
	if err != nil {
		return nil, err
	}
	w := &worker{
		id:     id,
		t:      t,
		rnd:    utils.NewRandom(uint64(t.cfg.Seed) + uint64(id)),
		log:    t.log.WithField("worker", id),
		start:  start,
		budget: t.vocab.TrainWords / int64(t.cfg.Threads),
		sen:    make([]int, 0, vocab.MaxSentenceLength),
		alpha:  t.cfg.Alpha,
		neu1:   make([]float64, t.cfg.Dim),
		neu1e:  make([]float64, t.cfg.Dim),
	}
	w.rewind()
	return w, nil
}

func (w *worker) rewind() {
	w.reader = w.t.corpus.Reader(w.start)
	w.toks = w.toks[:0]
	w.tokPos = 0
	w.inLine = false
	w.wordCount, w.lastWordCount = 0, 0
	w.cost = 0
}

func (w *worker) run(ctx context.Context) error {
	for epoch := 0; epoch < w.t.cfg.Epochs; epoch++ {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			if w.wordCount-w.lastWordCount > decayEvery {
				w.decay()
			}
			ok, err := w.nextSentence()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			w.trainSentence()
		}
		w.publish()
		w.t.metrics.Epochs.Inc()
		w.log.WithFields(logrus.Fields{"epoch": epoch + 1, "cost": w.cost}).Debug("epoch done")
		w.rewind()
	}
	return nil
}

// publish hands the locally counted tokens to the shared progress.
func (w *worker) publish() float64 {
	delta := w.wordCount - w.lastWordCount
	w.lastWordCount = w.wordCount
	done := w.t.progress.Add(delta)
	frac := float64(done) / w.t.progress.planned
	w.t.metrics.observe(w.id, delta, w.alpha, frac)
	return frac
}

func (w *worker) decay() {
	frac := w.publish()
	if alpha := DecayAlpha(w.t.cfg.Alpha, w.t.progress.Done(), w.t.cfg.Epochs, w.t.vocab.TrainWords); alpha < w.alpha {
		w.alpha = alpha
	}
	if w.t.cfg.Debug > 1 {
		secs := time.Since(w.t.progress.started).Seconds() + 1e-9
		w.log.Debugf("Alpha: %f  Progress: %.2f%%  Words/thread/sec: %.2fk",
			w.alpha, frac*100, float64(w.t.progress.Done())/float64(w.t.cfg.Threads)/secs/1000)
	}
}

// nextSentence fills w.sen with the next run of kept tokens. A sentence ends
// at the end of a line or at MaxSentenceLength tokens. It returns false when
// the shard is exhausted for this epoch: at EOF or once the worker has read
// more than its share of tokens, even in the middle of a line.
func (w *worker) nextSentence() (bool, error) {
	w.sen = w.sen[:0]
	if w.wordCount > w.budget {
		return false, nil
	}
	v := w.t.vocab
	for {
		if w.tokPos == len(w.toks) {
			if w.inLine {
				w.inLine = false
				w.wordCount++ // end of line is an EOS occurrence
				if len(w.sen) > 0 {
					return true, nil
				}
			}
			if w.wordCount > w.budget {
				return false, nil
			}
			ok, err := w.readLine()
			if err != nil || !ok {
				return false, err
			}
			continue
		}
		tok := w.toks[w.tokPos]
		w.tokPos++
		idx := v.Search(tok)
		if idx < 0 {
			continue
		}
		w.wordCount++
		if idx == 0 {
			if len(w.sen) > 0 {
				return true, nil
			}
			continue
		}
		if w.t.cfg.Sample > 0 {
			keep := vocab.KeepProbability(v.Tokens[idx].Count, w.t.cfg.Sample, v.TrainWords)
			if keep < w.rnd.Float() {
				continue
			}
		}
		w.sen = append(w.sen, idx)
		if len(w.sen) >= vocab.MaxSentenceLength {
			return true, nil
		}
	}
}

// readLine loads the tokens and labels of the next line with content.
func (w *worker) readLine() (bool, error) {
	for {
		line, err := w.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, fmt.Errorf("%w: reading corpus: %v", params.ErrResource, err)
		}
		if IO.HasContent(line) {
			toks, perr := w.t.lines.Split(line, &w.labels, w.toks)
			w.toks = toks
			if perr != nil {
				return false, perr
			}
			if w.t.cfg.Mode.Tagged() && len(w.labels.Values) != w.t.tasks.NTasks {
				return false, fmt.Errorf("%w: got %d tasks, expected %d", params.ErrTaskCount, len(w.labels.Values), w.t.tasks.NTasks)
			}
			if w.t.cfg.Mode == params.TaskOnly && w.labels.Active == 0 {
				w.toks = w.toks[:0]
				w.wordCount++
				continue
			}
			w.tokPos = 0
			w.inLine = true
			return true, nil
		}
		if err == io.EOF {
			return false, nil
		}
	}
}

func (w *worker) trainSentence() {
	mode := w.t.cfg.Mode
	for pos, word := range w.sen {
		if mode.Tagged() {
			w.cost += w.trainTasks(word)
		}
		if mode.UsesWord2Vec() {
			w.cost += w.trainWord2Vec(pos, word)
		}
	}
}
