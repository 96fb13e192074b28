package train

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/WladimirSidorenko/word2vec/IO"
	"github.com/WladimirSidorenko/word2vec/model"
	"github.com/WladimirSidorenko/word2vec/params"
	"github.com/WladimirSidorenko/word2vec/utils"
	"github.com/WladimirSidorenko/word2vec/vocab"
)

// Trainer runs the asynchronous SGD workers over a corpus. Everything except
// the Network is read only once Run starts.
type Trainer struct {
	cfg    params.TrainingConfig
	vocab  *vocab.Vocabulary
	tasks  *params.MultiTask
	net    *model.Network
	corpus *IO.Corpus

	sig   *utils.SigmoidTable
	table *vocab.UnigramTable
	lines IO.LineProcessor

	progress *Progress
	metrics  *Metrics
	log      logrus.FieldLogger
}

type Option func(*Trainer)

func WithLogger(l logrus.FieldLogger) Option {
	return func(t *Trainer) { t.log = l }
}

func WithMetrics(m *Metrics) Option {
	return func(t *Trainer) { t.metrics = m }
}

// NewTrainer prepares the read only tables for a run. cfg must already be
// validated.
func NewTrainer(cfg params.TrainingConfig, v *vocab.Vocabulary, tasks *params.MultiTask,
	net *model.Network, corpus *IO.Corpus, opts ...Option) (*Trainer, error) {
	if cfg.Threads <= 0 {
		return nil, fmt.Errorf("%w: thread count must be resolved before training", params.ErrConfig)
	}
	if tasks == nil {
		tasks = &params.MultiTask{}
	}
	t := &Trainer{
		cfg:      cfg,
		vocab:    v,
		tasks:    tasks,
		net:      net,
		corpus:   corpus,
		sig:      utils.NewSigmoidTable(),
		lines:    IO.NewLineProcessor(cfg.Mode),
		progress: newProgress(cfg.Epochs, v.TrainWords),
		log:      logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(t)
	}
	if t.metrics == nil {
		t.metrics = NewMetrics(nil)
	}
	if cfg.Mode.UsesWord2Vec() && cfg.Negative > 0 {
		t.table = vocab.NewUnigramTable(v, cfg.UnigramTableSize)
	}
	t.log = t.log.WithField("run", uuid.NewString())
	return t, nil
}

func (t *Trainer) Progress() *Progress { return t.progress }

// Run trains until every worker has finished its epochs. The first worker
// error stops the others at their next sentence and is returned.
func (t *Trainer) Run(ctx context.Context) error {
	t.log.WithFields(logrus.Fields{
		"corpus":  t.corpus.Name(),
		"threads": t.cfg.Threads,
		"mode":    t.cfg.Mode.String(),
		"cbow":    t.cfg.CBOW,
		"hs":      t.cfg.HS,
		"neg":     t.cfg.Negative,
	}).Info("starting training")

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for id := 0; id < t.cfg.Threads; id++ {
		g.Go(func() error {
			w, err := t.newWorker(id)
			if err != nil {
				return err
			}
			return w.run(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	t.log.WithFields(logrus.Fields{
		"tokens":  t.progress.Done(),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("training finished")
	return nil
}
