package train

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/WladimirSidorenko/word2vec/IO"
	"github.com/WladimirSidorenko/word2vec/model"
	"github.com/WladimirSidorenko/word2vec/params"
	"github.com/WladimirSidorenko/word2vec/utils"
	"github.com/WladimirSidorenko/word2vec/vocab"
)

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func baseConfig() params.TrainingConfig {
	cfg := params.Defaults
	cfg.Dim = 8
	cfg.Epochs = 1
	cfg.MinCount = 1
	cfg.Threads = 1
	cfg.Sample = 0
	cfg.HashSize = 4096
	cfg.UnigramTableSize = 10_000
	cfg.Debug = 0
	return cfg
}

func corpusOf(s string) *IO.Corpus {
	return IO.NewCorpus(strings.NewReader(s), int64(len(s)))
}

// syntheticCorpus returns lines of words drawn from a skewed small vocabulary.
func syntheticCorpus(lines, perLine int) string {
	r := utils.NewRandom(42)
	var sb strings.Builder
	for i := 0; i < lines; i++ {
		for j := 0; j < perLine; j++ {
			f := r.Float()
			k := int(f * f * 30)
			if j > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "w%d", k)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

type setup struct {
	vocab   *vocab.Vocabulary
	tasks   *params.MultiTask
	net     *model.Network
	trainer *Trainer
}

func prepare(t *testing.T, text string, cfg params.TrainingConfig, opts ...Option) setup {
	t.Helper()
	c := corpusOf(text)
	v, tasks, _, err := IO.LearnVocab(c, cfg, quietLog())
	require.NoError(t, err)
	net := model.NewNetwork(v.Size(), tasks, cfg)
	opts = append([]Option{WithLogger(quietLog())}, opts...)
	tr, err := NewTrainer(cfg, v, tasks, net, c, opts...)
	require.NoError(t, err)
	return setup{vocab: v, tasks: tasks, net: net, trainer: tr}
}

func finite(t *testing.T, m *mat.Dense) {
	t.Helper()
	data := m.RawMatrix().Data
	require.False(t, floats.HasNaN(data))
	for _, x := range data {
		require.False(t, math.IsInf(x, 0))
	}
}

func TestTwoLineSkipGram(t *testing.T) {
	cfg := baseConfig()
	cfg.Dim = 2
	cfg.CBOW = false
	cfg.Negative = 1
	s := prepare(t, "a b a c\nb c b a\n", cfg)

	require.NoError(t, s.trainer.Run(context.Background()))

	got := []string{}
	for _, tok := range s.vocab.Tokens {
		got = append(got, tok.Word)
	}
	assert.Equal(t, []string{vocab.EOS, "a", "b", "c"}, got)
	r, c := s.net.Syn0.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 2, c)
	finite(t, s.net.Syn0)
	finite(t, s.net.Syn1Neg)
	assert.Greater(t, s.trainer.Progress().Done(), int64(0))
}

func TestSingleThreadDeterminism(t *testing.T) {
	text := syntheticCorpus(200, 12)
	for _, cbow := range []bool{true, false} {
		cfg := baseConfig()
		cfg.CBOW = cbow
		cfg.HS = true
		cfg.Negative = 3
		cfg.Sample = 1e-2
		cfg.Epochs = 2
		cfg.Seed = 5

		a := prepare(t, text, cfg)
		b := prepare(t, text, cfg)
		require.NoError(t, a.trainer.Run(context.Background()))
		require.NoError(t, b.trainer.Run(context.Background()))

		assert.True(t, mat.Equal(a.net.Syn0, b.net.Syn0), "cbow=%v", cbow)
		assert.True(t, mat.Equal(a.net.Syn1, b.net.Syn1), "cbow=%v", cbow)
		assert.True(t, mat.Equal(a.net.Syn1Neg, b.net.Syn1Neg), "cbow=%v", cbow)

		fresh := model.NewNetwork(a.vocab.Size(), nil, cfg)
		assert.False(t, mat.Equal(fresh.Syn0, a.net.Syn0), "training must move the embeddings")
	}
}

func TestMultiThreadRun(t *testing.T) {
	cfg := baseConfig()
	cfg.Threads = 4
	cfg.HS = true
	cfg.Epochs = 3
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	s := prepare(t, syntheticCorpus(400, 10), cfg, WithMetrics(m))

	require.NoError(t, s.trainer.Run(context.Background()))
	finite(t, s.net.Syn0)
	finite(t, s.net.Syn1)
	assert.Equal(t, float64(cfg.Threads*cfg.Epochs), testutil.ToFloat64(m.Epochs))
	assert.Greater(t, testutil.ToFloat64(m.Tokens), 0.0)
	assert.Equal(t, float64(s.trainer.Progress().Done()), testutil.ToFloat64(m.Tokens))
}

func TestTaskModeUpdatesOnlyActiveTasks(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = params.TaskOnly
	cfg.HS, cfg.Negative = false, 0
	s := prepare(t, "a b\t1 _\n", cfg)

	require.Equal(t, 2, s.tasks.NTasks)
	require.Equal(t, []int{2, 0}, s.tasks.MaxClasses)
	task0 := mat.DenseCopyOf(s.net.Vec2Task[0])
	task1 := mat.DenseCopyOf(s.net.Vec2Task[1])
	syn0 := mat.DenseCopyOf(s.net.Syn0)

	require.NoError(t, s.trainer.Run(context.Background()))

	assert.True(t, mat.Equal(task1, s.net.Vec2Task[1]), "inactive task must not change")
	assert.Equal(t, task0.RawRowView(0), s.net.Vec2Task[0].RawRowView(0), "unobserved label must not change")
	assert.NotEqual(t, task0.RawRowView(1), s.net.Vec2Task[0].RawRowView(1))
	assert.False(t, mat.Equal(syn0, s.net.Syn0))
	assert.Nil(t, s.net.Syn1Neg)
}

func TestIsolatedModeLeavesWord2VecEmbeddingsToWord2Vec(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = params.TaskIsolated
	cfg.Negative = 2
	s := prepare(t, "a b c\t0\nb c a\t1\n", cfg)
	taskSyn0 := mat.DenseCopyOf(s.net.TaskSyn0)

	require.NoError(t, s.trainer.Run(context.Background()))
	assert.False(t, mat.Equal(taskSyn0, s.net.TaskSyn0))
	finite(t, s.net.TaskSyn0)
	finite(t, s.net.Syn0)
}

func TestMalformedTagDuringTraining(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = params.TaskJoint
	good := "a b\t1\n"
	v, tasks, _, err := IO.LearnVocab(corpusOf(good), cfg, quietLog())
	require.NoError(t, err)
	net := model.NewNetwork(v.Size(), tasks, cfg)
	tr, err := NewTrainer(cfg, v, tasks, net, corpusOf(good+"a b\tX\n"), WithLogger(quietLog()))
	require.NoError(t, err)

	err = tr.Run(context.Background())
	assert.ErrorIs(t, err, params.ErrBadTag)
	assert.ErrorIs(t, err, params.ErrFormat)
}

func TestSentenceAssembly(t *testing.T) {
	cfg := baseConfig()
	long := strings.TrimSpace(strings.Repeat("x y ", 600))
	s := prepare(t, "x y\n"+long+"\n\ny\n", cfg)
	w, err := s.trainer.newWorker(0)
	require.NoError(t, err)

	sizes := []int{}
	for {
		ok, err := w.nextSentence()
		require.NoError(t, err)
		if !ok {
			break
		}
		sizes = append(sizes, len(w.sen))
		for _, idx := range w.sen {
			assert.NotZero(t, idx)
		}
	}
	assert.Equal(t, []int{2, vocab.MaxSentenceLength, 200, 1}, sizes)
	// every token plus one EOS per non-empty line
	assert.Equal(t, s.vocab.TrainWords, w.wordCount)
}

func TestTaskOnlySkipsLinesWithoutActiveTasks(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = params.TaskOnly
	cfg.HS, cfg.Negative = false, 0
	s := prepare(t, "a b\t0\na a\t_\nb\t0\n", cfg)
	w, err := s.trainer.newWorker(0)
	require.NoError(t, err)

	var got [][]int
	for {
		ok, err := w.nextSentence()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, append([]int(nil), w.sen...))
		assert.Equal(t, 1, w.labels.Active)
	}
	assert.Len(t, got, 2)
}

func TestShardStartsAtLineBoundary(t *testing.T) {
	cfg := baseConfig()
	cfg.Threads = 3
	text := syntheticCorpus(50, 7)
	s := prepare(t, text, cfg)
	for id := 0; id < cfg.Threads; id++ {
		w, err := s.trainer.newWorker(id)
		require.NoError(t, err)
		assert.True(t, w.start == 0 || text[w.start-1] == '\n', "worker %d starts at %d", id, w.start)
		assert.LessOrEqual(t, w.start, int64(id)*int64(len(text))/int64(cfg.Threads))
	}
}

func TestDecayAlpha(t *testing.T) {
	const start = 0.025
	prev := math.Inf(1)
	for done := int64(0); done <= 3_000_000; done += 50_000 {
		a := DecayAlpha(start, done, 2, 1_000_000)
		assert.LessOrEqual(t, a, prev)
		assert.GreaterOrEqual(t, a, start*minAlphaFraction)
		prev = a
	}
	assert.Equal(t, start*minAlphaFraction, DecayAlpha(start, 5_000_000, 2, 1_000_000))
	assert.InDelta(t, start, DecayAlpha(start, 0, 2, 1_000_000), 1e-12)
}

func TestWorkerAlphaNeverIncreases(t *testing.T) {
	cfg := baseConfig()
	cfg.Epochs = 2
	s := prepare(t, syntheticCorpus(3000, 10), cfg)
	w, err := s.trainer.newWorker(0)
	require.NoError(t, err)

	floor := cfg.Alpha * minAlphaFraction
	prev := w.alpha
	decays := 0
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		for {
			if w.wordCount-w.lastWordCount > decayEvery {
				w.decay()
				decays++
				require.LessOrEqual(t, w.alpha, prev)
				require.GreaterOrEqual(t, w.alpha, floor)
				prev = w.alpha
			}
			ok, err := w.nextSentence()
			require.NoError(t, err)
			if !ok {
				break
			}
			w.trainSentence()
		}
		w.publish()
		w.rewind()
	}
	assert.Greater(t, decays, 2)
	assert.Less(t, w.alpha, cfg.Alpha)
}

func TestSingleLineCorpusIsSharded(t *testing.T) {
	cfg := baseConfig()
	cfg.Threads = 4
	text := strings.ReplaceAll(syntheticCorpus(1, 5000), "\n", "") + "\n"
	s := prepare(t, text, cfg)

	for id := 0; id < cfg.Threads; id++ {
		w, err := s.trainer.newWorker(id)
		require.NoError(t, err)
		require.Zero(t, w.start)
		for {
			ok, err := w.nextSentence()
			require.NoError(t, err)
			if !ok {
				break
			}
		}
		assert.LessOrEqual(t, w.wordCount, w.budget+vocab.MaxSentenceLength+1, "worker %d", id)
		assert.Greater(t, w.wordCount, w.budget, "worker %d", id)
	}

	require.NoError(t, s.trainer.Run(context.Background()))
	limit := s.vocab.TrainWords + int64(cfg.Threads*(vocab.MaxSentenceLength+1))
	assert.LessOrEqual(t, s.trainer.Progress().Done(), limit)
}
