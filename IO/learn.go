package IO

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/WladimirSidorenko/word2vec/params"
	"github.com/WladimirSidorenko/word2vec/vocab"
)

// VocabBuilder accumulates token counts and task statistics line by line.
// A line that fails to parse leaves both untouched.
type VocabBuilder struct {
	Vocab *vocab.Vocabulary
	Tasks *params.MultiTask
	Lines int64

	mode   params.TaskMode
	lines  LineProcessor
	labels params.Labels
	toks   []string
}

func NewVocabBuilder(cfg params.TrainingConfig) *VocabBuilder {
	return &VocabBuilder{
		Vocab: vocab.New(cfg.HashSize),
		Tasks: &params.MultiTask{},
		mode:  cfg.Mode,
		lines: NewLineProcessor(cfg.Mode),
	}
}

// ProcessLine counts the tokens of one raw line (terminator included or not).
func (b *VocabBuilder) ProcessLine(line string) error {
	b.Lines++
	if !HasContent(line) {
		return nil
	}
	var err error
	b.toks, err = b.lines.Split(line, &b.labels, b.toks)
	if err != nil {
		return fmt.Errorf("line %d: %w", b.Lines, err)
	}
	if b.mode.Tagged() {
		if err := b.Tasks.Observe(b.labels.Values); err != nil {
			return fmt.Errorf("line %d: %w", b.Lines, err)
		}
	}
	b.Vocab.Add(vocab.EOS)
	if b.mode == params.TaskOnly && b.labels.Active == 0 {
		return nil
	}
	for _, t := range b.toks {
		b.Vocab.Add(t)
		if b.Vocab.Full() {
			b.Vocab.Reduce()
		}
	}
	return nil
}

// Finish sorts the vocabulary, applies the minimum count and assigns
// Huffman codes.
func (b *VocabBuilder) Finish(minCount int) error {
	b.Vocab.Sort(minCount)
	return b.Vocab.BuildHuffman()
}

// LearnVocab reads the whole corpus once and returns the finished
// vocabulary, the task descriptor and the corpus size in bytes.
func LearnVocab(c *Corpus, cfg params.TrainingConfig, log logrus.FieldLogger) (*vocab.Vocabulary, *params.MultiTask, int64, error) {
	b := NewVocabBuilder(cfg)
	r := c.Reader(0)
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			if perr := b.ProcessLine(line); perr != nil {
				return nil, nil, 0, perr
			}
			if b.Lines%100_000 == 0 {
				log.Debugf("%dK lines read", b.Lines/1000)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, 0, fmt.Errorf("%w: reading %s: %v", params.ErrResource, c.Name(), err)
		}
	}
	if err := b.Finish(cfg.MinCount); err != nil {
		return nil, nil, 0, err
	}
	log.WithFields(logrus.Fields{
		"vocab_size":  b.Vocab.Size(),
		"train_words": b.Vocab.TrainWords,
		"tasks":       b.Tasks.NTasks,
	}).Info("vocabulary learned")
	return b.Vocab, b.Tasks, c.Size(), nil
}
