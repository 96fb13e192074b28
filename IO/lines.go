package IO

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/WladimirSidorenko/word2vec/params"
	"github.com/WladimirSidorenko/word2vec/vocab"
)

// LineProcessor splits a corpus line into tokens and, for tagged corpora,
// the task labels of that line. One implementation is picked per run.
type LineProcessor interface {
	// Split appends the tokens of line to toks[:0] and fills labels.
	Split(line string, labels *params.Labels, toks []string) ([]string, error)
}

// NewLineProcessor picks the processor matching the task mode.
func NewLineProcessor(mode params.TaskMode) LineProcessor {
	if mode.Tagged() {
		return taggedLines{}
	}
	return plainLines{}
}

// plainLines treats tabs like any other whitespace.
type plainLines struct{}

func (plainLines) Split(line string, labels *params.Labels, toks []string) ([]string, error) {
	labels.Reset(0)
	return tokenize(line, toks[:0]), nil
}

// taggedLines expects "tokens\tlabel label ..." where a label is a class
// index or "_" for a task that does not apply to the line.
type taggedLines struct{}

func (taggedLines) Split(line string, labels *params.Labels, toks []string) ([]string, error) {
	tab := strings.IndexByte(line, '\t')
	if tab < 0 {
		return toks[:0], fmt.Errorf("%w: %q", params.ErrMissingTags, strings.TrimRight(line, "\r\n"))
	}
	if err := ParseTags(line[tab+1:], labels); err != nil {
		return toks[:0], err
	}
	return tokenize(line[:tab], toks[:0]), nil
}

// ParseTags reads the whitespace separated task segment of a line.
func ParseTags(segment string, labels *params.Labels) error {
	fields := strings.Fields(segment)
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty tag segment", params.ErrMissingTags)
	}
	labels.Reset(len(fields))
	for i, f := range fields {
		if f == "_" {
			continue
		}
		l, err := strconv.Atoi(f)
		if err != nil || l < 0 {
			labels.Reset(len(fields))
			return fmt.Errorf("%w: field %d is %q", params.ErrBadTag, i+1, f)
		}
		labels.Values[i] = l
		labels.Active++
	}
	return nil
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// tokenize splits on ASCII whitespace and truncates overlong tokens the same
// way the vocabulary does.
func tokenize(s string, out []string) []string {
	start := -1
	for i := 0; i < len(s); i++ {
		if isSpace(s[i]) {
			if start >= 0 {
				out = append(out, clip(s[start:i]))
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, clip(s[start:]))
	}
	return out
}

func clip(w string) string {
	if len(w) >= vocab.MaxString {
		return w[:vocab.MaxString-1]
	}
	return w
}

// HasContent reports whether a raw line is more than its terminator.
func HasContent(line string) bool {
	return strings.TrimRight(line, "\r\n") != ""
}
