package IO

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/WladimirSidorenko/word2vec/params"
)

// Corpus is random access to the training text. Workers open independent
// readers at byte offsets, so the underlying io.ReaderAt must allow
// concurrent ReadAt calls (os.File and strings.Reader do).
type Corpus struct {
	r      io.ReaderAt
	size   int64
	closer io.Closer
	name   string
}

// OpenCorpus opens a training file.
func OpenCorpus(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: training data file: %v", params.ErrResource, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", params.ErrResource, path, err)
	}
	return &Corpus{r: f, size: st.Size(), closer: f, name: path}, nil
}

// NewCorpus wraps an in-memory or already opened source.
func NewCorpus(r io.ReaderAt, size int64) *Corpus {
	return &Corpus{r: r, size: size, name: "<reader>"}
}

func (c *Corpus) Size() int64  { return c.size }
func (c *Corpus) Name() string { return c.name }

func (c *Corpus) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// Reader returns a buffered reader positioned at offset.
func (c *Corpus) Reader(offset int64) *bufio.Reader {
	return bufio.NewReaderSize(io.NewSectionReader(c.r, offset, c.size-offset), 1<<16)
}

// LineStart returns the offset of the first byte of the line containing pos.
func (c *Corpus) LineStart(pos int64) (int64, error) {
	if pos <= 0 {
		return 0, nil
	}
	if pos > c.size {
		pos = c.size
	}
	buf := make([]byte, 4096)
	end := pos
	for end > 0 {
		start := end - int64(len(buf))
		if start < 0 {
			start = 0
		}
		chunk := buf[:end-start]
		if _, err := c.r.ReadAt(chunk, start); err != nil && err != io.EOF {
			return 0, fmt.Errorf("%w: seeking line start: %v", params.ErrResource, err)
		}
		if i := bytes.LastIndexByte(chunk, '\n'); i >= 0 {
			return start + int64(i) + 1, nil
		}
		end = start
	}
	return 0, nil
}
