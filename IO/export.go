package IO

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/WladimirSidorenko/word2vec/params"
	"github.com/WladimirSidorenko/word2vec/utils"
	"github.com/WladimirSidorenko/word2vec/vocab"
)

// SaveEmbeddings writes one row of emb per vocabulary token in the word2vec
// format: a "rows dim" header, then each token followed by its vector, either
// as text or as little endian float32 values.
func SaveEmbeddings(w io.Writer, v *vocab.Vocabulary, emb *mat.Dense, asBinary bool) error {
	rows, dim := emb.Dims()
	if rows != v.Size() {
		return fmt.Errorf("embedding matrix has %d rows, vocabulary has %d tokens", rows, v.Size())
	}
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d %d\n", rows, dim); err != nil {
		return err
	}
	buf4 := make([]byte, 4)
	line := make([]byte, 0, 16*dim)
	for i, tok := range v.Tokens {
		line = append(line[:0], tok.Word...)
		line = append(line, ' ')
		for _, x := range emb.RawRowView(i) {
			if asBinary {
				binary.LittleEndian.PutUint32(buf4, math.Float32bits(float32(x)))
				line = append(line, buf4...)
			} else {
				line = strconv.AppendFloat(line, x, 'f', 6, 64)
				line = append(line, ' ')
			}
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveEmbeddingsFile writes emb to path. The file only appears once it is
// complete.
func SaveEmbeddingsFile(path string, v *vocab.Vocabulary, emb *mat.Dense, asBinary bool) error {
	return writeFile(path, func(w io.Writer) error { return SaveEmbeddings(w, v, emb, asBinary) })
}

// SaveVocab writes "token count" lines in vocabulary order.
func SaveVocab(w io.Writer, v *vocab.Vocabulary) error {
	bw := bufio.NewWriter(w)
	for _, tok := range v.Tokens {
		if _, err := fmt.Fprintf(bw, "%s %d\n", tok.Word, tok.Count); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func SaveVocabFile(path string, v *vocab.Vocabulary) error {
	return writeFile(path, func(w io.Writer) error { return SaveVocab(w, v) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := utils.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", params.ErrResource, err)
	}
	if err := write(f); err != nil {
		f.Abort()
		return fmt.Errorf("%w: writing %s: %v", params.ErrResource, path, err)
	}
	if err := f.Commit(); err != nil {
		return fmt.Errorf("%w: %v", params.ErrResource, err)
	}
	return nil
}
