package model

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/WladimirSidorenko/word2vec/params"
	"github.com/WladimirSidorenko/word2vec/utils"
)

// Gob checkpoint of a Network. Absent matrices are stored with zero rows.

type matrixData struct {
	R, C int
	Data []float64
}

type networkData struct {
	Dim      int
	Mode     params.TaskMode
	Syn0     matrixData
	Syn1     matrixData
	Syn1Neg  matrixData
	TaskSyn0 matrixData
	Vec2Task []matrixData

	// Vocab in row order, so a checkpoint can be exported on its own.
	Vocab []string
}

func dump(m *mat.Dense) matrixData {
	if m == nil {
		return matrixData{}
	}
	r, c := m.Dims()
	return matrixData{R: r, C: c, Data: append([]float64(nil), m.RawMatrix().Data...)}
}

func restore(d matrixData) *mat.Dense {
	if d.R == 0 || d.C == 0 {
		return nil
	}
	return mat.NewDense(d.R, d.C, d.Data)
}

// Save writes the network and the token strings of its rows.
func (n *Network) Save(w io.Writer, tokens []string) error {
	n.Lock()
	defer n.Unlock()
	data := networkData{
		Dim:      n.Dim,
		Mode:     n.Mode,
		Syn0:     dump(n.Syn0),
		Syn1:     dump(n.Syn1),
		Syn1Neg:  dump(n.Syn1Neg),
		TaskSyn0: dump(n.TaskSyn0),
		Vocab:    tokens,
	}
	for _, m := range n.Vec2Task {
		data.Vec2Task = append(data.Vec2Task, dump(m))
	}
	return gob.NewEncoder(w).Encode(&data)
}

// Load reads a checkpoint written by Save.
func Load(r io.Reader) (*Network, []string, error) {
	var data networkData
	if err := gob.NewDecoder(r).Decode(&data); err != nil {
		return nil, nil, fmt.Errorf("decoding checkpoint: %w", err)
	}
	n := &Network{
		Dim:      data.Dim,
		Mode:     data.Mode,
		Syn0:     restore(data.Syn0),
		Syn1:     restore(data.Syn1),
		Syn1Neg:  restore(data.Syn1Neg),
		TaskSyn0: restore(data.TaskSyn0),
	}
	for _, d := range data.Vec2Task {
		n.Vec2Task = append(n.Vec2Task, restore(d))
	}
	return n, data.Vocab, nil
}

func (n *Network) SaveFile(path string, tokens []string) error {
	f, err := utils.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", params.ErrResource, err)
	}
	if err := n.Save(f, tokens); err != nil {
		f.Abort()
		return fmt.Errorf("%w: writing %s: %v", params.ErrResource, path, err)
	}
	if err := f.Commit(); err != nil {
		return fmt.Errorf("%w: %v", params.ErrResource, err)
	}
	return nil
}

func LoadFile(path string) (*Network, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", params.ErrResource, err)
	}
	defer f.Close()
	return Load(f)
}
