package model

import (
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/WladimirSidorenko/word2vec/params"
	"github.com/WladimirSidorenko/word2vec/utils"
)

// Network owns every weight matrix of one training run. All matrices are
// row-major with one row per token / tree node / class and Dim columns.
//
// Workers mutate the matrices concurrently; every read-modify-write of a
// shared row must happen between Lock and Unlock.
type Network struct {
	Dim int

	Syn0     *mat.Dense   // input embeddings, V x Dim
	Syn1     *mat.Dense   // hierarchical softmax output layer, (V-1) x Dim
	Syn1Neg  *mat.Dense   // negative sampling output layer, V x Dim
	TaskSyn0 *mat.Dense   // isolated task embeddings, V x Dim
	Vec2Task []*mat.Dense // per task classifier weights, classes x Dim

	Mode params.TaskMode

	mu sync.Mutex
}

// NewNetwork allocates and initialises the matrices required by cfg for a
// vocabulary of vocabSize tokens and the given tasks.
func NewNetwork(vocabSize int, tasks *params.MultiTask, cfg params.TrainingConfig) *Network {
	dim := cfg.Dim
	r := utils.NewRandom(uint64(cfg.Seed) + 1)
	n := &Network{Dim: dim, Mode: cfg.Mode}

	if cfg.Mode.Tagged() && tasks != nil {
		n.Vec2Task = make([]*mat.Dense, tasks.NTasks)
		for i, classes := range tasks.MaxClasses {
			// a task never seen active still gets one row so the matrix exists
			rows := max(classes, 1)
			n.Vec2Task[i] = mat.NewDense(rows, dim, utils.RandomArray(rows*dim, dim, r))
		}
	}
	if cfg.Mode == params.TaskIsolated {
		n.TaskSyn0 = mat.NewDense(vocabSize, dim, utils.RandomArray(vocabSize*dim, dim, r))
	}

	n.Syn0 = mat.NewDense(vocabSize, dim, utils.RandomArray(vocabSize*dim, dim, r))
	if cfg.Mode.UsesWord2Vec() {
		if cfg.HS {
			n.Syn1 = mat.NewDense(max(vocabSize-1, 1), dim, nil)
		}
		if cfg.Negative > 0 {
			n.Syn1Neg = mat.NewDense(vocabSize, dim, nil)
		}
	}
	return n
}

// TaskEmbeddings is the matrix the task classifiers are trained against.
func (n *Network) TaskEmbeddings() *mat.Dense {
	if n.Mode == params.TaskIsolated {
		return n.TaskSyn0
	}
	return n.Syn0
}

func (n *Network) Lock()   { n.mu.Lock() }
func (n *Network) Unlock() { n.mu.Unlock() }
