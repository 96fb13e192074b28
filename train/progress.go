package train

import (
	"sync/atomic"
	"time"
)

// decayEvery is how many tokens a worker processes between learning rate updates.
const decayEvery = 10_000

// minAlphaFraction bounds the decayed learning rate from below.
const minAlphaFraction = 1e-4

// Progress is the approximate number of tokens processed by all workers.
// Workers publish their counts in batches, so readers see a lagging value;
// the learning rate schedule tolerates that.
type Progress struct {
	done    atomic.Int64
	planned float64 // epochs * train words + 1
	started time.Time
}

func newProgress(epochs int, trainWords int64) *Progress {
	return &Progress{planned: float64(int64(epochs)*trainWords + 1), started: time.Now()}
}

// Add publishes n more processed tokens and returns the new total.
func (p *Progress) Add(n int64) int64 { return p.done.Add(n) }

func (p *Progress) Done() int64 { return p.done.Load() }

// Fraction of the planned work done so far.
func (p *Progress) Fraction() float64 { return float64(p.Done()) / p.planned }

// DecayAlpha is the linearly decayed learning rate after done of
// epochs*trainWords tokens, never below minAlphaFraction*start.
func DecayAlpha(start float64, done int64, epochs int, trainWords int64) float64 {
	alpha := start * (1 - float64(done)/float64(int64(epochs)*trainWords+1))
	if floor := start * minAlphaFraction; alpha < floor {
		alpha = floor
	}
	return alpha
}
