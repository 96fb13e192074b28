package params

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
)

// TaskMode selects how the per-token task classifiers are trained.
type TaskMode int

const (
	// TaskNone trains plain word2vec embeddings; tabs are ordinary whitespace.
	TaskNone TaskMode = iota
	// TaskOnly trains the classifiers against Syn0 without the word2vec loss.
	TaskOnly
	// TaskJoint trains the classifiers and the word2vec loss on the same Syn0.
	TaskJoint
	// TaskIsolated trains the classifiers against a separate embedding matrix.
	TaskIsolated
)

func (m TaskMode) String() string {
	switch m {
	case TaskNone:
		return "none"
	case TaskOnly:
		return "task-only"
	case TaskJoint:
		return "joint"
	case TaskIsolated:
		return "isolated"
	}
	return fmt.Sprintf("TaskMode(%d)", int(m))
}

// Tagged reports whether corpus lines carry a tab separated task segment.
func (m TaskMode) Tagged() bool { return m != TaskNone }

// UsesWord2Vec reports whether the CBOW / skip-gram loss is trained.
func (m TaskMode) UsesWord2Vec() bool { return m != TaskOnly }

// ModeFromFlags turns the three mutually exclusive CLI switches into a TaskMode.
func ModeFromFlags(taskOnly, joint, isolated bool) (TaskMode, error) {
	n := 0
	mode := TaskNone
	if taskOnly {
		n++
		mode = TaskOnly
	}
	if joint {
		n++
		mode = TaskJoint
	}
	if isolated {
		n++
		mode = TaskIsolated
	}
	if n > 1 {
		return TaskNone, fmt.Errorf("%w: task-only, joint and isolated modes are mutually exclusive", ErrConfig)
	}
	return mode, nil
}

type TrainingConfig struct {
	TrainFile  string `mapstructure:"train"`
	OutputFile string `mapstructure:"output"`
	SaveVocab  string `mapstructure:"save-vocab"`
	Checkpoint string `mapstructure:"checkpoint"`

	Dim    int     `mapstructure:"size"`   // embedding width
	Epochs int     `mapstructure:"iter"`   // passes over each shard
	Alpha  float64 `mapstructure:"alpha"`  // starting learning rate
	Sample float64 `mapstructure:"sample"` // subsampling threshold, <=0 disables

	CBOW     bool `mapstructure:"cbow"`
	HS       bool `mapstructure:"hs"`
	Negative int  `mapstructure:"negative"` // negative draws per positive, 0 disables
	Window   int  `mapstructure:"window"`
	MinCount int  `mapstructure:"min-count"`
	Threads  int  `mapstructure:"threads"` // <=0 means one per logical CPU
	Binary   bool `mapstructure:"binary"`
	Debug    int  `mapstructure:"debug"` // 0 quiet, 1 summary, 2 progress

	Mode  TaskMode `mapstructure:"-"`
	Align bool     `mapstructure:"align"` // least-squares mapping after isolated training

	Seed             int64 `mapstructure:"seed"`
	HashSize         int   `mapstructure:"hash-size"`
	UnigramTableSize int   `mapstructure:"table-size"`
}

// MinHashSize is the smallest vocabulary hash table Validate accepts.
const MinHashSize = 1 << 10

// Defaults mirror the original command line tool.
var Defaults = TrainingConfig{
	Dim:    100,
	Epochs: 5,
	Alpha:  0.025,
	Sample: 1e-3,

	CBOW:     true,
	HS:       false,
	Negative: 5,
	Window:   5,
	MinCount: 5,
	Threads:  12,
	Debug:    2,

	HashSize:         30_000_000,
	UnigramTableSize: 100_000_000,
}

// Validate checks the configuration and resolves Threads when it is unset.
func (c *TrainingConfig) Validate() error {
	if c.Dim <= 0 {
		return fmt.Errorf("%w: embedding size must be positive, got %d", ErrConfig, c.Dim)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("%w: iter must be positive, got %d", ErrConfig, c.Epochs)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %d", ErrConfig, c.Window)
	}
	if c.Alpha <= 0 {
		return fmt.Errorf("%w: alpha must be positive, got %g", ErrConfig, c.Alpha)
	}
	if c.Sample < 0 {
		return fmt.Errorf("%w: sample must not be negative, got %g", ErrConfig, c.Sample)
	}
	if c.Negative < 0 {
		return fmt.Errorf("%w: negative must not be negative, got %d", ErrConfig, c.Negative)
	}
	if c.MinCount < 0 {
		return fmt.Errorf("%w: min-count must not be negative, got %d", ErrConfig, c.MinCount)
	}
	if c.Mode.UsesWord2Vec() && !c.HS && c.Negative == 0 {
		return fmt.Errorf("%w: either hierarchical softmax or negative sampling must be enabled", ErrConfig)
	}
	if c.Align && c.Mode != TaskIsolated {
		return fmt.Errorf("%w: align requires the isolated task mode", ErrConfig)
	}
	if c.HashSize <= 0 {
		c.HashSize = Defaults.HashSize
	}
	if c.HashSize < MinHashSize {
		return fmt.Errorf("%w: hash-size must be at least %d, got %d", ErrConfig, MinHashSize, c.HashSize)
	}
	if c.UnigramTableSize <= 0 {
		c.UnigramTableSize = Defaults.UnigramTableSize
	}
	if c.Threads <= 0 {
		n, err := cpu.Counts(true)
		if err != nil || n <= 0 {
			n = 1
		}
		c.Threads = n
	}
	return nil
}
