package params

import "fmt"

// Inactive marks a task that has no label on the current line.
const Inactive = -1

// MultiTask describes the classification tasks found in a tagged corpus.
// NTasks is fixed by the first tagged line; MaxClasses[i] is the number of
// classes of task i (highest label seen plus one).
type MultiTask struct {
	NTasks     int
	MaxClasses []int
}

// Observe folds one line's labels into the descriptor.
func (m *MultiTask) Observe(labels []int) error {
	if m.MaxClasses == nil {
		m.NTasks = len(labels)
		m.MaxClasses = make([]int, len(labels))
	} else if len(labels) != m.NTasks {
		return fmt.Errorf("%w: got %d tasks, expected %d", ErrTaskCount, len(labels), m.NTasks)
	}
	for i, l := range labels {
		if l != Inactive && l+1 > m.MaxClasses[i] {
			m.MaxClasses[i] = l + 1
		}
	}
	return nil
}

// Labels holds the task labels of the line a worker is currently training on.
type Labels struct {
	Values []int // Inactive or a class index, one per task
	Active int   // number of entries that are not Inactive
}

// Reset marks every task inactive.
func (l *Labels) Reset(n int) {
	if cap(l.Values) < n {
		l.Values = make([]int, n)
	}
	l.Values = l.Values[:n]
	for i := range l.Values {
		l.Values[i] = Inactive
	}
	l.Active = 0
}
