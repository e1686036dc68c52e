package curve

import (
	"sync"
	"time"
)

// The evaluation date is the process-wide "today" that anchors curves built from tenor
// labels. It is only ever changed inside WithEvaluationDate.
var evaluation struct {
	scope sync.Mutex
	mu    sync.RWMutex
	date  time.Time
}

// EvaluationDate returns the current evaluation date (zero outside any scope).
func EvaluationDate() time.Time {
	evaluation.mu.RLock()
	defer evaluation.mu.RUnlock()
	return evaluation.date
}

func setEvaluationDate(d time.Time) time.Time {
	evaluation.mu.Lock()
	defer evaluation.mu.Unlock()
	prev := evaluation.date
	evaluation.date = d
	return prev
}

// WithEvaluationDate sets the evaluation date to d while fn runs and restores the previous
// value afterwards, even when fn panics. Scopes are serialized: a concurrent caller waits
// until the running scope ends. Scopes must not be nested.
func WithEvaluationDate(d time.Time, fn func() error) error {
	evaluation.scope.Lock()
	defer evaluation.scope.Unlock()

	prev := setEvaluationDate(d)
	defer setEvaluationDate(prev)
	return fn()
}
