// Package history keeps the append-only, completion-ordered logs owned by the
// verifier and the disclosure manager, and the stores that persist them.
package history

import (
	"sync"
	"time"

	"github.com/udaycodespace/credify/pkg/utilities/timeutil"
)

// Log is an ordered, append-only sequence of records. The only way to
// remove records is Clear, which drops all of them.
//
// Append stamps each record while holding the lock, so timestamps are
// non-decreasing in the order records were appended (completion order).
type Log[T any] struct {
	mu      sync.RWMutex
	records []T
	clock   timeutil.Clock
}

func NewLog[T any](clock timeutil.Clock) *Log[T] {
	if clock == nil {
		clock = timeutil.SystemClock
	}
	return &Log[T]{clock: timeutil.Monotonic(clock)}
}

// Append builds a record with the current time and appends it.
func (l *Log[T]) Append(build func(now time.Time) T) T {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec := build(l.clock())
	l.records = append(l.records, rec)
	return rec
}

// Restore appends previously persisted records. It only fills an empty
// log; a log that already holds records is left untouched.
func (l *Log[T]) Restore(records []T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.records) > 0 {
		return false
	}
	l.records = append(l.records, records...)
	return true
}

// Records returns a copy of the log in completion order.
func (l *Log[T]) Records() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, len(l.records))
	copy(out, l.records)
	return out
}

func (l *Log[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

func (l *Log[T]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
}
