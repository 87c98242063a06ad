package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udaycodespace/credify/pkg/logger"
	"github.com/udaycodespace/credify/pkg/utilities/timeutil"
)

// Record is implemented by the history record types so a Journal can
// persist them.
type Record interface {
	RecordID() string
	RecordCredentialID() string
	RecordTime() time.Time
}

// Journal is a Log mirrored into an optional Store, plus the lifetime count
// of appended records. Store failures are logged and never undo an append.
type Journal[T Record] struct {
	kind  Kind
	log   *Log[T]
	store Store
	count atomic.Int64
	lg    *logger.Logger

	// mu keeps the store and the append hook in the same order as the log.
	mu       sync.Mutex
	onAppend func(ctx context.Context, rec T)
}

// NewJournal creates a journal. A nil store keeps everything in memory.
func NewJournal[T Record](kind Kind, store Store, clock timeutil.Clock, lg *logger.Logger) *Journal[T] {
	if lg == nil {
		lg = logger.Nop()
	}
	return &Journal[T]{
		kind:  kind,
		log:   NewLog[T](clock),
		store: store,
		lg:    lg,
	}
}

// OnAppend registers fn to run after every append, in history order. It
// must be set before the first append.
func (j *Journal[T]) OnAppend(fn func(ctx context.Context, rec T)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.onAppend = fn
}

// Append stamps and appends a record, persists it and runs the append hook.
func (j *Journal[T]) Append(ctx context.Context, build func(now time.Time) T) T {
	j.mu.Lock()
	defer j.mu.Unlock()

	rec := j.log.Append(build)
	j.count.Add(1)

	// The record is already part of the history, so a caller cancelling
	// now must not cut persistence short.
	ctx = context.WithoutCancel(ctx)
	if j.store != nil {
		if err := j.persist(ctx, rec); err != nil {
			j.lg.Errorf(err, "Could not persist %s record %s", j.kind, rec.RecordID())
		}
	}
	if j.onAppend != nil {
		j.onAppend(ctx, rec)
	}
	return rec
}

func (j *Journal[T]) persist(ctx context.Context, rec T) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	err = j.store.Append(ctx, Entry{
		ID:           rec.RecordID(),
		Kind:         j.kind,
		CredentialID: rec.RecordCredentialID(),
		Payload:      payload,
		Timestamp:    rec.RecordTime(),
	})
	if err != nil {
		return err
	}
	_, err = j.store.Increment(ctx, j.kind)
	return err
}

func (j *Journal[T]) Records() []T {
	return j.log.Records()
}

func (j *Journal[T]) Len() int {
	return j.log.Len()
}

// Count is the number of records ever appended, including cleared ones and
// those restored from the store's counter.
func (j *Journal[T]) Count() int64 {
	return j.count.Load()
}

// Clear empties the history. The count is kept.
func (j *Journal[T]) Clear(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.log.Clear()
	if j.store == nil {
		return
	}
	if err := j.store.Clear(context.WithoutCancel(ctx), j.kind); err != nil {
		j.lg.Errorf(err, "Could not clear persisted %s history", j.kind)
	}
}

// Restore loads persisted records and the lifetime count into a journal
// that has not recorded anything yet. It returns the number of records
// restored.
func (j *Journal[T]) Restore(ctx context.Context) (int, error) {
	if j.store == nil {
		return 0, nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.log.Len() > 0 {
		return 0, nil
	}

	entries, err := j.store.Load(ctx, j.kind)
	if err != nil {
		return 0, fmt.Errorf("load %s history: %w", j.kind, err)
	}
	records := make([]T, 0, len(entries))
	for _, entry := range entries {
		var rec T
		if err := json.Unmarshal(entry.Payload, &rec); err != nil {
			return 0, fmt.Errorf("decode %s record %s: %w", j.kind, entry.ID, err)
		}
		records = append(records, rec)
	}

	count, err := j.store.Counter(ctx, j.kind)
	if err != nil {
		return 0, fmt.Errorf("load %s counter: %w", j.kind, err)
	}

	if !j.log.Restore(records) {
		return 0, nil
	}
	j.count.Store(max(count, int64(len(records))))
	return len(records), nil
}
